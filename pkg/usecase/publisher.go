package usecase

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
)

//go:embed templates/LICENSE.tmpl
var licenseTemplate string

const (
	defaultRepoPrefix = "llm-project"
	defaultBranch     = "main"
)

type publisher struct {
	client       interfaces.GitHubClient
	repoPrefix   string
	branch       string
	pagesBaseURL string
	now          func() time.Time
	license      *template.Template
}

// PublisherOption configures the publisher
type PublisherOption func(*publisher)

// WithRepoPrefix sets the prefix of derived repository names
func WithRepoPrefix(prefix string) PublisherOption {
	return func(p *publisher) {
		p.repoPrefix = prefix
	}
}

// WithBranch sets the branch files are committed to and Pages is served from
func WithBranch(branch string) PublisherOption {
	return func(p *publisher) {
		p.branch = branch
	}
}

// WithPagesBaseURL sets the base of published site URLs
func WithPagesBaseURL(url string) PublisherOption {
	return func(p *publisher) {
		p.pagesBaseURL = url
	}
}

// WithClock replaces the time source used for the license year
func WithClock(now func() time.Time) PublisherOption {
	return func(p *publisher) {
		p.now = now
	}
}

// NewPublisher creates a Publisher that writes to repositories owned by the client's account
func NewPublisher(client interfaces.GitHubClient, opts ...PublisherOption) (interfaces.Publisher, error) {
	tmpl, err := template.New("license").Parse(licenseTemplate)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse license template")
	}

	p := &publisher{
		client:     client,
		repoPrefix: defaultRepoPrefix,
		branch:     defaultBranch,
		now:        time.Now,
		license:    tmpl,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.pagesBaseURL == "" {
		p.pagesBaseURL = fmt.Sprintf("https://%s.github.io", client.Owner())
	}

	return p, nil
}

// Publish commits files to the task repository and enables Pages hosting.
// Files already written stay on the remote even when a later write fails.
func (p *publisher) Publish(ctx context.Context, task string, round int, files model.FileSet) (*model.DeploymentResult, error) {
	name := model.RepoName(p.repoPrefix, task)
	logger := ctxlog.From(ctx).With("repo", name, "round", round)

	repo, err := p.resolveRepository(ctx, name, task, round)
	if err != nil {
		return nil, err
	}

	license, err := p.renderLicense()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to render license", goerr.T(types.ErrTagPublish))
	}
	files = files.Clone()
	files[model.FileLicense] = license

	message := fmt.Sprintf("Round %d: Deploy LLM-generated application", round)

	var (
		firstErr error
		failed   []string
	)
	for _, path := range files.Names() {
		if err := p.writeFile(ctx, name, path, message, files[path]); err != nil {
			logger.Error("Failed to write file", "path", path, "error", err)
			failed = append(failed, path)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		logger.Debug("Wrote file", "path", path)
	}
	if firstErr != nil {
		return nil, goerr.Wrap(firstErr, "failed to write files",
			goerr.T(types.ErrTagPublish),
			goerr.V("repo", name),
			goerr.V("failed_files", failed),
			goerr.V("written", len(files)-len(failed)))
	}

	commitSHA, err := p.client.LatestCommitSHA(ctx, name, p.branch)
	if err != nil {
		logger.Warn("Failed to get latest commit", "error", err)
		commitSHA = ""
	}

	p.enablePages(ctx, name)

	repoURL := repo.HTMLURL
	if repoURL == "" {
		repoURL = fmt.Sprintf("https://github.com/%s/%s", repo.Owner, repo.Name)
	}

	result := &model.DeploymentResult{
		RepoURL:   repoURL,
		CommitSHA: commitSHA,
		PagesURL:  strings.TrimRight(p.pagesBaseURL, "/") + "/" + name,
	}

	logger.Info("Published repository",
		"repo_url", result.RepoURL,
		"commit_sha", result.CommitSHA,
		"pages_url", result.PagesURL,
		"file_count", len(files),
	)

	return result, nil
}

func (p *publisher) resolveRepository(ctx context.Context, name, task string, round int) (*model.Repository, error) {
	if round == 1 {
		repo, err := p.client.CreateRepository(ctx, name, fmt.Sprintf("LLM-generated project for task %s", task))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository",
				goerr.T(types.ErrTagPublish),
				goerr.V("repo", name))
		}
		return repo, nil
	}

	repo, err := p.client.GetRepository(ctx, name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get repository",
			goerr.T(types.ErrTagPublish),
			goerr.V("repo", name),
			goerr.V("round", round))
	}
	return repo, nil
}

func (p *publisher) writeFile(ctx context.Context, repo, path, message, content string) error {
	sha, found, err := p.client.GetFileSHA(ctx, repo, path, p.branch)
	if err != nil {
		return goerr.Wrap(err, "failed to read current file", goerr.V("path", path))
	}

	if found {
		if err := p.client.UpdateFile(ctx, repo, path, p.branch, message, []byte(content), sha); err != nil {
			return goerr.Wrap(err, "failed to update file", goerr.V("path", path))
		}
		return nil
	}

	if err := p.client.CreateFile(ctx, repo, path, p.branch, message, []byte(content)); err != nil {
		return goerr.Wrap(err, "failed to create file", goerr.V("path", path))
	}
	return nil
}

func (p *publisher) enablePages(ctx context.Context, repo string) {
	logger := ctxlog.From(ctx)

	status, err := p.client.EnablePages(ctx, repo, p.branch, "/")
	switch status {
	case http.StatusCreated:
		logger.Info("Enabled Pages hosting", "repo", repo)
	case http.StatusConflict:
		logger.Info("Pages hosting already enabled", "repo", repo)
	default:
		warn := goerr.New("pages enablement did not succeed",
			goerr.T(types.ErrTagHosting),
			goerr.V("repo", repo),
			goerr.V("status", status))
		if err != nil {
			warn = goerr.Wrap(err, "pages enablement did not succeed",
				goerr.T(types.ErrTagHosting),
				goerr.V("repo", repo),
				goerr.V("status", status))
		}
		logger.Warn("Pages activation warning", "error", warn)
	}
}

func (p *publisher) renderLicense() (string, error) {
	var buf bytes.Buffer
	if err := p.license.Execute(&buf, map[string]any{
		"Year":   p.now().Year(),
		"Holder": p.client.Owner(),
	}); err != nil {
		return "", goerr.Wrap(err, "failed to execute license template")
	}
	return buf.String(), nil
}
