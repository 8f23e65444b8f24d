package github

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
)

type client struct {
	githubClient *github.Client
	owner        string
}

type options struct {
	baseURL   string
	transport http.RoundTripper
}

// Option configures the GitHub client
type Option func(*options)

// WithBaseURL points the client at another API endpoint, e.g. GitHub Enterprise or a test server
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithTransport sets the underlying HTTP transport
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

func buildOptions(opts []Option) *options {
	o := &options{transport: http.DefaultTransport}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewClient creates a GitHub client authenticated with a personal access token.
// Repositories are created under the token owner's account.
func NewClient(owner, token string, opts ...Option) (interfaces.GitHubClient, error) {
	if owner == "" {
		return nil, goerr.New("GitHub username is required")
	}
	if token == "" {
		return nil, goerr.New("GitHub token is required")
	}

	o := buildOptions(opts)
	githubClient := github.NewClient(&http.Client{Transport: o.transport}).WithAuthToken(token)
	return newClient(githubClient, owner, o)
}

// NewAppClient creates a GitHub client with App installation authentication
func NewAppClient(owner string, appID, installationID int64, privateKey []byte, opts ...Option) (interfaces.GitHubClient, error) {
	if owner == "" {
		return nil, goerr.New("GitHub username is required")
	}

	o := buildOptions(opts)
	itr, err := ghinstallation.New(o.transport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport",
			goerr.V("app_id", appID),
			goerr.V("installation_id", installationID))
	}
	if o.baseURL != "" {
		itr.BaseURL = strings.TrimRight(o.baseURL, "/")
	}

	githubClient := github.NewClient(&http.Client{Transport: itr})
	return newClient(githubClient, owner, o)
}

func newClient(githubClient *github.Client, owner string, o *options) (*client, error) {
	if o.baseURL != "" {
		u, err := url.Parse(strings.TrimRight(o.baseURL, "/") + "/")
		if err != nil {
			return nil, goerr.Wrap(err, "invalid GitHub API base URL", goerr.V("base_url", o.baseURL))
		}
		githubClient.BaseURL = u
	}

	return &client{
		githubClient: githubClient,
		owner:        owner,
	}, nil
}

func (c *client) Owner() string {
	return c.owner
}

func (c *client) toModel(repo *github.Repository) *model.Repository {
	owner := repo.GetOwner().GetLogin()
	if owner == "" {
		owner = c.owner
	}
	return &model.Repository{
		Owner:   owner,
		Name:    repo.GetName(),
		HTMLURL: repo.GetHTMLURL(),
	}
}

func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

// CreateRepository creates a public repository without an initial commit
func (c *client) CreateRepository(ctx context.Context, name, description string) (*model.Repository, error) {
	repo, _, err := c.githubClient.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.Ptr(name),
		Description: github.Ptr(description),
		Private:     github.Ptr(false),
		AutoInit:    github.Ptr(false),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create repository",
			goerr.V("owner", c.owner),
			goerr.V("repo", name))
	}
	return c.toModel(repo), nil
}

func (c *client) GetRepository(ctx context.Context, name string) (*model.Repository, error) {
	repo, resp, err := c.githubClient.Repositories.Get(ctx, c.owner, name)
	if err != nil {
		if isNotFound(resp) {
			return nil, goerr.Wrap(err, "repository not found",
				goerr.T(types.ErrTagNotFound),
				goerr.V("owner", c.owner),
				goerr.V("repo", name))
		}
		return nil, goerr.Wrap(err, "failed to get repository",
			goerr.V("owner", c.owner),
			goerr.V("repo", name))
	}
	return c.toModel(repo), nil
}

// GetFileSHA treats only 404 as absence; every other failure is an error
func (c *client) GetFileSHA(ctx context.Context, repo, path, branch string) (string, bool, error) {
	file, _, resp, err := c.githubClient.Repositories.GetContents(ctx, c.owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: branch,
	})
	if err != nil {
		if isNotFound(resp) {
			return "", false, nil
		}
		return "", false, goerr.Wrap(err, "failed to get file",
			goerr.V("repo", repo),
			goerr.V("path", path),
			goerr.V("branch", branch))
	}
	if file == nil {
		return "", false, goerr.New("path is a directory",
			goerr.V("repo", repo),
			goerr.V("path", path))
	}
	return file.GetSHA(), true, nil
}

func (c *client) CreateFile(ctx context.Context, repo, path, branch, message string, content []byte) error {
	_, _, err := c.githubClient.Repositories.CreateFile(ctx, c.owner, repo, path, &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
		Branch:  github.Ptr(branch),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create file",
			goerr.V("repo", repo),
			goerr.V("path", path))
	}
	return nil
}

func (c *client) UpdateFile(ctx context.Context, repo, path, branch, message string, content []byte, sha string) error {
	_, _, err := c.githubClient.Repositories.UpdateFile(ctx, c.owner, repo, path, &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
		SHA:     github.Ptr(sha),
		Branch:  github.Ptr(branch),
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update file",
			goerr.V("repo", repo),
			goerr.V("path", path),
			goerr.V("sha", sha))
	}
	return nil
}

func (c *client) LatestCommitSHA(ctx context.Context, repo, branch string) (string, error) {
	commits, _, err := c.githubClient.Repositories.ListCommits(ctx, c.owner, repo, &github.CommitsListOptions{
		SHA:         branch,
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to list commits",
			goerr.V("repo", repo),
			goerr.V("branch", branch))
	}
	if len(commits) == 0 {
		return "", goerr.New("branch has no commits",
			goerr.V("repo", repo),
			goerr.V("branch", branch))
	}
	return commits[0].GetSHA(), nil
}

// EnablePages returns the response status even when the API reports an error,
// so callers can accept 409 (already enabled)
func (c *client) EnablePages(ctx context.Context, repo, branch, path string) (int, error) {
	_, resp, err := c.githubClient.Repositories.EnablePages(ctx, c.owner, repo, &github.Pages{
		Source: &github.PagesSource{
			Branch: github.Ptr(branch),
			Path:   github.Ptr(path),
		},
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if err != nil {
		return status, goerr.Wrap(err, "failed to enable pages",
			goerr.V("repo", repo),
			goerr.V("status", status))
	}
	return status, nil
}
