package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
	"github.com/m-mizutani/pagewright/pkg/usecase"
)

type fileWrite struct {
	Repo    string
	Path    string
	Branch  string
	Message string
	Content string
	SHA     string
}

// MockGitHubClient is an in-memory implementation of GitHubClient
type MockGitHubClient struct {
	mu sync.Mutex

	owner    string
	repos    map[string]map[string]string // repo -> path -> content
	commits  map[string]string
	created  []string
	creates  []fileWrite
	updates  []fileWrite
	pagesFor []string

	pagesStatus   int
	failWrites    map[string]error
	latestErr     error
	createRepoErr error
}

func newMockGitHubClient() *MockGitHubClient {
	return &MockGitHubClient{
		owner:       "octocat",
		repos:       map[string]map[string]string{},
		commits:     map[string]string{},
		pagesStatus: http.StatusCreated,
		failWrites:  map[string]error{},
	}
}

func (m *MockGitHubClient) Owner() string { return m.owner }

func (m *MockGitHubClient) CreateRepository(ctx context.Context, name, description string) (*model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createRepoErr != nil {
		return nil, m.createRepoErr
	}
	if _, ok := m.repos[name]; ok {
		return nil, errors.New("name already exists on this account")
	}
	m.repos[name] = map[string]string{}
	m.created = append(m.created, name)
	return &model.Repository{Owner: m.owner, Name: name, HTMLURL: "https://github.com/" + m.owner + "/" + name}, nil
}

func (m *MockGitHubClient) GetRepository(ctx context.Context, name string) (*model.Repository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.repos[name]; !ok {
		return nil, goerr.New("repository not found", goerr.T(types.ErrTagNotFound))
	}
	return &model.Repository{Owner: m.owner, Name: name}, nil
}

func (m *MockGitHubClient) GetFileSHA(ctx context.Context, repo, path, branch string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.repos[repo][path]; ok {
		return "sha-" + path, true, nil
	}
	return "", false, nil
}

func (m *MockGitHubClient) CreateFile(ctx context.Context, repo, path, branch, message string, content []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrites[path]; err != nil {
		return err
	}
	m.repos[repo][path] = string(content)
	m.commits[repo] = "commit-" + path
	m.creates = append(m.creates, fileWrite{Repo: repo, Path: path, Branch: branch, Message: message, Content: string(content)})
	return nil
}

func (m *MockGitHubClient) UpdateFile(ctx context.Context, repo, path, branch, message string, content []byte, sha string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failWrites[path]; err != nil {
		return err
	}
	m.repos[repo][path] = string(content)
	m.commits[repo] = "commit-" + path
	m.updates = append(m.updates, fileWrite{Repo: repo, Path: path, Branch: branch, Message: message, Content: string(content), SHA: sha})
	return nil
}

func (m *MockGitHubClient) LatestCommitSHA(ctx context.Context, repo, branch string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return "", m.latestErr
	}
	return m.commits[repo], nil
}

func (m *MockGitHubClient) EnablePages(ctx context.Context, repo, branch, path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pagesFor = append(m.pagesFor, repo)
	return m.pagesStatus, nil
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
}

func TestPublisher_Publish_Round1(t *testing.T) {
	ctx := context.Background()
	client := newMockGitHubClient()

	pub, err := usecase.NewPublisher(client,
		usecase.WithPagesBaseURL("https://octocat.github.io/"),
		usecase.WithClock(fixedClock),
	)
	gt.NoError(t, err)

	files := model.FileSet{"index.html": "<html></html>", "README.md": "# readme"}
	result, err := pub.Publish(ctx, "hello", 1, files)
	gt.NoError(t, err)

	gt.Value(t, client.created).Equal([]string{"llm-project-hello"})
	gt.Number(t, len(client.creates)).Equal(3)
	gt.Number(t, len(client.updates)).Equal(0)

	license := client.repos["llm-project-hello"]["LICENSE"]
	gt.String(t, license).Contains("MIT License")
	gt.String(t, license).Contains("Copyright (c) 2026 octocat")

	for _, w := range client.creates {
		gt.Value(t, w.Branch).Equal("main")
		gt.Value(t, w.Message).Equal("Round 1: Deploy LLM-generated application")
	}

	gt.False(t, files.Has("LICENSE"))

	gt.Value(t, result.RepoURL).Equal("https://github.com/octocat/llm-project-hello")
	gt.Value(t, result.PagesURL).Equal("https://octocat.github.io/llm-project-hello")
	gt.Value(t, result.CommitSHA).NotEqual("")
	gt.Value(t, client.pagesFor).Equal([]string{"llm-project-hello"})
}

func TestPublisher_Publish_Round2UpdatesExistingFiles(t *testing.T) {
	ctx := context.Background()
	client := newMockGitHubClient()

	pub, err := usecase.NewPublisher(client)
	gt.NoError(t, err)

	_, err = pub.Publish(ctx, "hello", 1, model.FileSet{"index.html": "v1"})
	gt.NoError(t, err)

	client.pagesStatus = http.StatusConflict
	result, err := pub.Publish(ctx, "hello", 2, model.FileSet{"index.html": "v2", "app.js": "run()"})
	gt.NoError(t, err)

	gt.Number(t, len(client.created)).Equal(1)
	gt.Value(t, client.repos["llm-project-hello"]["index.html"]).Equal("v2")
	gt.Value(t, client.repos["llm-project-hello"]["app.js"]).Equal("run()")

	// LICENSE and index.html existed already
	gt.Number(t, len(client.updates)).Equal(2)
	for _, w := range client.updates {
		gt.Value(t, w.SHA).Equal("sha-" + w.Path)
		gt.Value(t, w.Message).Equal("Round 2: Deploy LLM-generated application")
	}

	// default pages base derived from the owner
	gt.Value(t, result.PagesURL).Equal("https://octocat.github.io/llm-project-hello")
	// repository without html_url falls back to the canonical address
	gt.Value(t, result.RepoURL).Equal("https://github.com/octocat/llm-project-hello")
}

func TestPublisher_Publish_Round2WithoutRepository(t *testing.T) {
	ctx := context.Background()
	client := newMockGitHubClient()

	pub, err := usecase.NewPublisher(client)
	gt.NoError(t, err)

	result, err := pub.Publish(ctx, "missing", 2, model.FileSet{"index.html": "x"})
	gt.Error(t, err)
	gt.Value(t, result).Nil()
	gt.True(t, goerr.HasTag(err, types.ErrTagPublish))
	gt.Number(t, len(client.created)).Equal(0)
	gt.Number(t, len(client.creates)).Equal(0)
}

func TestPublisher_Publish_CreateRepositoryFails(t *testing.T) {
	ctx := context.Background()
	client := newMockGitHubClient()
	client.createRepoErr = errors.New("quota exceeded")

	pub, err := usecase.NewPublisher(client)
	gt.NoError(t, err)

	_, err = pub.Publish(ctx, "hello", 1, model.FileSet{"index.html": "x"})
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagPublish))
	gt.String(t, err.Error()).Contains("quota exceeded")
}

func TestPublisher_Publish_PartialWriteFailure(t *testing.T) {
	ctx := context.Background()
	client := newMockGitHubClient()
	client.failWrites["README.md"] = errors.New("conflict")

	pub, err := usecase.NewPublisher(client)
	gt.NoError(t, err)

	result, err := pub.Publish(ctx, "hello", 1, model.FileSet{
		"index.html": "<html></html>",
		"README.md":  "# readme",
		"style.css":  "body{}",
	})
	gt.Error(t, err)
	gt.Value(t, result).Nil()
	gt.True(t, goerr.HasTag(err, types.ErrTagPublish))
	gt.String(t, err.Error()).Contains("conflict")

	// every other file was still written
	repo := client.repos["llm-project-hello"]
	gt.Value(t, repo["index.html"]).Equal("<html></html>")
	gt.Value(t, repo["style.css"]).Equal("body{}")
	gt.True(t, repo["LICENSE"] != "")
	_, hasReadme := repo["README.md"]
	gt.False(t, hasReadme)

	// no hosting without a complete publish
	gt.Number(t, len(client.pagesFor)).Equal(0)
}

func TestPublisher_Publish_NonFatalFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("commit lookup failure yields empty sha", func(t *testing.T) {
		client := newMockGitHubClient()
		client.latestErr = errors.New("git repository is empty")

		pub, err := usecase.NewPublisher(client)
		gt.NoError(t, err)

		result, err := pub.Publish(ctx, "hello", 1, model.FileSet{"index.html": "x"})
		gt.NoError(t, err)
		gt.Value(t, result.CommitSHA).Equal("")
	})

	t.Run("pages failure is only a warning", func(t *testing.T) {
		client := newMockGitHubClient()
		client.pagesStatus = http.StatusUnprocessableEntity

		pub, err := usecase.NewPublisher(client)
		gt.NoError(t, err)

		result, err := pub.Publish(ctx, "hello", 1, model.FileSet{"index.html": "x"})
		gt.NoError(t, err)
		gt.Value(t, result.PagesURL).Equal("https://octocat.github.io/llm-project-hello")
	})
}
