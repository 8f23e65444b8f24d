package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/pagewright/pkg/infra/github"
	"github.com/m-mizutani/pagewright/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// GitHub holds repository host configuration
type GitHub struct {
	Username       string
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKey     string
	APIBaseURL     string
	RepoPrefix     string
	Branch         string
	PagesBaseURL   string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-username",
			Usage:       "Account that owns generated repositories",
			Required:    true,
			Destination: &c.Username,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_USERNAME"),
		},
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub personal access token",
			Destination: &c.Token,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID, used instead of a token",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_APP_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-api-base-url",
			Usage:       "GitHub API base URL (for GitHub Enterprise)",
			Destination: &c.APIBaseURL,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_API_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "github-repo-prefix",
			Usage:       "Prefix of generated repository names",
			Value:       "llm-project",
			Destination: &c.RepoPrefix,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_REPO_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "github-branch",
			Usage:       "Branch that files are committed to and Pages serves",
			Value:       "main",
			Destination: &c.Branch,
			Sources:     cli.EnvVars("PAGEWRIGHT_GITHUB_BRANCH"),
		},
		&cli.StringFlag{
			Name:        "pages-base-url",
			Usage:       "Base URL of published sites (default https://<username>.github.io)",
			Destination: &c.PagesBaseURL,
			Sources:     cli.EnvVars("PAGEWRIGHT_PAGES_BASE_URL"),
		},
	}
}

func (c *GitHub) clientOptions() []githubinfra.Option {
	var opts []githubinfra.Option
	if c.APIBaseURL != "" {
		opts = append(opts, githubinfra.WithBaseURL(c.APIBaseURL))
	}
	return opts
}

// NewClient creates the GitHub client. App credentials take precedence over a token.
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	if c.AppID != 0 || c.InstallationID != 0 || c.PrivateKey != "" {
		if c.AppID == 0 || c.InstallationID == 0 || c.PrivateKey == "" {
			return nil, goerr.New("GitHub App ID, installation ID and private key must be set together")
		}
		return githubinfra.NewAppClient(c.Username, c.AppID, c.InstallationID, []byte(c.PrivateKey), c.clientOptions()...)
	}

	if c.Token == "" {
		return nil, goerr.New("either --github-token or GitHub App credentials are required")
	}
	return githubinfra.NewClient(c.Username, c.Token, c.clientOptions()...)
}

// PublisherOptions returns publisher settings derived from the flags
func (c *GitHub) PublisherOptions() []usecase.PublisherOption {
	opts := []usecase.PublisherOption{
		usecase.WithRepoPrefix(c.RepoPrefix),
		usecase.WithBranch(c.Branch),
	}
	if c.PagesBaseURL != "" {
		opts = append(opts, usecase.WithPagesBaseURL(c.PagesBaseURL))
	}
	return opts
}
