package interfaces

import (
	"context"

	"github.com/m-mizutani/pagewright/pkg/domain/model"
)

// GitHubClient defines repository operations on behalf of a single owner
type GitHubClient interface {
	// Owner returns the account that owns created repositories
	Owner() string

	// CreateRepository creates a public, empty repository
	CreateRepository(ctx context.Context, name, description string) (*model.Repository, error)

	// GetRepository looks up an existing repository. Absence is an ErrTagNotFound error
	GetRepository(ctx context.Context, name string) (*model.Repository, error)

	// GetFileSHA returns the blob SHA of path on branch. found is false when the file does not exist
	GetFileSHA(ctx context.Context, repo, path, branch string) (sha string, found bool, err error)

	// CreateFile commits a new file
	CreateFile(ctx context.Context, repo, path, branch, message string, content []byte) error

	// UpdateFile commits new content for an existing file identified by its current SHA
	UpdateFile(ctx context.Context, repo, path, branch, message string, content []byte, sha string) error

	// LatestCommitSHA returns the head commit SHA of branch
	LatestCommitSHA(ctx context.Context, repo, branch string) (string, error)

	// EnablePages turns on Pages hosting and returns the HTTP status of the request
	EnablePages(ctx context.Context, repo, branch, path string) (int, error)
}
