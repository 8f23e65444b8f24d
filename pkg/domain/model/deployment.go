package model

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
)

// Well-known file names in a generated file set
const (
	FileIndex   = "index.html"
	FileReadme  = "README.md"
	FileLicense = "LICENSE"
)

// Attachment is a named file carried inline as a data URI
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"` // data:<mime>;base64,<payload>
}

// Decode returns the raw bytes embedded in the data URI.
// Payloads without a ";base64" header are treated as percent-encoded text.
func (a *Attachment) Decode() ([]byte, error) {
	header, payload, ok := strings.Cut(a.URL, ",")
	if !ok {
		return nil, goerr.New("invalid data URI format",
			goerr.T(types.ErrTagDecode),
			goerr.V("name", a.Name))
	}

	if !strings.HasSuffix(strings.ToLower(header), ";base64") && strings.HasPrefix(header, "data:") {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unescape data URI payload",
				goerr.T(types.ErrTagDecode),
				goerr.V("name", a.Name))
		}
		return []byte(text), nil
	}

	payload = strings.Join(strings.Fields(payload), "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some producers drop the padding
		raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if rawErr != nil {
			return nil, goerr.Wrap(err, "failed to decode base64 payload",
				goerr.T(types.ErrTagDecode),
				goerr.V("name", a.Name))
		}
		data = raw
	}

	return data, nil
}

// DeploymentRequest is an admitted request to generate and publish an application
type DeploymentRequest struct {
	Email         string       `json:"email"`
	Secret        string       `json:"secret" masq:"secret"`
	Task          string       `json:"task"`
	Round         int          `json:"round"`
	Nonce         string       `json:"nonce"`
	Brief         string       `json:"brief"`
	Checks        []string     `json:"checks"`
	Attachments   []Attachment `json:"attachments"`
	EvaluationURL string       `json:"evaluation_url"`
}

// Validate checks the fields required to admit a deployment over HTTP
func (r *DeploymentRequest) Validate() error {
	if err := r.ValidateContent(); err != nil {
		return err
	}
	if strings.TrimSpace(r.Secret) == "" {
		return goerr.New("missing required field",
			goerr.T(types.ErrTagValidation),
			goerr.V("field", "secret"))
	}
	return nil
}

// ValidateContent checks every required field except the shared secret.
// Local runs use it because they never pass through admission.
func (r *DeploymentRequest) ValidateContent() error {
	required := []struct {
		name  string
		value string
	}{
		{"email", r.Email},
		{"task", r.Task},
		{"nonce", r.Nonce},
		{"brief", r.Brief},
		{"evaluation_url", r.EvaluationURL},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return goerr.New("missing required field",
				goerr.T(types.ErrTagValidation),
				goerr.V("field", f.name))
		}
	}

	if r.Round < 1 {
		return goerr.New("round must be 1 or greater",
			goerr.T(types.ErrTagValidation),
			goerr.V("round", r.Round))
	}

	for i, a := range r.Attachments {
		if a.Name == "" {
			return goerr.New("attachment name is empty",
				goerr.T(types.ErrTagValidation),
				goerr.V("index", i))
		}
	}

	return nil
}

// IsCreate reports whether the request is the first round of its task
func (r *DeploymentRequest) IsCreate() bool {
	return r.Round == 1
}

// DeploymentJob is a unit of background work created at admission
type DeploymentJob struct {
	ID         string
	Request    *DeploymentRequest
	ReceivedAt time.Time
}

// FileSet maps a file name to its full text content
type FileSet map[string]string

// Names returns the file names in lexical order
func (fs FileSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the set
func (fs FileSet) Clone() FileSet {
	out := make(FileSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}

// Has reports whether the set contains name
func (fs FileSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// DeploymentResult describes where a published application lives
type DeploymentResult struct {
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// Notification is the payload delivered to the evaluation callback
type Notification struct {
	Email     string `json:"email"`
	Task      string `json:"task"`
	Round     int    `json:"round"`
	Nonce     string `json:"nonce"`
	RepoURL   string `json:"repo_url"`
	CommitSHA string `json:"commit_sha"`
	PagesURL  string `json:"pages_url"`
}

// NewNotification builds the callback payload for a finished deployment
func NewNotification(req *DeploymentRequest, result *DeploymentResult) *Notification {
	return &Notification{
		Email:     req.Email,
		Task:      req.Task,
		Round:     req.Round,
		Nonce:     req.Nonce,
		RepoURL:   result.RepoURL,
		CommitSHA: result.CommitSHA,
		PagesURL:  result.PagesURL,
	}
}

var repoNameReplacer = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// RepoName derives the repository name of a task. Rounds of the same task
// always resolve to the same name.
func RepoName(prefix, task string) string {
	name := repoNameReplacer.ReplaceAllString(strings.TrimSpace(task), "-")
	if name == "" {
		name = "untitled"
	}
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

// Repository is a remote repository on the hosting provider
type Repository struct {
	Owner   string
	Name    string
	HTMLURL string
}
