package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
	"github.com/m-mizutani/pagewright/pkg/usecase"
)

// MockCompletionClient is a mock implementation of CompletionClient
type MockCompletionClient struct {
	completeFunc func(ctx context.Context, prompt string) (string, error)
	prompts      []string
}

func (m *MockCompletionClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.completeFunc != nil {
		return m.completeFunc(ctx, prompt)
	}
	return "", errors.New("mock not configured")
}

func newRequest() *model.DeploymentRequest {
	return &model.DeploymentRequest{
		Email:         "student@example.com",
		Secret:        "s3cret",
		Task:          "hello-task",
		Round:         1,
		Nonce:         "nonce-123",
		Brief:         "Hello World",
		Checks:        []string{"Page shows Hello World", "Has a README"},
		EvaluationURL: "https://example.com/notify",
	}
}

const indexAndReadme = "```filename: index.html\n<!DOCTYPE html><html></html>\n```\n```filename: README.md\n# Hello\n```"

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns parsed files", func(t *testing.T) {
		client := &MockCompletionClient{
			completeFunc: func(ctx context.Context, prompt string) (string, error) {
				return indexAndReadme, nil
			},
		}
		gen, err := usecase.NewGenerator(client)
		gt.NoError(t, err)

		files, err := gen.Generate(ctx, newRequest())
		gt.NoError(t, err)
		gt.Number(t, len(files)).Equal(2)
		gt.Value(t, files["index.html"]).Equal("<!DOCTYPE html><html></html>")
		gt.Value(t, files["README.md"]).Equal("# Hello")
		gt.Number(t, len(client.prompts)).Equal(1)
	})

	t.Run("prompt carries brief, checks, attachments and the output contract", func(t *testing.T) {
		client := &MockCompletionClient{
			completeFunc: func(ctx context.Context, prompt string) (string, error) {
				return indexAndReadme, nil
			},
		}
		gen, err := usecase.NewGenerator(client)
		gt.NoError(t, err)

		req := newRequest()
		req.Attachments = []model.Attachment{
			{Name: "data.csv", URL: "data:text/csv;base64,YSxiCjEsMg=="},
			{Name: "logo.png", URL: "data:image/png;base64,iVBORw0KGgo="},
		}

		_, err = gen.Generate(ctx, req)
		gt.NoError(t, err)

		prompt := client.prompts[0]
		gt.String(t, prompt).Contains("Hello World")
		gt.String(t, prompt).Contains("- Page shows Hello World")
		gt.String(t, prompt).Contains("- Has a README")
		gt.String(t, prompt).Contains("### data.csv")
		gt.String(t, prompt).Contains("a,b\n1,2")
		gt.String(t, prompt).Contains("### logo.png")
		gt.String(t, prompt).Contains("[Binary file: 8 bytes]")
		gt.String(t, prompt).Contains("```filename: <filename>")
		gt.String(t, prompt).Contains("explanatory text between files")
	})

	t.Run("synthesizes README when missing", func(t *testing.T) {
		client := &MockCompletionClient{
			completeFunc: func(ctx context.Context, prompt string) (string, error) {
				return "<!DOCTYPE html><html><body>hi</body></html>", nil
			},
		}
		gen, err := usecase.NewGenerator(client)
		gt.NoError(t, err)

		files, err := gen.Generate(ctx, newRequest())
		gt.NoError(t, err)
		gt.Value(t, files["index.html"]).Equal("<!DOCTYPE html><html><body>hi</body></html>")
		gt.String(t, files["README.md"]).Contains("hello-task")
		gt.String(t, files["README.md"]).Contains("Hello World")
	})

	t.Run("fails without index.html", func(t *testing.T) {
		client := &MockCompletionClient{
			completeFunc: func(ctx context.Context, prompt string) (string, error) {
				return "```filename: README.md\n# only readme\n```\n```filename: app.js\nrun()\n```", nil
			},
		}
		gen, err := usecase.NewGenerator(client)
		gt.NoError(t, err)

		files, err := gen.Generate(ctx, newRequest())
		gt.Error(t, err)
		gt.Value(t, files).Nil()
		gt.True(t, goerr.HasTag(err, types.ErrTagGeneration))
	})

	t.Run("fails on undecodable attachment before calling the backend", func(t *testing.T) {
		client := &MockCompletionClient{}
		gen, err := usecase.NewGenerator(client)
		gt.NoError(t, err)

		req := newRequest()
		req.Attachments = []model.Attachment{{Name: "broken", URL: "not-a-data-uri"}}

		_, err = gen.Generate(ctx, req)
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, types.ErrTagDecode))
		gt.Number(t, len(client.prompts)).Equal(0)
	})

	t.Run("propagates backend failure", func(t *testing.T) {
		client := &MockCompletionClient{
			completeFunc: func(ctx context.Context, prompt string) (string, error) {
				return "", errors.New("backend unavailable")
			},
		}
		gen, err := usecase.NewGenerator(client)
		gt.NoError(t, err)

		_, err = gen.Generate(ctx, newRequest())
		gt.Error(t, err)
		gt.String(t, err.Error()).Contains("failed to generate content")
		gt.True(t, goerr.HasTag(err, types.ErrTagGeneration))
	})
}
