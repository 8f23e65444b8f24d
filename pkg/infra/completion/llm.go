package completion

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
)

// LLM adapts a gollem client to a single-shot completion backend
type LLM struct {
	client gollem.LLMClient
}

// NewLLM creates a completion backend from a gollem client
func NewLLM(client gollem.LLMClient) interfaces.CompletionClient {
	return &LLM{client: client}
}

// NewGemini creates a completion backend on Vertex AI Gemini
func NewGemini(ctx context.Context, projectID, location, model string) (interfaces.CompletionClient, error) {
	client, err := gemini.New(ctx, projectID, location, gemini.WithModel(model))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project_id", projectID),
			goerr.V("location", location),
			goerr.V("model", model))
	}
	return NewLLM(client), nil
}

// Complete opens one session and returns all text parts of a single response
func (c *LLM) Complete(ctx context.Context, prompt string) (string, error) {
	session, err := c.client.NewSession(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(prompt))
	if err != nil {
		return "", goerr.Wrap(err, "failed to generate content")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return "", goerr.New("LLM returned no text")
	}

	return strings.Join(resp.Texts, ""), nil
}
