package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 8000
	DefaultTimeout     = 120 * time.Second

	maxResponseSize = 16 << 20
)

// OpenAI calls an OpenAI-compatible chat completion endpoint
type OpenAI struct {
	httpClient  *http.Client
	baseURL     string
	model       string
	apiKey      string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// OpenAIOption configures the OpenAI client
type OpenAIOption func(*OpenAI)

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) OpenAIOption {
	return func(c *OpenAI) {
		c.temperature = t
	}
}

// WithMaxTokens sets the output token limit
func WithMaxTokens(n int) OpenAIOption {
	return func(c *OpenAI) {
		c.maxTokens = n
	}
}

// WithTimeout bounds a single completion call
func WithTimeout(d time.Duration) OpenAIOption {
	return func(c *OpenAI) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *OpenAI) {
		c.httpClient = client
	}
}

// NewOpenAI creates a completion client for baseURL, e.g. https://aipipe.org/openai/v1
func NewOpenAI(baseURL, model, apiKey string, opts ...OpenAIOption) (interfaces.CompletionClient, error) {
	if baseURL == "" {
		return nil, goerr.New("completion base URL is required")
	}
	if model == "" {
		return nil, goerr.New("completion model is required")
	}

	c := &OpenAI{
		httpClient:  http.DefaultClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		apiKey:      apiKey,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete sends prompt as a single user message and returns the generated text
func (c *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to marshal completion request")
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create completion request", goerr.V("url", endpoint))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call completion endpoint", goerr.V("url", endpoint))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", goerr.Wrap(err, "failed to read completion response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", goerr.New("completion endpoint returned error status",
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", truncate(string(raw), 512)))
	}

	text := extractText(raw)
	ctxlog.From(ctx).Debug("Completion received",
		"model", c.model,
		"duration", time.Since(started),
		"length", len(text))

	return text, nil
}

// extractText reads choices[0].message.content, then choices[0].text, and
// falls back to the raw body
func extractText(raw []byte) string {
	for _, path := range []string{"choices.0.message.content", "choices.0.text"} {
		if r := gjson.GetBytes(raw, path); r.Exists() && r.Type == gjson.String {
			return r.String()
		}
	}
	return string(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
