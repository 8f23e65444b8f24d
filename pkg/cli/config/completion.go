package config

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/infra/completion"
	"github.com/urfave/cli/v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Completion holds text-completion backend configuration
type Completion struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	Gemini Gemini
}

// Flags returns CLI flags for completion configuration
func (c *Completion) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "completion-provider",
			Usage:       "Completion backend (openai, gemini)",
			Value:       ProviderOpenAI,
			Destination: &c.Provider,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_PROVIDER"),
		},
		&cli.StringFlag{
			Name:        "completion-base-url",
			Usage:       "Base URL of the OpenAI-compatible API",
			Value:       "https://aipipe.org/openai/v1",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_BASE_URL"),
		},
		&cli.StringFlag{
			Name:        "completion-model",
			Usage:       "Model identifier",
			Value:       "gpt-4o-mini",
			Destination: &c.Model,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_MODEL"),
		},
		&cli.StringFlag{
			Name:        "completion-api-key",
			Usage:       "API key of the completion backend",
			Destination: &c.APIKey,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_API_KEY"),
		},
		&cli.FloatFlag{
			Name:        "completion-temperature",
			Usage:       "Sampling temperature",
			Value:       completion.DefaultTemperature,
			Destination: &c.Temperature,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_TEMPERATURE"),
		},
		&cli.IntFlag{
			Name:        "completion-max-tokens",
			Usage:       "Maximum output tokens",
			Value:       completion.DefaultMaxTokens,
			Destination: &c.MaxTokens,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_MAX_TOKENS"),
		},
		&cli.DurationFlag{
			Name:        "completion-timeout",
			Usage:       "Timeout of a single completion call",
			Value:       completion.DefaultTimeout,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("PAGEWRIGHT_COMPLETION_TIMEOUT"),
		},
	}
	return append(flags, c.Gemini.Flags()...)
}

// NewClient creates the configured completion backend
func (c *Completion) NewClient(ctx context.Context) (interfaces.CompletionClient, error) {
	switch c.Provider {
	case ProviderOpenAI:
		if c.APIKey == "" {
			return nil, goerr.New("--completion-api-key is required for the openai provider")
		}
		return completion.NewOpenAI(c.BaseURL, c.Model, c.APIKey,
			completion.WithTemperature(float32(c.Temperature)),
			completion.WithMaxTokens(c.MaxTokens),
			completion.WithTimeout(c.Timeout),
		)

	case ProviderGemini:
		if c.Gemini.ProjectID == "" {
			return nil, goerr.New("--gemini-project-id is required for the gemini provider")
		}
		return completion.NewGemini(ctx, c.Gemini.ProjectID, c.Gemini.Location, c.Gemini.Model)

	default:
		return nil, goerr.New("unknown completion provider", goerr.V("provider", c.Provider))
	}
}
