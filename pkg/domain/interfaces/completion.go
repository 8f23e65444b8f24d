package interfaces

import (
	"context"

	"github.com/m-mizutani/pagewright/pkg/domain/model"
)

// CompletionClient sends one prompt to a text-completion backend and returns the generated text
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CallbackClient delivers a notification with a single HTTP attempt
type CallbackClient interface {
	Post(ctx context.Context, url string, payload *model.Notification) error
}

// Reporter publishes the outcome of a deployment run to operators
type Reporter interface {
	Report(ctx context.Context, run *model.DeploymentRun) error
}
