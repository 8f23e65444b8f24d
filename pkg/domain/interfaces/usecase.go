package interfaces

//go:generate moq -out mocks/usecase_mock.go -pkg mocks . AdmissionUseCase Generator Publisher Notifier DeploymentQueue

import (
	"context"

	"github.com/m-mizutani/pagewright/pkg/domain/model"
)

// AdmissionUseCase authenticates a deployment request and queues it for background processing
type AdmissionUseCase interface {
	// Admit returns the queued job. It never waits for the deployment itself
	Admit(ctx context.Context, req *model.DeploymentRequest) (*model.DeploymentJob, error)
}

// DeploymentQueue accepts jobs for asynchronous execution
type DeploymentQueue interface {
	Enqueue(job *model.DeploymentJob) error
}

// Generator produces the application files for a request
type Generator interface {
	Generate(ctx context.Context, req *model.DeploymentRequest) (model.FileSet, error)
}

// Publisher commits a file set to the task repository and enables Pages hosting
type Publisher interface {
	Publish(ctx context.Context, task string, round int, files model.FileSet) (*model.DeploymentResult, error)
}

// Notifier delivers the completion payload to the evaluation callback
type Notifier interface {
	Notify(ctx context.Context, url string, payload *model.Notification) error
}
