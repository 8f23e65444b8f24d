package usecase

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/domain/types"
)

type admission struct {
	secret []byte
	queue  interfaces.DeploymentQueue
	now    func() time.Time
}

// NewAdmission creates an AdmissionUseCase that accepts requests carrying secret
func NewAdmission(secret string, queue interfaces.DeploymentQueue) interfaces.AdmissionUseCase {
	return &admission{
		secret: []byte(secret),
		queue:  queue,
		now:    time.Now,
	}
}

// Admit validates and authenticates req, then queues it
func (a *admission) Admit(ctx context.Context, req *model.DeploymentRequest) (*model.DeploymentJob, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if len(a.secret) == 0 || subtle.ConstantTimeCompare([]byte(req.Secret), a.secret) != 1 {
		return nil, goerr.New("invalid secret",
			goerr.T(types.ErrTagAuth),
			goerr.V("task", req.Task))
	}

	job := &model.DeploymentJob{
		ID:         uuid.NewString(),
		Request:    req,
		ReceivedAt: a.now(),
	}
	if err := a.queue.Enqueue(job); err != nil {
		return nil, goerr.Wrap(err, "failed to queue deployment",
			goerr.T(types.ErrTagQueueFull),
			goerr.V("job_id", job.ID),
			goerr.V("task", req.Task))
	}

	ctxlog.From(ctx).Info("Deployment accepted",
		"job_id", job.ID,
		"task", req.Task,
		"round", req.Round,
		"email", req.Email,
	)

	return job, nil
}
