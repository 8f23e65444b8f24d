package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/utils/async"
	"github.com/m-mizutani/pagewright/pkg/utils/errutil"
)

// Deployer drives one job through generation, publishing and notification
type Deployer struct {
	generator interfaces.Generator
	publisher interfaces.Publisher
	notifier  interfaces.Notifier
	reporter  interfaces.Reporter
	now       func() time.Time
}

// DeployerOption configures the deployer
type DeployerOption func(*Deployer)

// WithReporter sends the final state of every run to r
func WithReporter(r interfaces.Reporter) DeployerOption {
	return func(d *Deployer) {
		d.reporter = r
	}
}

// WithDeployerClock replaces the time source of run timings
func WithDeployerClock(now func() time.Time) DeployerOption {
	return func(d *Deployer) {
		d.now = now
	}
}

// NewDeployer creates a new Deployer
func NewDeployer(generator interfaces.Generator, publisher interfaces.Publisher, notifier interfaces.Notifier, opts ...DeployerOption) *Deployer {
	d := &Deployer{
		generator: generator,
		publisher: publisher,
		notifier:  notifier,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle runs job as a queue handler. Failures are reported here and not returned.
func (d *Deployer) Handle(ctx context.Context, job *model.DeploymentJob) error {
	if _, err := d.Run(ctx, job); err != nil {
		errutil.Handle(ctx, err, "deployment failed")
	}
	return nil
}

// Run executes the pipeline once. A failed notification does not fail the run.
func (d *Deployer) Run(ctx context.Context, job *model.DeploymentJob) (*model.DeploymentRun, error) {
	req := job.Request
	logger := ctxlog.From(ctx).With("job_id", job.ID, "task", req.Task, "round", req.Round)
	ctx = ctxlog.With(ctx, logger)

	run := model.NewDeploymentRun(job, d.now())
	defer d.report(ctx, run)

	logger.Info("Deployment started", "queued_for", run.StartedAt.Sub(job.ReceivedAt))

	if err := d.transition(ctx, run, model.StateGenerating); err != nil {
		return d.fail(ctx, run, err)
	}
	files, err := d.generator.Generate(ctx, req)
	if err != nil {
		return d.fail(ctx, run, goerr.Wrap(err, "failed to generate application", goerr.V("job_id", job.ID)))
	}
	logger.Info("Generated application", "files", files.Names())

	if err := d.transition(ctx, run, model.StatePublishing); err != nil {
		return d.fail(ctx, run, err)
	}
	result, err := d.publisher.Publish(ctx, req.Task, req.Round, files)
	if err != nil {
		return d.fail(ctx, run, goerr.Wrap(err, "failed to publish application", goerr.V("job_id", job.ID)))
	}
	run.Result = result

	if err := d.transition(ctx, run, model.StateNotifying); err != nil {
		return d.fail(ctx, run, err)
	}
	if err := d.notifier.Notify(ctx, req.EvaluationURL, model.NewNotification(req, result)); err != nil {
		logger.Error("Failed to notify evaluation server", "error", err)
	}

	if err := d.transition(ctx, run, model.StateDone); err != nil {
		return d.fail(ctx, run, err)
	}
	run.FinishedAt = d.now()

	logger.Info("Deployment completed",
		"repo_url", result.RepoURL,
		"pages_url", result.PagesURL,
		"commit_sha", result.CommitSHA,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)
	return run, nil
}

func (d *Deployer) transition(ctx context.Context, run *model.DeploymentRun, to model.DeploymentState) error {
	from := run.State
	if err := run.Transition(to); err != nil {
		return err
	}
	ctxlog.From(ctx).Debug("Deployment state changed", "from", from, "to", to)
	return nil
}

func (d *Deployer) fail(ctx context.Context, run *model.DeploymentRun, err error) (*model.DeploymentRun, error) {
	run.Err = err
	if !run.State.IsTerminal() {
		if tErr := run.Transition(model.StateFailed); tErr != nil {
			ctxlog.From(ctx).Warn("Cannot mark deployment as failed", "state", run.State, "error", tErr)
		}
	}
	run.FinishedAt = d.now()
	return run, err
}

func (d *Deployer) report(ctx context.Context, run *model.DeploymentRun) {
	if d.reporter == nil {
		return
	}
	snapshot := *run
	async.Dispatch(ctx, func(ctx context.Context) error {
		return d.reporter.Report(ctx, &snapshot)
	})
}
