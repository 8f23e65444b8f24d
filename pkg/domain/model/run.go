package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DeploymentState is a stage of one orchestrator run
type DeploymentState string

const (
	StateReceived   DeploymentState = "received"
	StateGenerating DeploymentState = "generating"
	StatePublishing DeploymentState = "publishing"
	StateNotifying  DeploymentState = "notifying"
	StateDone       DeploymentState = "done"
	StateFailed     DeploymentState = "failed"
)

// IsTerminal reports whether no further transition is possible
func (s DeploymentState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

func isAllowedTransition(from, to DeploymentState) bool {
	switch from {
	case StateReceived:
		return to == StateGenerating
	case StateGenerating:
		return to == StatePublishing || to == StateFailed
	case StatePublishing:
		return to == StateNotifying || to == StateFailed
	case StateNotifying:
		return to == StateDone
	default:
		return false
	}
}

// DeploymentRun records the progress of one job through the pipeline
type DeploymentRun struct {
	JobID      string
	Task       string
	Round      int
	State      DeploymentState
	Result     *DeploymentResult
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewDeploymentRun starts a run in the Received state
func NewDeploymentRun(job *DeploymentJob, now time.Time) *DeploymentRun {
	return &DeploymentRun{
		JobID:     job.ID,
		Task:      job.Request.Task,
		Round:     job.Request.Round,
		State:     StateReceived,
		StartedAt: now,
	}
}

// Transition moves the run to the next state
func (r *DeploymentRun) Transition(to DeploymentState) error {
	if !isAllowedTransition(r.State, to) {
		return goerr.New("invalid deployment state transition",
			goerr.V("from", r.State),
			goerr.V("to", to))
	}
	r.State = to
	return nil
}
