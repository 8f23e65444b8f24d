package slack

import (
	"context"
	"fmt"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/slack-go/slack"
)

type reporter struct {
	webhookURL string
}

// NewReporter creates a Reporter posting run summaries to a Slack incoming webhook
func NewReporter(webhookURL string) interfaces.Reporter {
	return &reporter{webhookURL: webhookURL}
}

func (r *reporter) Report(ctx context.Context, run *model.DeploymentRun) error {
	if err := slack.PostWebhookContext(ctx, r.webhookURL, BuildMessage(run)); err != nil {
		return goerr.Wrap(err, "failed to post Slack message", goerr.V("job_id", run.JobID))
	}
	return nil
}

// BuildMessage renders a run as a webhook message
func BuildMessage(run *model.DeploymentRun) *slack.WebhookMessage {
	color := "good"
	title := fmt.Sprintf("Deployment of %s round %d finished", run.Task, run.Round)
	if run.State == model.StateFailed {
		color = "danger"
		title = fmt.Sprintf("Deployment of %s round %d failed", run.Task, run.Round)
	}

	fields := []slack.AttachmentField{
		{Title: "Job", Value: run.JobID, Short: true},
		{Title: "State", Value: string(run.State), Short: true},
		{Title: "Round", Value: strconv.Itoa(run.Round), Short: true},
	}
	if !run.FinishedAt.IsZero() {
		fields = append(fields, slack.AttachmentField{
			Title: "Duration",
			Value: run.FinishedAt.Sub(run.StartedAt).String(),
			Short: true,
		})
	}
	if run.Result != nil {
		fields = append(fields,
			slack.AttachmentField{Title: "Repository", Value: run.Result.RepoURL},
			slack.AttachmentField{Title: "Pages", Value: run.Result.PagesURL},
		)
	}
	if run.Err != nil {
		fields = append(fields, slack.AttachmentField{Title: "Error", Value: run.Err.Error()})
	}

	return &slack.WebhookMessage{
		Text: title,
		Attachments: []slack.Attachment{
			{Color: color, Fields: fields},
		},
	}
}
