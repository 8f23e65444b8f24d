package config

import (
	"github.com/m-mizutani/pagewright/pkg/domain/interfaces"
	slackinfra "github.com/m-mizutani/pagewright/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds operator notification configuration
type Slack struct {
	WebhookURL string
}

// Flags returns CLI flags for Slack configuration
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook for deployment reports",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("PAGEWRIGHT_SLACK_WEBHOOK_URL"),
		},
	}
}

// NewReporter returns nil when no webhook is configured
func (c *Slack) NewReporter() interfaces.Reporter {
	if c.WebhookURL == "" {
		return nil
	}
	return slackinfra.NewReporter(c.WebhookURL)
}
