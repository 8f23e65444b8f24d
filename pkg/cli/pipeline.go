package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/cli/config"
	"github.com/m-mizutani/pagewright/pkg/infra/callback"
	"github.com/m-mizutani/pagewright/pkg/usecase"
	"github.com/urfave/cli/v3"
)

type pipelineConfig struct {
	completion config.Completion
	github     config.GitHub
	queue      config.Queue
	slack      config.Slack
}

func (c *pipelineConfig) flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, c.completion.Flags()...)
	flags = append(flags, c.github.Flags()...)
	flags = append(flags, c.queue.Flags()...)
	flags = append(flags, c.slack.Flags()...)
	return flags
}

// newDeployer wires generation, publishing and notification into one deployer
func (c *pipelineConfig) newDeployer(ctx context.Context) (*usecase.Deployer, error) {
	completionClient, err := c.completion.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create completion client")
	}
	generator, err := usecase.NewGenerator(completionClient)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create generator")
	}

	githubClient, err := c.github.NewClient()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub client")
	}
	publisher, err := usecase.NewPublisher(githubClient, c.github.PublisherOptions()...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create publisher")
	}

	notifier := usecase.NewNotifier(callback.NewClient(callback.WithTimeout(c.queue.CallbackTimeout)))

	var opts []usecase.DeployerOption
	if reporter := c.slack.NewReporter(); reporter != nil {
		opts = append(opts, usecase.WithReporter(reporter))
	}

	return usecase.NewDeployer(generator, publisher, notifier, opts...), nil
}
