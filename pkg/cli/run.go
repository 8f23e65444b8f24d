package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

func loadRequest(path string) (*model.DeploymentRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read request file", goerr.V("path", path))
	}

	var req model.DeploymentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, goerr.Wrap(err, "failed to parse request file", goerr.V("path", path))
	}
	if err := req.ValidateContent(); err != nil {
		return nil, err
	}
	return &req, nil
}

func cmdRun() *cli.Command {
	var (
		requestPath string
		pipelineCfg pipelineConfig
	)

	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:        "request",
			Aliases:     []string{"r"},
			Usage:       "Path of a deployment request JSON file (secret field is not checked)",
			Required:    true,
			Destination: &requestPath,
		},
	}, pipelineCfg.flags()...)

	return &cli.Command{
		Name:  "run",
		Usage: "Run one deployment synchronously without the HTTP server",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			req, err := loadRequest(requestPath)
			if err != nil {
				return err
			}

			deployer, err := pipelineCfg.newDeployer(ctx)
			if err != nil {
				return err
			}

			job := &model.DeploymentJob{
				ID:         uuid.NewString(),
				Request:    req,
				ReceivedAt: time.Now(),
			}

			run, err := deployer.Run(ctx, job)
			if err != nil {
				return goerr.Wrap(err, "deployment failed", goerr.V("state", run.State))
			}

			ctxlog.From(ctx).Info("Deployment finished",
				slog.String("repo_url", run.Result.RepoURL),
				slog.String("pages_url", run.Result.PagesURL),
				slog.String("commit_sha", run.Result.CommitSHA),
			)
			return nil
		},
	}
}
