package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pagewright/pkg/cli/config"
	controller "github.com/m-mizutani/pagewright/pkg/controller/http"
	"github.com/m-mizutani/pagewright/pkg/domain/model"
	"github.com/m-mizutani/pagewright/pkg/usecase"
	"github.com/m-mizutani/pagewright/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func jobKey(job *model.DeploymentJob) string {
	return job.Request.Task
}

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		pipelineCfg pipelineConfig
	)

	flags := append(serverCfg.Flags(), pipelineCfg.flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting pagewright server",
				slog.String("addr", serverCfg.Addr),
				slog.Int("workers", pipelineCfg.queue.Workers),
				slog.String("completion_provider", pipelineCfg.completion.Provider),
			)

			deployer, err := pipelineCfg.newDeployer(ctx)
			if err != nil {
				return err
			}

			queue := async.NewQueue(ctx,
				pipelineCfg.queue.Workers,
				pipelineCfg.queue.Capacity,
				jobKey,
				deployer.Handle,
			)

			admissionUC := usecase.NewAdmission(serverCfg.SharedSecret, queue)

			server, err := controller.NewServer(
				ctx,
				admissionUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithMaxBodySize(serverCfg.MaxBodySize),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					serverErr <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			case err := <-serverErr:
				logger.Error("HTTP server error", slog.Any("error", err))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			// accepted deployments are finished before exit
			drainCtx, cancelDrain := context.WithTimeout(context.Background(), pipelineCfg.queue.ShutdownTimeout)
			defer cancelDrain()
			if err := queue.Close(drainCtx); err != nil {
				return goerr.Wrap(err, "failed to drain deployment queue")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
