package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Queue holds background worker configuration
type Queue struct {
	Workers         int
	Capacity        int
	CallbackTimeout time.Duration
	ShutdownTimeout time.Duration
}

// Flags returns CLI flags for queue configuration
func (c *Queue) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "queue-workers",
			Usage:       "Number of deployments processed concurrently",
			Value:       4,
			Destination: &c.Workers,
			Sources:     cli.EnvVars("PAGEWRIGHT_QUEUE_WORKERS"),
		},
		&cli.IntFlag{
			Name:        "queue-capacity",
			Usage:       "Number of deployments that may wait for a worker",
			Value:       64,
			Destination: &c.Capacity,
			Sources:     cli.EnvVars("PAGEWRIGHT_QUEUE_CAPACITY"),
		},
		&cli.DurationFlag{
			Name:        "callback-timeout",
			Usage:       "Timeout of a single callback delivery attempt",
			Value:       30 * time.Second,
			Destination: &c.CallbackTimeout,
			Sources:     cli.EnvVars("PAGEWRIGHT_CALLBACK_TIMEOUT"),
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "How long to wait for queued deployments on shutdown",
			Value:       10 * time.Minute,
			Destination: &c.ShutdownTimeout,
			Sources:     cli.EnvVars("PAGEWRIGHT_SHUTDOWN_TIMEOUT"),
		},
	}
}
