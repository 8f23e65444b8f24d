package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr         string
	SharedSecret string
	MaxBodySize  int64
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8080",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("PAGEWRIGHT_ADDR"),
		},
		&cli.StringFlag{
			Name:        "shared-secret",
			Usage:       "Secret that deployment requests must carry",
			Required:    true,
			Destination: &c.SharedSecret,
			Sources:     cli.EnvVars("PAGEWRIGHT_SHARED_SECRET"),
		},
		&cli.Int64Flag{
			Name:        "max-body-size",
			Usage:       "Maximum size of a deployment request body in bytes",
			Value:       32 << 20,
			Destination: &c.MaxBodySize,
			Sources:     cli.EnvVars("PAGEWRIGHT_MAX_BODY_SIZE"),
		},
	}
}
