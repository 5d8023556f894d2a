// Package commands implements the rotatectl subcommands.
package commands

import (
	"context"

	"github.com/systmms/atlasrotate/internal/config"
	"github.com/systmms/atlasrotate/internal/logging"
	"github.com/systmms/atlasrotate/internal/secretstore"
)

// Options carries state shared by all subcommands, filled in by the
// root command's PersistentPreRun.
type Options struct {
	ConfigPath string
	Logger     *logging.Logger
}

// loadConfig resolves configuration from the --config file when given,
// falling back to the environment like the deployed function.
func (o *Options) loadConfig() (*config.Config, error) {
	if o.ConfigPath != "" {
		return config.Load(o.ConfigPath)
	}
	return config.FromEnv()
}

// openStore builds the Secrets Manager adapter for a subcommand.
func (o *Options) openStore(ctx context.Context, cfg *config.Config) (*secretstore.AWSStore, error) {
	return secretstore.NewAWSStore(ctx, map[string]string{
		"region": cfg.Region,
	})
}
