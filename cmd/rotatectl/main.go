// Command rotatectl drives the rotation engine by hand against real
// AWS, for debugging a deployment without waiting on Secrets Manager to
// schedule a rotation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/systmms/atlasrotate/cmd/rotatectl/commands"
	"github.com/systmms/atlasrotate/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		debug      bool
	)

	opts := &commands.Options{}

	rootCmd := &cobra.Command{
		Use:   "rotatectl",
		Short: "Drive MongoDB Atlas secret rotation steps by hand",
		Long: `rotatectl runs individual rotation protocol steps against a secret in
AWS Secrets Manager, and inspects rotation state. It talks to the same
store and target system as the deployed rotation function.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.ConfigPath = configFile
			opts.Logger = logging.New(debug)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path (defaults to environment variables)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewStepCommand(opts),
		commands.NewStagesCommand(opts),
		commands.NewPasswordCommand(opts),
	)

	return rootCmd.Execute()
}
