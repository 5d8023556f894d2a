package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewPasswordCommand creates the 'password' command, which exercises the
// configured password policy once and prints the result. Handy for
// checking that an EXCLUDE_CHARACTERS setting produces values the
// target system accepts, without writing anything.
func NewPasswordCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Generate one password with the configured policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := opts.openStore(ctx, cfg)
			if err != nil {
				return err
			}

			password, err := store.RandomPassword(ctx, cfg.Policy)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), password)
			return nil
		},
	}

	return cmd
}
