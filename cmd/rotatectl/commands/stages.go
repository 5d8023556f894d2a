package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// NewStagesCommand creates the 'stages' command, which prints the
// version-stage map for a secret.
func NewStagesCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stages <secret-id>",
		Short: "Show the version-stage map for a secret",
		Long: `Print every version of the secret with its attached stage labels, along
with whether rotation is enabled. Useful for diagnosing a rotation stuck
between steps.`,
		Args: cobra.ExactArgs(1),
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

			stages, err := store.DescribeVersionStages(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secret: %s\n", stages.Name)
			fmt.Fprintf(out, "rotation enabled: %t\n", stages.RotationEnabled)

			tokens := make([]string, 0, len(stages.Stages))
			for token := range stages.Stages {
				tokens = append(tokens, token)
			}
			sort.Strings(tokens)
			for _, token := range tokens {
				labels := stages.Stages[token]
				if len(labels) == 0 {
					fmt.Fprintf(out, "  %s  (no labels)\n", token)
					continue
				}
				fmt.Fprintf(out, "  %s  %s\n", token, strings.Join(labels, ", "))
			}
			return nil
		},
	}

	return cmd
}
