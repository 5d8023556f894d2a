package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/systmms/atlasrotate/internal/atlas"
	"github.com/systmms/atlasrotate/internal/rotation"
)

// NewStepCommand creates the 'step' command, which runs one rotation
// protocol step exactly as Secrets Manager would invoke it.
func NewStepCommand(opts *Options) *cobra.Command {
	var (
		secretID string
		token    string
	)

	cmd := &cobra.Command{
		Use:   "step <createSecret|setSecret|testSecret|finishSecret>",
		Short: "Run a single rotation step against a secret",
		Long: `Run one step of the four-step rotation protocol.

The step runs with the same preconditions as the deployed function: the
version identified by --token must exist and carry the AWSPENDING stage
label (or already be AWSCURRENT, in which case the step is a no-op).

Examples:
  # Generate the candidate secret version
  rotatectl step createSecret --secret-id prod/atlas/app --token 7f3c...

  # Verify the pending credentials connect
  rotatectl step testSecret --secret-id prod/atlas/app --token 7f3c...`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"createSecret", "setSecret", "testSecret", "finishSecret"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var step rotation.Step
			if err := step.UnmarshalText([]byte(args[0])); err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := opts.openStore(ctx, cfg)
			if err != nil {
				return err
			}

			keys, err := atlas.LoadAPIKeys(ctx, store, cfg.AtlasSecretName)
			if err != nil {
				return err
			}
			users, err := atlas.NewAdminUsers(keys)
			if err != nil {
				return err
			}

			rotation.InitMetrics()
			dispatcher := rotation.NewDispatcher(store, users, atlas.NewMongoConnector(), cfg, opts.Logger)

			event, err := json.Marshal(rotation.Event{
				SecretId:           secretID,
				ClientRequestToken: token,
				Step:               step,
			})
			if err != nil {
				return err
			}

			if err := dispatcher.Handle(ctx, event); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s succeeded for %s\n", step, secretID)
			return nil
		},
	}

	cmd.Flags().StringVar(&secretID, "secret-id", "", "Secret ARN or name (required)")
	cmd.Flags().StringVar(&token, "token", "", "Version token the step runs against (required)")
	_ = cmd.MarkFlagRequired("secret-id")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}
