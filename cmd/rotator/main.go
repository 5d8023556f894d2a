// Command rotator is the AWS Lambda rotation function for MongoDB Atlas
// database user credentials. Secrets Manager invokes it once per
// rotation step with the single-user rotation scheme: the user's
// password is rotated in place, immediately invalidating the previous
// password.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/systmms/atlasrotate/internal/atlas"
	"github.com/systmms/atlasrotate/internal/config"
	"github.com/systmms/atlasrotate/internal/logging"
	"github.com/systmms/atlasrotate/internal/rotation"
	"github.com/systmms/atlasrotate/internal/secretstore"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Debug)

	store, err := secretstore.NewAWSStore(context.Background(), map[string]string{
		"region": cfg.Region,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context, raw json.RawMessage) error {
		// Atlas API keys live in their own secret and can rotate
		// independently, so they are loaded per invocation.
		keys, err := atlas.LoadAPIKeys(ctx, store, cfg.AtlasSecretName)
		if err != nil {
			return err
		}
		users, err := atlas.NewAdminUsers(keys)
		if err != nil {
			return err
		}

		dispatcher := rotation.NewDispatcher(store, users, atlas.NewMongoConnector(), cfg, logger)
		return dispatcher.Handle(ctx, raw)
	})
}
