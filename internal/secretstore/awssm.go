// Package secretstore implements the rotation core's Store interface
// over AWS Secrets Manager.
package secretstore

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/systmms/atlasrotate/internal/config"
	"github.com/systmms/atlasrotate/internal/rotation"
)

// SecretsManagerAPI defines the subset of the AWS Secrets Manager client
// the adapter uses. This allows for mocking in tests.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error)
	UpdateSecretVersionStage(ctx context.Context, params *secretsmanager.UpdateSecretVersionStageInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretVersionStageOutput, error)
	GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error)
}

// AWSStore implements rotation.Store over AWS Secrets Manager.
type AWSStore struct {
	client   SecretsManagerAPI
	region   string
	endpoint string
}

// Option is a functional option for configuring the AWS store.
type Option func(*AWSStore)

// WithClient sets a custom Secrets Manager client (for testing).
func WithClient(client SecretsManagerAPI) Option {
	return func(s *AWSStore) {
		s.client = client
	}
}

// WithRegion overrides the region resolved from the environment.
func WithRegion(region string) Option {
	return func(s *AWSStore) {
		s.region = region
	}
}

// WithEndpoint points the client at a custom endpoint, for LocalStack.
func WithEndpoint(endpoint string) Option {
	return func(s *AWSStore) {
		s.endpoint = endpoint
	}
}

// NewAWSStore creates the Secrets Manager adapter. Credentials come from
// the default AWS chain unless static keys are passed in storeConfig
// (LocalStack and tests only).
func NewAWSStore(ctx context.Context, storeConfig map[string]string, opts ...Option) (*AWSStore, error) {
	s := &AWSStore{
		region:   storeConfig["region"],
		endpoint: storeConfig["endpoint"],
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		var configOpts []func(*awsconfig.LoadOptions) error
		if s.region != "" {
			configOpts = append(configOpts, awsconfig.WithRegion(s.region))
		}
		if ak, sk := storeConfig["access_key_id"], storeConfig["secret_access_key"]; ak != "" && sk != "" {
			configOpts = append(configOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(ak, sk, ""),
			))
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, configOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		var clientOpts []func(*secretsmanager.Options)
		if s.endpoint != "" {
			endpoint := s.endpoint
			clientOpts = append(clientOpts, func(o *secretsmanager.Options) {
				o.BaseEndpoint = &endpoint
			})
		}
		s.client = secretsmanager.NewFromConfig(cfg, clientOpts...)
	}

	return s, nil
}

// GetVersion fetches the raw secret string for the query.
func (s *AWSStore) GetVersion(ctx context.Context, query rotation.VersionQuery) (string, error) {
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     &query.SecretID,
		VersionStage: &query.Stage,
	}
	if query.Token != "" {
		input.VersionId = &query.Token
	}

	result, err := s.client.GetSecretValue(ctx, input)
	if err != nil {
		return "", s.classify(err, "GetSecretValue", query.SecretID)
	}
	if result.SecretString == nil {
		return "", rotation.ValidationError{
			Field:   "SecretString",
			Message: fmt.Sprintf("secret %s holds binary data, expected a JSON string", query.SecretID),
		}
	}
	return *result.SecretString, nil
}

// PutPendingVersion stores payload as a new AWSPENDING version under token.
func (s *AWSStore) PutPendingVersion(ctx context.Context, secretID, token, payload string) error {
	_, err := s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:           &secretID,
		ClientRequestToken: &token,
		SecretString:       &payload,
		VersionStages:      []string{rotation.StagePending},
	})
	if err != nil {
		return s.classify(err, "PutSecretValue", secretID)
	}
	return nil
}

// DescribeVersionStages returns the secret's version-stage map and
// rotation flag.
func (s *AWSStore) DescribeVersionStages(ctx context.Context, secretID string) (rotation.VersionStages, error) {
	result, err := s.client.DescribeSecret(ctx, &secretsmanager.DescribeSecretInput{
		SecretId: &secretID,
	})
	if err != nil {
		return rotation.VersionStages{}, s.classify(err, "DescribeSecret", secretID)
	}

	stages := rotation.VersionStages{
		Stages: result.VersionIdsToStages,
		// An absent flag means rotation configuration has not settled
		// yet; only an explicit false blocks the protocol.
		RotationEnabled: result.RotationEnabled == nil || *result.RotationEnabled,
	}
	if result.Name != nil {
		stages.Name = *result.Name
	}
	return stages, nil
}

// MoveLabel moves a stage label onto toToken, removing it from fromToken
// atomically when fromToken is non-empty.
func (s *AWSStore) MoveLabel(ctx context.Context, secretID, label, toToken, fromToken string) error {
	input := &secretsmanager.UpdateSecretVersionStageInput{
		SecretId:        &secretID,
		VersionStage:    &label,
		MoveToVersionId: &toToken,
	}
	if fromToken != "" {
		input.RemoveFromVersionId = &fromToken
	}
	if _, err := s.client.UpdateSecretVersionStage(ctx, input); err != nil {
		return s.classify(err, "UpdateSecretVersionStage", secretID)
	}
	return nil
}

// RemoveLabel detaches a stage label from fromToken.
func (s *AWSStore) RemoveLabel(ctx context.Context, secretID, label, fromToken string) error {
	_, err := s.client.UpdateSecretVersionStage(ctx, &secretsmanager.UpdateSecretVersionStageInput{
		SecretId:            &secretID,
		VersionStage:        &label,
		RemoveFromVersionId: &fromToken,
	})
	if err != nil {
		return s.classify(err, "UpdateSecretVersionStage", secretID)
	}
	return nil
}

// RandomPassword delegates password generation to the store, so the
// deployment never carries its own entropy or character-class logic.
func (s *AWSStore) RandomPassword(ctx context.Context, policy config.PasswordPolicy) (string, error) {
	result, err := s.client.GetRandomPassword(ctx, &secretsmanager.GetRandomPasswordInput{
		ExcludeCharacters:       &policy.ExcludeCharacters,
		PasswordLength:          &policy.Length,
		ExcludeNumbers:          &policy.ExcludeNumbers,
		ExcludePunctuation:      &policy.ExcludePunctuation,
		ExcludeUppercase:        &policy.ExcludeUppercase,
		ExcludeLowercase:        &policy.ExcludeLowercase,
		RequireEachIncludedType: &policy.RequireEachIncludedType,
	})
	if err != nil {
		return "", s.classify(err, "GetRandomPassword", "")
	}
	if result.RandomPassword == nil {
		return "", rotation.ExternalSystemError{
			System: "secretsmanager",
			Op:     "GetRandomPassword",
			Err:    errors.New("empty password in response"),
		}
	}
	return *result.RandomPassword, nil
}

// classify maps AWS SDK errors onto the rotation error taxonomy.
func (s *AWSStore) classify(err error, op, secretID string) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return rotation.NotFoundError{Kind: "secret", ID: secretID, Err: err}
	}
	return rotation.ExternalSystemError{System: "secretsmanager", Op: op, Err: err}
}
