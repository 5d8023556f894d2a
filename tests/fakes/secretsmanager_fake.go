package fakes

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// FakeSecretsManagerClient is a mock implementation of the Secrets
// Manager client interface used by the AWS store adapter.
type FakeSecretsManagerClient struct {
	// Values maps "secretID/versionID" to secret strings.
	Values map[string]string

	// VersionStages maps secretID to its version-stage map.
	VersionStages map[string]map[string][]string

	// RotationEnabled maps secretID to its rotation flag. A nil entry
	// matches DescribeSecret's response before rotation configuration
	// has settled.
	RotationEnabled map[string]*bool

	// RandomPassword is returned by GetRandomPassword.
	RandomPassword string

	// Errors maps API operation names to errors to return.
	Errors map[string]error

	// PutInputs records every PutSecretValue call.
	PutInputs []*secretsmanager.PutSecretValueInput

	// StageInputs records every UpdateSecretVersionStage call.
	StageInputs []*secretsmanager.UpdateSecretVersionStageInput

	// PasswordInputs records every GetRandomPassword call.
	PasswordInputs []*secretsmanager.GetRandomPasswordInput
}

// NewFakeSecretsManagerClient creates an empty fake client.
func NewFakeSecretsManagerClient() *FakeSecretsManagerClient {
	return &FakeSecretsManagerClient{
		Values:          make(map[string]string),
		VersionStages:   make(map[string]map[string][]string),
		RotationEnabled: make(map[string]*bool),
		RandomPassword:  "fake-random-password-0123456789",
		Errors:          make(map[string]error),
	}
}

// AddVersion stores a secret value for (secretID, versionID) and labels it.
func (f *FakeSecretsManagerClient) AddVersion(secretID, versionID, value string, labels ...string) {
	f.Values[secretID+"/"+versionID] = value
	if f.VersionStages[secretID] == nil {
		f.VersionStages[secretID] = make(map[string][]string)
	}
	f.VersionStages[secretID][versionID] = labels
	f.RotationEnabled[secretID] = aws.Bool(true)
}

func (f *FakeSecretsManagerClient) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if err := f.Errors["GetSecretValue"]; err != nil {
		return nil, err
	}

	secretID := aws.ToString(params.SecretId)
	versionID := aws.ToString(params.VersionId)
	if versionID == "" {
		stage := aws.ToString(params.VersionStage)
		for candidate, labels := range f.VersionStages[secretID] {
			for _, label := range labels {
				if label == stage {
					versionID = candidate
				}
			}
		}
	}

	value, ok := f.Values[secretID+"/"+versionID]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String(fmt.Sprintf("Secrets Manager can't find the specified secret: %s", secretID)),
		}
	}

	return &secretsmanager.GetSecretValueOutput{
		ARN:           aws.String("arn:aws:secretsmanager:us-east-1:123456789012:secret:" + secretID),
		Name:          params.SecretId,
		SecretString:  aws.String(value),
		VersionId:     aws.String(versionID),
		VersionStages: f.VersionStages[secretID][versionID],
	}, nil
}

func (f *FakeSecretsManagerClient) PutSecretValue(ctx context.Context, params *secretsmanager.PutSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	if err := f.Errors["PutSecretValue"]; err != nil {
		return nil, err
	}

	f.PutInputs = append(f.PutInputs, params)
	secretID := aws.ToString(params.SecretId)
	versionID := aws.ToString(params.ClientRequestToken)
	f.Values[secretID+"/"+versionID] = aws.ToString(params.SecretString)
	if f.VersionStages[secretID] == nil {
		f.VersionStages[secretID] = make(map[string][]string)
	}
	f.VersionStages[secretID][versionID] = params.VersionStages

	return &secretsmanager.PutSecretValueOutput{
		VersionId: aws.String(versionID),
	}, nil
}

func (f *FakeSecretsManagerClient) DescribeSecret(ctx context.Context, params *secretsmanager.DescribeSecretInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.DescribeSecretOutput, error) {
	if err := f.Errors["DescribeSecret"]; err != nil {
		return nil, err
	}

	secretID := aws.ToString(params.SecretId)
	stages, ok := f.VersionStages[secretID]
	if !ok {
		return nil, &types.ResourceNotFoundException{
			Message: aws.String("secret not found: " + secretID),
		}
	}

	return &secretsmanager.DescribeSecretOutput{
		Name:               aws.String(secretID),
		RotationEnabled:    f.RotationEnabled[secretID],
		VersionIdsToStages: stages,
	}, nil
}

func (f *FakeSecretsManagerClient) UpdateSecretVersionStage(ctx context.Context, params *secretsmanager.UpdateSecretVersionStageInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.UpdateSecretVersionStageOutput, error) {
	if err := f.Errors["UpdateSecretVersionStage"]; err != nil {
		return nil, err
	}

	f.StageInputs = append(f.StageInputs, params)
	secretID := aws.ToString(params.SecretId)
	label := aws.ToString(params.VersionStage)
	stages := f.VersionStages[secretID]

	if from := aws.ToString(params.RemoveFromVersionId); from != "" {
		var kept []string
		for _, l := range stages[from] {
			if l != label {
				kept = append(kept, l)
			}
		}
		stages[from] = kept
	}
	if to := aws.ToString(params.MoveToVersionId); to != "" {
		stages[to] = append(stages[to], label)
	}

	return &secretsmanager.UpdateSecretVersionStageOutput{}, nil
}

func (f *FakeSecretsManagerClient) GetRandomPassword(ctx context.Context, params *secretsmanager.GetRandomPasswordInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetRandomPasswordOutput, error) {
	if err := f.Errors["GetRandomPassword"]; err != nil {
		return nil, err
	}

	f.PasswordInputs = append(f.PasswordInputs, params)
	password := f.RandomPassword
	if params.PasswordLength != nil && *params.PasswordLength > int64(len(password)) {
		password += strings.Repeat("x", int(*params.PasswordLength)-len(password))
	}
	return &secretsmanager.GetRandomPasswordOutput{
		RandomPassword: aws.String(password),
	}, nil
}
