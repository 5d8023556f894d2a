// Package fakes provides in-memory fakes for the rotation core's
// collaborators, shared by package tests.
package fakes

import (
	"context"
	"fmt"
	"slices"

	"github.com/systmms/atlasrotate/internal/config"
	"github.com/systmms/atlasrotate/internal/rotation"
)

// FakeStore is an in-memory rotation.Store with version and stage-label
// semantics close enough to Secrets Manager for protocol tests.
type FakeStore struct {
	// Values maps version tokens to stored secret strings.
	Values map[string]string

	// Stages maps version tokens to their stage labels.
	Stages map[string][]string

	// Name and RotationEnabled feed DescribeVersionStages.
	Name            string
	RotationEnabled bool

	// Password is returned by RandomPassword.
	Password string

	// Errors maps operation names ("GetVersion", "PutPendingVersion",
	// "DescribeVersionStages", "MoveLabel", "RemoveLabel",
	// "RandomPassword") to errors to return.
	Errors map[string]error

	// Writes counts mutating store calls.
	Writes int

	// PolicySeen records the last password policy passed in.
	PolicySeen *config.PasswordPolicy
}

// NewFakeStore creates an empty fake store with rotation enabled.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		Values:          make(map[string]string),
		Stages:          make(map[string][]string),
		Name:            "fake-secret",
		RotationEnabled: true,
		Password:        "generated-password-0123456789",
		Errors:          make(map[string]error),
	}
}

// AddVersion stores a value under token with the given stage labels.
func (f *FakeStore) AddVersion(token, value string, labels ...string) {
	f.Values[token] = value
	f.Stages[token] = labels
}

// AddStagedVersion registers a token in the stage map without a stored
// value, matching how Secrets Manager stages a new version before the
// createSecret step has written it.
func (f *FakeStore) AddStagedVersion(token string, labels ...string) {
	f.Stages[token] = labels
}

func (f *FakeStore) GetVersion(ctx context.Context, query rotation.VersionQuery) (string, error) {
	if err := f.Errors["GetVersion"]; err != nil {
		return "", err
	}

	token := query.Token
	if token == "" {
		for candidate, labels := range f.Stages {
			if slices.Contains(labels, query.Stage) {
				token = candidate
				break
			}
		}
	}

	value, ok := f.Values[token]
	if !ok || token == "" {
		return "", rotation.NotFoundError{Kind: "secret", ID: query.SecretID}
	}
	if query.Token != "" && !slices.Contains(f.Stages[token], query.Stage) {
		return "", rotation.NotFoundError{Kind: "version", ID: token}
	}
	return value, nil
}

func (f *FakeStore) PutPendingVersion(ctx context.Context, secretID, token, payload string) error {
	if err := f.Errors["PutPendingVersion"]; err != nil {
		return err
	}
	f.Writes++
	f.Values[token] = payload
	if !slices.Contains(f.Stages[token], rotation.StagePending) {
		f.Stages[token] = append(f.Stages[token], rotation.StagePending)
	}
	return nil
}

func (f *FakeStore) DescribeVersionStages(ctx context.Context, secretID string) (rotation.VersionStages, error) {
	if err := f.Errors["DescribeVersionStages"]; err != nil {
		return rotation.VersionStages{}, err
	}
	copied := make(map[string][]string, len(f.Stages))
	for token, labels := range f.Stages {
		copied[token] = slices.Clone(labels)
	}
	return rotation.VersionStages{
		Name:            f.Name,
		Stages:          copied,
		RotationEnabled: f.RotationEnabled,
	}, nil
}

func (f *FakeStore) MoveLabel(ctx context.Context, secretID, label, toToken, fromToken string) error {
	if err := f.Errors["MoveLabel"]; err != nil {
		return err
	}
	f.Writes++
	if fromToken != "" {
		f.Stages[fromToken] = slices.DeleteFunc(slices.Clone(f.Stages[fromToken]), func(l string) bool {
			return l == label
		})
	}
	if !slices.Contains(f.Stages[toToken], label) {
		f.Stages[toToken] = append(f.Stages[toToken], label)
	}
	return nil
}

func (f *FakeStore) RemoveLabel(ctx context.Context, secretID, label, fromToken string) error {
	if err := f.Errors["RemoveLabel"]; err != nil {
		return err
	}
	f.Writes++
	f.Stages[fromToken] = slices.DeleteFunc(slices.Clone(f.Stages[fromToken]), func(l string) bool {
		return l == label
	})
	return nil
}

func (f *FakeStore) RandomPassword(ctx context.Context, policy config.PasswordPolicy) (string, error) {
	if err := f.Errors["RandomPassword"]; err != nil {
		return "", err
	}
	f.PolicySeen = &policy
	return f.Password, nil
}

// HasLabel reports whether token currently carries label.
func (f *FakeStore) HasLabel(token, label string) bool {
	return slices.Contains(f.Stages[token], label)
}

// String renders the stage map for test failure messages.
func (f *FakeStore) String() string {
	return fmt.Sprintf("FakeStore%v", f.Stages)
}
