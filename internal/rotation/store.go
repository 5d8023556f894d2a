package rotation

import (
	"context"

	"github.com/systmms/atlasrotate/internal/config"
)

// Stage labels managed by the rotation protocol. At most one version
// carries StageCurrent at any time; preserving that invariant across a
// promotion is the protocol's job.
const (
	StageCurrent  = "AWSCURRENT"
	StagePending  = "AWSPENDING"
	StagePrevious = "AWSPREVIOUS"
)

// VersionQuery parameterizes a single version fetch. Token is optional;
// when empty the store resolves the stage's current holder.
type VersionQuery struct {
	SecretID string
	Stage    string
	Token    string
}

// VersionStages is the store's view of a secret's versions and whether
// rotation is administratively enabled for it.
type VersionStages struct {
	// Name is the secret's friendly name, for log messages.
	Name string

	// Stages maps version tokens to their attached stage labels.
	Stages map[string][]string

	// RotationEnabled reports whether rotation is enabled for the secret.
	RotationEnabled bool
}

// HasStage reports whether the given token carries the given label.
func (v VersionStages) HasStage(token, stage string) bool {
	for _, label := range v.Stages[token] {
		if label == stage {
			return true
		}
	}
	return false
}

// TokenForStage returns the version token currently holding the given
// label, or "" if no version holds it.
func (v VersionStages) TokenForStage(stage string) string {
	for token, labels := range v.Stages {
		for _, label := range labels {
			if label == stage {
				return token
			}
		}
	}
	return ""
}

// Store is the narrow interface over the external versioned secret
// store. Implementations must return NotFoundError for missing secrets
// and versions so the dispatcher can classify failures.
type Store interface {
	// GetVersion fetches the raw secret string for the query.
	GetVersion(ctx context.Context, query VersionQuery) (string, error)

	// PutPendingVersion stores payload as a new version tagged with the
	// pending stage label and the given token.
	PutPendingVersion(ctx context.Context, secretID, token, payload string) error

	// DescribeVersionStages returns the secret's version-stage map.
	DescribeVersionStages(ctx context.Context, secretID string) (VersionStages, error)

	// MoveLabel moves a stage label onto toToken, removing it from
	// fromToken in the same store operation when fromToken is non-empty.
	MoveLabel(ctx context.Context, secretID, label, toToken, fromToken string) error

	// RemoveLabel detaches a stage label from fromToken.
	RemoveLabel(ctx context.Context, secretID, label, fromToken string) error

	// RandomPassword generates a password satisfying the policy.
	RandomPassword(ctx context.Context, policy config.PasswordPolicy) (string, error)
}
