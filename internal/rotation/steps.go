package rotation

import (
	"context"
	"fmt"
	"strings"

	"github.com/systmms/atlasrotate/internal/logging"
)

// createSecret generates the candidate secret version.
//
// If a pending version already exists under this token the call is a
// retry and succeeds without regenerating, so the password written on
// the first attempt survives. A pending version under a different token
// means a concurrent rotation and is a conflict.
func (d *Dispatcher) createSecret(ctx context.Context, secretID, token string, stages VersionStages) error {
	current, err := d.fetchDictionary(ctx, VersionQuery{
		SecretID: secretID,
		Stage:    StageCurrent,
	})
	if err != nil {
		return fmt.Errorf("no current version to rotate for %s: %w", secretID, err)
	}

	if _, err := d.fetchDictionary(ctx, VersionQuery{
		SecretID: secretID,
		Stage:    StagePending,
		Token:    token,
	}); err == nil {
		d.logger.Info("pending version %s already exists for %s, skipping generation", token, secretID)
		return nil
	} else if !IsNotFound(err) {
		return err
	}

	for holder := range stages.Stages {
		if !strings.EqualFold(holder, token) && stages.HasStage(holder, StagePending) {
			return ConflictError{
				SecretID: secretID,
				Token:    token,
				Message:  fmt.Sprintf("pending stage is held by version %s", holder),
			}
		}
	}

	password, err := d.store.RandomPassword(ctx, d.cfg.Policy)
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	candidate := current
	candidate.Password = password
	if err := RewriteAllConnectionStrings(&candidate, password); err != nil {
		return err
	}

	payload, err := candidate.Encode()
	if err != nil {
		return err
	}
	if err := d.store.PutPendingVersion(ctx, secretID, token, payload); err != nil {
		return err
	}

	d.logger.Info("created pending version %s for %s", token, secretID)
	return nil
}

// setSecret pushes the pending password to the target database user.
func (d *Dispatcher) setSecret(ctx context.Context, secretID, token string) error {
	pending, err := d.fetchDictionary(ctx, VersionQuery{
		SecretID: secretID,
		Stage:    StagePending,
		Token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to get pending version for %s: %w", secretID, err)
	}

	projectID, err := d.users.GetProjectID(ctx, pending.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to resolve project %s (%s): %w", pending.ProjectID, pending.ProjectName, err)
	}

	authDB := pending.ResolvedAuthDatabase()
	if err := d.users.UpdateUserPassword(ctx, projectID, authDB, pending.Username, pending.Password); err != nil {
		return fmt.Errorf("failed to update user %s: %w", pending.Username, err)
	}

	d.logger.Info("set pending password for user %s on %s", pending.Username, secretID)
	return nil
}

// testSecret verifies the pending credentials by opening an
// authenticated connection through the candidate endpoints in priority
// order. Only exhaustion of every present candidate fails the step.
func (d *Dispatcher) testSecret(ctx context.Context, secretID, token string) error {
	pending, err := d.fetchDictionary(ctx, VersionQuery{
		SecretID: secretID,
		Stage:    StagePending,
		Token:    token,
	})
	if err != nil {
		return fmt.Errorf("failed to get pending version for %s: %w", secretID, err)
	}

	// Driver errors echo the URI, which carries the pending password.
	redacted := func(err error) string {
		return logging.Redact(err.Error(), []string{pending.Password})
	}

	var attempts []string
	var lastErr error
	for _, candidate := range connectionCandidates {
		uri := *candidate.get(&pending)
		if strings.TrimSpace(uri) == "" {
			continue
		}
		attempts = append(attempts, candidate.key)

		conn, err := d.connector.Connect(ctx, uri)
		if err != nil {
			lastErr = fmt.Errorf("%s: connect failed: %w", candidate.key, err)
			d.logger.Debug("candidate %s failed to connect: %s", candidate.key, redacted(err))
			continue
		}

		err = conn.Ping(ctx)
		if closeErr := conn.Close(ctx); closeErr != nil {
			d.logger.Warn("failed to close test connection for %s: %s", candidate.key, redacted(closeErr))
		}
		if err != nil {
			// A connection that cannot serve a ping is as dead as one
			// that never opened; try the next candidate.
			lastErr = fmt.Errorf("%s: ping failed: %w", candidate.key, err)
			d.logger.Debug("candidate %s failed liveness probe: %s", candidate.key, redacted(err))
			continue
		}

		d.logger.Info("verified pending credentials for %s via %s", secretID, candidate.key)
		return nil
	}

	if len(attempts) == 0 {
		return ValidationError{Message: "secret has no connection-string field to test against"}
	}
	return ConnectivityError{Attempts: attempts, Err: lastErr}
}

// finishSecret promotes the pending version to current. Failures here
// are logged and never returned: once the current label has moved the
// rotation has effectively succeeded, and surfacing a cleanup error
// would make the orchestrator retry a finished promotion.
func (d *Dispatcher) finishSecret(ctx context.Context, secretID, token string, stages VersionStages) {
	holder := stages.TokenForStage(StageCurrent)
	if strings.EqualFold(holder, token) {
		d.logger.Info("version %s already marked current for %s", token, secretID)
		return
	}

	if err := d.store.MoveLabel(ctx, secretID, StageCurrent, token, holder); err != nil {
		d.logger.Error("failed to promote version %s for %s: %v", token, secretID, err)
		return
	}

	if err := d.store.RemoveLabel(ctx, secretID, StagePending, token); err != nil {
		// The promotion held; the version just keeps a stale pending
		// label until the next rotation.
		d.logger.Error("failed to remove pending label from %s for %s: %v", token, secretID, err)
		return
	}

	d.logger.Info("promoted version %s to current for %s", token, secretID)
}
