package rotation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/systmms/atlasrotate/internal/config"
	"github.com/systmms/atlasrotate/internal/logging"
)

// Dispatcher validates inbound rotation events, enforces the protocol
// preconditions, and routes each event to its step handler. One
// Dispatcher handles one event at a time; all adapter calls are
// sequential blocking I/O and idempotency, not locking, makes
// orchestrator retries safe.
type Dispatcher struct {
	store     Store
	users     Users
	connector Connector
	cfg       *config.Config
	logger    *logging.Logger
	metrics   *Metrics
}

// NewDispatcher wires the rotation core to its collaborators.
func NewDispatcher(store Store, users Users, connector Connector, cfg *config.Config, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		users:     users,
		connector: connector,
		cfg:       cfg,
		logger:    logger,
		metrics:   NewMetrics(),
	}
}

// Handle runs one rotation step. The precondition sequence is identical
// for every step so that a retry of any step after a crash re-validates
// protocol state before acting.
func (d *Dispatcher) Handle(ctx context.Context, raw json.RawMessage) error {
	event, err := ParseEvent(raw)
	if err != nil {
		return err
	}

	secretID := event.SecretId
	token := event.Token()
	d.logger.Info("handling %s for %s (version %s)", event.Step, secretID, token)

	stages, err := d.store.DescribeVersionStages(ctx, secretID)
	if err != nil {
		return fmt.Errorf("failed to describe secret %s: %w", secretID, err)
	}

	if !stages.RotationEnabled {
		return ValidationError{
			Field:   "SecretId",
			Message: fmt.Sprintf("secret %s is not enabled for rotation", stages.Name),
		}
	}

	if _, ok := stages.Stages[token]; !ok {
		return NotFoundError{Kind: "version", ID: fmt.Sprintf("%s for secret %s", token, secretID)}
	}

	if stages.HasStage(token, StageCurrent) {
		// Replay of an already-finished rotation: succeed with no writes.
		d.logger.Info("version %s already current for %s, nothing to do", token, secretID)
		return nil
	}
	if !stages.HasStage(token, StagePending) {
		return ConflictError{
			SecretID: secretID,
			Token:    token,
			Message:  "version is not in pending state",
		}
	}

	start := time.Now()
	d.metrics.RecordStepStarted(string(event.Step))
	err = d.dispatch(ctx, event.Step, secretID, token, stages)
	d.metrics.RecordStepCompleted(string(event.Step), err == nil, time.Since(start).Seconds())
	return err
}

func (d *Dispatcher) dispatch(ctx context.Context, step Step, secretID, token string, stages VersionStages) error {
	switch step {
	case StepCreate:
		if err := d.createSecret(ctx, secretID, token, stages); err != nil {
			return fmt.Errorf("failed to create secret: %w", err)
		}
	case StepSet:
		if err := d.setSecret(ctx, secretID, token); err != nil {
			return fmt.Errorf("failed to set secret: %w", err)
		}
	case StepTest:
		if err := d.testSecret(ctx, secretID, token); err != nil {
			return fmt.Errorf("failed to test secret: %w", err)
		}
	case StepFinish:
		d.finishSecret(ctx, secretID, token, stages)
	default:
		// ParseEvent rejects unknown steps; this branch is unreachable.
		return ValidationError{Field: "Step", Message: fmt.Sprintf("unrecognized step %q", step)}
	}
	return nil
}

// fetchDictionary gets and validates the secret dictionary for a query.
// The engine check runs here, before any step logic touches the payload.
func (d *Dispatcher) fetchDictionary(ctx context.Context, query VersionQuery) (Dictionary, error) {
	raw, err := d.store.GetVersion(ctx, query)
	if err != nil {
		return Dictionary{}, err
	}
	return ParseDictionary(raw, d.cfg.Engine)
}
