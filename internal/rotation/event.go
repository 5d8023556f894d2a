package rotation

import (
	"encoding/json"
	"fmt"
)

// Step represents one of the four phases of secret rotation.
//
// Secrets Manager invokes the rotation function once per step, in order:
//
//	1) StepCreate
//	2) StepSet
//	3) StepTest
//	4) StepFinish
type Step string

const (
	// StepCreate creates a new candidate secret version and labels it
	// AWSPENDING in Secrets Manager.
	StepCreate Step = "createSecret"

	// StepSet pushes the AWSPENDING credentials to the target system.
	StepSet Step = "setSecret"

	// StepTest verifies the AWSPENDING credentials against the target
	// system by opening an authenticated connection.
	StepTest Step = "testSecret"

	// StepFinish moves the AWSCURRENT label onto the pending version,
	// completing the rotation.
	StepFinish Step = "finishSecret"
)

// MarshalText implements encoding.TextMarshaler.
func (s Step) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and rejects any
// value outside the four protocol steps.
func (s *Step) UnmarshalText(text []byte) error {
	*s = Step(text)
	switch *s {
	case StepCreate, StepSet, StepTest, StepFinish:
		return nil
	default:
		return fmt.Errorf("unknown step: %s", text)
	}
}

// Event is the payload Secrets Manager sends for each rotation step.
// It is constructed once per invocation and never mutated.
type Event struct {
	// SecretId is the ARN or name of the secret being rotated.
	SecretId string `json:"SecretId"`

	// ClientRequestToken is the version ID of the candidate secret.
	ClientRequestToken string `json:"ClientRequestToken"`

	// Step is the rotation phase being executed.
	Step Step `json:"Step"`

	// RotationToken is passed through by Secrets Manager for managed
	// rotation; it identifies the version the preconditions run against.
	RotationToken string `json:"RotationToken"`
}

// ParseEvent decodes and validates the inbound orchestrator payload.
func ParseEvent(raw json.RawMessage) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, ValidationError{Message: fmt.Sprintf("malformed rotation event: %v", err)}
	}
	if event.SecretId == "" {
		return Event{}, ValidationError{Field: "SecretId", Message: "must not be empty"}
	}
	if event.ClientRequestToken == "" {
		return Event{}, ValidationError{Field: "ClientRequestToken", Message: "must not be empty"}
	}
	if event.Step == "" {
		return Event{}, ValidationError{Field: "Step", Message: "must not be empty"}
	}
	return event, nil
}

// Token returns the version token the precondition checks run against.
// Managed rotation sends RotationToken; self-managed rotation only sends
// ClientRequestToken.
func (e Event) Token() string {
	if e.RotationToken != "" {
		return e.RotationToken
	}
	return e.ClientRequestToken
}
