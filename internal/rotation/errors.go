package rotation

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates a malformed event, a missing required field,
// an unsupported engine, or an unknown rotation step.
type ValidationError struct {
	// Field names the offending event or dictionary field, if any.
	Field string

	// Message describes what was wrong.
	Message string
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NotFoundError indicates that a secret, version, project, or database
// user does not exist.
type NotFoundError struct {
	// Kind is what was missing: "secret", "version", "project", "user".
	Kind string

	// ID identifies the missing object.
	ID string

	Err error
}

func (e NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e NotFoundError) Unwrap() error {
	return e.Err
}

// ConflictError indicates that a secret version is not in the stage the
// protocol expects, including a concurrent rotation holding the pending
// stage under a different token.
type ConflictError struct {
	SecretID string
	Token    string
	Message  string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("rotation conflict for %s (token %s): %s", e.SecretID, e.Token, e.Message)
}

// ExternalSystemError indicates that a call to the target credential
// system or the secret store failed. The underlying cause is preserved.
type ExternalSystemError struct {
	// System is the external collaborator: "secretsmanager" or "atlas".
	System string

	// Op is the operation that failed.
	Op string

	Err error
}

func (e ExternalSystemError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.System, e.Op, e.Err)
}

func (e ExternalSystemError) Unwrap() error {
	return e.Err
}

// ConnectivityError indicates that every present connection candidate
// failed to produce a live connection.
type ConnectivityError struct {
	// Attempts lists the candidate fields that were tried.
	Attempts []string

	// Err is the failure from the last candidate tried.
	Err error
}

func (e ConnectivityError) Error() string {
	return fmt.Sprintf("all connection candidates failed (%s): %v",
		strings.Join(e.Attempts, ", "), e.Err)
}

func (e ConnectivityError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var target ConnectivityError
	return errors.As(err, &target)
}
