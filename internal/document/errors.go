package document

import (
	"errors"
	"fmt"

	"github.com/docledger/docledger/internal/authority"
)

var (
	// ErrNotFound is returned when a document or payment does not exist
	// or has been soft-deleted.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent mutation was detected via
	// the version check.
	ErrConflict = errors.New("conflict: document was modified concurrently")
)

// ValidationError reports malformed input, e.g. a non-positive payment
// amount or inverted thresholds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthorizationError reports that the actor's role is below the tier the
// document amount requires.
type AuthorizationError struct {
	Role     authority.Role
	Required authority.Role
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %s is not authorized: requires %s or above", e.Role, e.Required)
}

// InvalidTransitionError reports an action that is illegal from the
// document's current status. It always carries both the current and the
// attempted target state.
type InvalidTransitionError struct {
	DocType Type
	Current Status
	Action  Action
	Target  Status
}

func (e *InvalidTransitionError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s cannot %s from status %s", e.DocType, e.Action, e.Current)
	}

	return fmt.Sprintf("%s cannot move from %s to %s via %s", e.DocType, e.Current, e.Target, e.Action)
}
