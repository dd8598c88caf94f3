package engine

import "fmt"

// ValidationError indicates bad input: malformed identifiers, unknown stat
// categories, invalid sources. Nothing was mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NotFoundError covers both genuinely absent records and records owned by a
// different user; cross-user access must not reveal existence.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StateConflictError indicates the record exists but is not in a state that
// permits the operation, e.g. completing a task twice.
type StateConflictError struct {
	Kind   string
	ID     string
	Status string
}

func (e StateConflictError) Error() string {
	return fmt.Sprintf("%s %s is %s", e.Kind, e.ID, e.Status)
}
