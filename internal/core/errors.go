package core

import "fmt"

// ValidationError reports caller intent that violates an identity invariant,
// such as enabling a bootstrap window with no network allow-list. It is
// surfaced to the caller and never retried internally.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// NotFoundError reports an operation against a charge point with no identity
// record. Callers are expected to provision before binding or updating.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}
