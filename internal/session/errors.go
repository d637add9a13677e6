package session

import "fmt"

// ValidationError represents malformed or state-invalid input. It is always
// raised before any state mutation, so the caller can correct and resubmit.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NotFoundError represents a missing entity, or one that does not belong to
// the session named in the request.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}
