package gen

import "fmt"

// GenerationError represents a content generation failure after retries have
// been exhausted.
type GenerationError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed for %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed for %s: %s", e.Kind, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
