package llm

import "fmt"

// ExtractionError indicates the external embedding service returned unusable
// output. It is retryable; the queue decides whether to retry.
type ExtractionError struct {
	Reason string
	Cause  error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resume extraction failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("resume extraction failed: %s", e.Reason)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
