package recommend

import "fmt"

// ErrValidation indicates a malformed recommendation or feedback request. It
// is rejected synchronously and never retried.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
