package matching

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrJobNotFound indicates the referenced job does not exist or is deleted.
type ErrJobNotFound struct {
	JobID uuid.UUID
}

func (e *ErrJobNotFound) Error() string {
	return fmt.Sprintf("job not found: %s", e.JobID)
}

// ErrProfileNotFound indicates the user has no candidate profile.
type ErrProfileNotFound struct {
	UserID uuid.UUID
}

func (e *ErrProfileNotFound) Error() string {
	return fmt.Sprintf("candidate profile not found for user: %s", e.UserID)
}
