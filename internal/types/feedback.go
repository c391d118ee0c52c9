package types

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackAction is an explicit user action on a job recommendation.
type FeedbackAction string

// Feedback actions, strongest positive to strongest negative signal.
const (
	ActionApplied       FeedbackAction = "applied"
	ActionSaved         FeedbackAction = "saved"
	ActionViewed        FeedbackAction = "viewed"
	ActionDismissed     FeedbackAction = "dismissed"
	ActionNotInterested FeedbackAction = "not_interested"
)

// Valid reports whether a is a known feedback action.
func (a FeedbackAction) Valid() bool {
	switch a {
	case ActionApplied, ActionSaved, ActionViewed, ActionDismissed, ActionNotInterested:
		return true
	}
	return false
}

// FeedbackEvent is one append-only feedback record. Events are never mutated;
// the preference model is derived from them.
type FeedbackEvent struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	JobID     uuid.UUID      `json:"job_id"`
	Action    FeedbackAction `json:"action"`
	Rating    *int           `json:"rating,omitempty"` // 1-5 when present
	Note      string         `json:"note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
