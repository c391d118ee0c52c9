package types

import (
	"time"

	"github.com/google/uuid"
)

// JobMatch is a persisted compatibility score between a job and a candidate
// profile. The (JobID, ProfileID) pair is unique; re-scoring upserts the row.
type JobMatch struct {
	ID        uuid.UUID `json:"id"`
	JobID     uuid.UUID `json:"job_id"`
	ProfileID uuid.UUID `json:"profile_id"`
	Score     float64   `json:"score"`
	Reasons   []string  `json:"reasons"`
	EmailSent bool      `json:"email_sent"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizedScore maps the 0-5 heuristic score onto the 0-100 scale used by
// the notification threshold.
func (m *JobMatch) NormalizedScore() float64 {
	return m.Score / 5.0 * 100.0
}
