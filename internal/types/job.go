package types

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the posting lifecycle status maintained by the employer flow.
type JobStatus string

// Job posting statuses.
const (
	JobStatusActive JobStatus = "active"
	JobStatusPaused JobStatus = "paused"
	JobStatusClosed JobStatus = "closed"
)

// Job is an employer posting. The matching core treats it as read-only; counters
// and moderation state live with the web app.
type Job struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Description  string     `json:"description"`
	Location     string     `json:"location"`
	Skills       []string   `json:"skills"`
	JobType      string     `json:"job_type"`
	Industry     string     `json:"industry,omitempty"`
	Requirements string     `json:"requirements,omitempty"`
	Benefits     string     `json:"benefits,omitempty"`
	SalaryMin    *int       `json:"salary_min,omitempty"`
	SalaryMax    *int       `json:"salary_max,omitempty"`
	Status       JobStatus  `json:"status"`
	Featured     bool       `json:"featured"`
	PostedAt     time.Time  `json:"posted_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Live reports whether the posting should be considered for matching.
func (j *Job) Live() bool {
	return j.Status == JobStatusActive && j.DeletedAt == nil
}
