package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies which handler processes a queue task.
type TaskType string

// Queue task types.
const (
	TaskResumeEmbedding TaskType = "resume_embedding"
	TaskFeaturedMatch   TaskType = "featured_match"
	TaskNotify          TaskType = "notify"
)

// Valid reports whether t is a known task type.
func (t TaskType) Valid() bool {
	switch t {
	case TaskResumeEmbedding, TaskFeaturedMatch, TaskNotify:
		return true
	}
	return false
}

// TaskStatus is the queue task lifecycle state.
type TaskStatus string

// Task statuses. Transitions are one-directional except failed->pending on
// retry and processing->pending on stale-claim reclaim.
const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// QueueTask is one unit of asynchronous work.
type QueueTask struct {
	ID        uuid.UUID       `json:"id"`
	Type      TaskType        `json:"type"`
	DedupKey  string          `json:"dedup_key"`
	Payload   json.RawMessage `json:"payload"`
	Status    TaskStatus      `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	ClaimedAt *time.Time      `json:"claimed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// QueueStats holds per-status task counts for observability.
type QueueStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
