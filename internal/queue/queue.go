// Package queue implements the durable, poll-driven task queue that sequences
// embedding jobs, featured-job matching runs, and match-notification dispatch.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-matcher/internal/types"
)

// DefaultMaxAttempts is the retry ceiling before a task fails terminally.
const DefaultMaxAttempts = 5

// DefaultClaimTimeout is how long a claim may be held before the sweep
// returns the task to pending.
const DefaultClaimTimeout = 10 * time.Minute

// TaskStore is the persistence contract for queue tasks. Claim semantics are
// the core correctness property: ClaimPending must atomically move tasks from
// pending to processing so two concurrent drains never share a task.
type TaskStore interface {
	// InsertTask inserts a pending task unless a live task with the same dedup
	// key exists. Returns false when deduplicated.
	InsertTask(ctx context.Context, task *types.QueueTask) (bool, error)
	// ClaimPending atomically claims up to limit pending tasks in submission
	// order, stamping claimed_at and moving them to processing.
	ClaimPending(ctx context.Context, limit int) ([]types.QueueTask, error)
	// CompleteTask marks a processing task completed.
	CompleteTask(ctx context.Context, taskID uuid.UUID) error
	// FailTask records the attempt and error; terminal moves the task to
	// failed, otherwise back to pending for retry.
	FailTask(ctx context.Context, taskID uuid.UUID, attempts int, lastError string, terminal bool) error
	// CountByStatus returns per-status task counts.
	CountByStatus(ctx context.Context) (*types.QueueStats, error)
	// ReclaimStale returns processing tasks claimed before cutoff to pending.
	ReclaimStale(ctx context.Context, cutoff time.Time) (int, error)
}

// Handler executes one task type.
type Handler func(ctx context.Context, task *types.QueueTask) error

// BatchResult aggregates one ProcessAllPending invocation. Per-task failures
// never abort the batch; they are counted here instead.
type BatchResult struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// permanentError marks a handler failure that retrying cannot fix, such as a
// malformed payload or a deleted subject. It fails the task immediately.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so the queue fails the task without further retries.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Queue dispatches claimed tasks to registered handlers.
type Queue struct {
	store       TaskStore
	handlers    map[types.TaskType]Handler
	maxAttempts int
	logger      *zap.Logger
}

// New creates a Queue. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(store TaskStore, maxAttempts int, logger *zap.Logger) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		store:       store,
		handlers:    make(map[types.TaskType]Handler),
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Register installs the handler for a task type.
func (q *Queue) Register(taskType types.TaskType, handler Handler) {
	q.handlers[taskType] = handler
}

// Enqueue inserts a pending task. subjectID builds the per-type dedup key, so
// at most one live task exists per (type, subject) at a time. Returns false
// when an equivalent task is already queued.
func (q *Queue) Enqueue(ctx context.Context, taskType types.TaskType, subjectID string, payload any) (bool, error) {
	if !taskType.Valid() {
		return false, fmt.Errorf("unknown task type: %q", taskType)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("failed to marshal task payload: %w", err)
	}

	task := &types.QueueTask{
		ID:        uuid.New(),
		Type:      taskType,
		DedupKey:  fmt.Sprintf("%s:%s", taskType, subjectID),
		Payload:   body,
		Status:    types.TaskPending,
		CreatedAt: time.Now(),
	}

	inserted, err := q.store.InsertTask(ctx, task)
	if err != nil {
		return false, fmt.Errorf("failed to enqueue %s task: %w", taskType, err)
	}
	if !inserted {
		q.logger.Debug("task deduplicated", zap.String("dedup_key", task.DedupKey))
	}
	return inserted, nil
}

// ProcessAllPending claims up to batchSize pending tasks and executes them
// concurrently, bounded by batchSize. Each task is completed on success;
// on error its attempt count grows and it returns to pending, or to failed
// once attempts reach the ceiling.
func (q *Queue) ProcessAllPending(ctx context.Context, batchSize int) (BatchResult, error) {
	if batchSize <= 0 {
		batchSize = 25
	}

	tasks, err := q.store.ClaimPending(ctx, batchSize)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to claim pending tasks: %w", err)
	}
	if len(tasks) == 0 {
		return BatchResult{}, nil
	}

	var successful, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for i := range tasks {
		task := tasks[i]
		g.Go(func() error {
			if q.runTask(gctx, &task) {
				successful.Add(1)
			} else {
				failed.Add(1)
			}
			// Task failures are recorded, not propagated: one bad task must
			// not cancel the rest of the batch.
			return nil
		})
	}
	_ = g.Wait()

	result := BatchResult{
		Processed:  len(tasks),
		Successful: int(successful.Load()),
		Failed:     int(failed.Load()),
	}

	q.logger.Info("batch drained",
		zap.Int("processed", result.Processed),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))

	return result, nil
}

// runTask executes one claimed task and records the outcome. Returns true on
// success.
func (q *Queue) runTask(ctx context.Context, task *types.QueueTask) bool {
	handler, ok := q.handlers[task.Type]
	if !ok {
		q.recordFailure(ctx, task, fmt.Errorf("no handler registered for type %q", task.Type), true)
		return false
	}

	if err := handler(ctx, task); err != nil {
		var perm *permanentError
		terminal := errors.As(err, &perm) || task.Attempts+1 >= q.maxAttempts
		q.recordFailure(ctx, task, err, terminal)
		return false
	}

	if err := q.store.CompleteTask(ctx, task.ID); err != nil {
		q.logger.Error("failed to mark task completed",
			zap.String("task_id", task.ID.String()), zap.Error(err))
		return false
	}
	return true
}

// recordFailure increments attempts and either requeues the task or fails it
// terminally once attempts are exhausted.
func (q *Queue) recordFailure(ctx context.Context, task *types.QueueTask, taskErr error, terminal bool) {
	attempts := task.Attempts + 1

	if terminal {
		q.logger.Error("task failed terminally",
			zap.String("task_id", task.ID.String()),
			zap.String("type", string(task.Type)),
			zap.Int("attempts", attempts),
			zap.Error(taskErr))
	} else {
		q.logger.Warn("task failed, will retry",
			zap.String("task_id", task.ID.String()),
			zap.String("type", string(task.Type)),
			zap.Int("attempts", attempts),
			zap.Error(taskErr))
	}

	if err := q.store.FailTask(ctx, task.ID, attempts, taskErr.Error(), terminal); err != nil {
		q.logger.Error("failed to record task failure",
			zap.String("task_id", task.ID.String()), zap.Error(err))
	}
}

// Stats returns per-status task counts for observability.
func (q *Queue) Stats(ctx context.Context) (*types.QueueStats, error) {
	stats, err := q.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	return stats, nil
}

// ReclaimStale sweeps tasks stuck in processing past the claim timeout back
// to pending. Crash safety: a worker that died mid-claim must not stall its
// tasks forever.
func (q *Queue) ReclaimStale(ctx context.Context, claimTimeout time.Duration) (int, error) {
	if claimTimeout <= 0 {
		claimTimeout = DefaultClaimTimeout
	}
	reclaimed, err := q.store.ReclaimStale(ctx, time.Now().Add(-claimTimeout))
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale tasks: %w", err)
	}
	if reclaimed > 0 {
		q.logger.Warn("reclaimed stale tasks", zap.Int("count", reclaimed))
	}
	return reclaimed, nil
}
