package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-matcher/internal/types"
)

// InsertTask inserts a pending task unless a live (pending or processing)
// task with the same dedup key exists. Returns false when deduplicated.
func (db *DB) InsertTask(ctx context.Context, t *types.QueueTask) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO queue_tasks (id, type, dedup_key, payload, status, attempts, created_at)
		 SELECT $1, $2, $3, $4, 'pending', 0, $5
		 WHERE NOT EXISTS (
		   SELECT 1 FROM queue_tasks
		   WHERE dedup_key = $3 AND status IN ('pending', 'processing')
		 )`,
		t.ID, t.Type, t.DedupKey, t.Payload, t.CreatedAt,
	)
	if err != nil {
		return false, storeErr("insert task", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ClaimPending atomically claims up to limit pending tasks in submission
// order. FOR UPDATE SKIP LOCKED makes the pending->processing transition a
// compare-and-set: two concurrent drains never claim the same task.
func (db *DB) ClaimPending(ctx context.Context, limit int) ([]types.QueueTask, error) {
	rows, err := db.pool.Query(ctx,
		`UPDATE queue_tasks SET status = 'processing', claimed_at = NOW()
		 WHERE id IN (
		   SELECT id FROM queue_tasks
		   WHERE status = 'pending'
		   ORDER BY created_at ASC
		   LIMIT $1
		   FOR UPDATE SKIP LOCKED
		 )
		 RETURNING id, type, dedup_key, payload, status, attempts, COALESCE(last_error, ''), claimed_at, created_at`,
		limit,
	)
	if err != nil {
		return nil, storeErr("claim pending tasks", err)
	}
	defer rows.Close()

	var tasks []types.QueueTask
	for rows.Next() {
		var t types.QueueTask
		if err := rows.Scan(&t.ID, &t.Type, &t.DedupKey, &t.Payload, &t.Status,
			&t.Attempts, &t.LastError, &t.ClaimedAt, &t.CreatedAt); err != nil {
			return nil, storeErr("scan claimed task", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CompleteTask marks a processing task completed.
func (db *DB) CompleteTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE queue_tasks SET status = 'completed', claimed_at = NULL
		 WHERE id = $1 AND status = 'processing'`,
		taskID,
	)
	return storeErr("complete task", err)
}

// FailTask records an attempt and its error, returning the task to pending
// for retry or marking it terminally failed.
func (db *DB) FailTask(ctx context.Context, taskID uuid.UUID, attempts int, lastError string, terminal bool) error {
	status := types.TaskPending
	if terminal {
		status = types.TaskFailed
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE queue_tasks
		 SET status = $2, attempts = $3, last_error = $4, claimed_at = NULL
		 WHERE id = $1 AND status = 'processing'`,
		taskID, status, attempts, lastError,
	)
	return storeErr("fail task", err)
}

// CountByStatus returns per-status task counts.
func (db *DB) CountByStatus(ctx context.Context) (*types.QueueStats, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM queue_tasks GROUP BY status`,
	)
	if err != nil {
		return nil, storeErr("count tasks", err)
	}
	defer rows.Close()

	var stats types.QueueStats
	for rows.Next() {
		var status types.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storeErr("scan task count", err)
		}
		switch status {
		case types.TaskPending:
			stats.Pending = count
		case types.TaskProcessing:
			stats.Processing = count
		case types.TaskCompleted:
			stats.Completed = count
		case types.TaskFailed:
			stats.Failed = count
		}
	}
	return &stats, rows.Err()
}

// ReclaimStale returns processing tasks claimed before cutoff to pending so a
// crashed worker cannot stall them forever.
func (db *DB) ReclaimStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE queue_tasks SET status = 'pending', claimed_at = NULL
		 WHERE status = 'processing' AND claimed_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, storeErr("reclaim stale tasks", err)
	}
	return int(tag.RowsAffected()), nil
}
