package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

// memStore is a concurrency-safe in-memory TaskStore with the same claim and
// dedup semantics as the pgx implementation.
type memStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*types.QueueTask
	order []uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{tasks: make(map[uuid.UUID]*types.QueueTask)}
}

func (s *memStore) InsertTask(_ context.Context, task *types.QueueTask) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.DedupKey == task.DedupKey &&
			(t.Status == types.TaskPending || t.Status == types.TaskProcessing) {
			return false, nil
		}
	}

	cp := *task
	s.tasks[task.ID] = &cp
	s.order = append(s.order, task.ID)
	return true, nil
}

func (s *memStore) ClaimPending(_ context.Context, limit int) ([]types.QueueTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var claimed []types.QueueTask
	now := time.Now()
	for _, id := range s.order {
		if len(claimed) >= limit {
			break
		}
		t := s.tasks[id]
		if t.Status != types.TaskPending {
			continue
		}
		t.Status = types.TaskProcessing
		t.ClaimedAt = &now
		claimed = append(claimed, *t)
	}
	return claimed, nil
}

func (s *memStore) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.Status != types.TaskProcessing {
		return nil
	}
	t.Status = types.TaskCompleted
	t.ClaimedAt = nil
	return nil
}

func (s *memStore) FailTask(_ context.Context, taskID uuid.UUID, attempts int, lastError string, terminal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.Status != types.TaskProcessing {
		return nil
	}
	t.Attempts = attempts
	t.LastError = lastError
	t.ClaimedAt = nil
	if terminal {
		t.Status = types.TaskFailed
	} else {
		t.Status = types.TaskPending
	}
	return nil
}

func (s *memStore) CountByStatus(_ context.Context) (*types.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats types.QueueStats
	for _, t := range s.tasks {
		switch t.Status {
		case types.TaskPending:
			stats.Pending++
		case types.TaskProcessing:
			stats.Processing++
		case types.TaskCompleted:
			stats.Completed++
		case types.TaskFailed:
			stats.Failed++
		}
	}
	return &stats, nil
}

func (s *memStore) ReclaimStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reclaimed := 0
	for _, t := range s.tasks {
		if t.Status == types.TaskProcessing && t.ClaimedAt != nil && t.ClaimedAt.Before(cutoff) {
			t.Status = types.TaskPending
			t.ClaimedAt = nil
			reclaimed++
		}
	}
	return reclaimed, nil
}

func (s *memStore) get(id uuid.UUID) types.QueueTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.tasks[id]
}

func TestEnqueue_DeduplicatesLiveTasks(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()
	userID := uuid.New()

	inserted, err := q.Enqueue(ctx, types.TaskResumeEmbedding, userID.String(), EmbeddingPayload{UserID: userID})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = q.Enqueue(ctx, types.TaskResumeEmbedding, userID.String(), EmbeddingPayload{UserID: userID})
	require.NoError(t, err)
	assert.False(t, inserted)

	// A different subject is not deduplicated.
	inserted, err = q.Enqueue(ctx, types.TaskResumeEmbedding, uuid.NewString(), EmbeddingPayload{UserID: uuid.New()})
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestEnqueue_RejectsUnknownType(t *testing.T) {
	q := New(newMemStore(), 0, nil)

	_, err := q.Enqueue(context.Background(), types.TaskType("bogus"), "x", nil)
	assert.Error(t, err)
}

func TestProcessAllPending_SecondDrainIsEmpty(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()

	q.Register(types.TaskResumeEmbedding, func(context.Context, *types.QueueTask) error {
		return nil
	})

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, uuid.NewString(), nil)
		require.NoError(t, err)
	}

	result, err := q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Processed: 3, Successful: 3}, result)

	// Completed work is not re-claimed.
	result, err = q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{}, result)
}

func TestProcessAllPending_FailureReturnsToPending(t *testing.T) {
	store := newMemStore()
	q := New(store, 3, nil)
	ctx := context.Background()

	q.Register(types.TaskResumeEmbedding, func(context.Context, *types.QueueTask) error {
		return errors.New("upstream flake")
	})

	_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, "subject", nil)
	require.NoError(t, err)

	result, err := q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Processed: 1, Failed: 1}, result)

	taskID := store.order[0]
	task := store.get(taskID)
	assert.Equal(t, types.TaskPending, task.Status)
	assert.Equal(t, 1, task.Attempts)
	assert.Equal(t, "upstream flake", task.LastError)

	// Attempts 2 and 3 exhaust the ceiling; the task fails terminally.
	for i := 0; i < 2; i++ {
		_, err = q.ProcessAllPending(ctx, 10)
		require.NoError(t, err)
	}
	task = store.get(taskID)
	assert.Equal(t, types.TaskFailed, task.Status)
	assert.Equal(t, 3, task.Attempts)

	// Terminal tasks stay failed.
	result, err = q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, result.Processed)
}

func TestProcessAllPending_PermanentErrorSkipsRetries(t *testing.T) {
	store := newMemStore()
	q := New(store, 5, nil)
	ctx := context.Background()

	q.Register(types.TaskResumeEmbedding, func(context.Context, *types.QueueTask) error {
		return Permanent(errors.New("subject deleted"))
	})

	_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, "gone", nil)
	require.NoError(t, err)

	_, err = q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)

	task := store.get(store.order[0])
	assert.Equal(t, types.TaskFailed, task.Status)
	assert.Equal(t, 1, task.Attempts)
}

func TestProcessAllPending_OneBadTaskDoesNotAbortBatch(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()

	q.Register(types.TaskResumeEmbedding, func(_ context.Context, task *types.QueueTask) error {
		if task.DedupKey == "resume_embedding:bad" {
			return errors.New("boom")
		}
		return nil
	})

	for _, subject := range []string{"good-1", "bad", "good-2"} {
		_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, subject, nil)
		require.NoError(t, err)
	}

	result, err := q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Processed: 3, Successful: 2, Failed: 1}, result)
}

func TestProcessAllPending_ConcurrentDrainsClaimExclusively(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()

	const taskCount = 50

	var mu sync.Mutex
	executions := make(map[string]int)
	q.Register(types.TaskResumeEmbedding, func(_ context.Context, task *types.QueueTask) error {
		mu.Lock()
		executions[task.DedupKey]++
		mu.Unlock()
		return nil
	})

	for i := 0; i < taskCount; i++ {
		_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, uuid.NewString(), nil)
		require.NoError(t, err)
	}

	// Two drains race over the same pending set; a claim moves a task to
	// processing atomically, so no task may be handed to both.
	results := make([]BatchResult, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := q.ProcessAllPending(ctx, taskCount)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	assert.Equal(t, taskCount, results[0].Successful+results[1].Successful)
	assert.Equal(t, taskCount, results[0].Processed+results[1].Processed)

	assert.Len(t, executions, taskCount)
	for key, count := range executions {
		assert.Equal(t, 1, count, "task %s executed more than once", key)
	}

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, taskCount, stats.Completed)
	assert.Zero(t, stats.Pending)
	assert.Zero(t, stats.Processing)
}

func TestProcessAllPending_MissingHandlerFailsTerminally(t *testing.T) {
	store := newMemStore()
	q := New(store, 5, nil)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, types.TaskNotify, "job", nil)
	require.NoError(t, err)

	result, err := q.ProcessAllPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)

	task := store.get(store.order[0])
	assert.Equal(t, types.TaskFailed, task.Status)
}

func TestProcessAllPending_FIFOClaimOrder(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()

	var processed []string
	var mu sync.Mutex
	q.Register(types.TaskResumeEmbedding, func(_ context.Context, task *types.QueueTask) error {
		mu.Lock()
		processed = append(processed, task.DedupKey)
		mu.Unlock()
		return nil
	})

	for _, subject := range []string{"first", "second", "third"} {
		_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, subject, nil)
		require.NoError(t, err)
	}

	// Batch size 1 forces one claim per drain, exposing claim order.
	for i := 0; i < 3; i++ {
		_, err := q.ProcessAllPending(ctx, 1)
		require.NoError(t, err)
	}

	assert.Equal(t, []string{
		"resume_embedding:first",
		"resume_embedding:second",
		"resume_embedding:third",
	}, processed)
}

func TestReclaimStale(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, "stuck", nil)
	require.NoError(t, err)

	claimed, err := store.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// Backdate the claim past the timeout.
	store.mu.Lock()
	old := time.Now().Add(-time.Hour)
	store.tasks[claimed[0].ID].ClaimedAt = &old
	store.mu.Unlock()

	reclaimed, err := q.ReclaimStale(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, reclaimed)

	task := store.get(claimed[0].ID)
	assert.Equal(t, types.TaskPending, task.Status)

	// Fresh claims are left alone.
	_, err = store.ClaimPending(ctx, 1)
	require.NoError(t, err)
	reclaimed, err = q.ReclaimStale(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Zero(t, reclaimed)
}

func TestStats(t *testing.T) {
	store := newMemStore()
	q := New(store, 0, nil)
	ctx := context.Background()

	q.Register(types.TaskResumeEmbedding, func(context.Context, *types.QueueTask) error {
		return nil
	})

	_, err := q.Enqueue(ctx, types.TaskResumeEmbedding, "a", nil)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, types.TaskResumeEmbedding, "b", nil)
	require.NoError(t, err)

	_, err = q.ProcessAllPending(ctx, 1)
	require.NoError(t, err)

	stats, err := q.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Completed)
}
