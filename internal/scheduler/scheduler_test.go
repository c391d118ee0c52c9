package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/queue"
	"github.com/jonathan/job-matcher/internal/types"
)

type memTaskStore struct {
	mu    sync.Mutex
	tasks []*types.QueueTask
}

func (s *memTaskStore) InsertTask(_ context.Context, task *types.QueueTask) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.DedupKey == task.DedupKey && (t.Status == types.TaskPending || t.Status == types.TaskProcessing) {
			return false, nil
		}
	}
	cp := *task
	s.tasks = append(s.tasks, &cp)
	return true, nil
}

func (s *memTaskStore) ClaimPending(_ context.Context, limit int) ([]types.QueueTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var claimed []types.QueueTask
	now := time.Now()
	for _, t := range s.tasks {
		if len(claimed) == limit {
			break
		}
		if t.Status == types.TaskPending {
			t.Status = types.TaskProcessing
			t.ClaimedAt = &now
			claimed = append(claimed, *t)
		}
	}
	return claimed, nil
}

func (s *memTaskStore) CompleteTask(_ context.Context, taskID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == taskID {
			t.Status = types.TaskCompleted
		}
	}
	return nil
}

func (s *memTaskStore) FailTask(_ context.Context, taskID uuid.UUID, attempts int, lastError string, terminal bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == taskID {
			t.Attempts = attempts
			t.LastError = lastError
			if terminal {
				t.Status = types.TaskFailed
			} else {
				t.Status = types.TaskPending
			}
		}
	}
	return nil
}

func (s *memTaskStore) CountByStatus(context.Context) (*types.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &types.QueueStats{}
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
	return stats, nil
}

func (s *memTaskStore) ReclaimStale(_ context.Context, cutoff time.Time) (int, error) {
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

type fakeEmbeddingSource struct {
	users []uuid.UUID
}

func (f *fakeEmbeddingSource) UsersNeedingProcessing(context.Context, int) ([]uuid.UUID, error) {
	return f.users, nil
}

type fakeJobSource struct {
	jobs []types.Job
}

func (f *fakeJobSource) ListFeaturedActiveJobs(context.Context) ([]types.Job, error) {
	return f.jobs, nil
}

func TestRunProcessing_SeedsAndDrains(t *testing.T) {
	store := &memTaskStore{}

	var mu sync.Mutex
	handled := map[types.TaskType]int{}
	record := func(taskType types.TaskType) queue.Handler {
		return func(context.Context, *types.QueueTask) error {
			mu.Lock()
			defer mu.Unlock()
			handled[taskType]++
			return nil
		}
	}

	q := queue.New(store, 3, nil)
	q.Register(types.TaskResumeEmbedding, record(types.TaskResumeEmbedding))
	q.Register(types.TaskFeaturedMatch, record(types.TaskFeaturedMatch))

	embeddings := &fakeEmbeddingSource{users: []uuid.UUID{uuid.New(), uuid.New()}}
	jobs := &fakeJobSource{jobs: []types.Job{{ID: uuid.New(), Featured: true}}}

	s := New(q, embeddings, jobs, 10, time.Minute, "@daily", nil)
	s.RunProcessing(context.Background())

	assert.Equal(t, 2, handled[types.TaskResumeEmbedding])
	assert.Equal(t, 1, handled[types.TaskFeaturedMatch])

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Completed)
	assert.Zero(t, stats.Pending)
}

func TestRunProcessing_RerunDeduplicates(t *testing.T) {
	store := &memTaskStore{}

	q := queue.New(store, 3, nil)
	// No drain happens when the handler is missing and the task stays live,
	// so use a handler that always retries to keep tasks in the queue.
	q.Register(types.TaskResumeEmbedding, func(context.Context, *types.QueueTask) error {
		return assert.AnError
	})

	userID := uuid.New()
	embeddings := &fakeEmbeddingSource{users: []uuid.UUID{userID}}
	jobs := &fakeJobSource{}

	s := New(q, embeddings, jobs, 10, time.Minute, "@daily", nil)
	s.RunProcessing(context.Background())
	s.RunProcessing(context.Background())

	stats, err := q.Stats(context.Background())
	require.NoError(t, err)
	// The retrying task was re-claimed, not duplicated.
	assert.Equal(t, 1, stats.Pending+stats.Failed)
}

func TestStartRejectsBadSpec(t *testing.T) {
	q := queue.New(&memTaskStore{}, 3, nil)
	s := New(q, &fakeEmbeddingSource{}, &fakeJobSource{}, 10, time.Minute, "every day at noon", nil)

	err := s.Start(context.Background())

	assert.Error(t, err)
}
