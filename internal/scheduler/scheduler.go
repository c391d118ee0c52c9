// Package scheduler wires up the cron jobs that drive batch processing: the
// scheduled queue drain and the stale-claim sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/queue"
	"github.com/jonathan/job-matcher/internal/types"
)

// sweepSpec runs the stale-claim sweep often enough that a crashed worker's
// tasks are back in rotation within a minute of the claim timeout.
const sweepSpec = "@every 1m"

// EmbeddingSource lists users whose resumes need (re)processing.
type EmbeddingSource interface {
	UsersNeedingProcessing(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// JobSource lists the featured jobs that get priority matching runs.
type JobSource interface {
	ListFeaturedActiveJobs(ctx context.Context) ([]types.Job, error)
}

// Scheduler wraps robfig/cron and manages the processing loop.
type Scheduler struct {
	cron         *cron.Cron
	queue        *queue.Queue
	embeddings   EmbeddingSource
	jobs         JobSource
	batchSize    int
	claimTimeout time.Duration
	spec         string // cron spec for the processing run, e.g. "@daily"
	logger       *zap.Logger
}

// New creates a Scheduler.
func New(q *queue.Queue, embeddings EmbeddingSource, jobs JobSource, batchSize int, claimTimeout time.Duration, spec string, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:         cron.New(),
		queue:        q,
		embeddings:   embeddings,
		jobs:         jobs,
		batchSize:    batchSize,
		claimTimeout: claimTimeout,
		spec:         spec,
		logger:       logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunProcessing(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc processing: %w", err)
	}
	if _, err := s.cron.AddFunc(sweepSpec, func() { s.sweep(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc sweep: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("processing_spec", s.spec),
		zap.String("sweep_spec", sweepSpec))
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}

// RunProcessing seeds the queue with due work and drains one batch: embedding
// tasks for users whose resumes changed, featured-match runs for featured
// postings, then the drain itself.
func (s *Scheduler) RunProcessing(ctx context.Context) {
	s.logger.Info("processing cycle started")

	users, err := s.embeddings.UsersNeedingProcessing(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("failed to list users needing processing", zap.Error(err))
	}
	for _, userID := range users {
		if _, err := s.queue.Enqueue(ctx, types.TaskResumeEmbedding, userID.String(),
			queue.EmbeddingPayload{UserID: userID}); err != nil {
			s.logger.Error("failed to enqueue embedding task",
				zap.String("user_id", userID.String()), zap.Error(err))
		}
	}

	featured, err := s.jobs.ListFeaturedActiveJobs(ctx)
	if err != nil {
		s.logger.Error("failed to list featured jobs", zap.Error(err))
	}
	for _, job := range featured {
		if _, err := s.queue.Enqueue(ctx, types.TaskFeaturedMatch, job.ID.String(),
			queue.FeaturedMatchPayload{JobID: job.ID}); err != nil {
			s.logger.Error("failed to enqueue featured match task",
				zap.String("job_id", job.ID.String()), zap.Error(err))
		}
	}

	result, err := s.queue.ProcessAllPending(ctx, s.batchSize)
	if err != nil {
		s.logger.Error("queue drain failed", zap.Error(err))
		return
	}

	s.logger.Info("processing cycle complete",
		zap.Int("enqueued_embeddings", len(users)),
		zap.Int("enqueued_featured", len(featured)),
		zap.Int("processed", result.Processed),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed))
}

// sweep reclaims tasks stuck in processing past the claim timeout.
func (s *Scheduler) sweep(ctx context.Context) {
	if _, err := s.queue.ReclaimStale(ctx, s.claimTimeout); err != nil {
		s.logger.Error("stale-claim sweep failed", zap.Error(err))
	}
}
