package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/matching"
	"github.com/jonathan/job-matcher/internal/types"
)

// EmbeddingPayload is the payload for resume_embedding tasks.
type EmbeddingPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// FeaturedMatchPayload is the payload for featured_match tasks.
type FeaturedMatchPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

// NotifyPayload is the payload for notify tasks.
type NotifyPayload struct {
	JobID uuid.UUID `json:"job_id"`
}

// Embedder processes one user's resume into an embedding row.
type Embedder interface {
	ProcessResumeEmbedding(ctx context.Context, userID uuid.UUID, resumeText string) error
}

// ProfileSource loads candidate profiles for embedding tasks.
type ProfileSource interface {
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.CandidateProfile, error)
}

// Matcher runs featured-job matching and persists the results.
type Matcher interface {
	ProcessFeaturedJobMatching(ctx context.Context, jobID uuid.UUID) ([]types.JobMatch, error)
}

// Alerts dispatches match-alert messages for a job's unsent matches.
type Alerts interface {
	DispatchMatchAlerts(ctx context.Context, jobID uuid.UUID) (int, error)
}

// Handlers bundles the task handlers and their dependencies.
type Handlers struct {
	profiles ProfileSource
	embedder Embedder
	matcher  Matcher
	alerts   Alerts
	logger   *zap.Logger

	queue *Queue // set by Register; used to chain follow-up tasks
}

// NewHandlers creates the handler bundle.
func NewHandlers(profiles ProfileSource, embedder Embedder, matcher Matcher, alerts Alerts, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		profiles: profiles,
		embedder: embedder,
		matcher:  matcher,
		alerts:   alerts,
		logger:   logger,
	}
}

// Register installs all handlers on the queue.
func (h *Handlers) Register(q *Queue) {
	h.queue = q
	q.Register(types.TaskResumeEmbedding, h.handleResumeEmbedding)
	q.Register(types.TaskFeaturedMatch, h.handleFeaturedMatch)
	q.Register(types.TaskNotify, h.handleNotify)
}

// handleResumeEmbedding extracts and persists the embedding for one user.
func (h *Handlers) handleResumeEmbedding(ctx context.Context, task *types.QueueTask) error {
	var payload EmbeddingPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return Permanent(fmt.Errorf("malformed embedding payload: %w", err))
	}

	profile, err := h.profiles.GetProfileByUserID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("failed to load profile for %s: %w", payload.UserID, err)
	}
	if profile == nil {
		return Permanent(fmt.Errorf("no candidate profile for user %s", payload.UserID))
	}
	if profile.ResumeText == "" {
		return Permanent(fmt.Errorf("user %s has no resume text", payload.UserID))
	}

	// Extraction failures come back as *llm.ExtractionError and stay
	// retryable within the attempt budget.
	return h.embedder.ProcessResumeEmbedding(ctx, payload.UserID, profile.ResumeText)
}

// handleFeaturedMatch scores seekers against a featured job and chains a
// notify task when any matches were produced.
func (h *Handlers) handleFeaturedMatch(ctx context.Context, task *types.QueueTask) error {
	var payload FeaturedMatchPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return Permanent(fmt.Errorf("malformed featured match payload: %w", err))
	}

	matches, err := h.matcher.ProcessFeaturedJobMatching(ctx, payload.JobID)
	if err != nil {
		var notFound *matching.ErrJobNotFound
		if errors.As(err, &notFound) {
			return Permanent(err)
		}
		return err
	}

	if len(matches) == 0 {
		return nil
	}

	if _, err := h.queue.Enqueue(ctx, types.TaskNotify, payload.JobID.String(), NotifyPayload{JobID: payload.JobID}); err != nil {
		return fmt.Errorf("failed to chain notify task: %w", err)
	}
	return nil
}

// handleNotify asks the notification collaborator to send alerts for a job's
// unsent matches.
func (h *Handlers) handleNotify(ctx context.Context, task *types.QueueTask) error {
	var payload NotifyPayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		return Permanent(fmt.Errorf("malformed notify payload: %w", err))
	}

	sent, err := h.alerts.DispatchMatchAlerts(ctx, payload.JobID)
	if err != nil {
		return err
	}

	h.logger.Info("match alerts dispatched",
		zap.String("job_id", payload.JobID.String()),
		zap.Int("sent", sent))
	return nil
}
