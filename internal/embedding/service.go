// Package embedding orchestrates resume extraction and persistence of
// per-user resume embeddings.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/llm"
	"github.com/jonathan/job-matcher/internal/types"
)

// extractionTimeout bounds the external extractor call. Timeouts count toward
// the owning task's attempt budget.
const extractionTimeout = 60 * time.Second

// Extractor converts resume text into structured attributes plus a vector.
type Extractor interface {
	ExtractResume(ctx context.Context, resumeText string) (*llm.ResumeExtraction, error)
}

// Store is the persistence contract for resume embeddings.
type Store interface {
	GetResumeEmbedding(ctx context.Context, userID uuid.UUID) (*types.ResumeEmbedding, error)
	UpsertResumeEmbedding(ctx context.Context, emb *types.ResumeEmbedding) error
	// ListUsersNeedingEmbedding returns users lacking an embedding or whose
	// resume was edited after the embedding's updated_at, oldest edit first.
	ListUsersNeedingEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// Service is the resume embedding service.
type Service struct {
	store     Store
	extractor Extractor
	logger    *zap.Logger
}

// NewService creates a Service with its dependencies.
func NewService(store Store, extractor Extractor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, extractor: extractor, logger: logger}
}

// ProcessResumeEmbedding extracts structured attributes and a vector from the
// resume text and upserts the user's embedding row. Extraction failures
// surface as *llm.ExtractionError so the queue can retry.
func (s *Service) ProcessResumeEmbedding(ctx context.Context, userID uuid.UUID, resumeText string) error {
	ctx, cancel := context.WithTimeout(ctx, extractionTimeout)
	defer cancel()

	extraction, err := s.extractor.ExtractResume(ctx, resumeText)
	if err != nil {
		return err
	}

	emb := &types.ResumeEmbedding{
		UserID:     userID,
		Vector:     extraction.Vector,
		Skills:     extraction.Skills,
		JobTitles:  extraction.JobTitles,
		Industries: extraction.Industries,
		Education:  extraction.Education,
		UpdatedAt:  time.Now(),
	}

	if err := s.store.UpsertResumeEmbedding(ctx, emb); err != nil {
		return fmt.Errorf("failed to persist resume embedding: %w", err)
	}

	s.logger.Info("resume embedding updated",
		zap.String("user_id", userID.String()),
		zap.Int("skills", len(emb.Skills)),
		zap.Int("vector_len", len(emb.Vector)))

	return nil
}

// GetResumeEmbedding returns the user's current embedding, or nil when the
// resume has never been processed.
func (s *Service) GetResumeEmbedding(ctx context.Context, userID uuid.UUID) (*types.ResumeEmbedding, error) {
	return s.store.GetResumeEmbedding(ctx, userID)
}

// UsersNeedingProcessing returns up to limit users whose resume has no
// embedding yet or was edited after the last extraction, oldest first so no
// user starves.
func (s *Service) UsersNeedingProcessing(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 50
	}
	users, err := s.store.ListUsersNeedingEmbedding(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users needing embedding: %w", err)
	}
	return users, nil
}
