package embedding

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/types"
)

// JobVectorStore persists job-description vectors keyed by job id.
type JobVectorStore interface {
	GetJobVector(ctx context.Context, jobID uuid.UUID) ([]float32, error)
	UpsertJobVector(ctx context.Context, jobID uuid.UUID, vector []float32) error
}

// TextEmbedder embeds arbitrary text.
type TextEmbedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// JobVectors computes and caches job-description embedding vectors. Postings
// are immutable to the core, so a cached vector never goes stale.
type JobVectors struct {
	store    JobVectorStore
	embedder TextEmbedder
	logger   *zap.Logger
}

// NewJobVectors creates a JobVectors service.
func NewJobVectors(store JobVectorStore, embedder TextEmbedder, logger *zap.Logger) *JobVectors {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobVectors{store: store, embedder: embedder, logger: logger}
}

// Vector returns the embedding vector for a job's description text, computing
// and persisting it on first use.
func (v *JobVectors) Vector(ctx context.Context, job *types.Job) ([]float32, error) {
	cached, err := v.store.GetJobVector(ctx, job.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job vector: %w", err)
	}
	if len(cached) > 0 {
		return cached, nil
	}

	vector, err := v.embedder.EmbedText(ctx, job.Title+"\n"+job.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to embed job text: %w", err)
	}

	if err := v.store.UpsertJobVector(ctx, job.ID, vector); err != nil {
		return nil, fmt.Errorf("failed to persist job vector: %w", err)
	}

	v.logger.Debug("job vector computed", zap.String("job_id", job.ID.String()))
	return vector, nil
}
