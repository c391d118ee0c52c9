package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/matching"
	"github.com/jonathan/job-matcher/internal/prefs"
	"github.com/jonathan/job-matcher/internal/types"
)

// AlgorithmVersion tags every recommendation response so clients can tell
// which generation of the blend produced it.
const AlgorithmVersion = "v2"

// Blend weights for the personalized score components.
const (
	heuristicWeight  = 0.4
	similarityWeight = 0.3
	preferenceWeight = 0.3
)

// Confidence band cutoffs on the blended [0,1] score.
const (
	highConfidenceCutoff   = 0.8
	mediumConfidenceCutoff = 0.6
)

// Candidate-set bounds for personalized recommendations.
const (
	defaultLimit        = 20
	candidateJobLimit   = 200
	candidateWindowDays = 60
)

// Store is the persistence contract for the recommendation engine.
type Store interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.CandidateProfile, error)
	ListActiveJobs(ctx context.Context, postedSince time.Time, limit int) ([]types.Job, error)
	ListUserFeedback(ctx context.Context, userID uuid.UUID) ([]types.FeedbackEvent, error)
	ListFeedbackForJobs(ctx context.Context, jobIDs []uuid.UUID) ([]types.FeedbackEvent, error)
	ListFeedbackByUsers(ctx context.Context, userIDs []uuid.UUID) ([]types.FeedbackEvent, error)
	InsertFeedback(ctx context.Context, event *types.FeedbackEvent) error
	CountEngagement(ctx context.Context, region string, since time.Time, limit int) ([]JobEngagement, error)
}

// EmbeddingSource loads resume embeddings.
type EmbeddingSource interface {
	GetResumeEmbedding(ctx context.Context, userID uuid.UUID) (*types.ResumeEmbedding, error)
}

// JobVectorSource provides job-description vectors.
type JobVectorSource interface {
	Vector(ctx context.Context, job *types.Job) ([]float32, error)
}

// PreferenceSource loads and updates per-user preference models.
type PreferenceSource interface {
	Get(ctx context.Context, userID uuid.UUID) (*types.UserPreference, error)
	Accumulate(ctx context.Context, userID uuid.UUID, job *types.Job, weight float64) error
}

// Confidence is the band assigned to one blended recommendation score.
type Confidence string

// Confidence bands.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ConfidenceFor maps a blended [0,1] score to its band.
func ConfidenceFor(score float64) Confidence {
	switch {
	case score >= highConfidenceCutoff:
		return ConfidenceHigh
	case score >= mediumConfidenceCutoff:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Recommendation is one scored job in a personalized list.
type Recommendation struct {
	Job        types.Job  `json:"job"`
	Score      float64    `json:"score"`
	Confidence Confidence `json:"confidence"`
	Heuristic  float64    `json:"heuristic"`
	Similarity float64    `json:"similarity"`
	Affinity   float64    `json:"affinity"`
	Reasons    []string   `json:"reasons"`
}

// Metadata describes how a recommendation list was produced.
type Metadata struct {
	Algorithm   string    `json:"algorithm"`
	Version     string    `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Engine produces recommendation lists and ingests feedback.
type Engine struct {
	store      Store
	embeddings EmbeddingSource
	jobVectors JobVectorSource
	prefs      PreferenceSource
	cache      *TrendingCache
	logger     *zap.Logger
}

// NewEngine creates an Engine with its dependencies. cache may be nil when no
// redis is configured.
func NewEngine(store Store, embeddings EmbeddingSource, jobVectors JobVectorSource, preferences PreferenceSource, cache *TrendingCache, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      store,
		embeddings: embeddings,
		jobVectors: jobVectors,
		prefs:      preferences,
		cache:      cache,
		logger:     logger,
	}
}

// Personalized blends the heuristic match score, resume/job vector similarity,
// and accumulated preference affinity into a ranked list of up to limit jobs.
func (e *Engine) Personalized(ctx context.Context, userID uuid.UUID, limit int, includeApplied bool) ([]Recommendation, Metadata, error) {
	meta := Metadata{Algorithm: "personalized", Version: AlgorithmVersion, GeneratedAt: time.Now()}
	if limit <= 0 {
		limit = defaultLimit
	}

	profile, err := e.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, meta, &matching.ErrProfileNotFound{UserID: userID}
	}

	emb, err := e.embeddings.GetResumeEmbedding(ctx, userID)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to load resume embedding: %w", err)
	}

	pref, err := e.prefs.Get(ctx, userID)
	if err != nil {
		return nil, meta, err
	}

	applied, err := e.appliedJobIDs(ctx, userID)
	if err != nil {
		return nil, meta, err
	}

	postedSince := time.Now().AddDate(0, 0, -candidateWindowDays)
	jobs, err := e.store.ListActiveJobs(ctx, postedSince, candidateJobLimit)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to load candidate jobs: %w", err)
	}

	recs := make([]Recommendation, 0, len(jobs))
	for _, job := range jobs {
		if !includeApplied && applied[job.ID] {
			continue
		}

		heuristic := matching.Score(&job, profile)
		similarity := e.similarity(ctx, emb, &job)
		affinity := prefs.Affinity(pref, &job)

		blended := heuristicWeight*(heuristic.Score/matching.MaxScore) +
			similarityWeight*similarity +
			preferenceWeight*affinity

		recs = append(recs, Recommendation{
			Job:        job,
			Score:      blended,
			Confidence: ConfidenceFor(blended),
			Heuristic:  heuristic.Score / matching.MaxScore,
			Similarity: similarity,
			Affinity:   affinity,
			Reasons:    heuristic.Reasons,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}

	e.logger.Debug("personalized recommendations generated",
		zap.String("user_id", userID.String()),
		zap.Int("candidates", len(jobs)),
		zap.Int("returned", len(recs)))

	return recs, meta, nil
}

// similarity computes the [0,1] vector similarity component. Users without a
// processed resume, and jobs whose vector cannot be produced, contribute 0
// rather than failing the whole list.
func (e *Engine) similarity(ctx context.Context, emb *types.ResumeEmbedding, job *types.Job) float64 {
	if emb == nil || len(emb.Vector) == 0 {
		return 0
	}
	vector, err := e.jobVectors.Vector(ctx, job)
	if err != nil {
		e.logger.Warn("job vector unavailable",
			zap.String("job_id", job.ID.String()), zap.Error(err))
		return 0
	}
	sim := CosineSimilarity(emb.Vector, vector)
	if sim < 0 {
		return 0
	}
	return sim
}

// appliedJobIDs returns the set of jobs the user has applied to.
func (e *Engine) appliedJobIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	events, err := e.store.ListUserFeedback(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user feedback: %w", err)
	}
	applied := make(map[uuid.UUID]bool)
	for _, ev := range events {
		if ev.Action == types.ActionApplied {
			applied[ev.JobID] = true
		}
	}
	return applied, nil
}
