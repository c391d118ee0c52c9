package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/types"
)

// Thresholds and candidate-set bounds for the two matching directions.
const (
	// SeekerMatchThreshold is the minimum score for alerting a seeker about a job.
	SeekerMatchThreshold = 3.0
	// JobMatchThreshold is the minimum score for listing a job to a seeker.
	JobMatchThreshold = 2.0

	maxCandidateJobs = 100
	jobFreshnessDays = 30
)

// Store is the persistence contract the engine needs. The pgx implementation
// lives in internal/db; tests inject an in-memory fake.
type Store interface {
	GetJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.CandidateProfile, error)
	ListAlertOptInProfiles(ctx context.Context) ([]types.CandidateProfile, error)
	ListActiveJobs(ctx context.Context, postedSince time.Time, limit int) ([]types.Job, error)
	UpsertJobMatch(ctx context.Context, match *types.JobMatch) error
}

// Result is the outcome of scoring one (job, profile) pair.
type Result struct {
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// SeekerMatch pairs a candidate profile with its score against a job.
type SeekerMatch struct {
	Profile types.CandidateProfile `json:"profile"`
	Result  Result                 `json:"result"`
}

// JobResult pairs a job with its score against a candidate profile.
type JobResult struct {
	Job    types.Job `json:"job"`
	Result Result    `json:"result"`
}

// Engine scores jobs against candidate profiles in both directions.
type Engine struct {
	store  Store
	logger *zap.Logger
}

// NewEngine creates an Engine with its store dependency.
func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// Score computes the heuristic compatibility score for one (job, profile)
// pair. It is pure: no I/O, deterministic, and order-independent. The score is
// the sum of fixed rule increments, clamped to [0, MaxScore] after summation.
func Score(job *types.Job, profile *types.CandidateProfile) Result {
	total := 0.0
	reasons := make([]string, 0, len(rules))

	for _, r := range rules {
		increment, reason, ok := r(job, profile)
		if !ok {
			continue
		}
		total += increment
		reasons = append(reasons, reason)
	}

	if total > MaxScore {
		total = MaxScore
	}
	if total < 0 {
		total = 0
	}

	return Result{Score: total, Reasons: reasons}
}

// FindMatchingJobSeekers scores every alert-opted-in profile against the job
// and returns those at or above SeekerMatchThreshold, best first.
func (e *Engine) FindMatchingJobSeekers(ctx context.Context, jobID uuid.UUID) ([]SeekerMatch, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return nil, &ErrJobNotFound{JobID: jobID}
	}

	profiles, err := e.store.ListAlertOptInProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load opted-in profiles: %w", err)
	}

	matches := make([]SeekerMatch, 0, len(profiles))
	for _, profile := range profiles {
		result := Score(job, &profile)
		if result.Score < SeekerMatchThreshold {
			continue
		}
		matches = append(matches, SeekerMatch{Profile: profile, Result: result})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Result.Score > matches[j].Result.Score
	})

	e.logger.Debug("scored job against seekers",
		zap.String("job_id", jobID.String()),
		zap.Int("profiles", len(profiles)),
		zap.Int("matches", len(matches)))

	return matches, nil
}

// FindMatchingJobs scores recent active jobs against the user's profile and
// returns those at or above JobMatchThreshold, best first. The candidate set
// is bounded to the freshest postings for predictable latency.
func (e *Engine) FindMatchingJobs(ctx context.Context, userID uuid.UUID) ([]JobResult, error) {
	profile, err := e.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, &ErrProfileNotFound{UserID: userID}
	}

	postedSince := time.Now().AddDate(0, 0, -jobFreshnessDays)
	jobs, err := e.store.ListActiveJobs(ctx, postedSince, maxCandidateJobs)
	if err != nil {
		return nil, fmt.Errorf("failed to load active jobs: %w", err)
	}

	results := make([]JobResult, 0, len(jobs))
	for _, job := range jobs {
		result := Score(&job, profile)
		if result.Score < JobMatchThreshold {
			continue
		}
		results = append(results, JobResult{Job: job, Result: result})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Result.Score > results[j].Result.Score
	})

	return results, nil
}

// JobMatchScore scores a single (job, user) pair. A missing job or profile is
// not an error for this lookup; it returns nil.
func (e *Engine) JobMatchScore(ctx context.Context, jobID, userID uuid.UUID) (*Result, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	profile, err := e.store.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if job == nil || profile == nil {
		return nil, nil
	}

	result := Score(job, profile)
	return &result, nil
}

// ProcessFeaturedJobMatching scores all opted-in seekers against a featured
// job and upserts one JobMatch row per qualifying pair. Upserts are
// last-writer-wins on (job, profile), so concurrent runs never duplicate rows.
// An unknown job is an error here: the caller asked for a specific posting.
func (e *Engine) ProcessFeaturedJobMatching(ctx context.Context, jobID uuid.UUID) ([]types.JobMatch, error) {
	seekers, err := e.FindMatchingJobSeekers(ctx, jobID)
	if err != nil {
		return nil, err
	}

	matches := make([]types.JobMatch, 0, len(seekers))
	for _, s := range seekers {
		match := types.JobMatch{
			ID:        uuid.New(),
			JobID:     jobID,
			ProfileID: s.Profile.ID,
			Score:     s.Result.Score,
			Reasons:   s.Result.Reasons,
			CreatedAt: time.Now(),
		}
		if err := e.store.UpsertJobMatch(ctx, &match); err != nil {
			return nil, fmt.Errorf("failed to upsert match for profile %s: %w", s.Profile.ID, err)
		}
		matches = append(matches, match)
	}

	e.logger.Info("featured job matching complete",
		zap.String("job_id", jobID.String()),
		zap.Int("matches", len(matches)))

	return matches, nil
}
