// Package prefs maintains the per-user weighted-feature preference model that
// feedback events accumulate into.
package prefs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-matcher/internal/types"
)

// affinityScale is the accumulated-weight magnitude that saturates the
// normalized affinity component. Ten strong positive signals on an attribute
// max out its contribution.
const affinityScale = 10.0

// Store is the persistence contract for user preferences.
type Store interface {
	GetUserPreference(ctx context.Context, userID uuid.UUID) (*types.UserPreference, error)
	UpsertUserPreference(ctx context.Context, pref *types.UserPreference) error
}

// Service loads, updates, and persists preference models.
type Service struct {
	store Store
}

// NewService creates a Service with its store dependency.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the user's preference model, or an empty model when the user
// has never given feedback.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*types.UserPreference, error) {
	pref, err := s.store.GetUserPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user preference: %w", err)
	}
	if pref == nil {
		pref = &types.UserPreference{UserID: userID}
	}
	return pref, nil
}

// Accumulate applies a signed feedback weight for a job to the user's
// preference model and persists it. Weights add to existing bucket entries,
// never overwrite, and may go negative.
func (s *Service) Accumulate(ctx context.Context, userID uuid.UUID, job *types.Job, weight float64) error {
	pref, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	Apply(pref, job, weight)
	pref.UpdatedAt = time.Now()

	if err := s.store.UpsertUserPreference(ctx, pref); err != nil {
		return fmt.Errorf("failed to persist user preference: %w", err)
	}
	return nil
}

// Apply accumulates the signed weight into every bucket relevant to the job.
// Pure: mutates pref only.
func Apply(pref *types.UserPreference, job *types.Job, weight float64) {
	if job.JobType != "" {
		pref.JobTypes = addWeight(pref.JobTypes, job.JobType, weight)
	}
	if job.Industry != "" {
		pref.Industries = addWeight(pref.Industries, job.Industry, weight)
	}
	if job.Location != "" {
		pref.Locations = addWeight(pref.Locations, job.Location, weight)
	}
	if job.Company != "" {
		pref.Companies = addWeight(pref.Companies, job.Company, weight)
	}
	for _, skill := range job.Skills {
		if skill != "" {
			pref.Skills = addWeight(pref.Skills, skill, weight)
		}
	}

	if job.SalaryMin != nil || job.SalaryMax != nil {
		applySalary(&pref.SalaryRange, job, weight)
	}
}

// Affinity computes the normalized [0,1] preference component for a job.
// 0.5 is neutral: a user with no accumulated signal on the job's attributes
// neither boosts nor buries it.
func Affinity(pref *types.UserPreference, job *types.Job) float64 {
	total := lookupWeight(pref.JobTypes, job.JobType) +
		lookupWeight(pref.Industries, job.Industry) +
		lookupWeight(pref.Locations, job.Location) +
		lookupWeight(pref.Companies, job.Company)

	for _, skill := range job.Skills {
		total += lookupWeight(pref.Skills, skill)
	}

	if salaryOverlaps(&pref.SalaryRange, job) {
		total += pref.SalaryRange.Weight
	}

	scaled := total / affinityScale
	if scaled > 1 {
		scaled = 1
	}
	if scaled < -1 {
		scaled = -1
	}
	return 0.5 + 0.5*scaled
}

// addWeight accumulates weight into the bucket entry for value, creating the
// entry on first sight. Matching is case-insensitive.
func addWeight(bucket []types.WeightedValue, value string, weight float64) []types.WeightedValue {
	for i := range bucket {
		if strings.EqualFold(bucket[i].Value, value) {
			bucket[i].Weight += weight
			return bucket
		}
	}
	return append(bucket, types.WeightedValue{Value: value, Weight: weight})
}

// lookupWeight returns the accumulated weight for value, 0 when absent.
func lookupWeight(bucket []types.WeightedValue, value string) float64 {
	if value == "" {
		return 0
	}
	for i := range bucket {
		if strings.EqualFold(bucket[i].Value, value) {
			return bucket[i].Weight
		}
	}
	return 0
}

// applySalary widens the preferred band toward the job's band on positive
// signal and accumulates the weight either way.
func applySalary(sp *types.SalaryPreference, job *types.Job, weight float64) {
	min, max := salaryBand(job)

	if sp.Weight == 0 && sp.Min == 0 && sp.Max == 0 {
		sp.Min, sp.Max = min, max
	} else if weight > 0 {
		if min > 0 && (sp.Min == 0 || min < sp.Min) {
			sp.Min = min
		}
		if max > sp.Max {
			sp.Max = max
		}
	}
	sp.Weight += weight
}

// salaryOverlaps reports whether the job's band intersects the preferred band.
func salaryOverlaps(sp *types.SalaryPreference, job *types.Job) bool {
	if sp.Weight == 0 || (job.SalaryMin == nil && job.SalaryMax == nil) {
		return false
	}
	min, max := salaryBand(job)
	return min <= sp.Max && max >= sp.Min
}

func salaryBand(job *types.Job) (int, int) {
	min, max := 0, 0
	if job.SalaryMin != nil {
		min = *job.SalaryMin
	}
	if job.SalaryMax != nil {
		max = *job.SalaryMax
	}
	if max == 0 {
		max = min
	}
	if min == 0 {
		min = max
	}
	return min, max
}
