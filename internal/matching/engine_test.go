package matching

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	jobs     map[uuid.UUID]*types.Job
	profiles map[uuid.UUID]*types.CandidateProfile
	optIn    []types.CandidateProfile
	active   []types.Job
	matches  map[string]types.JobMatch // job_id:profile_id
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:     make(map[uuid.UUID]*types.Job),
		profiles: make(map[uuid.UUID]*types.CandidateProfile),
		matches:  make(map[string]types.JobMatch),
	}
}

func (s *fakeStore) GetJob(_ context.Context, jobID uuid.UUID) (*types.Job, error) {
	return s.jobs[jobID], nil
}

func (s *fakeStore) GetProfileByUserID(_ context.Context, userID uuid.UUID) (*types.CandidateProfile, error) {
	return s.profiles[userID], nil
}

func (s *fakeStore) ListAlertOptInProfiles(_ context.Context) ([]types.CandidateProfile, error) {
	return s.optIn, nil
}

func (s *fakeStore) ListActiveJobs(_ context.Context, _ time.Time, limit int) ([]types.Job, error) {
	if len(s.active) > limit {
		return s.active[:limit], nil
	}
	return s.active, nil
}

func (s *fakeStore) UpsertJobMatch(_ context.Context, m *types.JobMatch) error {
	s.matches[m.JobID.String()+":"+m.ProfileID.String()] = *m
	return nil
}

func TestFindMatchingJobSeekers_ThresholdAndOrder(t *testing.T) {
	store := newFakeStore()
	jobID := uuid.New()
	store.jobs[jobID] = warehouseJob()

	strong := *urgentBilingualProfile()
	strong.ID = uuid.New()

	weak := types.CandidateProfile{
		ID:       uuid.New(),
		Skills:   []string{"forklift"},
		JobTypes: []string{"warehouse"},
		ZipCode:  "95351",
	}

	noMatch := types.CandidateProfile{
		ID:      uuid.New(),
		Skills:  []string{"accounting"},
		ZipCode: "90210",
	}

	store.optIn = []types.CandidateProfile{noMatch, weak, strong}

	engine := NewEngine(store, nil)
	matches, err := engine.FindMatchingJobSeekers(context.Background(), jobID)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, strong.ID, matches[0].Profile.ID)
	assert.Equal(t, weak.ID, matches[1].Profile.ID)
	assert.GreaterOrEqual(t, matches[1].Result.Score, SeekerMatchThreshold)
}

func TestFindMatchingJobSeekers_UnknownJob(t *testing.T) {
	engine := NewEngine(newFakeStore(), nil)

	_, err := engine.FindMatchingJobSeekers(context.Background(), uuid.New())

	var notFound *ErrJobNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestFindMatchingJobs_ThresholdAndOrder(t *testing.T) {
	store := newFakeStore()
	userID := uuid.New()
	profile := urgentBilingualProfile()
	profile.ID = uuid.New()
	profile.UserID = userID
	store.profiles[userID] = profile

	great := *warehouseJob()
	great.ID = uuid.New()

	okJob := types.Job{
		ID:       uuid.New(),
		Title:    "Warehouse Helper",
		Location: "Modesto, CA",
	}

	unrelated := types.Job{
		ID:    uuid.New(),
		Title: "Senior Accountant",
	}

	store.active = []types.Job{unrelated, okJob, great}

	engine := NewEngine(store, nil)
	results, err := engine.FindMatchingJobs(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, great.ID, results[0].Job.ID)
	assert.Equal(t, okJob.ID, results[1].Job.ID)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Result.Score, JobMatchThreshold)
	}
}

func TestFindMatchingJobs_UnknownUser(t *testing.T) {
	engine := NewEngine(newFakeStore(), nil)

	_, err := engine.FindMatchingJobs(context.Background(), uuid.New())

	var notFound *ErrProfileNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestJobMatchScore_MissingEntitiesReturnNil(t *testing.T) {
	store := newFakeStore()
	jobID := uuid.New()
	userID := uuid.New()
	store.jobs[jobID] = warehouseJob()

	engine := NewEngine(store, nil)

	result, err := engine.JobMatchScore(context.Background(), jobID, userID)
	require.NoError(t, err)
	assert.Nil(t, result)

	profile := urgentBilingualProfile()
	profile.UserID = userID
	store.profiles[userID] = profile

	result, err = engine.JobMatchScore(context.Background(), jobID, userID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, MaxScore, result.Score)
}

func TestProcessFeaturedJobMatching_UpsertsQualifyingPairs(t *testing.T) {
	store := newFakeStore()
	jobID := uuid.New()
	store.jobs[jobID] = warehouseJob()

	strong := *urgentBilingualProfile()
	strong.ID = uuid.New()
	weak := types.CandidateProfile{ID: uuid.New(), Skills: []string{"accounting"}}
	store.optIn = []types.CandidateProfile{strong, weak}

	engine := NewEngine(store, nil)
	matches, err := engine.ProcessFeaturedJobMatching(context.Background(), jobID)

	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, strong.ID, matches[0].ProfileID)
	assert.Len(t, store.matches, 1)

	// Re-running scores the same pair again instead of duplicating it.
	_, err = engine.ProcessFeaturedJobMatching(context.Background(), jobID)
	require.NoError(t, err)
	assert.Len(t, store.matches, 1)
}
