package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-matcher/internal/types"
)

// Collaborative-filtering bounds.
const (
	maxSimilarUsers      = 20
	maxCollaborativeJobs = 20
)

// CollaborativeJob is a job surfaced because similar users engaged with it.
type CollaborativeJob struct {
	Job types.Job `json:"job"`
	// SharedUsers is how many similar users applied to or saved the job.
	SharedUsers int `json:"shared_users"`
}

// CollaborativeResult is the output of CollaborativeInsights.
type CollaborativeResult struct {
	SimilarUsers int                `json:"similar_users"`
	Jobs         []CollaborativeJob `json:"jobs"`
}

// engaged reports whether an action counts as engagement for similarity.
func engaged(action types.FeedbackAction) bool {
	return action == types.ActionApplied || action == types.ActionSaved
}

// CollaborativeInsights finds users whose application/save history overlaps
// the target user's, then surfaces jobs those users engaged with that the
// target has not seen. A user with no engagement history gets an empty result
// rather than an error.
func (e *Engine) CollaborativeInsights(ctx context.Context, userID uuid.UUID) (*CollaborativeResult, Metadata, error) {
	meta := Metadata{Algorithm: "collaborative", Version: AlgorithmVersion, GeneratedAt: time.Now()}

	own, err := e.store.ListUserFeedback(ctx, userID)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to load user feedback: %w", err)
	}

	seen := make(map[uuid.UUID]bool)
	var engagedJobs []uuid.UUID
	for _, ev := range own {
		if !seen[ev.JobID] && engaged(ev.Action) {
			engagedJobs = append(engagedJobs, ev.JobID)
		}
		seen[ev.JobID] = true
	}
	if len(engagedJobs) == 0 {
		return &CollaborativeResult{}, meta, nil
	}

	// Users who engaged with any of the same jobs, ranked by overlap size.
	others, err := e.store.ListFeedbackForJobs(ctx, engagedJobs)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to load overlapping feedback: %w", err)
	}

	overlap := make(map[uuid.UUID]int)
	for _, ev := range others {
		if ev.UserID == userID || !engaged(ev.Action) {
			continue
		}
		overlap[ev.UserID]++
	}
	if len(overlap) == 0 {
		return &CollaborativeResult{}, meta, nil
	}

	similar := make([]uuid.UUID, 0, len(overlap))
	for id := range overlap {
		similar = append(similar, id)
	}
	sort.Slice(similar, func(i, j int) bool {
		if overlap[similar[i]] != overlap[similar[j]] {
			return overlap[similar[i]] > overlap[similar[j]]
		}
		return similar[i].String() < similar[j].String()
	})
	if len(similar) > maxSimilarUsers {
		similar = similar[:maxSimilarUsers]
	}

	// Jobs the similar users engaged with that the target has never seen.
	theirEvents, err := e.store.ListFeedbackByUsers(ctx, similar)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to load similar-user feedback: %w", err)
	}

	jobUsers := make(map[uuid.UUID]map[uuid.UUID]bool)
	for _, ev := range theirEvents {
		if seen[ev.JobID] || !engaged(ev.Action) {
			continue
		}
		if jobUsers[ev.JobID] == nil {
			jobUsers[ev.JobID] = make(map[uuid.UUID]bool)
		}
		jobUsers[ev.JobID][ev.UserID] = true
	}

	jobs := make([]CollaborativeJob, 0, len(jobUsers))
	for jobID, users := range jobUsers {
		job, err := e.store.GetJob(ctx, jobID)
		if err != nil {
			return nil, meta, fmt.Errorf("failed to load job %s: %w", jobID, err)
		}
		if job == nil || !job.Live() {
			continue
		}
		jobs = append(jobs, CollaborativeJob{Job: *job, SharedUsers: len(users)})
	}

	sort.SliceStable(jobs, func(i, j int) bool {
		if jobs[i].SharedUsers != jobs[j].SharedUsers {
			return jobs[i].SharedUsers > jobs[j].SharedUsers
		}
		return jobs[i].Job.ID.String() < jobs[j].Job.ID.String()
	})
	if len(jobs) > maxCollaborativeJobs {
		jobs = jobs[:maxCollaborativeJobs]
	}

	return &CollaborativeResult{SimilarUsers: len(similar), Jobs: jobs}, meta, nil
}
