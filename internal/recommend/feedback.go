package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/matching"
	"github.com/jonathan/job-matcher/internal/types"
)

// baseWeights is the signed base weight of each feedback action before rating
// scaling.
var baseWeights = map[types.FeedbackAction]float64{
	types.ActionApplied:       1.0,
	types.ActionSaved:         0.8,
	types.ActionViewed:        0.3,
	types.ActionDismissed:     -0.5,
	types.ActionNotInterested: -1.0,
}

// FeedbackWeight computes the signed preference weight for one feedback
// event: baseWeight(action) x (rating or 3)/3. A missing rating is treated
// as neutral (3) so unrated actions still carry their base signal.
func FeedbackWeight(action types.FeedbackAction, rating *int) float64 {
	r := 3
	if rating != nil {
		r = *rating
	}
	return baseWeights[action] * float64(r) / 3.0
}

// RecordFeedback appends a feedback event and folds its signed weight into
// the user's preference model. The event log is append-only; the preference
// buckets accumulate and are never reset.
func (e *Engine) RecordFeedback(ctx context.Context, userID, jobID uuid.UUID, action types.FeedbackAction, rating *int, note string) error {
	if !action.Valid() {
		return &ErrValidation{Field: "action", Message: fmt.Sprintf("unknown action %q", action)}
	}
	if rating != nil && (*rating < 1 || *rating > 5) {
		return &ErrValidation{Field: "rating", Message: "rating must be between 1 and 5"}
	}

	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job == nil {
		return &matching.ErrJobNotFound{JobID: jobID}
	}

	event := &types.FeedbackEvent{
		ID:        uuid.New(),
		UserID:    userID,
		JobID:     jobID,
		Action:    action,
		Rating:    rating,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if err := e.store.InsertFeedback(ctx, event); err != nil {
		return fmt.Errorf("failed to append feedback event: %w", err)
	}

	weight := FeedbackWeight(action, rating)
	if err := e.prefs.Accumulate(ctx, userID, job, weight); err != nil {
		return err
	}

	e.logger.Debug("feedback recorded",
		zap.String("user_id", userID.String()),
		zap.String("job_id", jobID.String()),
		zap.String("action", string(action)),
		zap.Float64("weight", weight))

	return nil
}
