package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-matcher/internal/recommend"
	"github.com/jonathan/job-matcher/internal/types"
)

// InsertFeedback appends one feedback event. The log is append-only; events
// are never updated or deleted.
func (db *DB) InsertFeedback(ctx context.Context, ev *types.FeedbackEvent) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO feedback_events (id, user_id, job_id, action, rating, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.UserID, ev.JobID, ev.Action, ev.Rating, ev.Note, ev.CreatedAt,
	)
	return storeErr("insert feedback", err)
}

// ListUserFeedback retrieves all feedback events by one user, oldest first.
func (db *DB) ListUserFeedback(ctx context.Context, userID uuid.UUID) ([]types.FeedbackEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_id, action, rating, COALESCE(note, ''), created_at
		 FROM feedback_events WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, storeErr("list user feedback", err)
	}
	defer rows.Close()

	return collectFeedback(rows)
}

// ListFeedbackForJobs retrieves all feedback events on the given jobs.
func (db *DB) ListFeedbackForJobs(ctx context.Context, jobIDs []uuid.UUID) ([]types.FeedbackEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_id, action, rating, COALESCE(note, ''), created_at
		 FROM feedback_events WHERE job_id = ANY($1)
		 ORDER BY created_at ASC`,
		jobIDs,
	)
	if err != nil {
		return nil, storeErr("list feedback for jobs", err)
	}
	defer rows.Close()

	return collectFeedback(rows)
}

// ListFeedbackByUsers retrieves all feedback events by the given users.
func (db *DB) ListFeedbackByUsers(ctx context.Context, userIDs []uuid.UUID) ([]types.FeedbackEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, job_id, action, rating, COALESCE(note, ''), created_at
		 FROM feedback_events WHERE user_id = ANY($1)
		 ORDER BY created_at ASC`,
		userIDs,
	)
	if err != nil {
		return nil, storeErr("list feedback by users", err)
	}
	defer rows.Close()

	return collectFeedback(rows)
}

func collectFeedback(rows pgx.Rows) ([]types.FeedbackEvent, error) {
	var events []types.FeedbackEvent
	for rows.Next() {
		var ev types.FeedbackEvent
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.JobID, &ev.Action, &ev.Rating, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, storeErr("scan feedback event", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountEngagement aggregates views and applications per active job in region
// since the cutoff, busiest jobs first. Real aggregation over the feedback
// log; nothing here is sampled or simulated.
func (db *DB) CountEngagement(ctx context.Context, region string, since time.Time, limit int) ([]recommend.JobEngagement, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT j.id, j.title, j.company, j.location,
		        COUNT(*) FILTER (WHERE f.action = 'viewed') AS views,
		        COUNT(*) FILTER (WHERE f.action = 'applied') AS applications
		 FROM feedback_events f
		 JOIN jobs j ON j.id = f.job_id
		 WHERE f.created_at >= $1
		   AND j.status = 'active' AND j.deleted_at IS NULL
		   AND ($2 = '' OR j.location ILIKE '%' || $2 || '%')
		 GROUP BY j.id, j.title, j.company, j.location
		 ORDER BY COUNT(*) DESC
		 LIMIT $3`,
		since, region, limit,
	)
	if err != nil {
		return nil, storeErr("count engagement", err)
	}
	defer rows.Close()

	var engagements []recommend.JobEngagement
	for rows.Next() {
		var eng recommend.JobEngagement
		var id uuid.UUID
		if err := rows.Scan(&id, &eng.Job.Title, &eng.Job.Company, &eng.Job.Location,
			&eng.Views, &eng.Applications); err != nil {
			return nil, storeErr("scan engagement", err)
		}
		eng.Job.ID = id.String()
		engagements = append(engagements, eng)
	}
	return engagements, rows.Err()
}
