package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/job-matcher/internal/types"
)

// UpsertJobMatch inserts or overwrites the match row for (job, profile).
// Last-writer-wins on the score and reasons; the email_sent flag survives
// re-scoring so a seeker is never alerted twice for the same job.
func (db *DB) UpsertJobMatch(ctx context.Context, m *types.JobMatch) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO job_matches (id, job_id, profile_id, score, reasons, email_sent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (job_id, profile_id) DO UPDATE SET
		   score = $4, reasons = $5, created_at = $7`,
		m.ID, m.JobID, m.ProfileID, m.Score, m.Reasons, m.EmailSent, m.CreatedAt,
	)
	return storeErr("upsert job match", err)
}

// ListUnsentMatches retrieves a job's matches that have not been alerted yet,
// highest score first.
func (db *DB) ListUnsentMatches(ctx context.Context, jobID uuid.UUID) ([]types.JobMatch, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, job_id, profile_id, score, reasons, email_sent, created_at
		 FROM job_matches
		 WHERE job_id = $1 AND email_sent = false
		 ORDER BY score DESC`,
		jobID,
	)
	if err != nil {
		return nil, storeErr("list unsent matches", err)
	}
	defer rows.Close()

	var matches []types.JobMatch
	for rows.Next() {
		var m types.JobMatch
		if err := rows.Scan(&m.ID, &m.JobID, &m.ProfileID, &m.Score, &m.Reasons, &m.EmailSent, &m.CreatedAt); err != nil {
			return nil, storeErr("scan job match", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// CountMatchesSince returns how many match rows were written at or after
// since. Used by the admin full-test report.
func (db *DB) CountMatchesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_matches WHERE created_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, storeErr("count matches", err)
	}
	return count, nil
}
