package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-matcher/internal/types"
)

const jobColumns = `id, title, company, description, location, skills, job_type,
	COALESCE(industry, ''), COALESCE(requirements, ''), COALESCE(benefits, ''),
	salary_min, salary_max, status, featured, posted_at, deleted_at`

// GetJob retrieves a job posting by id, or nil when it does not exist or has
// been deleted.
func (db *DB) GetJob(ctx context.Context, jobID uuid.UUID) (*types.Job, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND deleted_at IS NULL`,
		jobID,
	)

	job, err := scanJob(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, storeErr("get job", err)
	}
	return job, nil
}

// ListActiveJobs retrieves up to limit active, non-deleted jobs posted at or
// after postedSince, newest first.
func (db *DB) ListActiveJobs(ctx context.Context, postedSince time.Time, limit int) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE status = 'active' AND deleted_at IS NULL AND posted_at >= $1
		 ORDER BY posted_at DESC
		 LIMIT $2`,
		postedSince, limit,
	)
	if err != nil {
		return nil, storeErr("list active jobs", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// ListFeaturedActiveJobs retrieves all featured, active, non-deleted jobs.
func (db *DB) ListFeaturedActiveJobs(ctx context.Context) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs
		 WHERE featured = true AND status = 'active' AND deleted_at IS NULL
		 ORDER BY posted_at DESC`,
	)
	if err != nil {
		return nil, storeErr("list featured jobs", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

func collectJobs(rows pgx.Rows) ([]types.Job, error) {
	var jobs []types.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, storeErr("scan job", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// scanJob scans one jobs row.
func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	err := row.Scan(&j.ID, &j.Title, &j.Company, &j.Description, &j.Location,
		&j.Skills, &j.JobType, &j.Industry, &j.Requirements, &j.Benefits,
		&j.SalaryMin, &j.SalaryMax, &j.Status, &j.Featured, &j.PostedAt, &j.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}
