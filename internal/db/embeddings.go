package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-matcher/internal/types"
)

// GetResumeEmbedding retrieves a user's resume embedding, or nil when the
// resume has never been processed.
func (db *DB) GetResumeEmbedding(ctx context.Context, userID uuid.UUID) (*types.ResumeEmbedding, error) {
	var e types.ResumeEmbedding
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, vector, skills, job_titles, industries, education, updated_at
		 FROM resume_embeddings WHERE user_id = $1`,
		userID,
	).Scan(&e.UserID, &e.Vector, &e.Skills, &e.JobTitles, &e.Industries, &e.Education, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, storeErr("get resume embedding", err)
	}
	return &e, nil
}

// UpsertResumeEmbedding creates or overwrites the user's embedding row.
func (db *DB) UpsertResumeEmbedding(ctx context.Context, e *types.ResumeEmbedding) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO resume_embeddings (user_id, vector, skills, job_titles, industries, education, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
		   vector = $2, skills = $3, job_titles = $4, industries = $5,
		   education = $6, updated_at = $7`,
		e.UserID, e.Vector, e.Skills, e.JobTitles, e.Industries, e.Education, e.UpdatedAt,
	)
	return storeErr("upsert resume embedding", err)
}

// ListUsersNeedingEmbedding returns up to limit users with resume text whose
// embedding is missing or older than the resume's last edit, oldest edit
// first so no user starves.
func (db *DB) ListUsersNeedingEmbedding(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT p.user_id
		 FROM candidate_profiles p
		 LEFT JOIN resume_embeddings e ON e.user_id = p.user_id
		 WHERE COALESCE(p.resume_text, '') <> ''
		   AND (e.user_id IS NULL OR p.resume_updated_at > e.updated_at)
		 ORDER BY COALESCE(p.resume_updated_at, p.created_at) ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, storeErr("list users needing embedding", err)
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("scan user id", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// GetJobVector retrieves the cached description vector for a job, or nil.
func (db *DB) GetJobVector(ctx context.Context, jobID uuid.UUID) ([]float32, error) {
	var vector []float32
	err := db.pool.QueryRow(ctx,
		`SELECT vector FROM job_vectors WHERE job_id = $1`,
		jobID,
	).Scan(&vector)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, storeErr("get job vector", err)
	}
	return vector, nil
}

// UpsertJobVector caches the description vector for a job.
func (db *DB) UpsertJobVector(ctx context.Context, jobID uuid.UUID, vector []float32) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO job_vectors (job_id, vector)
		 VALUES ($1, $2)
		 ON CONFLICT (job_id) DO UPDATE SET vector = $2`,
		jobID, vector,
	)
	return storeErr("upsert job vector", err)
}
