package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-matcher/internal/types"
)

// GetUserPreference retrieves a user's preference model, or nil when the user
// has never given feedback.
func (db *DB) GetUserPreference(ctx context.Context, userID uuid.UUID) (*types.UserPreference, error) {
	var p types.UserPreference
	var jobTypes, industries, locations, companies, skills, salary []byte

	err := db.pool.QueryRow(ctx,
		`SELECT user_id, job_types, industries, locations, companies, skills, salary_range, updated_at
		 FROM user_preferences WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &jobTypes, &industries, &locations, &companies, &skills, &salary, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, storeErr("get user preference", err)
	}

	if err := decodePreferenceBuckets(&p, jobTypes, industries, locations, companies, skills, salary); err != nil {
		return nil, err
	}

	return &p, nil
}

// decodePreferenceBuckets parses the JSONB bucket columns into the preference
// model. A corrupt column is a store failure, not an empty model.
func decodePreferenceBuckets(p *types.UserPreference, jobTypes, industries, locations, companies, skills, salary []byte) error {
	for _, pair := range []struct {
		raw []byte
		dst *[]types.WeightedValue
	}{
		{jobTypes, &p.JobTypes},
		{industries, &p.Industries},
		{locations, &p.Locations},
		{companies, &p.Companies},
		{skills, &p.Skills},
	} {
		if pair.raw == nil {
			continue
		}
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return storeErr("decode user preference", err)
		}
	}
	if salary != nil {
		if err := json.Unmarshal(salary, &p.SalaryRange); err != nil {
			return storeErr("decode user preference", err)
		}
	}
	return nil
}

// UpsertUserPreference creates or replaces the user's preference row.
func (db *DB) UpsertUserPreference(ctx context.Context, p *types.UserPreference) error {
	jobTypes, err := json.Marshal(p.JobTypes)
	if err != nil {
		return storeErr("marshal preference", err)
	}
	industries, err := json.Marshal(p.Industries)
	if err != nil {
		return storeErr("marshal preference", err)
	}
	locations, err := json.Marshal(p.Locations)
	if err != nil {
		return storeErr("marshal preference", err)
	}
	companies, err := json.Marshal(p.Companies)
	if err != nil {
		return storeErr("marshal preference", err)
	}
	skills, err := json.Marshal(p.Skills)
	if err != nil {
		return storeErr("marshal preference", err)
	}
	salary, err := json.Marshal(p.SalaryRange)
	if err != nil {
		return storeErr("marshal preference", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO user_preferences (user_id, job_types, industries, locations, companies, skills, salary_range, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id) DO UPDATE SET
		   job_types = $2, industries = $3, locations = $4, companies = $5,
		   skills = $6, salary_range = $7, updated_at = $8`,
		p.UserID, jobTypes, industries, locations, companies, skills, salary, p.UpdatedAt,
	)
	return storeErr("upsert user preference", err)
}
