package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/job-matcher/internal/types"
)

const profileColumns = `id, user_id, zip_code, travel_radius_miles, availability_days,
	availability_shifts, job_types, skills, career_goal, opt_in_email_alerts,
	opt_in_sms_alerts, COALESCE(resume_text, ''), resume_updated_at, created_at`

// GetProfileByUserID retrieves the candidate profile owned by userID, or nil.
func (db *DB) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.CandidateProfile, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM candidate_profiles WHERE user_id = $1`,
		userID,
	)

	profile, err := scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, storeErr("get profile by user", err)
	}
	return profile, nil
}

// ListAlertOptInProfiles retrieves every profile opted in to email match
// alerts.
func (db *DB) ListAlertOptInProfiles(ctx context.Context) ([]types.CandidateProfile, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM candidate_profiles
		 WHERE opt_in_email_alerts = true
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, storeErr("list opt-in profiles", err)
	}
	defer rows.Close()

	var profiles []types.CandidateProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, storeErr("scan opt-in profile", err)
		}
		profiles = append(profiles, *profile)
	}
	return profiles, rows.Err()
}

// scanProfile scans one candidate_profiles row.
func scanProfile(row pgx.Row) (*types.CandidateProfile, error) {
	var p types.CandidateProfile
	err := row.Scan(&p.ID, &p.UserID, &p.ZipCode, &p.TravelRadiusMiles,
		&p.AvailabilityDays, &p.AvailabilityShifts, &p.JobTypes, &p.Skills,
		&p.CareerGoal, &p.OptInEmailAlerts, &p.OptInSmsAlerts,
		&p.ResumeText, &p.ResumeUpdatedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
