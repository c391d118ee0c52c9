// Package types defines the core domain entities shared across the matching pipeline.
package types

import (
	"time"

	"github.com/google/uuid"
)

// CareerGoal describes what the candidate wants out of their job search.
type CareerGoal string

// Career goal values set during onboarding.
const (
	GoalNeedJobASAP     CareerGoal = "need_job_asap"
	GoalBuildCareer     CareerGoal = "build_career"
	GoalExploringFields CareerGoal = "exploring_fields"
)

// CandidateProfile is the structured onboarding profile for one user.
// Profiles are written by the user-facing onboarding flow; the matching core
// only ever reads them.
type CandidateProfile struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	ZipCode            string     `json:"zip_code"`
	TravelRadiusMiles  int        `json:"travel_radius_miles"`
	AvailabilityDays   []string   `json:"availability_days"`
	AvailabilityShifts []string   `json:"availability_shifts"`
	JobTypes           []string   `json:"job_types"`
	Skills             []string   `json:"skills"`
	CareerGoal         CareerGoal `json:"career_goal"`
	OptInEmailAlerts   bool       `json:"opt_in_email_alerts"`
	OptInSmsAlerts     bool       `json:"opt_in_sms_alerts"`
	ResumeText         string     `json:"resume_text,omitempty"`
	ResumeUpdatedAt    *time.Time `json:"resume_updated_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

// ResumeEmbedding holds the structured attributes and vector extracted from a
// user's resume. There is at most one row per user; reprocessing overwrites it.
type ResumeEmbedding struct {
	UserID     uuid.UUID `json:"user_id"`
	Vector     []float32 `json:"vector"`
	Skills     []string  `json:"skills"`
	JobTitles  []string  `json:"job_titles"`
	Industries []string  `json:"industries"`
	Education  []string  `json:"education"`
	UpdatedAt  time.Time `json:"updated_at"`
}
