package types

import (
	"time"

	"github.com/google/uuid"
)

// WeightedValue is one entry in a preference bucket: a category value and its
// accumulated signed weight. Weights are never reset and may go negative.
type WeightedValue struct {
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// SalaryPreference is the accumulated salary band preference.
type SalaryPreference struct {
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	Weight float64 `json:"weight"`
}

// UserPreference is the evolving per-user preference model built from explicit
// feedback events. One row per user, upserted on every feedback ingestion.
type UserPreference struct {
	UserID      uuid.UUID        `json:"user_id"`
	JobTypes    []WeightedValue  `json:"job_types"`
	Industries  []WeightedValue  `json:"industries"`
	Locations   []WeightedValue  `json:"locations"`
	Companies   []WeightedValue  `json:"companies"`
	Skills      []WeightedValue  `json:"skills"`
	SalaryRange SalaryPreference `json:"salary_range"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
