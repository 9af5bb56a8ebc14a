package models

import (
	"time"

	"goflare.io/loyalty/models/enum"
)

// JobRun is the persisted registry entry for a named recurring job. Name is
// the primary key: re-registering the same name updates the schedule, never
// duplicates the row.
type JobRun struct {
	Name        string          `json:"name"`
	Schedule    string          `json:"schedule"`
	LastStartAt *time.Time      `json:"last_start_at,omitempty"`
	LastOutcome enum.JobOutcome `json:"last_outcome"`
	NextRunAt   time.Time       `json:"next_run_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
