package model

import "time"

// AssignStrategy determines how an assignee is chosen for each occurrence.
type AssignStrategy string

const (
	AssignNone     AssignStrategy = "none"
	AssignFixed    AssignStrategy = "fixed"
	AssignRotation AssignStrategy = "rotation"
)

type Zone struct {
	ID          int64     `json:"id"`
	HouseholdID int64     `json:"household_id"`
	Name        string    `json:"name"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Chore struct {
	ID                   int64          `json:"id"`
	HouseholdID          int64          `json:"household_id"`
	ZoneID               *int64         `json:"zone_id"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	FrequencyDays        int            `json:"frequency_days"`
	StartDate            time.Time      `json:"start_date"`
	Strategy             AssignStrategy `json:"strategy"`
	FixedAssignee        *int64         `json:"fixed_assignee"`
	RotationSequence     []int64        `json:"rotation_sequence"`
	RotationIntervalDays int            `json:"rotation_interval_days"`
	Archived             bool           `json:"archived"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// ChoreOverride adjusts a single occurrence, keyed by its nominal due date.
// At most one override exists per (chore_id, original_date); writes replace.
type ChoreOverride struct {
	ID           int64      `json:"id"`
	ChoreID      int64      `json:"chore_id"`
	OriginalDate time.Time  `json:"original_date"`
	Skipped      bool       `json:"skipped"`
	NewAssignee  *int64     `json:"new_assignee"`
	NewDate      *time.Time `json:"new_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ChoreCompletion is an append-only record of a chore being done.
type ChoreCompletion struct {
	ID          int64     `json:"id"`
	ChoreID     int64     `json:"chore_id"`
	CompletedBy *int64    `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
	Notes       string    `json:"notes"`
}
