package schedule

import (
	"fmt"

	"time"

	"github.com/rfinnegan/chorewheel/internal/model"
)

// ConfigError reports a chore whose scheduling fields are invalid. It is
// detected at resolution time and scoped to the one chore; other chores in
// the same query are unaffected.
type ConfigError struct {
	ChoreID int64
	Field   string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("chore %d: invalid %s: %s", e.ChoreID, e.Field, e.Reason)
}

// Validate checks the scheduling configuration of a chore.
func Validate(c model.Chore) error {
	if c.FrequencyDays < 1 {
		return &ConfigError{ChoreID: c.ID, Field: "frequency_days", Reason: "must be at least 1"}
	}
	if c.Strategy == model.AssignRotation {
		if len(c.RotationSequence) == 0 {
			return &ConfigError{ChoreID: c.ID, Field: "rotation_sequence", Reason: "must not be empty"}
		}
		if c.RotationIntervalDays < 1 {
			return &ConfigError{ChoreID: c.ID, Field: "rotation_interval_days", Reason: "must be at least 1"}
		}
	}
	return nil
}

// Assignee resolves the nominally assigned member for a due date.
// Rotation wraps cyclically and never errors for any due date on or after
// the chore's start date.
func Assignee(c model.Chore, due time.Time) (*int64, error) {
	switch c.Strategy {
	case model.AssignNone, "":
		return nil, nil
	case model.AssignFixed:
		return c.FixedAssignee, nil
	case model.AssignRotation:
		if len(c.RotationSequence) == 0 {
			return nil, &ConfigError{ChoreID: c.ID, Field: "rotation_sequence", Reason: "must not be empty"}
		}
		if c.RotationIntervalDays < 1 {
			return nil, &ConfigError{ChoreID: c.ID, Field: "rotation_interval_days", Reason: "must be at least 1"}
		}
		idx := (daysBetween(c.StartDate, due) / c.RotationIntervalDays) % len(c.RotationSequence)
		if idx < 0 {
			idx += len(c.RotationSequence)
		}
		id := c.RotationSequence[idx]
		return &id, nil
	default:
		return nil, &ConfigError{ChoreID: c.ID, Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", c.Strategy)}
	}
}
