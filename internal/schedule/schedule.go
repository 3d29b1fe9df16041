// Package schedule computes who is responsible for a chore on any given day.
//
// The pipeline is: recurrence (nominal due dates) -> assignment (nominal
// assignee) -> overrides (skip/reassign/reschedule) -> reconciliation against
// logged completions. Everything operates on whole days normalized to
// midnight UTC; callers pass wall-clock times and get day-granular results.
package schedule

import (
	"time"

	"github.com/rfinnegan/chorewheel/internal/model"
)

type Status string

const (
	StatusDone    Status = "done"
	StatusPending Status = "pending"
	StatusOverdue Status = "overdue"
	StatusSkipped Status = "skipped"
)

// Occurrence is one calculated instance of a recurring chore.
// OriginalDate is the nominal due date from the recurrence rule; Date is the
// effective date after any reschedule override. The two differ only when an
// override moved the occurrence.
type Occurrence struct {
	ChoreID      int64      `json:"chore_id"`
	Date         time.Time  `json:"date"`
	OriginalDate time.Time  `json:"original_date"`
	AssigneeID   *int64     `json:"assignee_id"`
	Status       Status     `json:"status"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CompletedBy  *int64     `json:"completed_by,omitempty"`
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / (24 * time.Hour))
}

// Expand runs the full pipeline for one chore over [from, to]: nominal due
// dates, nominal assignees, overrides, then completion reconciliation.
// A misconfigured chore returns a *ConfigError and no occurrences, so one bad
// chore cannot poison a multi-chore query.
func Expand(c model.Chore, overrides []model.ChoreOverride, completions []model.ChoreCompletion, from, to, today time.Time) ([]Occurrence, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}

	dues := DueDates(c.StartDate, c.FrequencyDays, from, to)
	occs := make([]Occurrence, 0, len(dues))
	for _, due := range dues {
		assignee, err := Assignee(c, due)
		if err != nil {
			return nil, err
		}
		occs = append(occs, Occurrence{
			ChoreID:      c.ID,
			Date:         due,
			OriginalDate: due,
			AssigneeID:   assignee,
		})
	}

	occs = ApplyOverrides(occs, overrides)
	Reconcile(occs, c.FrequencyDays, completions, today)
	return occs, nil
}
