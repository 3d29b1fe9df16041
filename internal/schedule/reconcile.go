package schedule

import (
	"time"

	"github.com/rfinnegan/chorewheel/internal/model"
)

// Reconcile classifies each occurrence against the completion log, in place.
//
// A completion on day d matches the occurrence with effective date D when
// |d - D| <= frequencyDays/2 (integer division; a daily chore matches only
// the exact day). The nearest completion wins and each completion is
// consumed by at most one occurrence, so logging a chore twice for the same
// slot still yields a single done state. Skipped occurrences are left as
// skipped and never consume a completion.
func Reconcile(occs []Occurrence, frequencyDays int, completions []model.ChoreCompletion, today time.Time) {
	today = Day(today)
	half := frequencyDays / 2
	used := make([]bool, len(completions))

	for i := range occs {
		if occs[i].Status == StatusSkipped {
			continue
		}

		best := -1
		bestGap := half + 1
		for j, comp := range completions {
			if used[j] {
				continue
			}
			gap := daysBetween(occs[i].Date, Day(comp.CompletedAt))
			if gap < 0 {
				gap = -gap
			}
			if gap < bestGap {
				best = j
				bestGap = gap
			}
		}

		if best >= 0 {
			used[best] = true
			occs[i].Status = StatusDone
			at := completions[best].CompletedAt
			occs[i].CompletedAt = &at
			occs[i].CompletedBy = completions[best].CompletedBy
			continue
		}

		if occs[i].Date.Before(today) {
			occs[i].Status = StatusOverdue
		} else {
			occs[i].Status = StatusPending
		}
	}
}
