package schedule

import (
	"sort"
	"time"

	"github.com/rfinnegan/chorewheel/internal/model"
)

// ApplyOverrides merges a chore's overrides into its nominal occurrences.
// Overrides are keyed by the original (nominal) due date; at most one is
// honored per date: the store's upsert guarantees a single row, and if the
// input still carries duplicates the latest UpdatedAt wins. The returned
// slice is re-sorted by effective date since a reschedule can reorder it.
func ApplyOverrides(occs []Occurrence, overrides []model.ChoreOverride) []Occurrence {
	if len(overrides) == 0 {
		return occs
	}

	byDate := make(map[time.Time]model.ChoreOverride, len(overrides))
	for _, ov := range overrides {
		key := Day(ov.OriginalDate)
		if prev, ok := byDate[key]; ok && prev.UpdatedAt.After(ov.UpdatedAt) {
			continue
		}
		byDate[key] = ov
	}

	for i := range occs {
		ov, ok := byDate[occs[i].OriginalDate]
		if !ok {
			continue
		}
		if ov.Skipped {
			occs[i].Status = StatusSkipped
		}
		if ov.NewAssignee != nil {
			id := *ov.NewAssignee
			occs[i].AssigneeID = &id
		}
		if ov.NewDate != nil {
			occs[i].Date = Day(*ov.NewDate)
		}
	}

	sort.SliceStable(occs, func(i, j int) bool {
		return occs[i].Date.Before(occs[j].Date)
	})
	return occs
}
