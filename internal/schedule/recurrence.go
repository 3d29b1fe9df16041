package schedule

import "time"

// DueDates returns the nominal due dates start + k*frequencyDays (k >= 0)
// that fall within [from, to], in ascending order. No dates are produced
// before the start date. frequencyDays must be >= 1; Validate catches bad
// values before this runs, so a non-positive frequency yields nil here.
func DueDates(start time.Time, frequencyDays int, from, to time.Time) []time.Time {
	if frequencyDays < 1 {
		return nil
	}

	start = Day(start)
	from = Day(from)
	to = Day(to)
	if to.Before(from) || to.Before(start) {
		return nil
	}

	// First k with start + k*freq >= from.
	k := 0
	if from.After(start) {
		gap := daysBetween(start, from)
		k = gap / frequencyDays
		if gap%frequencyDays != 0 {
			k++
		}
	}

	var dues []time.Time
	for {
		due := start.AddDate(0, 0, k*frequencyDays)
		if due.After(to) {
			break
		}
		dues = append(dues, due)
		k++
	}
	return dues
}
