package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rfinnegan/chorewheel/internal/auth"
	"github.com/rfinnegan/chorewheel/internal/schedule"
	"github.com/rfinnegan/chorewheel/internal/store"
)

// maxScheduleRangeDays caps schedule queries so a bad client cannot ask for
// decades of occurrences in one request.
const maxScheduleRangeDays = 366

type ScheduleHandler struct {
	choreStore *store.ChoreStore
	logger     *slog.Logger
}

func NewScheduleHandler(cs *store.ChoreStore, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{choreStore: cs, logger: logger}
}

type scheduleOccurrence struct {
	schedule.Occurrence
	Title  string `json:"title"`
	ZoneID *int64 `json:"zone_id,omitempty"`
}

type choreConfigError struct {
	ChoreID int64  `json:"chore_id"`
	Field   string `json:"field"`
	Reason  string `json:"reason"`
}

type scheduleResponse struct {
	From         string               `json:"from"`
	To           string               `json:"to"`
	Occurrences  []scheduleOccurrence `json:"occurrences"`
	ConfigErrors []choreConfigError   `json:"config_errors,omitempty"`
}

// Get expands every active chore of the household over [from, to]. Chores
// with invalid configuration are reported in config_errors and skipped; the
// rest of the schedule still comes back.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := parseDateParam(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := parseDateParam(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}
	if int(to.Sub(from).Hours()/24) > maxScheduleRangeDays {
		writeError(w, http.StatusBadRequest, "range too large")
		return
	}

	chores, err := h.choreStore.ListByHousehold(auth.HouseholdID(r.Context()), false)
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "schedule failed")
		return
	}

	today := schedule.Day(time.Now())
	resp := scheduleResponse{
		From:        from.Format("2006-01-02"),
		To:          to.Format("2006-01-02"),
		Occurrences: []scheduleOccurrence{},
	}

	for _, chore := range chores {
		overrides, err := h.choreStore.ListOverridesByChore(chore.ID)
		if err != nil {
			h.logger.Error("list overrides", "chore_id", chore.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "schedule failed")
			return
		}

		// Completions just outside the window can still claim occurrences
		// inside it, so fetch with a one-cycle margin on each side.
		margin := chore.FrequencyDays
		if margin < 1 {
			margin = 1
		}
		completions, err := h.choreStore.ListCompletionsInRange(
			chore.ID,
			from.AddDate(0, 0, -margin),
			to.AddDate(0, 0, margin),
		)
		if err != nil {
			h.logger.Error("list completions", "chore_id", chore.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "schedule failed")
			return
		}

		occs, err := schedule.Expand(chore, overrides, completions, from, to, today)
		if err != nil {
			var cfgErr *schedule.ConfigError
			if errors.As(err, &cfgErr) {
				resp.ConfigErrors = append(resp.ConfigErrors, choreConfigError{
					ChoreID: cfgErr.ChoreID,
					Field:   cfgErr.Field,
					Reason:  cfgErr.Reason,
				})
				continue
			}
			h.logger.Error("expand chore", "chore_id", chore.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "schedule failed")
			return
		}

		for _, occ := range occs {
			resp.Occurrences = append(resp.Occurrences, scheduleOccurrence{
				Occurrence: occ,
				Title:      chore.Title,
				ZoneID:     chore.ZoneID,
			})
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
