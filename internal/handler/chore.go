package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rfinnegan/chorewheel/internal/auth"
	"github.com/rfinnegan/chorewheel/internal/model"
	"github.com/rfinnegan/chorewheel/internal/schedule"
	"github.com/rfinnegan/chorewheel/internal/store"
	"github.com/rfinnegan/chorewheel/internal/suggest"
	"github.com/rfinnegan/chorewheel/internal/websocket"
)

type ChoreHandler struct {
	choreStore     *store.ChoreStore
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{choreStore: cs, householdStore: hs, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(householdID int64, ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, ev)
	}
}

// --- zones ---

type zoneRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

func (h *ChoreHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.choreStore.ListZones(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list zones", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

func (h *ChoreHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	householdID := auth.HouseholdID(r.Context())
	zone, err := h.choreStore.CreateZone(householdID, req.Name, req.SortOrder)
	if err != nil {
		h.logger.Error("create zone", "error", err)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}

	h.broadcast(householdID, websocket.Event{Entity: websocket.EntityZone, Action: websocket.ActionCreated, ID: zone.ID})
	writeJSON(w, http.StatusCreated, zone)
}

func (h *ChoreHandler) zoneInScope(w http.ResponseWriter, r *http.Request) *model.Zone {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	zone, err := h.choreStore.GetZoneByID(id)
	if err != nil {
		h.logger.Error("lookup zone", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil
	}
	if zone == nil || zone.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "zone not found")
		return nil
	}
	return zone
}

func (h *ChoreHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	zone := h.zoneInScope(w, r)
	if zone == nil {
		return
	}

	var req zoneRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	updated, err := h.choreStore.UpdateZone(zone.ID, req.Name, req.SortOrder)
	if err != nil {
		h.logger.Error("update zone", "error", err)
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	h.broadcast(zone.HouseholdID, websocket.Event{Entity: websocket.EntityZone, Action: websocket.ActionUpdated, ID: zone.ID})
	writeJSON(w, http.StatusOK, updated)
}

func (h *ChoreHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	zone := h.zoneInScope(w, r)
	if zone == nil {
		return
	}
	if err := h.choreStore.DeleteZone(zone.ID); err != nil {
		h.logger.Error("delete zone", "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	h.broadcast(zone.HouseholdID, websocket.Event{Entity: websocket.EntityZone, Action: websocket.ActionDeleted, ID: zone.ID})
	w.WriteHeader(http.StatusNoContent)
}

// SuggestZone proposes a zone name for a chore title, for pre-filling the
// chore form.
func (h *ChoreHandler) SuggestZone(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	writeJSON(w, http.StatusOK, map[string]string{"zone": suggest.Zone(title)})
}

// --- chores ---

type choreRequest struct {
	ZoneID               *int64  `json:"zone_id"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	FrequencyDays        int     `json:"frequency_days"`
	StartDate            string  `json:"start_date"`
	Strategy             string  `json:"strategy"`
	FixedAssignee        *int64  `json:"fixed_assignee"`
	RotationSequence     []int64 `json:"rotation_sequence"`
	RotationIntervalDays int     `json:"rotation_interval_days"`
}

// toChore validates the request and builds a chore scoped to the household.
// Assignee references must be members of the same household.
func (h *ChoreHandler) toChore(r *http.Request, req choreRequest) (*model.Chore, string) {
	householdID := auth.HouseholdID(r.Context())

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, "title is required"
	}

	start, err := parseDateParam(req.StartDate)
	if err != nil {
		return nil, "start_date must be YYYY-MM-DD"
	}

	strategy := model.AssignStrategy(req.Strategy)
	if strategy == "" {
		strategy = model.AssignNone
	}
	switch strategy {
	case model.AssignNone, model.AssignFixed, model.AssignRotation:
	default:
		return nil, "strategy must be none, fixed, or rotation"
	}

	if req.ZoneID != nil {
		zone, err := h.choreStore.GetZoneByID(*req.ZoneID)
		if err != nil || zone == nil || zone.HouseholdID != householdID {
			return nil, "zone not found"
		}
	}

	checkMember := func(id int64) bool {
		member, err := h.householdStore.GetMemberByID(id)
		return err == nil && member != nil && member.HouseholdID == householdID
	}
	if strategy == model.AssignFixed {
		if req.FixedAssignee == nil || !checkMember(*req.FixedAssignee) {
			return nil, "fixed_assignee must be a household member"
		}
	}
	if strategy == model.AssignRotation {
		for _, id := range req.RotationSequence {
			if !checkMember(id) {
				return nil, "rotation_sequence must contain household members"
			}
		}
	}

	c := &model.Chore{
		HouseholdID:          householdID,
		ZoneID:               req.ZoneID,
		Title:                title,
		Description:          strings.TrimSpace(req.Description),
		FrequencyDays:        req.FrequencyDays,
		StartDate:            start,
		Strategy:             strategy,
		FixedAssignee:        req.FixedAssignee,
		RotationSequence:     req.RotationSequence,
		RotationIntervalDays: req.RotationIntervalDays,
	}
	if err := schedule.Validate(*c); err != nil {
		return nil, err.Error()
	}
	return c, ""
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, msg := h.toChore(r, req)
	if c == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	created, err := h.choreStore.Create(*c)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "create failed")
		return
	}

	h.broadcast(c.HouseholdID, websocket.Event{Entity: websocket.EntityChore, Action: websocket.ActionCreated, ID: created.ID})
	writeJSON(w, http.StatusCreated, created)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"
	chores, err := h.choreStore.ListByHousehold(auth.HouseholdID(r.Context()), includeArchived)
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) choreInScope(w http.ResponseWriter, r *http.Request) *model.Chore {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	chore, err := h.choreStore.GetByID(id)
	if err != nil {
		h.logger.Error("lookup chore", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil
	}
	if chore == nil || chore.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "chore not found")
		return nil
	}
	return chore
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}
	writeJSON(w, http.StatusOK, chore)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}

	var req choreRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	c, msg := h.toChore(r, req)
	if c == nil {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	c.ID = chore.ID
	c.Archived = chore.Archived

	updated, err := h.choreStore.Update(*c)
	if err != nil {
		h.logger.Error("update chore", "error", err)
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	h.broadcast(chore.HouseholdID, websocket.Event{Entity: websocket.EntityChore, Action: websocket.ActionUpdated, ID: chore.ID})
	writeJSON(w, http.StatusOK, updated)
}

// Archive retires a chore from future schedules while keeping its history.
func (h *ChoreHandler) Archive(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}
	if err := h.choreStore.Archive(chore.ID); err != nil {
		h.logger.Error("archive chore", "error", err)
		writeError(w, http.StatusInternalServerError, "archive failed")
		return
	}
	h.broadcast(chore.HouseholdID, websocket.Event{Entity: websocket.EntityChore, Action: websocket.ActionArchived, ID: chore.ID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}

func (h *ChoreHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}
	if err := h.choreStore.Unarchive(chore.ID); err != nil {
		h.logger.Error("unarchive chore", "error", err)
		writeError(w, http.StatusInternalServerError, "unarchive failed")
		return
	}
	h.broadcast(chore.HouseholdID, websocket.Event{Entity: websocket.EntityChore, Action: websocket.ActionUpdated, ID: chore.ID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "active"})
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}
	if err := h.choreStore.Delete(chore.ID); err != nil {
		h.logger.Error("delete chore", "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	h.broadcast(chore.HouseholdID, websocket.Event{Entity: websocket.EntityChore, Action: websocket.ActionDeleted, ID: chore.ID})
	w.WriteHeader(http.StatusNoContent)
}

// --- completions ---

type completeRequest struct {
	CompletedAt string `json:"completed_at"`
	Notes       string `json:"notes"`
}

// Complete records that the calling member did the chore. CompletedAt
// defaults to today.
func (h *ChoreHandler) Complete(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}

	var req completeRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	completedAt := time.Now().UTC()
	if req.CompletedAt != "" {
		d, err := parseDateParam(req.CompletedAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "completed_at must be YYYY-MM-DD")
			return
		}
		completedAt = d
	}

	memberID := auth.MemberID(r.Context())
	completion, err := h.choreStore.CreateCompletion(chore.ID, &memberID, completedAt, strings.TrimSpace(req.Notes))
	if err != nil {
		h.logger.Error("create completion", "error", err)
		writeError(w, http.StatusInternalServerError, "complete failed")
		return
	}

	h.broadcast(chore.HouseholdID, websocket.Event{
		Entity: websocket.EntityCompletion,
		Action: websocket.ActionCreated,
		ID:     chore.ID,
		Date:   completedAt.Format("2006-01-02"),
	})
	writeJSON(w, http.StatusCreated, completion)
}

// --- overrides ---

type overrideRequest struct {
	Skipped     bool   `json:"skipped"`
	NewAssignee *int64 `json:"new_assignee"`
	NewDate     string `json:"new_date"`
}

// UpsertOverride creates or replaces the override for one occurrence,
// addressed by its nominal due date.
func (h *ChoreHandler) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}

	originalDate, err := parseDateParam(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req overrideRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Skipped && (req.NewAssignee != nil || req.NewDate != "") {
		writeError(w, http.StatusBadRequest, "a skipped occurrence cannot be reassigned or rescheduled")
		return
	}
	if !req.Skipped && req.NewAssignee == nil && req.NewDate == "" {
		writeError(w, http.StatusBadRequest, "override must skip, reassign, or reschedule")
		return
	}

	if req.NewAssignee != nil {
		member, err := h.householdStore.GetMemberByID(*req.NewAssignee)
		if err != nil || member == nil || member.HouseholdID != chore.HouseholdID {
			writeError(w, http.StatusBadRequest, "new_assignee must be a household member")
			return
		}
	}

	var newDate *time.Time
	if req.NewDate != "" {
		d, err := parseDateParam(req.NewDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "new_date must be YYYY-MM-DD")
			return
		}
		newDate = &d
	}

	override, err := h.choreStore.UpsertOverride(chore.ID, originalDate, req.Skipped, req.NewAssignee, newDate)
	if err != nil {
		h.logger.Error("upsert override", "error", err)
		writeError(w, http.StatusInternalServerError, "override failed")
		return
	}

	h.broadcast(chore.HouseholdID, websocket.Event{
		Entity: websocket.EntityOverride,
		Action: websocket.ActionUpdated,
		ID:     chore.ID,
		Date:   originalDate.Format("2006-01-02"),
	})
	writeJSON(w, http.StatusOK, override)
}

func (h *ChoreHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	chore := h.choreInScope(w, r)
	if chore == nil {
		return
	}

	originalDate, err := parseDateParam(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.choreStore.DeleteOverride(chore.ID, originalDate); err != nil {
		h.logger.Error("delete override", "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}

	h.broadcast(chore.HouseholdID, websocket.Event{
		Entity: websocket.EntityOverride,
		Action: websocket.ActionDeleted,
		ID:     chore.ID,
		Date:   originalDate.Format("2006-01-02"),
	})
	w.WriteHeader(http.StatusNoContent)
}
