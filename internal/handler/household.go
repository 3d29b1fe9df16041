package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/rfinnegan/chorewheel/internal/auth"
	"github.com/rfinnegan/chorewheel/internal/model"
	"github.com/rfinnegan/chorewheel/internal/store"
	"github.com/rfinnegan/chorewheel/internal/websocket"
)

type HouseholdHandler struct {
	householdStore *store.HouseholdStore
	hub            *websocket.Hub
	logger         *slog.Logger
}

func NewHouseholdHandler(hs *store.HouseholdStore, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{householdStore: hs, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(householdID int64, ev websocket.Event) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, ev)
	}
}

// Get returns the active household.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	hh, err := h.householdStore.GetByID(auth.HouseholdID(r.Context()))
	if err != nil || hh == nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

// List returns every household the user belongs to, for the switcher.
func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	households, err := h.householdStore.ListHouseholdsForUser(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list households", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, households)
}

type updateHouseholdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateHouseholdRequest
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
	hh, err := h.householdStore.Update(householdID, req.Name)
	if err != nil {
		h.logger.Error("update household", "error", err)
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *HouseholdHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.householdStore.ListMembers(auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// memberInScope loads a member by id and confirms it belongs to the active
// household.
func (h *HouseholdHandler) memberInScope(w http.ResponseWriter, r *http.Request) *model.HouseholdMember {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil
	}
	member, err := h.householdStore.GetMemberByID(id)
	if err != nil {
		h.logger.Error("lookup member", "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return nil
	}
	if member == nil || member.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "member not found")
		return nil
	}
	return member
}

// RemoveMember removes a member from the household. Admins cannot remove
// themselves, so a household always keeps at least one admin.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	member := h.memberInScope(w, r)
	if member == nil {
		return
	}
	if member.UserID == auth.UserID(r.Context()) {
		writeError(w, http.StatusBadRequest, "cannot remove yourself")
		return
	}

	if err := h.householdStore.RemoveMember(member.HouseholdID, member.UserID); err != nil {
		h.logger.Error("remove member", "error", err)
		writeError(w, http.StatusInternalServerError, "remove failed")
		return
	}

	h.broadcast(member.HouseholdID, websocket.Event{
		Entity: websocket.EntityMember,
		Action: websocket.ActionDeleted,
		ID:     member.ID,
	})
	w.WriteHeader(http.StatusNoContent)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *HouseholdHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	member := h.memberInScope(w, r)
	if member == nil {
		return
	}

	var req updateRoleRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		writeError(w, http.StatusBadRequest, "role must be admin or member")
		return
	}
	if member.UserID == auth.UserID(r.Context()) && req.Role != model.RoleAdmin {
		writeError(w, http.StatusBadRequest, "cannot demote yourself")
		return
	}

	updated, err := h.householdStore.UpdateMemberRole(member.ID, req.Role)
	if err != nil {
		h.logger.Error("update member role", "error", err)
		writeError(w, http.StatusInternalServerError, "update failed")
		return
	}

	h.broadcast(member.HouseholdID, websocket.Event{
		Entity: websocket.EntityMember,
		Action: websocket.ActionUpdated,
		ID:     member.ID,
	})
	writeJSON(w, http.StatusOK, updated)
}
