package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is a real-time change notification pushed to every open client of a
// household. Date (YYYY-MM-DD) is set for occurrence-level events such as
// completions and overrides so clients can refresh a single day.
type Event struct {
	Entity string `json:"entity"`
	Action string `json:"action"`
	ID     int64  `json:"id,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Event entities and actions used across the handlers.
const (
	EntityChore      = "chore"
	EntityZone       = "zone"
	EntityOverride   = "override"
	EntityCompletion = "completion"
	EntityMember     = "member"

	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionArchived = "archived"
)

// Hub tracks active WebSocket clients grouped by household and fans events
// out to the right group.
type Hub struct {
	mu         sync.RWMutex
	households map[int64]map[*Client]struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		households: make(map[int64]map[*Client]struct{}),
		logger:     logger,
	}
}

// Register adds a client to its household's group.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	group, ok := h.households[c.householdID]
	if !ok {
		group = make(map[*Client]struct{})
		h.households[c.householdID] = group
	}
	group[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client and closes its send channel. Empty household
// groups are dropped.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if group, ok := h.households[c.householdID]; ok {
		if _, ok := group[c]; ok {
			delete(group, c)
			close(c.send)
		}
		if len(group) == 0 {
			delete(h.households, c.householdID)
		}
	}
	h.mu.Unlock()
}

// Broadcast sends an event to every client of the given household.
func (h *Hub) Broadcast(householdID int64, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.households[householdID] {
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop rather than block the broadcaster
		}
	}
}

// ClientCount returns the number of connected clients for a household.
func (h *Hub) ClientCount(householdID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.households[householdID])
}
