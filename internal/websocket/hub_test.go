package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// testClient builds a client without a live connection; only the send
// channel is exercised.
func testClient(hub *Hub, householdID int64) *Client {
	return &Client{
		hub:         hub,
		householdID: householdID,
		send:        make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := testHub()
	c := testClient(hub, 1)

	hub.Register(c)
	if got := hub.ClientCount(1); got != 1 {
		t.Fatalf("ClientCount = %d, want 1", got)
	}

	hub.Unregister(c)
	if got := hub.ClientCount(1); got != 0 {
		t.Errorf("ClientCount = %d, want 0", got)
	}

	// Channel must be closed so the write pump exits.
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	hub := testHub()
	c := testClient(hub, 1)

	hub.Register(c)
	hub.Unregister(c)
	hub.Unregister(c) // must not close twice or panic
}

func TestBroadcastScopedToHousehold(t *testing.T) {
	hub := testHub()
	a := testClient(hub, 1)
	b := testClient(hub, 2)
	hub.Register(a)
	hub.Register(b)

	hub.Broadcast(1, Event{Entity: EntityChore, Action: ActionUpdated, ID: 7})

	select {
	case data := <-a.send:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if ev.Entity != EntityChore || ev.Action != ActionUpdated || ev.ID != 7 {
			t.Errorf("got event %+v", ev)
		}
	default:
		t.Fatal("household 1 client received nothing")
	}

	select {
	case <-b.send:
		t.Error("household 2 client should not receive household 1 events")
	default:
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	c := &Client{hub: hub, householdID: 1, send: make(chan []byte)} // no buffer, no reader
	hub.Register(c)

	// Must not block.
	hub.Broadcast(1, Event{Entity: EntityCompletion, Action: ActionCreated, ID: 1, Date: "2026-01-05"})
}

func TestBroadcastToEmptyHousehold(t *testing.T) {
	hub := testHub()
	hub.Broadcast(42, Event{Entity: EntityZone, Action: ActionDeleted, ID: 3})
}
