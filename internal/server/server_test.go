package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rfinnegan/chorewheel/internal/config"
	"github.com/rfinnegan/chorewheel/internal/database"
)

func setupTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Port:         "0",
		DBPath:       ":memory:",
		InviteSecret: "test-invite-secret",
		BaseURL:      "http://localhost",
	}
	srv := New(cfg, db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return ts, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, wantStatus int) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s status = %d, want %d (body %s)", method, url, resp.StatusCode, wantStatus, raw)
	}

	var out map[string]any
	if len(raw) > 0 {
		json.Unmarshal(raw, &out)
	}
	return out
}

func register(t *testing.T, client *http.Client, base, email string) {
	t.Helper()
	doJSON(t, client, "POST", base+"/api/auth/register", map[string]any{
		"email":          email,
		"name":           "Rose",
		"password":       "hunter2hunter2",
		"household_name": "Tyler House",
	}, http.StatusCreated)
}

func TestRegisterLoginMe(t *testing.T) {
	ts, client := setupTestServer(t)

	register(t, client, ts.URL, "rose@example.com")

	me := doJSON(t, client, "GET", ts.URL+"/api/auth/me", nil, http.StatusOK)
	if me["role"] != "admin" {
		t.Errorf("role = %v, want admin", me["role"])
	}

	doJSON(t, client, "POST", ts.URL+"/api/auth/logout", nil, http.StatusOK)

	// Logged out, me is unauthorized.
	req, _ := http.NewRequest("GET", ts.URL+"/api/auth/me", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("me after logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", resp.StatusCode)
	}

	doJSON(t, client, "POST", ts.URL+"/api/auth/login", map[string]any{
		"email":    "rose@example.com",
		"password": "hunter2hunter2",
	}, http.StatusOK)
	doJSON(t, client, "GET", ts.URL+"/api/auth/me", nil, http.StatusOK)
}

func TestScheduleLifecycle(t *testing.T) {
	ts, client := setupTestServer(t)
	register(t, client, ts.URL, "rose@example.com")

	today := time.Now().UTC().Truncate(24 * time.Hour)
	day := func(offset int) string {
		return today.AddDate(0, 0, offset).Format("2006-01-02")
	}

	zone := doJSON(t, client, "POST", ts.URL+"/api/zones", map[string]any{
		"name": "Kitchen",
	}, http.StatusCreated)
	zoneID := int64(zone["id"].(float64))

	chore := doJSON(t, client, "POST", ts.URL+"/api/chores", map[string]any{
		"zone_id":        zoneID,
		"title":          "Dishes",
		"frequency_days": 7,
		"start_date":     day(0),
		"strategy":       "none",
	}, http.StatusCreated)
	choreID := int64(chore["id"].(float64))
	choreURL := fmt.Sprintf("%s/api/chores/%d", ts.URL, choreID)

	scheduleURL := fmt.Sprintf("%s/api/schedule?from=%s&to=%s", ts.URL, day(0), day(28))

	occurrences := func() []map[string]any {
		resp := doJSON(t, client, "GET", scheduleURL, nil, http.StatusOK)
		raw, ok := resp["occurrences"].([]any)
		if !ok {
			t.Fatalf("occurrences missing: %v", resp)
		}
		occs := make([]map[string]any, len(raw))
		for i, o := range raw {
			occs[i] = o.(map[string]any)
		}
		return occs
	}

	statusByDate := func() map[string]string {
		m := make(map[string]string)
		for _, occ := range occurrences() {
			m[occ["date"].(string)[:10]] = occ["status"].(string)
		}
		return m
	}

	// Weekly chore over four weeks: five occurrences, all pending.
	if got := len(occurrences()); got != 5 {
		t.Fatalf("occurrences = %d, want 5", got)
	}
	for date, status := range statusByDate() {
		if status != "pending" {
			t.Errorf("status[%s] = %q, want pending", date, status)
		}
	}

	// Complete today's occurrence.
	doJSON(t, client, "POST", choreURL+"/complete", map[string]any{
		"completed_at": day(0),
	}, http.StatusCreated)
	if got := statusByDate()[day(0)]; got != "done" {
		t.Errorf("status after completion = %q, want done", got)
	}

	// Skip next week's occurrence.
	doJSON(t, client, "PUT", choreURL+"/overrides/"+day(7), map[string]any{
		"skipped": true,
	}, http.StatusOK)
	if got := statusByDate()[day(7)]; got != "skipped" {
		t.Errorf("status after skip = %q, want skipped", got)
	}

	// Replace the skip with a reschedule; the occurrence moves.
	doJSON(t, client, "PUT", choreURL+"/overrides/"+day(7), map[string]any{
		"new_date": day(9),
	}, http.StatusOK)
	statuses := statusByDate()
	if _, ok := statuses[day(7)]; ok {
		t.Errorf("occurrence still on %s after reschedule", day(7))
	}
	if got := statuses[day(9)]; got != "pending" {
		t.Errorf("status of rescheduled occurrence = %q, want pending", got)
	}

	// Remove the override; back to the nominal date.
	doJSON(t, client, "DELETE", choreURL+"/overrides/"+day(7), nil, http.StatusNoContent)
	if _, ok := statusByDate()[day(7)]; !ok {
		t.Errorf("occurrence missing on %s after override removal", day(7))
	}

	// Archived chores disappear from the schedule.
	doJSON(t, client, "POST", choreURL+"/archive", nil, http.StatusOK)
	if got := len(occurrences()); got != 0 {
		t.Errorf("occurrences after archive = %d, want 0", got)
	}
}

func TestChoreValidationRejected(t *testing.T) {
	ts, client := setupTestServer(t)
	register(t, client, ts.URL, "rose@example.com")

	today := time.Now().UTC().Format("2006-01-02")

	// A rotation chore needs a member sequence; an empty one is rejected at
	// creation time.
	resp := doJSON(t, client, "POST", ts.URL+"/api/chores", map[string]any{
		"title":                  "Trash",
		"frequency_days":         7,
		"start_date":             today,
		"strategy":               "rotation",
		"rotation_sequence":      []int64{},
		"rotation_interval_days": 7,
	}, http.StatusBadRequest)
	if resp["error"] == "" {
		t.Error("expected validation error message")
	}
}

func TestInviteFlow(t *testing.T) {
	ts, admin := setupTestServer(t)
	register(t, admin, ts.URL, "rose@example.com")

	resp := doJSON(t, admin, "POST", ts.URL+"/api/invites", map[string]any{
		"email": "martha@example.com",
		"role":  "member",
	}, http.StatusCreated)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("invite token missing")
	}

	jar, _ := cookiejar.New(nil)
	invitee := &http.Client{Jar: jar}
	doJSON(t, invitee, "POST", ts.URL+"/api/invites/accept", map[string]any{
		"token":    token,
		"email":    "martha@example.com",
		"name":     "Martha",
		"password": "hunter2hunter2",
	}, http.StatusOK)

	me := doJSON(t, invitee, "GET", ts.URL+"/api/auth/me", nil, http.StatusOK)
	if me["role"] != "member" {
		t.Errorf("invitee role = %v, want member", me["role"])
	}

	// A member cannot create zones.
	req, _ := http.NewRequest("POST", ts.URL+"/api/zones", bytes.NewBufferString(`{"name":"Kitchen"}`))
	req.Header.Set("Content-Type", "application/json")
	r2, err := invitee.Do(req)
	if err != nil {
		t.Fatalf("member create zone: %v", err)
	}
	r2.Body.Close()
	if r2.StatusCode != http.StatusForbidden {
		t.Errorf("member create zone = %d, want 403", r2.StatusCode)
	}
}
