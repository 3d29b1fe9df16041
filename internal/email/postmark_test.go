package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendInvite(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient("pm-token", "noreply@example.com", "https://chores.example.com", WithAPIBase(server.URL))
	if err := c.SendInvite("rose@example.com", "Tyler House", "signed-token"); err != nil {
		t.Fatalf("send invite: %v", err)
	}

	if gotToken != "pm-token" {
		t.Errorf("server token = %q", gotToken)
	}
	if received.To != "rose@example.com" {
		t.Errorf("to = %q", received.To)
	}
	if !strings.Contains(received.Subject, "Tyler House") {
		t.Errorf("subject = %q, want household name", received.Subject)
	}
	if !strings.Contains(received.TextBody, "https://chores.example.com/invite?token=signed-token") {
		t.Errorf("text body missing invite link: %q", received.TextBody)
	}
}

func TestSendInviteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := NewClient("pm-token", "noreply@example.com", "https://chores.example.com", WithAPIBase(server.URL))
	if err := c.SendInvite("rose@example.com", "Tyler House", "tok"); err == nil {
		t.Error("expected error on API failure")
	}
}

func TestSendInviteUnconfigured(t *testing.T) {
	c := NewClient("", "noreply@example.com", "https://chores.example.com")
	if err := c.SendInvite("rose@example.com", "Tyler House", "tok"); err == nil {
		t.Error("expected error when unconfigured")
	}
}
