package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rfinnegan/chorewheel/internal/auth"
	"github.com/rfinnegan/chorewheel/internal/database"
	"github.com/rfinnegan/chorewheel/internal/model"
	"github.com/rfinnegan/chorewheel/internal/store"
)

func setupAuthTest(t *testing.T) (*store.SessionStore, *store.HouseholdStore, *model.User, *model.Household) {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	households := store.NewHouseholdStore(db)
	sessions := store.NewSessionStore(db)

	user, err := users.Create("rose@example.com", "Rose", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	hh, err := households.Create("Tyler House")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := households.AddMember(hh.ID, user.ID, "Rose", model.RoleAdmin); err != nil {
		t.Fatalf("add member: %v", err)
	}

	return sessions, households, user, hh
}

func TestRequireAuthPopulatesContext(t *testing.T) {
	sessions, households, user, hh := setupAuthTest(t)

	sess, err := sessions.Create(user.ID, hh.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var got auth.AuthContext
	handler := RequireAuth(sessions, households)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/schedule", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, user.ID)
	}
	if got.HouseholdID != hh.ID {
		t.Errorf("HouseholdID = %d, want %d", got.HouseholdID, hh.ID)
	}
	if got.Role != model.RoleAdmin {
		t.Errorf("Role = %q, want admin", got.Role)
	}
}

func TestRequireAuthRejectsMissingCookie(t *testing.T) {
	sessions, households, _, _ := setupAuthTest(t)

	handler := RequireAuth(sessions, households)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/schedule", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuthRejectsRemovedMember(t *testing.T) {
	sessions, households, user, hh := setupAuthTest(t)

	sess, err := sessions.Create(user.ID, hh.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := households.RemoveMember(hh.ID, user.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	handler := RequireAuth(sessions, households)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/schedule", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("POST", "/api/zones", nil)
	ctx := auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, Role: model.RoleMember})
	rec := httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want 403", rec.Code)
	}

	ctx = auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1, Role: model.RoleAdmin})
	rec = httptest.NewRecorder()
	RequireAdmin(ok).ServeHTTP(rec, req.WithContext(ctx))
	if rec.Code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", rec.Code)
	}
}
