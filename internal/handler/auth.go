package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rfinnegan/chorewheel/internal/auth"
	"github.com/rfinnegan/chorewheel/internal/email"
	"github.com/rfinnegan/chorewheel/internal/middleware"
	"github.com/rfinnegan/chorewheel/internal/model"
	"github.com/rfinnegan/chorewheel/internal/store"
)

const inviteTTL = 7 * 24 * time.Hour

type AuthHandler struct {
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	sessionStore   *store.SessionStore
	inviteStore    *store.InviteStore
	emailClient    *email.Client
	inviteSecret   []byte
	logger         *slog.Logger
}

func NewAuthHandler(
	us *store.UserStore,
	hs *store.HouseholdStore,
	ss *store.SessionStore,
	is *store.InviteStore,
	ec *email.Client,
	inviteSecret []byte,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		userStore:      us,
		householdStore: hs,
		sessionStore:   ss,
		inviteStore:    is,
		emailClient:    ec,
		inviteSecret:   inviteSecret,
		logger:         logger,
	}
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type registerRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Password      string `json:"password"`
	HouseholdName string `json:"household_name"`
}

// Register creates a user, their first household, and an admin membership,
// then starts a session.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.HouseholdName = strings.TrimSpace(req.HouseholdName)
	if req.Email == "" || req.Name == "" || req.HouseholdName == "" {
		writeError(w, http.StatusBadRequest, "email, name, and household_name are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	user, err := h.userStore.Create(req.Email, req.Name, string(hash))
	if err != nil {
		h.logger.Error("create user", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	hh, err := h.householdStore.Create(req.HouseholdName)
	if err != nil {
		h.logger.Error("create household", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if _, err := h.householdStore.AddMember(hh.ID, user.ID, user.Name, model.RoleAdmin); err != nil {
		h.logger.Error("add member", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, hh.ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	h.setSessionCookie(w, sess)

	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "household": hh})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	households, err := h.householdStore.ListHouseholdsForUser(user.ID)
	if err != nil {
		h.logger.Error("list households", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if len(households) == 0 {
		writeError(w, http.StatusForbidden, "no household membership")
		return
	}

	sess, err := h.sessionStore.Create(user.ID, households[0].ID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	h.setSessionCookie(w, sess)

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "household": households[0]})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessionStore.Delete(cookie.Value); err != nil {
			h.logger.Warn("delete session", "error", err)
		}
	}
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the authenticated user and their active household scope.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userStore.GetByID(ac.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	hh, err := h.householdStore.GetByID(ac.HouseholdID)
	if err != nil || hh == nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":      user,
		"household": hh,
		"member_id": ac.MemberID,
		"role":      ac.Role,
	})
}

type createInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateInvite issues a signed invite token for the active household.
// Admin only.
func (h *AuthHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role != model.RoleAdmin && req.Role != model.RoleMember {
		req.Role = model.RoleMember
	}

	householdID := auth.HouseholdID(r.Context())
	invite, err := h.inviteStore.Create(householdID, req.Email, req.Role, inviteTTL)
	if err != nil {
		h.logger.Error("create invite", "error", err)
		writeError(w, http.StatusInternalServerError, "invite failed")
		return
	}

	token, err := auth.SignInvite(h.inviteSecret, householdID, req.Role, invite.Code, inviteTTL)
	if err != nil {
		h.logger.Error("sign invite", "error", err)
		writeError(w, http.StatusInternalServerError, "invite failed")
		return
	}

	// Best effort: the token is returned either way, so the admin can share
	// the link themselves if mail is down.
	if h.emailClient != nil && h.emailClient.Configured() && req.Email != "" {
		hh, err := h.householdStore.GetByID(householdID)
		if err == nil && hh != nil {
			if err := h.emailClient.SendInvite(req.Email, hh.Name, token); err != nil {
				h.logger.Warn("send invite email", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"invite": invite, "token": token})
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AcceptInvite verifies the signed token, creates the user if they do not
// exist yet, joins them to the household, and starts a session.
func (h *AuthHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	claims, err := auth.VerifyInvite(h.inviteSecret, req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired invite")
		return
	}

	invite, err := h.inviteStore.GetByCode(claims.Code)
	if err != nil {
		h.logger.Error("lookup invite", "error", err)
		writeError(w, http.StatusInternalServerError, "invite failed")
		return
	}
	if invite == nil {
		writeError(w, http.StatusGone, "invite already used or expired")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Email == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "email and name are required")
		return
	}

	user, err := h.userStore.GetByEmail(req.Email)
	if err != nil {
		h.logger.Error("lookup user", "error", err)
		writeError(w, http.StatusInternalServerError, "invite failed")
		return
	}
	if user == nil {
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "invite failed")
			return
		}
		user, err = h.userStore.Create(req.Email, req.Name, string(hash))
		if err != nil {
			h.logger.Error("create user", "error", err)
			writeError(w, http.StatusInternalServerError, "invite failed")
			return
		}
	} else if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid password")
		return
	}

	member, err := h.householdStore.GetMember(claims.HouseholdID, user.ID)
	if err != nil {
		h.logger.Error("lookup member", "error", err)
		writeError(w, http.StatusInternalServerError, "invite failed")
		return
	}
	if member == nil {
		if _, err := h.householdStore.AddMember(claims.HouseholdID, user.ID, user.Name, claims.Role); err != nil {
			h.logger.Error("add member", "error", err)
			writeError(w, http.StatusInternalServerError, "invite failed")
			return
		}
	}

	if err := h.inviteStore.MarkAccepted(invite.ID); err != nil {
		h.logger.Warn("mark invite accepted", "error", err)
	}

	sess, err := h.sessionStore.Create(user.ID, claims.HouseholdID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "invite failed")
		return
	}
	h.setSessionCookie(w, sess)

	writeJSON(w, http.StatusOK, map[string]any{"user": user, "household_id": claims.HouseholdID})
}

type switchHouseholdRequest struct {
	HouseholdID int64 `json:"household_id"`
}

// SwitchHousehold re-scopes the current session to another household the
// user belongs to.
func (h *AuthHandler) SwitchHousehold(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req switchHouseholdRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, err := h.householdStore.GetMember(req.HouseholdID, ac.UserID)
	if err != nil {
		h.logger.Error("lookup member", "error", err)
		writeError(w, http.StatusInternalServerError, "switch failed")
		return
	}
	if member == nil {
		writeError(w, http.StatusForbidden, "not a member of that household")
		return
	}

	if err := h.sessionStore.SwitchHousehold(ac.SessionID, req.HouseholdID); err != nil {
		h.logger.Error("switch household", "error", err)
		writeError(w, http.StatusInternalServerError, "switch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"household_id": req.HouseholdID})
}
