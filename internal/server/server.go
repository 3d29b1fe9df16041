// Package server wires stores, handlers, and middleware into the HTTP
// surface.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rfinnegan/chorewheel/internal/backup"
	"github.com/rfinnegan/chorewheel/internal/config"
	"github.com/rfinnegan/chorewheel/internal/email"
	"github.com/rfinnegan/chorewheel/internal/handler"
	"github.com/rfinnegan/chorewheel/internal/middleware"
	"github.com/rfinnegan/chorewheel/internal/push"
	"github.com/rfinnegan/chorewheel/internal/store"
	ws "github.com/rfinnegan/chorewheel/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH      *handler.AuthHandler
	householdH *handler.HouseholdHandler
	choreH     *handler.ChoreHandler
	scheduleH  *handler.ScheduleHandler
	pushH      *handler.PushHandler
	backupH    *handler.BackupHandler

	sessionStore   *store.SessionStore
	householdStore *store.HouseholdStore
	loginLimiter   *middleware.RateLimiter

	backupManager *backup.Manager
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(cfg *config.Config, db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	inviteStore := store.NewInviteStore(db)
	choreStore := store.NewChoreStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	backupMgr := backup.NewManager(cfg.Backup, cfg.DBPath, db, backupStore, logger)
	emailClient := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.BaseURL)

	var pushSched *push.Scheduler
	var pushH *handler.PushHandler
	if cfg.PushEnabled() {
		pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
		pushSched = push.NewScheduler(pushSvc, pushStore, choreStore, householdStore, cfg.ReminderSchedule, logger)
		pushH = handler.NewPushHandler(pushStore, pushSvc.VAPIDPublicKey(), logger.With("component", "push_handler"))
	}

	return &Server{
		db:  db,
		hub: hub,
		authH: handler.NewAuthHandler(
			userStore, householdStore, sessionStore, inviteStore, emailClient,
			[]byte(cfg.InviteSecret), logger.With("component", "auth"),
		),
		householdH:     handler.NewHouseholdHandler(householdStore, hub, logger.With("component", "household")),
		choreH:         handler.NewChoreHandler(choreStore, householdStore, hub, logger.With("component", "chore")),
		scheduleH:      handler.NewScheduleHandler(choreStore, logger.With("component", "schedule")),
		pushH:          pushH,
		backupH:        handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		sessionStore:   sessionStore,
		householdStore: householdStore,
		loginLimiter:   middleware.NewRateLimiter(10, time.Minute),
		backupManager:  backupMgr,
		pushScheduler:  pushSched,
		logger:         logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// LoginLimiter returns the login rate limiter for cleanup tasks.
func (s *Server) LoginLimiter() *middleware.RateLimiter {
	return s.loginLimiter
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the reminder scheduler, nil when push is disabled.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	limited := middleware.RateLimit(s.loginLimiter, middleware.RealIP)
	outerMux.Handle("POST /api/auth/register", limited(http.HandlerFunc(s.authH.Register)))
	outerMux.Handle("POST /api/auth/login", limited(http.HandlerFunc(s.authH.Login)))
	outerMux.Handle("POST /api/invites/accept", limited(http.HandlerFunc(s.authH.AcceptInvite)))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else requires a session
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireAdmin(h)
	}

	// Session and identity
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("POST /api/auth/switch-household", s.authH.SwitchHousehold)
	mux.Handle("POST /api/invites", admin(s.authH.CreateInvite))

	// Household and members
	mux.HandleFunc("GET /api/household", s.householdH.Get)
	mux.Handle("PUT /api/household", admin(s.householdH.Update))
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/household/members", s.householdH.ListMembers)
	mux.Handle("DELETE /api/household/members/{id}", admin(s.householdH.RemoveMember))
	mux.Handle("PUT /api/household/members/{id}/role", admin(s.householdH.UpdateMemberRole))

	// Zones
	mux.HandleFunc("GET /api/zones", s.choreH.ListZones)
	mux.HandleFunc("GET /api/zones/suggest", s.choreH.SuggestZone)
	mux.Handle("POST /api/zones", admin(s.choreH.CreateZone))
	mux.Handle("PUT /api/zones/{id}", admin(s.choreH.UpdateZone))
	mux.Handle("DELETE /api/zones/{id}", admin(s.choreH.DeleteZone))

	// Chores
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("GET /api/chores/{id}", s.choreH.Get)
	mux.Handle("POST /api/chores", admin(s.choreH.Create))
	mux.Handle("PUT /api/chores/{id}", admin(s.choreH.Update))
	mux.Handle("DELETE /api/chores/{id}", admin(s.choreH.Delete))
	mux.Handle("POST /api/chores/{id}/archive", admin(s.choreH.Archive))
	mux.Handle("POST /api/chores/{id}/unarchive", admin(s.choreH.Unarchive))

	// Occurrence-level operations
	mux.HandleFunc("POST /api/chores/{id}/complete", s.choreH.Complete)
	mux.HandleFunc("PUT /api/chores/{id}/overrides/{date}", s.choreH.UpsertOverride)
	mux.HandleFunc("DELETE /api/chores/{id}/overrides/{date}", s.choreH.DeleteOverride)

	// Schedule
	mux.HandleFunc("GET /api/schedule", s.scheduleH.Get)

	// Live updates
	mux.Handle("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))

	// Push
	if s.pushH != nil {
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("GET /api/push/subscriptions", s.pushH.List)
		mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	}

	// Backups
	mux.Handle("GET /api/backups", admin(s.backupH.List))
	mux.Handle("GET /api/backups/status", admin(s.backupH.Status))
	mux.Handle("POST /api/backups/run", admin(s.backupH.Run))
	mux.Handle("GET /api/backups/{id}/download", admin(s.backupH.Download))
	mux.Handle("POST /api/backups/{id}/restore", admin(s.backupH.Restore))
}
