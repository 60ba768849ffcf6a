package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yefosr/cms-backend/internal/archive"
	"github.com/yefosr/cms-backend/internal/audit"
	"github.com/yefosr/cms-backend/internal/cache"
	"github.com/yefosr/cms-backend/internal/config"
	"github.com/yefosr/cms-backend/internal/email"
	"github.com/yefosr/cms-backend/internal/handlers"
	"github.com/yefosr/cms-backend/internal/middleware"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// newRouter wires repositories, the audit logger and all HTTP routes.
// Mutating admin routes are wrapped with audit logging here so the handlers
// stay audit-free.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	logger := slog.Default()

	auditRepo := repo.NewAuditRepo(database)
	settingRepo := repo.NewSettingRepo(database)
	adminRepo := repo.NewAdminRepo(database)
	programRepo := repo.NewProgramRepo(database)
	eventRepo := repo.NewEventRepo(database)
	contactRepo := repo.NewContactRepo(database)

	auditor := audit.NewLogger(auditRepo, logger)
	settingsCache := cache.New(64, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	notifier := email.NewNotifier(cfg.ResendAPIKey, cfg.NotifyEmail, cfg.NotifyFrom, logger)
	runner := archive.NewRunner(auditRepo, settingRepo, auditor, logger)

	authH := &handlers.AuthHandler{
		Admins: adminRepo, Auditor: auditor,
		Secret: []byte(cfg.JWTSecret), ExpireHours: cfg.JWTExpireHours, Log: logger,
	}
	auditH := &handlers.AuditHandler{Repo: auditRepo, Log: logger}
	settingsH := &handlers.SettingsHandler{Repo: settingRepo, Cache: settingsCache, Log: logger}
	archiveH := &handlers.ArchiveHandler{Runner: runner, CronToken: cfg.CronSecretToken, Log: logger}
	adminH := &handlers.AdminHandler{Repo: adminRepo, Log: logger}
	programH := &handlers.ProgramHandler{Repo: programRepo, Log: logger}
	eventH := &handlers.EventHandler{Repo: eventRepo, Log: logger}
	contactH := &handlers.ContactHandler{Repo: contactRepo, Notifier: notifier, Log: logger}

	prevProgram := func(ctx context.Context, r *http.Request) (json.RawMessage, error) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			return nil, err
		}
		p, err := programRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	}
	prevEvent := func(ctx context.Context, r *http.Request) (json.RawMessage, error) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			return nil, err
		}
		e, err := eventRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return json.Marshal(e)
	}
	prevRetention := func(ctx context.Context, r *http.Request) (json.RawMessage, error) {
		value, err := settingRepo.Get(ctx, repo.SettingKeyAuditRetention)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{repo.SettingKeyAuditRetention: value})
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	contactLimiter := middleware.ContactRateLimiter()

	// Public surface
	r.Group(func(r chi.Router) {
		r.With(authLimiter.Middleware, middleware.MaxBytes(middleware.DefaultMaxBodyBytes)).
			Post("/api/auth/login", authH.Login)
		r.With(contactLimiter.Middleware, middleware.MaxBytes(middleware.ContactMaxBodyBytes)).
			Post("/api/contact", contactH.SubmitContact)
	})

	// External scheduler trigger; guarded by shared secret, opaque 404 otherwise.
	r.Get("/api/cron/archive-audit-logs", archiveH.CronArchive)

	// Authenticated admin scope
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

		r.Post("/api/auth/logout", authH.Logout)
		r.Get("/api/auth/me", authH.Me)

		r.Get("/api/admin/audit-logs", auditH.ListAuditLogs)
		r.Get("/api/admin/audit-logs/export", auditH.ExportAuditLogs)

		r.Get("/api/admin/settings/audit-retention", settingsH.GetAuditRetention)
		r.Post("/api/admin/settings/audit-retention", auditor.WithAudit(settingsH.SetAuditRetention, audit.Options{
			Action:       models.ActionUpdate,
			ResourceType: models.ResourceSetting,
			ResourceID: func(_ *http.Request, _ json.RawMessage) string {
				return repo.SettingKeyAuditRetention
			},
			PreviousData: prevRetention,
		}))

		r.Post("/api/admin/trigger-archive", archiveH.TriggerArchive)

		r.Route("/api/admin/users", func(r chi.Router) {
			r.Get("/", adminH.ListAdmins)
			r.Post("/", auditor.WithAudit(adminH.CreateAdmin, audit.Options{
				Action:       models.ActionCreate,
				ResourceType: models.ResourceUser,
				ResourceID:   audit.ResourceIDFromResult("id"),
			}))
		})

		r.Route("/api/admin/programs", func(r chi.Router) {
			r.Get("/", programH.ListPrograms)
			r.Get("/{id}", programH.GetProgram)
			r.Post("/", auditor.WithAudit(programH.CreateProgram, audit.Options{
				Action:       models.ActionCreate,
				ResourceType: models.ResourceProgram,
				ResourceID:   audit.ResourceIDFromResult("id"),
			}))
			r.Put("/{id}", auditor.WithAudit(programH.UpdateProgram, audit.Options{
				Action:       models.ActionUpdate,
				ResourceType: models.ResourceProgram,
				ResourceID:   audit.ResourceIDFromPath("id"),
				PreviousData: prevProgram,
			}))
			r.Delete("/{id}", auditor.WithAudit(programH.DeleteProgram, audit.Options{
				Action:       models.ActionDelete,
				ResourceType: models.ResourceProgram,
				ResourceID:   audit.ResourceIDFromPath("id"),
				PreviousData: prevProgram,
				SkipOnError:  true,
			}))
		})

		r.Route("/api/admin/events", func(r chi.Router) {
			r.Get("/", eventH.ListEvents)
			r.Get("/{id}", eventH.GetEvent)
			r.Post("/", auditor.WithAudit(eventH.CreateEvent, audit.Options{
				Action:       models.ActionCreate,
				ResourceType: models.ResourceEvent,
				ResourceID:   audit.ResourceIDFromResult("id"),
			}))
			r.Put("/{id}", auditor.WithAudit(eventH.UpdateEvent, audit.Options{
				Action:       models.ActionUpdate,
				ResourceType: models.ResourceEvent,
				ResourceID:   audit.ResourceIDFromPath("id"),
				PreviousData: prevEvent,
			}))
			r.Delete("/{id}", auditor.WithAudit(eventH.DeleteEvent, audit.Options{
				Action:       models.ActionDelete,
				ResourceType: models.ResourceEvent,
				ResourceID:   audit.ResourceIDFromPath("id"),
				PreviousData: prevEvent,
				SkipOnError:  true,
			}))
		})

		r.Route("/api/admin/contact-messages", func(r chi.Router) {
			r.Get("/", contactH.ListMessages)
			r.Post("/{id}/read", auditor.WithAudit(contactH.MarkRead, audit.Options{
				Action:       models.ActionUpdate,
				ResourceType: models.ResourceContactMessage,
				ResourceID:   audit.ResourceIDFromPath("id"),
			}))
		})
	})

	return r
}
