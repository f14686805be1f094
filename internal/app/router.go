package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rutacredit/rutacredit/internal/access"
	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/auth"
	"github.com/rutacredit/rutacredit/internal/observability"
	"github.com/rutacredit/rutacredit/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	AuthHandler    *auth.Handler
	ActorsHandler  *actors.Handler
	AccessHandler  *access.Handler
	AccessGuard    access.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	// Signed in but not necessarily approved. Onboarding confirms the
	// access code before an admin approves the account.
	r.Group(func(r chi.Router) {
		r.Use(params.AccessGuard.RequireSignIn)
		params.AccessHandler.MountSignedInRoutes(r)
	})

	r.Route("/me", func(r chi.Router) {
		r.Use(params.AccessGuard.RequireSignIn)
		r.Use(params.AccessGuard.RequireApproved)
		params.AccessHandler.MountSelfRoutes(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(params.AccessGuard.RequireSignIn)
		r.Use(params.AccessGuard.RequireApproved)
		r.Use(params.AccessGuard.RequireRole(actors.RoleSuperAdmin, actors.RoleAdmin))
		params.ActorsHandler.MountRoutes(r)
		params.AccessHandler.MountAdminRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
