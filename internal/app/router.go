package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/munifin/munifin/internal/accounting/journals"
	"github.com/munifin/munifin/internal/accounting/vouchers"
	"github.com/munifin/munifin/internal/auth"
	"github.com/munifin/munifin/internal/budget"
	"github.com/munifin/munifin/internal/dashboard"
	"github.com/munifin/munifin/internal/hris"
	"github.com/munifin/munifin/internal/observability"
	"github.com/munifin/munifin/internal/planning"
	"github.com/munifin/munifin/internal/roles"
	"github.com/munifin/munifin/internal/shared"
	"github.com/munifin/munifin/internal/treasury"
	"github.com/munifin/munifin/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	Roles            RoleResolver
	AuthHandler      *auth.Handler
	RolesHandler     *roles.Handler
	PlanningHandler  *planning.Handler
	BudgetHandler    *budget.Handler
	JournalsHandler  *journals.Handler
	VouchersHandler  *vouchers.Handler
	TreasuryHandler  *treasury.Handler
	HRISHandler      *hris.Handler
	DashboardHandler *dashboard.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Roles:          params.Roles,
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

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/roles", params.RolesHandler.MountRoutes)
		r.Route("/planning", params.PlanningHandler.MountRoutes)
		r.Route("/budget", params.BudgetHandler.MountRoutes)
		r.Route("/accounting/journal-entries", params.JournalsHandler.MountRoutes)
		r.Route("/accounting/vouchers", params.VouchersHandler.MountRoutes)
		r.Route("/treasury", params.TreasuryHandler.MountRoutes)
		r.Route("/hris", params.HRISHandler.MountRoutes)
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
