package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fernbooks/fernbooks/internal/banking"
	"github.com/fernbooks/fernbooks/internal/contacts"
	"github.com/fernbooks/fernbooks/internal/documents"
	"github.com/fernbooks/fernbooks/internal/journals"
	"github.com/fernbooks/fernbooks/internal/observability"
	"github.com/fernbooks/fernbooks/internal/payments"
	"github.com/fernbooks/fernbooks/internal/recurring"
	"github.com/fernbooks/fernbooks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	DocumentsHandler *documents.Handler
	ContactsHandler  *contacts.Handler
	PaymentsHandler  *payments.Handler
	BankingHandler   *banking.Handler
	JournalsHandler  *journals.Handler
	RecurringHandler *recurring.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with fernbooks defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.DocumentsHandler.MountRoutes(r)
		params.ContactsHandler.MountRoutes(r)
		params.PaymentsHandler.MountRoutes(r)
		params.BankingHandler.MountRoutes(r)
		params.JournalsHandler.MountRoutes(r)
		params.RecurringHandler.MountRoutes(r)
	})

	if params.JobsHandler != nil {
		r.Route("/jobs", params.JobsHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
