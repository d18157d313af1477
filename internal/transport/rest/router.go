package rest

import (
	"log/slog"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/hr-portal/api"
	"github.com/frahmantamala/hr-portal/internal"
	"github.com/frahmantamala/hr-portal/internal/absence"
	"github.com/frahmantamala/hr-portal/internal/employee"
	"github.com/frahmantamala/hr-portal/internal/roster"
	"github.com/frahmantamala/hr-portal/internal/session"
	"github.com/frahmantamala/hr-portal/internal/termination"
	"github.com/frahmantamala/hr-portal/internal/transport/middleware"
	"github.com/frahmantamala/hr-portal/internal/transport/swagger"
	"github.com/frahmantamala/hr-portal/pkg/metrics"
)

// Handlers groups the screen handlers mounted under /api/v1. A nil handler leaves its
// routes unregistered.
type Handlers struct {
	Health      *HealthHandler
	Session     *session.Handler
	Absence     *absence.Handler
	Employee    *employee.Handler
	Roster      *roster.Handler
	Termination *termination.Handler
}

func RegisterAllRoutes(router *chi.Mux, cfg *internal.Config, h Handlers, logger *slog.Logger) {
	router.Use(middleware.CORS(cfg.Server.Origins()))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.TraceID)
	router.Use(middleware.RecoveryMiddleware(logger))

	if cfg.Observability.Metrics.Enabled {
		router.Use(metrics.Middleware)
		router.Handle(cfg.Observability.Metrics.Path, metrics.Handler())
	}

	router.Handle("/openapi.yml", api.Handler())
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		if h.Health != nil {
			r.Get("/health", h.Health.Health)
			r.Get("/ping", h.Health.Ping)
		}

		r.Group(func(cr chi.Router) {
			cr.Use(middleware.ClientID(cfg.Security.ClientCookie, cfg.Security.CookieSecure))
			cr.Use(middleware.LoggingMiddleware(logger))

			if h.Session == nil {
				return
			}

			cr.Route("/session", func(sr chi.Router) {
				sr.Post("/", h.Session.StartSession)
				sr.Get("/", h.Session.CurrentSession)
				sr.Delete("/", h.Session.EndSession)
			})

			cr.Route("/screens", func(sr chi.Router) {
				sr.Use(h.Session.Middleware)

				if h.Absence != nil {
					sr.Route("/absences", func(ar chi.Router) {
						ar.Get("/pending", h.Absence.GetPending)
						ar.Post("/pending/{id}/approve", h.Absence.ApprovePending)
						ar.Post("/pending/{id}/reject", h.Absence.RejectPending)
						ar.Get("/mine", h.Absence.GetMine)
						ar.Post("/mine", h.Absence.SubmitMine)
					})
				}

				if h.Employee != nil {
					sr.Get("/employees/new", h.Employee.GetForm)
					sr.Post("/employees", h.Employee.CreateEmployee)
				}

				if h.Roster != nil {
					sr.Route("/roster", func(rr chi.Router) {
						rr.Get("/", h.Roster.GetRoster)
						rr.Get("/current", h.Roster.FilterRoster)
						rr.Get("/{departmentID}", h.Roster.GetRoster)
					})
				}

				if h.Termination != nil {
					sr.Get("/terminations/{employeeID}", h.Termination.GetForm)
					sr.Post("/terminations/{employeeID}", h.Termination.SubmitRequest)
				}
			})
		})
	})
}
