/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. zerolog:    Structured request logging
  4. CORS:       Cross-origin requests for frontend

SECURITY NOTE:
  No authentication middleware. Authentication and authorization are
  expected in front of this service; the acting user arrives in the
  X-Actor-ID header.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Actor-ID"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetUser)
				r.Put("/", h.UpdateUser)

				r.Post("/clock", h.Clock)
				r.Post("/corrections", h.Correction)
				r.Put("/days/{date}", h.OverrideDay)
				r.Post("/bulk-entries", h.BulkEntry)

				r.Get("/months/{year}/{month}", h.MonthView)
				r.Get("/summary", h.Summary)
				r.Get("/availability", h.Availability)

				r.Get("/leave", h.ListLeave)
				r.Post("/leave", h.CreateLeave)

				r.Get("/sick-leaves", h.ListSickLeaves)
				r.Post("/sick-leaves", h.CreateSickLeave)
				r.Delete("/sick-leaves/{date}", h.RemoveSickLeaveDay)

				r.Post("/break-credits", h.CreateBreakCredit)
				r.Get("/adjustments", h.ListAdjustments)
				r.Post("/adjustments", h.CreateAdjustment)
				r.Put("/overtime-account", h.SetOvertimeAccount)
			})
		})

		r.Route("/leave", func(r chi.Router) {
			r.Get("/pending", h.ListPendingLeave)
			r.Post("/{id}/cancel", h.CancelLeave)
			r.Post("/{id}/decision", h.DecideLeave)
			r.Put("/{id}", h.UpdateLeave)
		})

		r.Get("/overview", h.Overview)

		r.Get("/config", h.GetConfig)
		r.Put("/config", h.UpdateConfig)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Post("/defaults", h.SeedDefaultHolidays)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/rollover", h.TriggerRollover)
			r.Get("/audits", h.ListAudits)
		})
	})

	return r
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
