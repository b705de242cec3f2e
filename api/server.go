/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)

			// Time clock, scoped to one (employee, holiday) pair
			r.Route("/{id}/holidays/{hid}", func(r chi.Router) {
				r.Get("/budget", h.GetBudget)
				r.Get("/end-options", h.EndOptions)
				r.Post("/clock-in", h.ClockIn)
				r.Post("/clock-out", h.ClockOut)
			})

			// Clock-out reminders
			r.Post("/{id}/reminder", h.SetReminder)
			r.Delete("/{id}/reminder", h.CancelReminder)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Patch("/{id}/active", h.SetHolidayActive)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Correction request routes
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Get("/pending", h.ListPendingRequests)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
		})

		// Hour-bank claim routes
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", h.SubmitClaim)
			r.Get("/pending", h.ListPendingClaims)
			r.Post("/{id}/confirm", h.ConfirmClaim)
		})

		// Record decision routes
		r.Route("/records", func(r chi.Router) {
			r.Get("/pending", h.ListPendingRecords)
			r.Post("/{id}/decision", h.DecideRecord)
		})
	})

	return r
}
