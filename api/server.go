/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to
  handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. requestLogger: Structured request logging via zap
  4. CORS:       Cross-origin requests for frontend tooling

ROUTE GROUPS:
  /api/employees/*   Employee management
  /api/templates/*   Work-time templates
  /api/schedules/*   Schedules (creation generates shifts)
  /api/shifts/*      Shift lock/unlock workflow
  /api/punches/*     Attendance punches (recompute on write)
  /api/leaves/*      Leave requests, approve/refuse
  /api/rules/*       Alert rules
  /api/alerts/*      Alerts, resolve, recompute
  /api/seed          Demo dataset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
	"go.uber.org/zap"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(h.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/hours", h.GetScheduledHours)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.ListTemplates)
			r.Post("/", h.CreateTemplate)
			r.Get("/{id}", h.GetTemplate)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Post("/", h.CreateSchedule)
			r.Post("/generate", h.MassGenerate)
			r.Get("/{id}", h.GetSchedule)
			r.Delete("/{id}", h.DeleteSchedule)
			r.Post("/{id}/confirm", h.ConfirmSchedule)
			r.Get("/{id}/rest-days", h.GetRestDays)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.Post("/{id}/lock", h.LockShift)
			r.Post("/{id}/unlock", h.UnlockShift)
		})

		r.Route("/punches", func(r chi.Router) {
			r.Get("/", h.ListPunches)
			r.Post("/", h.CreatePunch)
		})

		r.Route("/leaves", func(r chi.Router) {
			r.Post("/", h.CreateLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/refuse", h.RefuseLeave)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", h.ListRules)
			r.Post("/seed", h.SeedRules)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlerts)
			r.Post("/{id}/resolve", h.ResolveAlert)
			r.Post("/recompute", h.RecomputeAlerts)
		})

		r.Post("/seed", h.LoadDemo)
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
