package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sanamed/telehealth-scheduling/internal/scheduling"
)

type RouterConfig struct {
	Service *scheduling.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	mountServiceRoutes(r, cfg.Service)

	return r
}

func mountServiceRoutes(r chi.Router, svc *scheduling.Service) {
	// Availability
	r.Get("/doctors/{id}/availability", availabilityHandler(svc))

	// Appointments
	r.Get("/appointments", listAppointmentsHandler(svc))
	r.Get("/appointments/conflict", conflictHandler(svc))
	r.Post("/appointments", bookAppointmentHandler(svc))
	r.Get("/appointments/{id}", getAppointmentHandler(svc))
	r.Post("/appointments/{id}/status", setStatusHandler(svc))
	r.Post("/appointments/{id}/rating", rateAppointmentHandler(svc))
}
