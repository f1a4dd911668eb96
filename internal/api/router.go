package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maryuh24/lashesstudio/internal/lifecycle"
	"github.com/maryuh24/lashesstudio/pkg/logging"
)

type RouterConfig struct {
	Service   BookingService
	Postgres  Pinger
	Redis     Pinger
	JWTSecret string
	Logger    *logging.Logger
	Metrics   http.Handler // defaults to promhttp.Handler()
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = promhttp.Handler()
	}
	svc := cfg.Service

	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(AccessLog(cfg.Logger))
	r.Use(chimw.Recoverer)

	// Health endpoints
	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", cfg.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret))

		r.Get("/slots", listSlotsHandler())
		r.Get("/services", listServicesHandler(svc))
		r.Get("/lash-artists", listArtistsHandler(svc))
		r.Get("/available-slots", availableSlotsHandler(svc))
		r.Get("/users/me", meHandler(svc))
		r.Post("/users/me/password", changePasswordHandler(svc))

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(lifecycle.RoleCustomer))
			r.Post("/bookings", createBookingHandler(svc))
			r.Get("/bookings/my", myBookingsHandler(svc))
			r.Delete("/bookings/{id}", cancelHandler(svc))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireRole(lifecycle.RoleAdmin))
			r.Get("/appointments", adminAppointmentsHandler(svc))
			r.Patch("/appointments/{id}/approve", approveHandler(svc))
			r.Patch("/appointments/{id}/decline", declineHandler(svc))
			r.Patch("/appointments/{id}/cancel", cancelHandler(svc))
			r.Post("/services", createServiceHandler(svc))
			r.Put("/services/{id}", updateServiceHandler(svc))
			r.Delete("/services/{id}", deleteServiceHandler(svc))
			r.Get("/users", listUsersHandler(svc))
			r.Post("/users", createUserHandler(svc))
			r.Put("/users/{id}", updateUserHandler(svc))
			r.Delete("/users/{id}", deleteUserHandler(svc))
			r.Get("/stats", statsHandler(svc))
		})

		r.Route("/lash-artist", func(r chi.Router) {
			r.Use(RequireRole(lifecycle.RoleArtist))
			r.Get("/appointments", artistAppointmentsHandler(svc))
			r.Patch("/appointments/{id}/complete", completeHandler(svc))
		})
	})

	return r
}
