package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/angkorcare/hospital-assistant/internal/http/handlers"
	httpmiddleware "github.com/angkorcare/hospital-assistant/internal/http/middleware"
	"github.com/angkorcare/hospital-assistant/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Booking            *handlers.BookingHandler
	Query              *handlers.QueryHandler
	Providers          *handlers.ProvidersHandler
	AdminAvailability  *handlers.AdminAvailabilityHandler
	AdminToken         string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Post("/book-appointment", cfg.Booking.BookAppointment)

	r.Route("/api", func(api chi.Router) {
		api.Get("/health", cfg.Query.Health)
		api.Post("/query", cfg.Query.Query)
		api.Post("/book-appointment", cfg.Booking.BookAppointment)
		api.Get("/providers", cfg.Providers.List)
		api.Get("/providers/{provider}/availability", cfg.Providers.Availability)
	})

	if cfg.AdminAvailability != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireAdminToken(cfg.AdminToken))
			admin.Put("/availability", cfg.AdminAvailability.SetSchedule)
		})
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
