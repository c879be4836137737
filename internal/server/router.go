package server

import (
	"log/slog"
	"net/http"
	"time"

	"planora-ticketing/internal/handlers"
	"planora-ticketing/internal/middleware"
	"planora-ticketing/internal/services"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the HTTP handlers mounted by NewRouter
type Handlers struct {
	Payment   *handlers.PaymentHandler
	Tickets   *handlers.TicketHandler
	OTP       *handlers.OTPHandler
	Events    *handlers.EventHandler
	Admin     *handlers.AdminHandler
	Organizer *handlers.OrganizerHandler
	Health    *handlers.HealthHandler
}

// RouterConfig carries everything the router needs
type RouterConfig struct {
	Handlers       Handlers
	AdminSessions  *middleware.AdminSessionManager
	OrganizerAuth  *middleware.OrganizerAuth
	LoginLimiter   *middleware.LoginRateLimiter
	OTPLimiter     *middleware.RedisRateLimiter
	AllowedOrigins []string
	UploadsDir     string // event covers under it are served at /uploads/ when set
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter wires the API routes. Admin routes only see the admin cookie and
// organizer routes only see organizer credentials.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handlers
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(cfg.Logger))
	r.Use(middleware.ErrorHandlingMiddleware(cfg.Logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins)))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())

	if cfg.UploadsDir != "" {
		r.Handle("/uploads/"+services.PublicPrefix+"*", http.StripPrefix("/uploads/", http.FileServer(publicFiles{http.Dir(cfg.UploadsDir)})))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(timeout))

		// checkout and door scanning
		r.Post("/create-order", h.Payment.CreateOrder)
		r.Post("/verify-payment", h.Payment.VerifyPayment)
		r.Post("/verify-ticket", h.Tickets.VerifyTicket)
		r.Put("/verify-ticket", h.Tickets.RedeemTicket)
		r.Get("/ticket/{id}", h.Tickets.GetTicket)
		r.Get("/ticket-pdf", h.Tickets.TicketPDF)

		// lookup by email
		r.Group(func(r chi.Router) {
			if cfg.OTPLimiter != nil {
				r.Use(middleware.RateLimit(cfg.OTPLimiter, cfg.Logger))
			}
			r.Post("/otp/request", h.OTP.RequestCode)
		})
		r.Post("/otp/verify", h.OTP.VerifyCode)
		r.Post("/tickets-by-email", h.OTP.TicketsByEmail)

		r.Get("/events", h.Events.ListEvents)
		r.With(cfg.OrganizerAuth.RequireOrganizer).Post("/events", h.Events.CreateEvent)

		r.Route("/admin", func(r chi.Router) {
			r.Route("/session", func(r chi.Router) {
				if cfg.LoginLimiter != nil {
					r.Use(middleware.LoginRateLimit(cfg.LoginLimiter))
				}
				r.Get("/", h.Admin.SessionStatus)
				r.Post("/", h.Admin.Login)
				r.Delete("/", h.Admin.Logout)
			})

			r.Group(func(r chi.Router) {
				r.Use(cfg.AdminSessions.RequireAdmin)
				r.Get("/tickets", h.Admin.SearchTickets)
				r.Post("/tickets", h.Admin.TicketAction)
				r.Get("/stats", h.Admin.Stats)
				r.Get("/events", h.Admin.ListEvents)
				r.Put("/events", h.Admin.AssignOrganizer)
			})
		})

		r.Route("/organizer", func(r chi.Router) {
			r.Use(cfg.OrganizerAuth.RequireOrganizer)
			r.Get("/events", h.Organizer.ListEvents)
			r.Put("/events", h.Organizer.UpdateEvent)
			r.Get("/tickets", h.Organizer.Tickets)
			r.Get("/analytics", h.Organizer.Analytics)
			r.Get("/templates", h.Organizer.GetTemplate)
			r.Post("/templates", h.Organizer.PutTemplate)
		})
	})

	return r
}
