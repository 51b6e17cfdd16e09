package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cyberdyne10/huntress/internal/application"
	"github.com/cyberdyne10/huntress/internal/domain"
	"github.com/cyberdyne10/huntress/internal/ports"
)

const (
	defaultMaxBodyBytes = 1 << 20
	sessionCookieName   = "huntress_session"
	signatureHeaderName = "X-CRM-Signature"
)

// RouterConfig holds edge settings that do not belong to the application layer.
type RouterConfig struct {
	CORSOrigin    string
	MaxBodyBytes  int64
	SecureCookies bool
}

// Handler is the HTTP adapter entrypoint for the portal API.
type Handler struct {
	service *application.Service
	checks  []ports.HealthChecker
	cfg     RouterConfig
}

// NewHandler constructs an HTTP handler bound to the application service.
// checks are pinged by /readyz.
func NewHandler(service *application.Service, cfg RouterConfig, checks ...ports.HealthChecker) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return &Handler{service: service, checks: checks, cfg: cfg}
}

// NewRouter registers routes and the middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareStack(handler.cfg)...)

	r.Get("/health", handler.health)
	r.Get("/healthz", handler.health)
	r.Get("/readyz", handler.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", handler.login)
		r.Get("/auth/me", handler.me)
		r.Post("/auth/logout", handler.logout)
		r.Post("/crm/webhook/status", handler.crmWebhookStatus)
		r.Get("/incidents", handler.listIncidents)
		r.Get("/alerts", handler.listAlerts)
		r.Post("/demo-intake", handler.demoIntake)

		r.Route("/admin", func(r chi.Router) {
			r.Use(handler.requireRole(domain.RoleAdmin))
			r.Get("/overview", handler.adminOverview)
			r.Get("/crm/events/{eventId}", handler.adminWebhookEvent)
			r.Get("/crm/records/{recordId}", handler.adminCRMRecord)
		})
	})

	return r
}

// middlewareStack is outermost first. Recovery sits inside logging so a
// recovered panic is still logged and timed as a 500.
func middlewareStack(cfg RouterConfig) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		requestIDMiddleware,
		loggingMiddleware,
		recoverMiddleware,
		securityHeadersMiddleware,
		corsMiddleware(cfg.CORSOrigin),
	}
}
