// Package api implements the gateway's HTTP surface: the /auth, /login, and
// /logout state machine, plus OpenAPI documentation routes. /health is
// exposed separately (HealthHandler) so a caller can mount it ahead of any
// request queue.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-openapi/runtime/middleware"

	"github.com/relayauth/totpgate/internal/audit"
	"github.com/relayauth/totpgate/internal/config"
	"github.com/relayauth/totpgate/internal/metrics"
	"github.com/relayauth/totpgate/internal/ratelimit"
	"github.com/relayauth/totpgate/internal/webui"
)

//go:embed openapi.yaml
var openapiSpec []byte

// Handler holds every dependency the request-processing state machine
// needs: the validated configuration, the login rate limiter, the login
// page template registry, and the audit trail.
type Handler struct {
	cfg       *config.ServerConfig
	limiter   *ratelimit.Limiter
	templates *webui.Registry
	audit     *audit.Logger
	anomalies *metrics.FailureDetector
}

// Option configures a Handler at construction time.
type Option func(*Handler)

// WithAnomalyDetector attaches a sliding-window login-failure detector;
// every login failure is fed to it, and its alerts go to whatever AlertFunc
// the detector was built with.
func WithAnomalyDetector(d *metrics.FailureDetector) Option {
	return func(h *Handler) { h.anomalies = d }
}

// New builds a Handler serving cfg, rendering login pages from templates,
// and recording every security-relevant event through auditLogger. If
// auditLogger is nil, a default one writing structured logs to stderr is
// created with no persistent hash-chained store attached.
func New(cfg *config.ServerConfig, templates *webui.Registry, auditLogger *audit.Logger, opts ...Option) *Handler {
	if auditLogger == nil {
		auditLogger = audit.New(slog.New(slog.NewJSONHandler(os.Stderr, nil)), nil)
	}
	h := &Handler{
		cfg:       cfg,
		limiter:   ratelimit.New(cfg.AuthPerSecond),
		templates: templates,
		audit:     auditLogger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthHandler answers liveness probes directly. It is not mounted on
// Router — the caller wires it ahead of whatever request queue fronts
// Router, so a probe never waits behind login traffic.
func (h *Handler) HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, "text/plain", []byte("OK"))
	})
}

// Router returns the chi.Router serving every queued route this gateway
// exposes (everything except /health; see HealthHandler).
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(SecurityHeaders)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, http.StatusOK, "text/yaml", openapiSpec)
	})
	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/openapi.yaml",
		Path:    "docs",
	}, nil))
	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/openapi.yaml",
		Path:    "redoc",
	}, nil))

	r.Handle("/auth", http.HandlerFunc(h.handleAuth))
	r.Get("/login", h.handleLogin)
	r.Post("/login", h.handleLogin)
	r.Handle("/logout", http.HandlerFunc(h.handleLogout))

	r.NotFound(h.handleNotFound)

	return r
}
