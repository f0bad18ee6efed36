// Package api exposes the rule service over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/TimurManjosov/gorules/internal/audit"
	"github.com/TimurManjosov/gorules/internal/auth"
	"github.com/TimurManjosov/gorules/internal/evaluation"
	"github.com/TimurManjosov/gorules/internal/logging"
	"github.com/TimurManjosov/gorules/internal/telemetry"
)

// Options tune the router. Zero values select the defaults.
type Options struct {
	// RateLimitPerIP is the number of requests per minute per client IP;
	// 0 disables rate limiting.
	RateLimitPerIP int
	// RequestTimeout bounds each request; defaults to 5s.
	RequestTimeout time.Duration
}

type Server struct {
	svc    *evaluation.Service
	auth   *auth.Authenticator
	audit  *audit.Service
	logger zerolog.Logger
	opts   Options
}

// NewServer wires the HTTP layer. auditor may be nil.
func NewServer(svc *evaluation.Service, authn *auth.Authenticator, auditor *audit.Service, logger zerolog.Logger, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 5 * time.Second
	}
	return &Server{svc: svc, auth: authn, audit: auditor, logger: logger, opts: opts}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(logging.Middleware(s.logger))
	r.Use(telemetry.Middleware)
	if s.opts.RateLimitPerIP > 0 {
		r.Use(httprate.Limit(
			s.opts.RateLimitPerIP,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				RateLimitedError(w, r, "Rate limit exceeded")
			}),
		))
	}

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/rules", func(r chi.Router) {
		// public: reads, evaluation and dry runs
		r.Get("/all", s.handleListRules)
		r.Get("/{id}", s.handleGetRule)
		r.Get("/{id}/jsonlogic", s.handleRuleJSONLogic)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/combine", s.handleCombine)
		r.Post("/compile", s.handleCompile)

		// admin (protected): mutations
		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireAuth(auth.RoleAdmin, s.denyAuth))
			r.Post("/", s.handleCreateRule)
			r.Put("/modify", s.handleModifyRule)
			r.Delete("/{id}", s.handleDeleteRule)
		})
	})

	return r
}

// denyAuth writes a structured auth error and records the failed attempt.
func (s *Server) denyAuth(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.logAudit(audit.NewEventBuilder(r).
		ForResource(audit.ResourceTypeSystem, r.URL.Path).
		WithAction(audit.ActionAuthFailed).
		Failure(message).
		Build())

	if status == http.StatusForbidden {
		ForbiddenError(w, r, message)
		return
	}
	UnauthorizedError(w, r, message)
}

func (s *Server) logAudit(event audit.AuditEvent) {
	if s.audit != nil {
		s.audit.Log(event)
	}
}
