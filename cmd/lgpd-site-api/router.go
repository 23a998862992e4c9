package main

import (
	"context"
	"net/http"
	"time"

	"lgpd-site-api/internal/config"
	"lgpd-site-api/internal/http/docs"
	"lgpd-site-api/internal/http/handler"
	"lgpd-site-api/internal/http/httperr"
	"lgpd-site-api/internal/http/middleware"
	"lgpd-site-api/internal/observability/logger"
	"lgpd-site-api/internal/storage"
	"lgpd-site-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// RouterDeps contém as dependências necessárias para construir o router.
type RouterDeps struct {
	Cfg        *config.Config
	Log        *logger.Logger
	Collectors *telemetry.Collectors // nil cria um registry novo
	Metrics    *telemetry.Metrics    // OTel, opcional
	Limiter    middleware.Limiter    // nil desliga o rate limit
	Pinger     storage.Pinger        // usado por /ready

	Handler *handler.SubmissionHandler
}

// buildRouter constrói o chi.Router com todos os middlewares e rotas.
func buildRouter(deps RouterDeps) chi.Router {
	collectors := deps.Collectors
	if collectors == nil {
		collectors = telemetry.NewCollectors()
	}

	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(middleware.CORS)
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httperr.NotFound404(w, r.Context())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httperr.MethodNotAllowed405(w, r.Context())
	})

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, `{"status":"ok"}`)
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pinger == nil {
			writeStatus(w, http.StatusOK, `{"status":"ready"}`)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := deps.Pinger.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: storage unavailable",
				logger.Module("http"),
				logger.Action("ready"),
				zap.Error(err),
			)
			writeStatus(w, http.StatusServiceUnavailable, `{"status":"error","message":"storage unavailable"}`)
			return
		}

		writeStatus(w, http.StatusOK, `{"status":"ready"}`)
	})

	r.With(middleware.MetricsAuth(deps.Cfg.MetricsToken)).Get("/metrics", collectors.Handler().ServeHTTP)

	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)

	// Formulários do site
	if deps.Handler != nil {
		r.Route("/v1", func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(middleware.RateLimitMiddleware(deps.Limiter, deps.Cfg.RateLimitPerIPPerMin, collectors.ObserveRateLimitRejection))
			}

			r.Post("/lead-submission", deps.Handler.Lead)
			r.Post("/contact-submission", deps.Handler.Contact)
			r.Post("/newsletter-subscription", deps.Handler.Newsletter)
			r.Post("/diagnostic-submission", deps.Handler.Diagnostic)
			r.Post("/lgpd-consultation-booking", deps.Handler.Consultation)
		})
	}

	return r
}

func writeStatus(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
