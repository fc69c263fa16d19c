// Package server assembles the HTTP routes and middleware.
package server

import (
	"net/http"

	"github.com/diewo77/go-retail/httpx"
	"github.com/diewo77/go-retail/internal/handlers"
	"github.com/diewo77/go-retail/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Handlers groups the API handlers mounted under /api.
type Handlers struct {
	Invoices  *handlers.InvoiceHandler
	Products  *handlers.ProductHandler
	Dashboard *handlers.DashboardHandler
}

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, log zerolog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(log))
	r.Use(withRecover)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// Lightweight DB check; the cause is logged, not returned.
		if err := db.WithContext(r.Context()).Exec("SELECT 1").Error; err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("health check failed")
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		if h.Invoices != nil {
			r.Route("/invoices", h.Invoices.Routes)
		}
		if h.Products != nil {
			r.Route("/products", h.Products.Routes)
		}
		if h.Dashboard != nil {
			r.Get("/dashboard/overview", h.Dashboard.Overview)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})
	return r
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zerolog.Ctx(r.Context()).Error().Interface("panic", rec).Msg("handler panicked")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
