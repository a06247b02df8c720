// Package api exposes the shop session over JSON/HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crimson-sun/emoshop/internal/shop"
)

// Config tunes the HTTP surface.
type Config struct {
	CORSOrigins []string
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit    int
	MaxBodyBytes int64
}

const defaultMaxBody = 8 << 20

// Handler serves the shop endpoints.
type Handler struct {
	shop *shop.Shop
	cfg  Config
	log  *slog.Logger
}

// NewRouter builds the chi router with every route mounted.
func NewRouter(s *shop.Shop, cfg Config, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	h := &Handler{shop: s, cfg: cfg, log: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(observe(logger))

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Use(limitBody(cfg.MaxBodyBytes))

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/facets", h.facets)
		r.Get("/preferences", h.preferences)
		r.Post("/catalog/refresh", h.refresh)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Post("/", h.addToCart)
			r.Delete("/", h.clearCart)
			r.Post("/checkout", h.checkout)
			r.Post("/items/{id}", h.addItem)
			r.Patch("/items/{id}", h.updateItem)
			r.Delete("/items/{id}", h.removeItem)
		})

		r.Post("/camera/start", h.startCamera)
		r.Post("/camera/stop", h.stopCamera)
		r.Get("/emotion", h.getEmotion)
		r.Post("/emotion/analyze", h.analyze)

		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)
		r.Get("/status", h.status)
	})
	return r
}
