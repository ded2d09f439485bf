// Package httptransport assembles the HTTP surface: the GraphQL endpoint
// behind the session middleware, the payment webhook and the operational
// endpoints.
package httptransport

import (
	"net/http"

	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins []string
	// Playground serves the GraphQL playground on "/".
	Playground bool

	GraphQL http.Handler
	Session SessionMiddleware
	Webhook WebhookProcessor
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader, siteHeader, localeHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	if cfg.Playground {
		r.Handle("/", playground.Handler("Storefront playground", "/query"))
	}
	r.Handle("/query", cfg.Session.Wrap(cfg.GraphQL))

	if cfg.Webhook != nil {
		r.Method(http.MethodPost, "/webhooks/stripe", StripeWebhook(cfg.Webhook))
	}
	return r
}
