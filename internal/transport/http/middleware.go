package httptransport

import (
	"context"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"storefront-bff/graph"
	"storefront-bff/internal/identity"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/session"
)

const (
	requestIDHeader = "X-Request-ID"
	siteHeader      = "X-Site-ID"
	localeHeader    = "X-Locale"
)

// RequestID reuses the caller's X-Request-ID or issues a new one, and makes it
// available to the logger for the rest of the request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logging.NewRequestID()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logging.ContextWithRequestID(r.Context(), id)
		ctx = context.WithValue(ctx, chimiddleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionResolver resolves the shopper identity from the request cookies.
// *identity.Resolver implements it.
type SessionResolver interface {
	Resolve(ctx context.Context, store identity.TokenStore) (identity.Identity, error)
}

// SessionMiddleware binds the cookie jar to the request, resolves the shopper
// identity and records the site being served. GraphQL handlers below it read
// all three from the context.
type SessionMiddleware struct {
	Store    *session.Store
	Resolver SessionResolver
}

func (m SessionMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jar := m.Store.Jar(w, r)
		id, err := m.Resolver.Resolve(r.Context(), jar)
		if err != nil {
			// the resolver has logged the cause
			writeGraphQLError(w, http.StatusInternalServerError, "Internal Server Error", "INTERNAL_SERVER_ERROR")
			return
		}

		ctx := session.WithJar(r.Context(), jar)
		ctx = identity.WithIdentity(ctx, id)
		ctx = graph.WithSite(ctx, graph.Site{
			ID:     r.Header.Get(siteHeader),
			Locale: r.Header.Get(localeHeader),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type gqlErrorBody struct {
	Errors []gqlErrorEntry `json:"errors"`
}

type gqlErrorEntry struct {
	Message    string            `json:"message"`
	Extensions map[string]string `json:"extensions"`
}

// writeGraphQLError answers with a GraphQL-shaped error body so clients parse
// failures before execution the same way as resolver errors.
func writeGraphQLError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(gqlErrorBody{Errors: []gqlErrorEntry{{
		Message:    message,
		Extensions: map[string]string{"code": code},
	}}})
}
