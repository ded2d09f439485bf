package httptransport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"storefront-bff/graph"
	"storefront-bff/internal/identity"
	"storefront-bff/internal/payment"
	"storefront-bff/internal/session"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeResolver struct {
	id  identity.Identity
	err error
}

func (f fakeResolver) Resolve(context.Context, identity.TokenStore) (identity.Identity, error) {
	return f.id, f.err
}

type fakeWebhook struct {
	gotPayload   string
	gotSignature string
	err          error
}

func (f *fakeWebhook) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	f.gotPayload, f.gotSignature = string(payload), signature
	return f.err
}

func testStore() *session.Store {
	return session.NewStore([]byte("0123456789abcdef0123456789abcdef"), session.OptionsFor(true))
}

func newTestRouter(res SessionResolver, gql http.Handler, wh WebhookProcessor) http.Handler {
	return NewRouter(RouterConfig{
		AllowedOrigins: []string{"https://shop.example.com"},
		GraphQL:        gql,
		Session:        SessionMiddleware{Store: testStore(), Resolver: res},
		Webhook:        wh,
	})
}

// ---------------------------------------------------------------------------
// Session middleware
// ---------------------------------------------------------------------------

func TestSessionMiddleware_AttachesRequestScope(t *testing.T) {
	var (
		gotID   identity.Identity
		gotJar  *session.Jar
		gotSite graph.Site
	)
	gql := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = identity.FromContext(r.Context())
		gotJar = session.JarFromContext(r.Context())
		gotSite, _ = graph.SiteFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := newTestRouter(fakeResolver{id: identity.Identity{AccessToken: "at", CustomerID: "c-1"}}, gql, nil)

	req := httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{"query":"{ globalData }"}`))
	req.Header.Set("X-Site-ID", "Outlet")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gotID.CustomerID != "c-1" || gotJar == nil {
		t.Errorf("identity = %+v, jar = %v", gotID, gotJar)
	}
	if gotSite.ID != "Outlet" || gotSite.Locale != "" {
		t.Errorf("site = %+v", gotSite)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("response has no request id")
	}
}

func TestSessionMiddleware_FailureIsGraphQLError(t *testing.T) {
	called := false
	gql := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })
	h := newTestRouter(fakeResolver{err: errors.New("idp down")}, gql, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query", strings.NewReader(`{}`)))

	if called {
		t.Error("GraphQL handler ran without a session")
	}
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	var body struct {
		Errors []struct {
			Message    string
			Extensions map[string]string
		}
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Extensions["code"] != "INTERNAL_SERVER_ERROR" {
		t.Errorf("body = %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "idp down") {
		t.Error("cause leaked to the client")
	}
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

func TestStripeWebhook(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"applied", nil, http.StatusOK},
		{"bad signature", payment.ErrInvalidSignature, http.StatusBadRequest},
		{"order update failed", errors.New("commerce down"), http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			wh := &fakeWebhook{err: tc.err}
			h := newTestRouter(fakeResolver{}, http.NotFoundHandler(), wh)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{"type":"payment_intent.succeeded"}`))
			req.Header.Set("Stripe-Signature", "t=1,v1=abc")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if wh.gotSignature != "t=1,v1=abc" || !strings.Contains(wh.gotPayload, "succeeded") {
				t.Errorf("processor got %q / %q", wh.gotPayload, wh.gotSignature)
			}
		})
	}
}

func TestStripeWebhook_BypassesSession(t *testing.T) {
	wh := &fakeWebhook{}
	h := newTestRouter(fakeResolver{err: errors.New("no session")}, http.NotFoundHandler(), wh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/stripe", strings.NewReader(`{}`)))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Router
// ---------------------------------------------------------------------------

func TestRouter_CORSAllowsCredentialsForKnownOrigin(t *testing.T) {
	h := newTestRouter(fakeResolver{}, http.NotFoundHandler(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Errorf("allow origin = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials not allowed")
	}

	req = httptest.NewRequest(http.MethodOptions, "/query", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin allowed")
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := newTestRouter(fakeResolver{}, http.NotFoundHandler(), nil)

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestRequestID_KeepsCallerID(t *testing.T) {
	h := newTestRouter(fakeResolver{}, http.NotFoundHandler(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("request id = %q", got)
	}
}
