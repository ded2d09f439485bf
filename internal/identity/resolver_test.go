package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/metrics"
	"storefront-bff/internal/session"
	"storefront-bff/internal/shopperauth"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type mockAuth struct {
	guestCalls   int
	refreshCalls int
	guestFn      func() (shopperauth.Grant, error)
	refreshFn    func(rt string) (shopperauth.Grant, error)
}

func (m *mockAuth) GuestGrant(context.Context) (shopperauth.Grant, error) {
	m.guestCalls++
	if m.guestFn == nil {
		return guestGrant, nil
	}
	return m.guestFn()
}

func (m *mockAuth) RefreshGrant(_ context.Context, rt string) (shopperauth.Grant, error) {
	m.refreshCalls++
	if m.refreshFn == nil {
		return shopperauth.Grant{}, errors.New("unexpected refresh")
	}
	return m.refreshFn(rt)
}

type write struct {
	name    string
	expires time.Time
}

// fakeStore records cookie writes the way session.Jar applies them.
type fakeStore struct {
	tokens session.Tokens
	writes []write
}

func (s *fakeStore) Tokens() session.Tokens { return s.tokens }

func (s *fakeStore) SetAccessToken(token string, expires time.Time) error {
	s.tokens.AccessToken = token
	s.writes = append(s.writes, write{session.AccessTokenCookie, expires})
	return nil
}

func (s *fakeStore) SetTokens(t session.Tokens, accessExpires, sessionExpires time.Time) error {
	s.tokens = t
	s.writes = append(s.writes,
		write{session.AccessTokenCookie, accessExpires},
		write{session.RefreshTokenCookie, sessionExpires},
		write{session.CustomerIDCookie, sessionExpires},
		write{session.USIDCookie, sessionExpires},
	)
	return nil
}

var (
	fixedNow   = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	guestGrant = shopperauth.Grant{
		AccessToken:  "guest-at",
		RefreshToken: "guest-rt",
		CustomerID:   "guest-cust",
		USID:         "guest-usid",
		ExpiresIn:    30 * time.Minute,
	}
)

func newResolver(auth *mockAuth) *Resolver {
	return NewResolver(auth, WithClock(func() time.Time { return fixedNow }))
}

func assertFullGuestSession(t *testing.T, store *fakeStore, id Identity) {
	t.Helper()
	want := Identity{AccessToken: "guest-at", RefreshToken: "guest-rt", CustomerID: "guest-cust", USID: "guest-usid"}
	if id != want {
		t.Errorf("identity: want %+v, got %+v", want, id)
	}
	if store.tokens != session.Tokens(want) {
		t.Errorf("stored tokens: want %+v, got %+v", want, store.tokens)
	}
	seen := map[string]time.Time{}
	for _, w := range store.writes {
		seen[w.name] = w.expires
	}
	if len(seen) != 4 {
		t.Fatalf("want all four cookies written, got %v", store.writes)
	}
	if got, want := seen[session.AccessTokenCookie], fixedNow.Add(29*time.Minute); !got.Equal(want) {
		t.Errorf("access expiry: want %v, got %v", want, got)
	}
	for _, name := range []string{session.RefreshTokenCookie, session.CustomerIDCookie, session.USIDCookie} {
		if got, want := seen[name], fixedNow.Add(90*24*time.Hour); !got.Equal(want) {
			t.Errorf("%s expiry: want %v, got %v", name, want, got)
		}
	}
}

// ---------------------------------------------------------------------------
// State machine
// ---------------------------------------------------------------------------

func TestResolve_NoRefreshToken_GuestBootstrap(t *testing.T) {
	auth := &mockAuth{}
	store := &fakeStore{}

	id, err := newResolver(auth).Resolve(t.Context(), store)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if auth.guestCalls != 1 || auth.refreshCalls != 0 {
		t.Errorf("calls: guest=%d refresh=%d, want 1/0", auth.guestCalls, auth.refreshCalls)
	}
	assertFullGuestSession(t, store, id)
}

func TestResolve_NoRefreshTokenIgnoresStaleAccessToken(t *testing.T) {
	auth := &mockAuth{}
	store := &fakeStore{tokens: session.Tokens{AccessToken: "old", CustomerID: "c", USID: "u"}}

	id, err := newResolver(auth).Resolve(t.Context(), store)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	assertFullGuestSession(t, store, id)
}

func TestResolve_Refresh_RotatesAccessTokenOnly(t *testing.T) {
	auth := &mockAuth{refreshFn: func(rt string) (shopperauth.Grant, error) {
		if rt != "reg-rt" {
			t.Errorf("refresh token: got %q", rt)
		}
		return shopperauth.Grant{AccessToken: "new-at", ExpiresIn: 30 * time.Minute}, nil
	}}
	store := &fakeStore{tokens: session.Tokens{RefreshToken: "reg-rt", CustomerID: "reg-cust", USID: "reg-usid"}}

	id, err := newResolver(auth).Resolve(t.Context(), store)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Identity{AccessToken: "new-at", RefreshToken: "reg-rt", CustomerID: "reg-cust", USID: "reg-usid"}
	if id != want {
		t.Errorf("identity: want %+v, got %+v", want, id)
	}
	if len(store.writes) != 1 || store.writes[0].name != session.AccessTokenCookie {
		t.Fatalf("want only the access cookie written, got %v", store.writes)
	}
	if !store.writes[0].expires.Equal(fixedNow.Add(29 * time.Minute)) {
		t.Errorf("access expiry: got %v", store.writes[0].expires)
	}
	if auth.guestCalls != 0 {
		t.Errorf("guest grant must not run, got %d", auth.guestCalls)
	}
}

func TestResolve_RefreshUnauthorized_FallsBackToFullGuest(t *testing.T) {
	auth := &mockAuth{refreshFn: func(string) (shopperauth.Grant, error) {
		return shopperauth.Grant{}, shopperauth.ErrUnauthorized
	}}
	store := &fakeStore{tokens: session.Tokens{RefreshToken: "expired", CustomerID: "reg-cust", USID: "reg-usid"}}
	fallback := metrics.SessionTransitions.WithLabelValues(string(OutcomeFallbackGuest))
	before := testutil.ToFloat64(fallback)

	id, err := newResolver(auth).Resolve(t.Context(), store)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if auth.refreshCalls != 1 || auth.guestCalls != 1 {
		t.Errorf("calls: refresh=%d guest=%d, want 1/1", auth.refreshCalls, auth.guestCalls)
	}
	assertFullGuestSession(t, store, id)
	if got := testutil.ToFloat64(fallback) - before; got != 1 {
		t.Errorf("fallback counter delta: want 1, got %v", got)
	}
}

func TestResolve_RefreshOtherFailure_IsFatal(t *testing.T) {
	auth := &mockAuth{refreshFn: func(string) (shopperauth.Grant, error) {
		return shopperauth.Grant{}, errors.New("refresh grant: 502 bad gateway")
	}}
	store := &fakeStore{tokens: session.Tokens{RefreshToken: "rt", CustomerID: "c", USID: "u"}}

	_, err := newResolver(auth).Resolve(t.Context(), store)
	if err == nil {
		t.Fatal("expected fatal error")
	}
	if apperr.As(err).ClientMessage() != "Internal Server Error" {
		t.Errorf("client message: got %q", apperr.As(err).ClientMessage())
	}
	if auth.guestCalls != 0 || len(store.writes) != 0 {
		t.Errorf("no retry and no cookie writes expected: guest=%d writes=%v", auth.guestCalls, store.writes)
	}
}

func TestResolve_AllFourPresent_NoNetworkTwice(t *testing.T) {
	auth := &mockAuth{}
	store := &fakeStore{tokens: session.Tokens{AccessToken: "at", RefreshToken: "rt", CustomerID: "c", USID: "u"}}
	r := newResolver(auth)

	for i := 0; i < 2; i++ {
		id, err := r.Resolve(t.Context(), store)
		if err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
		if id.AccessToken != "at" || id.CustomerID != "c" {
			t.Errorf("Resolve #%d: got %+v", i, id)
		}
	}
	if auth.guestCalls+auth.refreshCalls != 0 || len(store.writes) != 0 {
		t.Errorf("want zero upstream calls and writes, got guest=%d refresh=%d writes=%v", auth.guestCalls, auth.refreshCalls, store.writes)
	}
}

func TestResolve_GuestThenPassthrough(t *testing.T) {
	auth := &mockAuth{}
	store := &fakeStore{}
	r := newResolver(auth)

	if _, err := r.Resolve(t.Context(), store); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(t.Context(), store); err != nil {
		t.Fatal(err)
	}
	if auth.guestCalls != 1 {
		t.Errorf("second resolve must reuse the bootstrapped session, guest calls=%d", auth.guestCalls)
	}
}

func TestResolve_InconsistentCookies_AreFatal(t *testing.T) {
	for name, tokens := range map[string]session.Tokens{
		"refresh without usid":         {RefreshToken: "rt", CustomerID: "c"},
		"refresh without customer":     {RefreshToken: "rt", USID: "u"},
		"access and refresh only":      {AccessToken: "at", RefreshToken: "rt"},
		"access refresh and usid only": {AccessToken: "at", RefreshToken: "rt", USID: "u"},
	} {
		t.Run(name, func(t *testing.T) {
			auth := &mockAuth{}
			store := &fakeStore{tokens: tokens}
			if _, err := newResolver(auth).Resolve(t.Context(), store); err == nil {
				t.Fatal("expected fatal error")
			}
			if auth.guestCalls+auth.refreshCalls != 0 {
				t.Errorf("no upstream calls expected, got guest=%d refresh=%d", auth.guestCalls, auth.refreshCalls)
			}
		})
	}
}

func TestResolve_GuestGrantFailure(t *testing.T) {
	auth := &mockAuth{guestFn: func() (shopperauth.Grant, error) {
		return shopperauth.Grant{}, errors.New("503")
	}}
	store := &fakeStore{}
	if _, err := newResolver(auth).Resolve(t.Context(), store); err == nil {
		t.Fatal("expected error")
	}
	if len(store.writes) != 0 {
		t.Errorf("no partial session expected, got %v", store.writes)
	}
}

func TestEstablish_RejectsIncompleteGrant(t *testing.T) {
	store := &fakeStore{}
	_, err := newResolver(&mockAuth{}).Establish(store, shopperauth.Grant{AccessToken: "at", RefreshToken: "rt"})
	if err == nil {
		t.Fatal("expected error for grant without usid/customer id")
	}
	if len(store.writes) != 0 {
		t.Errorf("no cookies expected, got %v", store.writes)
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("empty context must not carry an identity")
	}
	id := Identity{AccessToken: "at", CustomerID: "c"}
	ctx := WithIdentity(context.Background(), id)
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Errorf("want %+v, got %+v ok=%v", id, got, ok)
	}
	if cid := logging.CustomerIDFromContext(ctx); cid != "c" {
		t.Errorf("log context customer id = %q", cid)
	}
}

func TestFromContext_NoAccessTokenIsAbsent(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{CustomerID: "c"})
	if _, ok := FromContext(ctx); ok {
		t.Error("identity without an access token must not be usable")
	}
}
