package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// carry copies the Set-Cookie headers of rec onto a fresh request.
func carry(t *testing.T, rec *httptest.ResponseRecorder) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestJar_RoundTrip(t *testing.T) {
	store := NewStore(testKey, OptionsFor(false))
	now := time.Now()

	rec := httptest.NewRecorder()
	jar := store.Jar(rec, httptest.NewRequest(http.MethodPost, "/query", nil))
	want := Tokens{AccessToken: "at", RefreshToken: "rt", CustomerID: "cid", USID: "usid"}
	if err := jar.SetTokens(want, now.Add(29*time.Minute), now.Add(SessionLifetime)); err != nil {
		t.Fatalf("SetTokens: %v", err)
	}
	if err := jar.SetSelectedStoreID("store-1", now.Add(StoreLifetime)); err != nil {
		t.Fatalf("SetSelectedStoreID: %v", err)
	}

	// Same request sees its own writes.
	if got := jar.Tokens(); got != want {
		t.Errorf("same-request Tokens: want %+v, got %+v", want, got)
	}

	next := store.Jar(httptest.NewRecorder(), carry(t, rec))
	if got := next.Tokens(); got != want {
		t.Errorf("next-request Tokens: want %+v, got %+v", want, got)
	}
	if got := next.SelectedStoreID(); got != "store-1" {
		t.Errorf("SelectedStoreID: got %q", got)
	}
}

func TestJar_CookieAttributes(t *testing.T) {
	for _, tc := range []struct {
		name     string
		dev      bool
		secure   bool
		sameSite http.SameSite
	}{
		{"production", false, true, http.SameSiteNoneMode},
		{"development", true, false, http.SameSiteLaxMode},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			jar := NewStore(testKey, OptionsFor(tc.dev)).Jar(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if err := jar.SetAccessToken("at", time.Now().Add(time.Minute)); err != nil {
				t.Fatal(err)
			}
			cookies := rec.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("want 1 cookie, got %d", len(cookies))
			}
			c := cookies[0]
			if c.Name != AccessTokenCookie || !c.HttpOnly || c.Path != "/" {
				t.Errorf("unexpected cookie %+v", c)
			}
			if c.Secure != tc.secure || c.SameSite != tc.sameSite {
				t.Errorf("secure/samesite: want %v/%v, got %v/%v", tc.secure, tc.sameSite, c.Secure, c.SameSite)
			}
		})
	}
}

func TestJar_TamperedCookieIsAbsent(t *testing.T) {
	store := NewStore(testKey, OptionsFor(true))

	req := httptest.NewRequest(http.MethodPost, "/query", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "not-signed"})
	if got := store.Jar(httptest.NewRecorder(), req).Tokens().RefreshToken; got != "" {
		t.Errorf("unsigned cookie must read as absent, got %q", got)
	}

	// Signed with another key.
	other := NewStore([]byte("ffffffffffffffffffffffffffffffff"), OptionsFor(true))
	rec := httptest.NewRecorder()
	if err := other.Jar(rec, req).SetAccessToken("at", time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if got := store.Jar(httptest.NewRecorder(), carry(t, rec)).Tokens().AccessToken; got != "" {
		t.Errorf("foreign signature must read as absent, got %q", got)
	}
}

func TestJar_ValueBoundToCookieName(t *testing.T) {
	store := NewStore(testKey, OptionsFor(true))
	rec := httptest.NewRecorder()
	if err := store.Jar(rec, httptest.NewRequest(http.MethodGet, "/", nil)).SetAccessToken("at", time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	signed := rec.Result().Cookies()[0].Value

	// Replay the access token value under the refresh token name.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: signed})
	if got := store.Jar(httptest.NewRecorder(), req).Tokens().RefreshToken; got != "" {
		t.Errorf("value signed for another name must be rejected, got %q", got)
	}
}
