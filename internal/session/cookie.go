// Package session reads and writes the signed session cookies.
//
// A Jar is bound to one request: reads see the cookies the browser sent,
// overlaid with anything written earlier in the same request.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	AccessTokenCookie     = "session.accessToken"
	RefreshTokenCookie    = "session.refreshToken"
	CustomerIDCookie      = "session.customerId"
	USIDCookie            = "session.usid"
	SelectedStoreIDCookie = "session.selectedStoreId"
)

// Lifetimes applied by the identity resolver and store selection.
const (
	AccessTokenMargin = 60 * time.Second
	SessionLifetime   = 90 * 24 * time.Hour
	StoreLifetime     = 365 * 24 * time.Hour
)

// Tokens is the four-value session tuple. Empty string means absent.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	CustomerID   string
	USID         string
}

// CookieOptions defines how session cookies are issued.
type CookieOptions struct {
	Path     string
	Domain   string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// OptionsFor returns the cookie attributes for an environment: Secure with
// SameSite=None everywhere but development.
func OptionsFor(development bool) CookieOptions {
	if development {
		return CookieOptions{HttpOnly: true, Secure: false, SameSite: http.SameSiteLaxMode}
	}
	return CookieOptions{HttpOnly: true, Secure: true, SameSite: http.SameSiteNoneMode}
}

// Store holds the signing codec and cookie attributes shared by every request.
type Store struct {
	codec *securecookie.SecureCookie
	opts  CookieOptions
}

func NewStore(hashKey []byte, opts CookieOptions) *Store {
	codec := securecookie.New(hashKey, nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	// The cookie Expires attribute is authoritative; the codec only has to
	// accept values for the longest lifetime we issue.
	codec.MaxAge(int((StoreLifetime + 24*time.Hour).Seconds()))
	return &Store{codec: codec, opts: opts.normalize()}
}

// Jar binds the store to one request/response pair.
func (s *Store) Jar(w http.ResponseWriter, r *http.Request) *Jar {
	return &Jar{store: s, w: w, r: r, written: map[string]string{}}
}

type Jar struct {
	store   *Store
	w       http.ResponseWriter
	r       *http.Request
	written map[string]string
}

// get returns the verified value of a cookie. A missing cookie or one whose
// signature fails is reported as "".
func (j *Jar) get(name string) string {
	if v, ok := j.written[name]; ok {
		return v
	}
	c, err := j.r.Cookie(name)
	if err != nil {
		return ""
	}
	var v string
	if err := j.store.codec.Decode(name, c.Value, &v); err != nil {
		return ""
	}
	return v
}

func (j *Jar) set(name, value string, expires time.Time) error {
	encoded, err := j.store.codec.Encode(name, value)
	if err != nil {
		return fmt.Errorf("encode cookie %s: %w", name, err)
	}
	o := j.store.opts
	http.SetCookie(j.w, &http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     o.Path,
		Domain:   o.Domain,
		Expires:  expires,
		HttpOnly: o.HttpOnly,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	})
	j.written[name] = value
	return nil
}

func (j *Jar) Tokens() Tokens {
	return Tokens{
		AccessToken:  j.get(AccessTokenCookie),
		RefreshToken: j.get(RefreshTokenCookie),
		CustomerID:   j.get(CustomerIDCookie),
		USID:         j.get(USIDCookie),
	}
}

// SetAccessToken rotates the access token only.
func (j *Jar) SetAccessToken(token string, expires time.Time) error {
	return j.set(AccessTokenCookie, token, expires)
}

// SetTokens rewrites all four session values.
func (j *Jar) SetTokens(t Tokens, accessExpires, sessionExpires time.Time) error {
	if err := j.set(AccessTokenCookie, t.AccessToken, accessExpires); err != nil {
		return err
	}
	if err := j.set(RefreshTokenCookie, t.RefreshToken, sessionExpires); err != nil {
		return err
	}
	if err := j.set(CustomerIDCookie, t.CustomerID, sessionExpires); err != nil {
		return err
	}
	return j.set(USIDCookie, t.USID, sessionExpires)
}

func (j *Jar) SelectedStoreID() string {
	return j.get(SelectedStoreIDCookie)
}

func (j *Jar) SetSelectedStoreID(id string, expires time.Time) error {
	return j.set(SelectedStoreIDCookie, id, expires)
}

type jarKey struct{}

// WithJar attaches the request's jar to ctx for resolvers further down.
func WithJar(ctx context.Context, j *Jar) context.Context {
	return context.WithValue(ctx, jarKey{}, j)
}

// JarFromContext returns the jar attached by WithJar, or nil.
func JarFromContext(ctx context.Context) *Jar {
	j, _ := ctx.Value(jarKey{}).(*Jar)
	return j
}
