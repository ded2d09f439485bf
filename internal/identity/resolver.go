// Package identity turns the session cookies of a request into a usable
// shopper identity, bootstrapping a guest or refreshing the access token when
// the cookie set requires it.
//
// Observed cookies and resulting action:
//
//	refresh token absent                      guest grant, rewrite all four
//	access absent, refresh+usid+customer set  refresh grant, rotate access token
//	  refresh rejected with 401               guest grant, rewrite all four
//	  any other refresh failure               fatal
//	all four present                          no upstream call
//	anything else                             fatal
//
// Concurrent requests from one browser may each refresh; no locking is done.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/metrics"
	"storefront-bff/internal/session"
	"storefront-bff/internal/shopperauth"
)

// Identity is the resolved token tuple for one request.
type Identity struct {
	AccessToken  string
	RefreshToken string
	CustomerID   string
	USID         string
}

// TokenStore is the cookie jar of the current request.
type TokenStore interface {
	Tokens() session.Tokens
	SetAccessToken(token string, expires time.Time) error
	SetTokens(t session.Tokens, accessExpires, sessionExpires time.Time) error
}

// Authenticator issues guest and refreshed tokens.
type Authenticator interface {
	GuestGrant(ctx context.Context) (shopperauth.Grant, error)
	RefreshGrant(ctx context.Context, refreshToken string) (shopperauth.Grant, error)
}

// Outcome labels the transition taken by Resolve.
type Outcome string

const (
	OutcomeGuest         Outcome = "guest"
	OutcomeRefreshed     Outcome = "refreshed"
	OutcomeFallbackGuest Outcome = "refresh_fallback_guest"
	OutcomePassthrough   Outcome = "passthrough"
	OutcomeError         Outcome = "error"
)

var errInconsistentSession = errors.New("inconsistent session cookies")

type Resolver struct {
	auth Authenticator
	now  func() time.Time
}

type Option func(*Resolver)

// WithClock replaces time.Now for cookie expiry computation.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(auth Authenticator, opts ...Option) *Resolver {
	r := &Resolver{auth: auth, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve produces the identity for the current request, doing the minimum
// upstream work the observed cookie set requires.
func (r *Resolver) Resolve(ctx context.Context, store TokenStore) (Identity, error) {
	id, outcome, err := r.resolve(ctx, store)
	if err != nil {
		outcome = OutcomeError
		logging.Ctx(ctx).Error().Err(err).Msg("resolve session")
	}
	metrics.SessionTransitions.WithLabelValues(string(outcome)).Inc()
	return id, err
}

func (r *Resolver) resolve(ctx context.Context, store TokenStore) (Identity, Outcome, error) {
	t := store.Tokens()

	switch {
	case t.RefreshToken == "":
		id, err := r.Guest(ctx, store)
		return id, OutcomeGuest, err

	case t.AccessToken == "" && t.USID != "" && t.CustomerID != "":
		g, err := r.auth.RefreshGrant(ctx, t.RefreshToken)
		if errors.Is(err, shopperauth.ErrUnauthorized) {
			logging.Ctx(ctx).Info().Str("customer_id", t.CustomerID).Msg("refresh token rejected, starting guest session")
			id, err := r.Guest(ctx, store)
			return id, OutcomeFallbackGuest, err
		}
		if err != nil {
			return Identity{}, OutcomeError, apperr.Authentication(apperr.CodeInternal, "Internal Server Error", err)
		}
		if err := store.SetAccessToken(g.AccessToken, r.accessExpiry(g)); err != nil {
			return Identity{}, OutcomeError, apperr.Internal(err)
		}
		return Identity{
			AccessToken:  g.AccessToken,
			RefreshToken: t.RefreshToken,
			CustomerID:   t.CustomerID,
			USID:         t.USID,
		}, OutcomeRefreshed, nil

	case t.AccessToken != "" && t.USID != "" && t.CustomerID != "":
		return Identity(t), OutcomePassthrough, nil
	}

	return Identity{}, OutcomeError, apperr.Authentication(apperr.CodeInternal, "Internal Server Error", errInconsistentSession)
}

// Guest bootstraps a fresh guest session and rewrites all four cookies.
func (r *Resolver) Guest(ctx context.Context, store TokenStore) (Identity, error) {
	g, err := r.auth.GuestGrant(ctx)
	if err != nil {
		return Identity{}, apperr.Authentication(apperr.CodeInternal, "Internal Server Error", err)
	}
	return r.Establish(store, g)
}

// Establish stores a complete grant as the session and returns its identity.
func (r *Resolver) Establish(store TokenStore, g shopperauth.Grant) (Identity, error) {
	id := Identity{
		AccessToken:  g.AccessToken,
		RefreshToken: g.RefreshToken,
		CustomerID:   g.CustomerID,
		USID:         g.USID,
	}
	if id.AccessToken == "" || id.RefreshToken == "" || id.CustomerID == "" || id.USID == "" {
		return Identity{}, apperr.Internal(fmt.Errorf("incomplete grant: customer=%q usid=%q", id.CustomerID, id.USID))
	}
	now := r.now()
	if err := store.SetTokens(session.Tokens(id), r.accessExpiry(g), now.Add(session.SessionLifetime)); err != nil {
		return Identity{}, apperr.Internal(err)
	}
	return id, nil
}

// The access cookie expires a safety margin before the token itself.
func (r *Resolver) accessExpiry(g shopperauth.Grant) time.Time {
	return r.now().Add(g.ExpiresIn - session.AccessTokenMargin)
}
