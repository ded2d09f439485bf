// Package shopperauth talks to the commerce platform's shopper identity provider.
package shopperauth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"storefront-bff/internal/logging"
	"storefront-bff/internal/metrics"
)

var (
	// ErrUnauthorized is returned when the identity provider rejects a refresh token.
	ErrUnauthorized = errors.New("shopper auth: unauthorized")
	// ErrInvalidCredentials is returned by LoginStart for a wrong username or password.
	ErrInvalidCredentials = errors.New("shopper auth: invalid credentials")
)

// Grant is the token set issued by the identity provider.
type Grant struct {
	AccessToken  string
	RefreshToken string
	USID         string
	CustomerID   string
	ExpiresIn    time.Duration
}

type Client struct {
	baseURL      string
	org          string
	clientID     string
	clientSecret string
	http         *http.Client
	// noRedirect is used for the login call, whose answer is the redirect itself.
	noRedirect *http.Client
}

func NewClient(baseURL, org, clientID, clientSecret string) *Client {
	transport := metrics.Transport("shopper_auth", nil)
	return &Client{
		baseURL:      baseURL,
		org:          org,
		clientID:     clientID,
		clientSecret: clientSecret,
		http: &http.Client{
			Timeout:   20 * time.Second,
			Transport: transport,
		},
		noRedirect: &http.Client{
			Timeout:   20 * time.Second,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) endpoint(action string) string {
	return fmt.Sprintf("%s/shopper/auth/v1/organizations/%s/oauth2/%s", c.baseURL, url.PathEscape(c.org), action)
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

func (c *Client) config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  redirectURL,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.endpoint("token"),
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// GuestGrant performs the anonymous client-credentials grant.
func (c *Client) GuestGrant(ctx context.Context) (Grant, error) {
	cc := clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.endpoint("token"),
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tok, err := cc.Token(c.oauthContext(ctx))
	if err != nil {
		logRetrieveError(ctx, "guest grant", err)
		return Grant{}, fmt.Errorf("guest grant: %w", err)
	}
	return grantFrom(tok), nil
}

// RefreshGrant exchanges a refresh token for a new access token. An HTTP 401
// from the identity provider is reported as ErrUnauthorized.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (Grant, error) {
	ts := c.config("").TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode == http.StatusUnauthorized {
			return Grant{}, fmt.Errorf("refresh grant: %w", ErrUnauthorized)
		}
		logRetrieveError(ctx, "refresh grant", err)
		return Grant{}, fmt.Errorf("refresh grant: %w", err)
	}
	return grantFrom(tok), nil
}

type LoginStartParams struct {
	Username      string
	Password      string
	CodeChallenge string
	SiteID        string
	RedirectURL   string
	// GuestUSID keeps the guest session (and its basket) linked to the login.
	GuestUSID string
}

// LoginStart authenticates the shopper's credentials and returns the redirect
// URL carrying the authorization code.
func (c *Client) LoginStart(ctx context.Context, p LoginStartParams) (string, error) {
	q := url.Values{
		"client_id":      {c.clientID},
		"response_type":  {"code"},
		"redirect_uri":   {p.RedirectURL},
		"state":          {"start_login"},
		"scope":          {"openid"},
		"channel_id":     {p.SiteID},
		"code_challenge": {p.CodeChallenge},
	}
	if p.GuestUSID != "" {
		q.Set("usid", p.GuestUSID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("login")+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.SetBasicAuth(p.Username, p.Password)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrInvalidCredentials
	}
	location := resp.Header.Get("Location")
	if location == "" {
		b, _ := io.ReadAll(resp.Body)
		logging.Ctx(ctx).Error().Int("status", resp.StatusCode).Str("body", string(b)).Msg("login start: no redirect location")
		return "", fmt.Errorf("login start: no redirect location (%d)", resp.StatusCode)
	}
	return location, nil
}

// LoginEnd exchanges the authorization code for a registered shopper's tokens.
func (c *Client) LoginEnd(ctx context.Context, code, codeVerifier, usid, redirectURL string) (Grant, error) {
	tok, err := c.config(redirectURL).Exchange(c.oauthContext(ctx), code,
		oauth2.SetAuthURLParam("grant_type", "authorization_code_pkce"),
		oauth2.SetAuthURLParam("client_id", c.clientID),
		oauth2.SetAuthURLParam("usid", usid),
		oauth2.VerifierOption(codeVerifier),
	)
	if err != nil {
		logRetrieveError(ctx, "login end", err)
		return Grant{}, fmt.Errorf("login end: %w", err)
	}
	return grantFrom(tok), nil
}

// Logout revokes the shopper's refresh token.
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken, siteID string) error {
	q := url.Values{
		"client_id":     {c.clientID},
		"channel_id":    {siteID},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("logout")+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Ctx(ctx).Error().Int("status", resp.StatusCode).Str("body", string(b)).Msg("logout failed")
		return fmt.Errorf("logout non-2xx (%d)", resp.StatusCode)
	}
	return nil
}

func grantFrom(tok *oauth2.Token) Grant {
	return Grant{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		USID:         extraString(tok, "usid"),
		CustomerID:   extraString(tok, "customer_id"),
		ExpiresIn:    expiresIn(tok),
	}
}

func extraString(tok *oauth2.Token, key string) string {
	switch v := tok.Extra(key).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// expiresIn reads the raw expires_in field; oauth2 only keeps the derived Expiry.
func expiresIn(tok *oauth2.Token) time.Duration {
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	if !tok.Expiry.IsZero() {
		return time.Until(tok.Expiry).Round(time.Second)
	}
	return 0
}

func logRetrieveError(ctx context.Context, op string, err error) {
	ev := logging.Ctx(ctx).Error().Err(err).Str("op", op)
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.Response != nil {
			ev = ev.Int("status", re.Response.StatusCode)
		}
		ev = ev.Str("body", string(re.Body))
	}
	ev.Msg("identity provider request failed")
}
