// Package ocapi is a client for the legacy storefront API: store locator,
// content assets, site preferences and basket price adjustments.
package ocapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"storefront-bff/internal/logging"
	"storefront-bff/internal/metrics"
)

const (
	shopVersion = "v21_3"
	dataVersion = "v21_9"

	bmGrantType = "urn:demandware:params:oauth:grant-type:client-id:dwsid:dwsecuretoken"
)

// FaultError is a failed call: a non-2xx status or a body carrying a fault.
type FaultError struct {
	Status  int
	Type    string
	Message string
	Body    string
}

func (e *FaultError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ocapi fault (%d) %s: %s", e.Status, e.Type, e.Message)
	}
	return fmt.Sprintf("ocapi non-2xx (%d): %s", e.Status, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var fe *FaultError
	return errors.As(err, &fe) && fe.Status == http.StatusNotFound
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	// Business Manager user for price adjustments.
	BMUser     string
	BMPassword string
	// AccountManagerURL issues Data API tokens.
	AccountManagerURL string
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	bmUser       string
	bmPassword   string
	http         *http.Client
	dataGrant    *clientcredentials.Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		bmUser:       cfg.BMUser,
		bmPassword:   cfg.BMPassword,
		http: &http.Client{
			Timeout:   20 * time.Second,
			Transport: metrics.Transport("ocapi", nil),
		},
		dataGrant: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     strings.TrimRight(cfg.AccountManagerURL, "/") + "/dwsso/oauth2/access_token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}
}

func (c *Client) shopPath(siteID string, segments ...string) string {
	p := fmt.Sprintf("/s/%s/dw/shop/%s", url.PathEscape(siteID), shopVersion)
	for _, s := range segments {
		p += "/" + url.PathEscape(s)
	}
	return p
}

type request struct {
	method string
	path   string
	query  url.Values
	// auth is the full Authorization header value, if any.
	auth string
	body any
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("marshal ocapi request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth != "" {
		req.Header.Set("Authorization", r.auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ocapi request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read ocapi response: %w", err)
	}

	var envelope struct {
		Fault *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"fault"`
	}
	_ = json.Unmarshal(b, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || envelope.Fault != nil {
		fe := &FaultError{Status: resp.StatusCode, Body: string(b)}
		if envelope.Fault != nil {
			fe.Type, fe.Message = envelope.Fault.Type, envelope.Fault.Message
		}
		logging.Ctx(ctx).Error().
			Str("method", r.method).
			Str("path", r.path).
			Int("status", resp.StatusCode).
			Str("body", fe.Body).
			Msg("ocapi request failed")
		return fe
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode ocapi response %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// dataToken is a client-credentials token for the Data API.
func (c *Client) dataToken(ctx context.Context) (string, error) {
	tok, err := c.dataGrant.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("data api grant failed")
		return "", fmt.Errorf("data api grant: %w", err)
	}
	return tok.AccessToken, nil
}

// bmToken is a Business Manager user grant. Its Basic credentials are the
// three-part user:password:client-secret, which oauth2 cannot express.
func (c *Client) bmToken(ctx context.Context) (string, error) {
	q := url.Values{"client_id": {c.clientID}, "grant_type": {bmGrantType}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/dw/oauth2/access_token?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create bm grant request: %w", err)
	}
	creds := base64.StdEncoding.EncodeToString([]byte(c.bmUser + ":" + c.bmPassword + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+creds)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("bm grant request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read bm grant response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logging.Ctx(ctx).Error().Int("status", resp.StatusCode).Str("body", string(b)).Msg("bm grant failed")
		return "", fmt.Errorf("bm grant non-2xx (%d): %s", resp.StatusCode, string(b))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(b, &tok); err != nil {
		return "", fmt.Errorf("decode bm grant: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("bm grant: empty access token")
	}
	return tok.AccessToken, nil
}
