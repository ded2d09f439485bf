// Package commerce is a typed client for the headless commerce platform's REST
// APIs (shopper products, baskets, orders, customers, search) plus the
// privileged admin endpoints reached with machine credentials.
package commerce

import (
	"bytes"
	"context"
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

// API path prefixes, relative to the base URL.
const (
	apiProducts      = "product/shopper-products/v1"
	apiSearch        = "search/shopper-search/v1"
	apiBaskets       = "checkout/shopper-baskets/v1"
	apiShopperOrders = "checkout/shopper-orders/v1"
	apiCustomers     = "customer/shopper-customers/v1"
	apiOrdersAdmin   = "checkout/orders/v1"
	apiCustomerLists = "customer/customers/v1"
)

// Machine-grant scopes.
const (
	scopeBasketsAdmin  = "sfcc.shopper-baskets-orders.rw"
	scopeCustomerLists = "sfcc.customerlists.rw"
	scopeOrders        = "sfcc.orders.rw"
)

// APIError is a non-2xx answer from the commerce platform. Type, Title and
// Detail come from the problem document when the body carries one.
type APIError struct {
	Status int
	Type   string
	Title  string
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("commerce non-2xx (%d): %s", e.Status, e.Body)
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

type Config struct {
	BaseURL        string
	OrganizationID string
	TenantID       string
	// AccountManagerURL issues machine tokens.
	AccountManagerURL  string
	AdminClientID      string
	AdminClientSecret  string
	OrdersClientID     string
	OrdersClientSecret string
}

type Client struct {
	baseURL string
	org     string
	http    *http.Client

	basketsAdmin  *clientcredentials.Config
	customerAdmin *clientcredentials.Config
	ordersAdmin   *clientcredentials.Config
}

func NewClient(cfg Config) *Client {
	tokenURL := strings.TrimRight(cfg.AccountManagerURL, "/") + "/dwsso/oauth2/access_token"
	grant := func(id, secret, scope string) *clientcredentials.Config {
		return &clientcredentials.Config{
			ClientID:     id,
			ClientSecret: secret,
			TokenURL:     tokenURL,
			Scopes:       []string{"SALESFORCE_COMMERCE_API:" + cfg.TenantID, scope},
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		org:     cfg.OrganizationID,
		http: &http.Client{
			Timeout:   20 * time.Second,
			Transport: metrics.Transport("commerce", nil),
		},
		basketsAdmin:  grant(cfg.AdminClientID, cfg.AdminClientSecret, scopeBasketsAdmin),
		customerAdmin: grant(cfg.AdminClientID, cfg.AdminClientSecret, scopeCustomerLists),
		ordersAdmin:   grant(cfg.OrdersClientID, cfg.OrdersClientSecret, scopeOrders),
	}
}

// path builds an organization-scoped path; segments are escaped.
func (c *Client) path(api string, segments ...string) string {
	var b strings.Builder
	b.WriteString("/")
	b.WriteString(api)
	b.WriteString("/organizations/")
	b.WriteString(url.PathEscape(c.org))
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// machineToken fetches a fresh client-credentials token. Tokens are not cached.
func (c *Client) machineToken(ctx context.Context, cc *clientcredentials.Config) (string, error) {
	tok, err := cc.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		ev := logging.Ctx(ctx).Error().Err(err).Strs("scopes", cc.Scopes)
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			ev = ev.Int("status", re.Response.StatusCode).Str("body", string(re.Body))
		}
		ev.Msg("machine grant failed")
		return "", fmt.Errorf("machine grant: %w", err)
	}
	return tok.AccessToken, nil
}

type request struct {
	method string
	path   string
	query  url.Values
	token  string
	body   any
	// want is the accepted status; zero accepts any 2xx.
	want int
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
			return fmt.Errorf("marshal commerce request: %w", err)
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
	req.Header.Set("Accept", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("commerce request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read commerce response: %w", err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if r.want != 0 {
		ok = resp.StatusCode == r.want
	}
	if !ok {
		ae := &APIError{Status: resp.StatusCode, Body: string(b)}
		var problem struct {
			Type   string `json:"type"`
			Title  string `json:"title"`
			Detail string `json:"detail"`
		}
		if json.Unmarshal(b, &problem) == nil {
			ae.Type, ae.Title, ae.Detail = problem.Type, problem.Title, problem.Detail
		}
		logging.Ctx(ctx).Error().
			Str("method", r.method).
			Str("path", r.path).
			Int("status", resp.StatusCode).
			Str("body", ae.Body).
			Msg("commerce request failed")
		return ae
	}

	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode commerce response %s %s: %w", r.method, r.path, err)
	}
	return nil
}

func site(siteID string) url.Values {
	return url.Values{"siteId": {siteID}}
}

func siteLocale(siteID, locale string) url.Values {
	q := site(siteID)
	if locale != "" {
		q.Set("locale", locale)
	}
	return q
}
