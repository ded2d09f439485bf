// Package storefront implements the storefront operations exposed over
// GraphQL on top of the commerce, legacy storefront and identity gateways.
package storefront

import (
	"context"
	"errors"
	"time"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/identity"
	"storefront-bff/internal/ocapi"
	"storefront-bff/internal/shopperauth"
)

// Session is the cookie jar of the current request.
type Session interface {
	identity.TokenStore
	SelectedStoreID() string
	SetSelectedStoreID(id string, expires time.Time) error
}

// Request carries everything an operation needs about the caller. It is
// built once per GraphQL request and passed explicitly.
type Request struct {
	SiteID   string
	Locale   string
	Identity identity.Identity
	Session  Session
}

// Sessions issues and rewrites session tokens. *identity.Resolver satisfies it.
type Sessions interface {
	Guest(ctx context.Context, store identity.TokenStore) (identity.Identity, error)
	Establish(store identity.TokenStore, g shopperauth.Grant) (identity.Identity, error)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service struct {
	commerce *commerce.Client
	ocapi    *ocapi.Client
	auth     *shopperauth.Client
	sessions Sessions
	cfg      Config
	now      func() time.Time
}

type Config struct {
	// RedirectURL is the PKCE callback registered with the identity provider.
	RedirectURL                 string
	PreferenceGroupID           string
	PreferenceGroupInstanceType string
	// ContentAssetIDs are extra content assets shipped with the global data.
	ContentAssetIDs []string
	// PaymentMethodID is the card payment method offered at checkout.
	PaymentMethodID string
}

func NewService(cc *commerce.Client, oc *ocapi.Client, auth *shopperauth.Client, sessions Sessions, cfg Config) *Service {
	return &Service{
		commerce: cc,
		ocapi:    oc,
		auth:     auth,
		sessions: sessions,
		cfg:      cfg,
		now:      time.Now,
	}
}

// ---------------------------------------------------------------------------
// Store scoping
// ---------------------------------------------------------------------------

const defaultInventoryID = "default-inventory"

func inventoryFor(storeID string) string {
	if storeID == "" {
		return defaultInventoryID
	}
	return storeID + "-inventory"
}

func pricebookFor(storeID string) string {
	if storeID == "" {
		return ""
	}
	return "pricebook-" + storeID
}

// requireStore returns the selected store or NO_STORE_SELECTED.
func requireStore(req Request) (string, error) {
	id := req.Session.SelectedStoreID()
	if id == "" {
		return "", apperr.User(apperr.CodeNoStoreSelected, "No store selected.")
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Upstream error mapping
// ---------------------------------------------------------------------------

// upstream classifies a gateway error. Known commerce problem types become
// user errors; everything else is an opaque internal error.
func upstream(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	var ce *commerce.APIError
	if errors.As(err, &ce) && ce.Type != "" {
		return apperr.FromUpstreamType(ce.Type, err)
	}
	return apperr.Internal(err)
}
