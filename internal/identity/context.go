package identity

import (
	"context"

	"storefront-bff/internal/logging"
)

// The session middleware resolves the shopper once per request and hands it
// to the resolvers through the request context. Service calls receive it
// explicitly from there.

type identityKey struct{}

// WithIdentity attaches the resolved shopper to ctx. Log lines written
// through logging.Ctx from then on carry the customer id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, identityKey{}, id)
	if id.CustomerID != "" {
		ctx = logging.ContextWithCustomerID(ctx, id.CustomerID)
	}
	return ctx
}

// FromContext returns the shopper resolved for this request. An identity
// without an access token cannot call the commerce APIs and counts as absent.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.AccessToken == "" {
		return Identity{}, false
	}
	return id, true
}
