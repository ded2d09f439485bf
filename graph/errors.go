package graph

import (
	"context"

	"storefront-bff/internal/app/storefront"
	"storefront-bff/internal/apperr"
	"storefront-bff/internal/logging"
)

// gqlError is the error returned by every resolver. graphql-go copies
// Error() into the response message and Extensions() into its extensions.
type gqlError struct {
	err        *apperr.Error
	extensions map[string]any
}

func (e *gqlError) Error() string { return e.err.ClientMessage() }

func (e *gqlError) Unwrap() error { return e.err }

func (e *gqlError) Extensions() map[string]any { return e.extensions }

// gqlErrorFrom classifies err and logs the failures whose detail is hidden
// from the client.
func gqlErrorFrom(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	ae := apperr.As(err)
	switch ae.Class {
	case apperr.ClassUpstream, apperr.ClassConfiguration, apperr.ClassNonAtomic:
		logging.Ctx(ctx).Error().Err(ae).Str("code", string(ae.Code)).Msg("request failed")
	}
	return &gqlError{err: ae, extensions: map[string]any{"code": string(ae.Code)}}
}

// writeError reports a failed basket write. A line item that reached the
// basket without its price carries the status and item id so the client can
// show or retry it.
func writeError(ctx context.Context, res storefront.LineItemResult, err error) error {
	gerr := gqlErrorFrom(ctx, err).(*gqlError)
	if res.Status == storefront.PricePending {
		gerr.extensions["status"] = string(res.Status)
		gerr.extensions["itemId"] = res.ItemID
	}
	return gerr
}
