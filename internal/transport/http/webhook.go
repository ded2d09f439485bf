package httptransport

import (
	"context"
	"errors"
	"io"
	"net/http"

	"storefront-bff/internal/logging"
	"storefront-bff/internal/payment"
)

// maxWebhookBody bounds the payload read before signature verification.
const maxWebhookBody = 64 << 10

// WebhookProcessor applies a signed payment event. *payment.Service
// implements it.
type WebhookProcessor interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// StripeWebhook verifies and applies payment processor events. Bad
// signatures get a 400 so the processor does not retry them; any other
// failure gets a 500 so it does.
func StripeWebhook(p WebhookProcessor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			http.Error(w, "unreadable body", http.StatusBadRequest)
			return
		}

		err = p.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
		switch {
		case err == nil:
			w.WriteHeader(http.StatusOK)
		case errors.Is(err, payment.ErrInvalidSignature):
			http.Error(w, "invalid signature", http.StatusBadRequest)
		default:
			logging.Ctx(r.Context()).Error().Err(err).Msg("webhook processing failed")
			http.Error(w, "webhook processing failed", http.StatusInternalServerError)
		}
	})
}
