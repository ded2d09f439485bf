package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/metrics"
	"storefront-bff/internal/pricing"
)

// ErrInvalidSignature is returned for webhook payloads that fail verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Orders is the order administration the payment flow needs. commerce.Client
// satisfies it.
type Orders interface {
	AdminGetOrder(ctx context.Context, siteID, orderNo string) (*commerce.Order, error)
	SetPaymentIntentID(ctx context.Context, siteID, orderNo, instrumentID, intentID string) error
	SetOrderStatus(ctx context.Context, siteID, orderNo, status string) error
	SetPaymentStatus(ctx context.Context, siteID, orderNo, status string) error
	SetConfirmationStatus(ctx context.Context, siteID, orderNo, status string) error
}

type Service struct {
	intents         Intents
	orders          Orders
	paymentMethodID string
	webhookSecret   string
}

func NewService(intents Intents, orders Orders, paymentMethodID, webhookSecret string) *Service {
	return &Service{
		intents:         intents,
		orders:          orders,
		paymentMethodID: paymentMethodID,
		webhookSecret:   webhookSecret,
	}
}

// CreatePaymentIntent returns the intent for an order, creating it on first
// call and recording its id on the order's payment instrument.
func (s *Service) CreatePaymentIntent(ctx context.Context, siteID, orderNo string) (*Intent, error) {
	order, err := s.orders.AdminGetOrder(ctx, siteID, orderNo)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeOrderNotFound, "Order not found.")
		}
		return nil, apperr.Internal(err)
	}

	instrument, ok := order.PaymentInstrumentFor(s.paymentMethodID)
	if !ok {
		return nil, apperr.User(apperr.CodePaymentInstrumentMissing, "The order has no card payment instrument.")
	}

	if instrument.StripePaymentIntentID != "" {
		intent, err := s.intents.Get(ctx, instrument.StripePaymentIntentID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		return intent, nil
	}

	cur, err := pricing.ParseCurrency(order.Currency)
	if err != nil {
		return nil, apperr.Configuration("order currency", err)
	}
	intent, err := s.intents.Create(ctx, IntentRequest{
		Amount:   pricing.ToMinor(order.OrderTotal, cur),
		Currency: strings.ToLower(order.Currency),
		Metadata: map[string]string{"orderNo": orderNo, "siteId": siteID},
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if err := s.orders.SetPaymentIntentID(ctx, siteID, orderNo, instrument.PaymentInstrumentID, intent.ID); err != nil {
		return nil, apperr.Internal(fmt.Errorf("record payment intent %s: %w", intent.ID, err))
	}

	logging.Ctx(ctx).Info().
		Str("order_no", orderNo).
		Str("payment_intent", intent.ID).
		Int64("amount", intent.Amount).
		Msg("payment intent created")
	return intent, nil
}

// ---------------------------------------------------------------------------
// Webhook
// ---------------------------------------------------------------------------

type orderState struct {
	// status is left untouched when empty.
	status       string
	payment      string
	confirmation string
}

var transitions = map[stripe.EventType]orderState{
	stripe.EventTypePaymentIntentSucceeded: {
		payment:      commerce.PaymentStatusPaid,
		confirmation: commerce.ConfirmationConfirmed,
	},
	stripe.EventTypePaymentIntentCanceled: {
		status:       commerce.OrderStatusNew,
		payment:      commerce.PaymentStatusNotPaid,
		confirmation: commerce.ConfirmationNotConfirmed,
	},
	stripe.EventTypePaymentIntentPaymentFailed: {
		status:       commerce.OrderStatusNew,
		payment:      commerce.PaymentStatusNotPaid,
		confirmation: commerce.ConfirmationNotConfirmed,
	},
	stripe.EventTypePaymentIntentRequiresAction: {
		status:       commerce.OrderStatusNew,
		payment:      commerce.PaymentStatusNotPaid,
		confirmation: commerce.ConfirmationNotConfirmed,
	},
}

// HandleWebhook verifies a processor event and applies it to the order named
// in the intent's metadata. Unhandled event types are acknowledged.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "invalid_signature").Inc()
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	typ := string(event.Type)
	log := logging.Ctx(ctx).With().Str("event_id", event.ID).Str("event_type", typ).Logger()

	state, ok := transitions[event.Type]
	if !ok {
		log.Info().Msg("unhandled webhook event")
		metrics.WebhookEvents.WithLabelValues(typ, "ignored").Inc()
		return nil
	}

	var pi stripe.PaymentIntent
	if event.Data == nil || json.Unmarshal(event.Data.Raw, &pi) != nil {
		metrics.WebhookEvents.WithLabelValues(typ, "error").Inc()
		return fmt.Errorf("decode payment intent from event %s", event.ID)
	}
	orderNo, siteID := pi.Metadata["orderNo"], pi.Metadata["siteId"]
	if orderNo == "" || siteID == "" {
		log.Warn().Str("payment_intent", pi.ID).Msg("payment intent without order metadata")
		metrics.WebhookEvents.WithLabelValues(typ, "ignored").Inc()
		return nil
	}

	if err := s.apply(ctx, siteID, orderNo, state); err != nil {
		log.Error().Err(err).Str("order_no", orderNo).Msg("apply webhook event")
		metrics.WebhookEvents.WithLabelValues(typ, "error").Inc()
		return err
	}

	log.Info().Str("order_no", orderNo).Str("payment_intent", pi.ID).Msg("webhook event applied")
	metrics.WebhookEvents.WithLabelValues(typ, "applied").Inc()
	return nil
}

func (s *Service) apply(ctx context.Context, siteID, orderNo string, st orderState) error {
	if st.status != "" {
		if err := s.orders.SetOrderStatus(ctx, siteID, orderNo, st.status); err != nil {
			return err
		}
	}
	if err := s.orders.SetPaymentStatus(ctx, siteID, orderNo, st.payment); err != nil {
		return err
	}
	return s.orders.SetConfirmationStatus(ctx, siteID, orderNo, st.confirmation)
}
