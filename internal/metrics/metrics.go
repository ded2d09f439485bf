package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionTransitions counts identity resolutions by terminal outcome:
	// guest, refreshed, refresh_fallback_guest, passthrough, error.
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_session_transitions_total",
			Help: "Total number of session resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// PriceAdjustments counts line-item price adjustments by outcome:
	// applied, price_pending, rejected.
	PriceAdjustments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_price_adjustments_total",
			Help: "Total number of basket line-item price adjustments by outcome",
		},
		[]string{"outcome"},
	)

	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_upstream_requests_total",
			Help: "Total number of upstream API requests by gateway, status code and method",
		},
		[]string{"gateway", "code", "method"},
	)

	WebhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_payment_webhook_events_total",
			Help: "Total number of payment webhook events by type and result",
		},
		[]string{"type", "result"},
	)
)

// Transport wraps base so every upstream round trip is counted under gateway.
func Transport(gateway string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(
		UpstreamRequests.MustCurryWith(prometheus.Labels{"gateway": gateway}),
		base,
	)
}
