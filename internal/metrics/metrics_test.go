package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTransport_CountsByGatewayAndCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	client := &http.Client{Transport: Transport("test_gateway", nil)}
	ok := UpstreamRequests.WithLabelValues("test_gateway", "204", "get")
	missing := UpstreamRequests.WithLabelValues("test_gateway", "404", "get")
	okBefore, missingBefore := testutil.ToFloat64(ok), testutil.ToFloat64(missing)

	for _, path := range []string{"/", "/", "/missing"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(ok) - okBefore; got != 2 {
		t.Errorf("204 count: want 2, got %v", got)
	}
	if got := testutil.ToFloat64(missing) - missingBefore; got != 1 {
		t.Errorf("404 count: want 1, got %v", got)
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(PriceAdjustments.WithLabelValues("applied"))
	PriceAdjustments.WithLabelValues("applied").Inc()
	if got := testutil.ToFloat64(PriceAdjustments.WithLabelValues("applied")); got != before+1 {
		t.Errorf("applied counter: want %v, got %v", before+1, got)
	}
}
