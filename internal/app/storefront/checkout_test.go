package storefront

import (
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"storefront-bff/internal/apperr"
)

func storeRoute(methods ...string) routeEntry {
	return routeEntry{method: http.MethodGet, suffix: "/stores/store-1", body: map[string]any{
		"id": "store-1", "name": "Downtown", "address1": "1 Main St", "city": "Boston",
		"state_code": "MA", "postal_code": "02101", "country_code": "US", "phone": "555-0100",
		"c_deliveryMethods": methods,
	}}
}

func basketRoute(basket map[string]any) routeEntry {
	return routeEntry{method: http.MethodGet, suffix: "/customers/c-1/baskets", body: map[string]any{
		"total": 1, "baskets": []any{basket},
	}}
}

func checkoutBasket(items ...map[string]any) map[string]any {
	return map[string]any{
		"basketId":     "b-1",
		"currency":     "USD",
		"customerInfo": map[string]any{"customerId": "c-1"},
		"shipments":    []map[string]any{{"shipmentId": "me"}},
		"productItems": items,
	}
}

var methodsRoutes = []routeEntry{
	{method: http.MethodGet, suffix: "/shipping-methods", body: map[string]any{
		"applicableShippingMethods": []map[string]any{
			{"id": "pickup", "name": "Pickup", "price": 0, "c_storePickupEnabled": true},
			{"id": "courier", "name": "Courier", "price": 4.5},
		},
	}},
	{method: http.MethodGet, suffix: "/payment-methods", body: map[string]any{
		"applicablePaymentMethods": []map[string]any{{"id": "STRIPE_CREDIT_CARD", "name": "Card"}},
	}},
}

func TestGetCheckoutData_FiltersByStore(t *testing.T) {
	routes := append([]routeEntry{storeRoute("pickup"), basketRoute(checkoutBasket())}, methodsRoutes...)
	srv := routingServer(t, routes)

	got, err := newSvc(t, srv, nil).GetCheckoutData(t.Context(), newReq("store-1"))
	if err != nil {
		t.Fatalf("GetCheckoutData: %v", err)
	}
	if len(got.DeliveryMethods) != 1 || got.DeliveryMethods[0].ID != "pickup" || !got.DeliveryMethods[0].IsStorePickup {
		t.Errorf("delivery methods = %+v", got.DeliveryMethods)
	}
	if len(got.PaymentMethods) != 1 {
		t.Errorf("payment methods = %+v", got.PaymentMethods)
	}
	if got.SelectedStoreAddress == nil || got.SelectedStoreAddress.FullName != "Downtown" {
		t.Errorf("store address = %+v", got.SelectedStoreAddress)
	}
	// guests have no saved addresses and no customer lookup happens
	if len(got.SavedAddresses) != 0 {
		t.Errorf("saved = %+v", got.SavedAddresses)
	}
}

func TestGetCheckoutData_Errors(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		srv := routingServer(t, nil)
		_, err := newSvc(t, srv, nil).GetCheckoutData(t.Context(), newReq(""))
		assertCode(t, err, apperr.CodeNoStoreSelected)
	})

	t.Run("store gone", func(t *testing.T) {
		srv := routingServer(t, []routeEntry{{
			method: http.MethodGet, suffix: "/stores/store-1", status: http.StatusNotFound,
			body: map[string]any{"fault": map[string]any{"type": "NotFoundException"}},
		}})
		_, err := newSvc(t, srv, nil).GetCheckoutData(t.Context(), newReq("store-1"))
		assertCode(t, err, apperr.CodeNoStoreSelected)
	})

	t.Run("no shipments", func(t *testing.T) {
		b := checkoutBasket()
		delete(b, "shipments")
		srv := routingServer(t, []routeEntry{storeRoute("pickup"), basketRoute(b)})
		_, err := newSvc(t, srv, nil).GetCheckoutData(t.Context(), newReq("store-1"))
		assertCode(t, err, apperr.CodeShipmentsNotFound)
	})

	t.Run("nothing supported", func(t *testing.T) {
		routes := append([]routeEntry{storeRoute("drone"), basketRoute(checkoutBasket())}, methodsRoutes...)
		srv := routingServer(t, routes)
		_, err := newSvc(t, srv, nil).GetCheckoutData(t.Context(), newReq("store-1"))
		assertCode(t, err, apperr.CodeNoDeliveryMethods)
	})
}

func TestAddShippingMethod_RefusesUnsupported(t *testing.T) {
	// no basket route: the refusal happens before the basket is touched
	srv := routingServer(t, []routeEntry{storeRoute("pickup")})
	_, err := newSvc(t, srv, nil).AddShippingMethod(t.Context(), newReq("store-1"), "courier")
	assertCode(t, err, apperr.CodeInvalidInput)
}

func TestAddPaymentMethod_ReplacesInstruments(t *testing.T) {
	b := checkoutBasket()
	b["paymentInstruments"] = []map[string]any{{"paymentInstrumentId": "pi-old", "paymentMethodId": "CASH"}}
	var calls []string
	srv := routingServer(t, []routeEntry{
		basketRoute(b),
		{method: http.MethodDelete, suffix: "/baskets/b-1/payment-instruments/pi-old", body: checkoutBasket(),
			check: func(*testing.T, *http.Request, []byte) { calls = append(calls, "remove") }},
		{method: http.MethodPost, suffix: "/baskets/b-1/payment-instruments", body: checkoutBasket(),
			check: func(t *testing.T, _ *http.Request, body []byte) {
				calls = append(calls, "add")
				if !strings.Contains(string(body), "STRIPE_CREDIT_CARD") {
					t.Errorf("body = %s", body)
				}
			}},
	})

	if _, err := newSvc(t, srv, nil).AddPaymentMethod(t.Context(), newReq("store-1"), "STRIPE_CREDIT_CARD"); err != nil {
		t.Fatalf("AddPaymentMethod: %v", err)
	}
	if strings.Join(calls, ",") != "remove,add" {
		t.Errorf("calls = %v", calls)
	}
}

func TestCreateOrder(t *testing.T) {
	t.Run("empty basket", func(t *testing.T) {
		srv := routingServer(t, []routeEntry{storeRoute("pickup"), basketRoute(checkoutBasket())})
		_, err := newSvc(t, srv, nil).CreateOrder(t.Context(), newReq("store-1"))
		assertCode(t, err, apperr.CodeEmptyBasket)
	})

	t.Run("placed and stamped", func(t *testing.T) {
		var status, store map[string]string
		srv := routingServer(t, []routeEntry{
			storeRoute("pickup"),
			basketRoute(checkoutBasket(map[string]any{"itemId": "i-1", "productId": "pizza", "quantity": 1})),
			machineTokenRoute,
			{method: http.MethodPost, suffix: "/shopper-orders/v1/organizations/org_1/orders", body: map[string]any{"orderNo": "00042"}},
			{method: http.MethodPut, suffix: "/orders/00042/status", status: http.StatusNoContent,
				check: func(t *testing.T, _ *http.Request, body []byte) { _ = json.Unmarshal(body, &status) }},
			{method: http.MethodPatch, suffix: "/orders/00042", status: http.StatusNoContent,
				check: func(t *testing.T, _ *http.Request, body []byte) { _ = json.Unmarshal(body, &store) }},
		})

		ref, err := newSvc(t, srv, nil).CreateOrder(t.Context(), newReq("store-1"))
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if ref.OrderNo != "00042" || ref.Status != "new" {
			t.Errorf("ref = %+v", ref)
		}
		if status["status"] != "new" {
			t.Errorf("status write = %v", status)
		}
		if store["c_storeId"] != "store-1" || store["c_storeName"] != "Downtown" {
			t.Errorf("store write = %v", store)
		}
	})
}

func TestGetOrderStatus_RequiresMatchingDetails(t *testing.T) {
	order := map[string]any{
		"orderNo":      "00042",
		"status":       "new",
		"currency":     "USD",
		"creationDate": "2026-03-01T12:00:00.000Z",
		"customerInfo": map[string]any{"customerId": "c-9"},
		"shipments": []map[string]any{{
			"shipmentId":      "me",
			"shippingAddress": map[string]any{"phone": "555-0199"},
		}},
	}
	routes := []routeEntry{
		machineTokenRoute,
		{method: http.MethodGet, suffix: "/orders/v1/organizations/org_1/orders/00042", body: order},
	}

	for _, tc := range []struct {
		name, phone, ts string
		ok              bool
	}{
		{"match", "555-0199", "2026-03-01T12:00:00.000Z", true},
		{"wrong phone", "555-0100", "2026-03-01T12:00:00.000Z", false},
		{"wrong timestamp", "555-0199", "2026-03-02T12:00:00.000Z", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := routingServer(t, routes)
			got, err := newSvc(t, srv, nil).GetOrderStatus(t.Context(), newReq(""), "00042", tc.phone, tc.ts)
			if !tc.ok {
				assertCode(t, err, apperr.CodeOrderNotFound)
				return
			}
			if err != nil {
				t.Fatalf("GetOrderStatus: %v", err)
			}
			if got.OrderNo != "00042" || got.Status != "new" {
				t.Errorf("got %+v", got)
			}
		})
	}
}

func TestGetOrder_OtherCustomer(t *testing.T) {
	srv := routingServer(t, []routeEntry{
		machineTokenRoute,
		{method: http.MethodGet, suffix: "/orders/00042", body: map[string]any{
			"orderNo": "00042", "customerInfo": map[string]any{"customerId": "c-9"},
		}},
	})
	_, err := newSvc(t, srv, nil).GetOrder(t.Context(), newReq(""), "00042")
	assertCode(t, err, apperr.CodeOrderNotFound)
}
