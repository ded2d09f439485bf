package storefront

import (
	"reflect"
	"strings"
	"testing"

	"storefront-bff/internal/commerce"
	"storefront-bff/internal/ocapi"
)

func TestIngredientsString(t *testing.T) {
	for _, tc := range []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", ""},
		{"zero quantities dropped", `[{"name":"Cheese","qty":2},{"name":"Bacon","qty":0},{"name":"Onion","qty":1}]`, "Cheese: 2, Onion: 1"},
		{"all removed", `[{"name":"Cheese","qty":0}]`, ""},
		{"malformed", `{not json`, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := ingredientsString(tc.doc); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// Both upstream basket shapes must produce the same client view.
func TestBasketView_SameForBothUpstreams(t *testing.T) {
	doc := `[{"name":"Cheese","qty":2}]`
	fromCommerce := basketView(commerce.Basket{
		BasketID:   "b-1",
		Currency:   "USD",
		OrderTotal: 23,
		ProductItems: []commerce.ProductItem{{
			ItemID: "i-1", ProductID: "pizza", Quantity: 2,
			PriceAfterItemDiscount: 23, Ingredients: doc, MinQty: 1, MaxQty: 10, Image: "img.jpg",
		}},
	})
	fromOCAPI := basketView(normalizeOCAPIBasket(ocapi.Basket{
		BasketID:   "b-1",
		Currency:   "USD",
		OrderTotal: 23,
		ProductItems: []ocapi.ProductItem{{
			ItemID: "i-1", ProductID: "pizza", Quantity: 2,
			PriceAfterItemDiscount: 23, Ingredients: doc, MinQty: 1, MaxQty: 10, Image: "img.jpg",
		}},
	}))

	for _, b := range []Basket{fromCommerce, fromOCAPI} {
		if len(b.ProductItems) != 1 {
			t.Fatalf("items = %+v", b.ProductItems)
		}
		it := b.ProductItems[0]
		if it.IngredientsString != "Cheese: 2" || it.MinQty != 1 || it.MaxQty != 10 || it.Image != "img.jpg" {
			t.Errorf("line = %+v", it)
		}
		if !strings.Contains(it.Price, "23.00") || !strings.Contains(b.OrderTotal, "23.00") {
			t.Errorf("money not formatted: line %q total %q", it.Price, b.OrderTotal)
		}
	}
	if fromCommerce.ProductItems[0] != fromOCAPI.ProductItems[0] {
		t.Errorf("views differ:\n%+v\n%+v", fromCommerce.ProductItems[0], fromOCAPI.ProductItems[0])
	}
}

// A basket returned by the price adjustment keeps the checkout state the
// customer basket shows.
func TestBasketView_OCAPIKeepsCheckoutState(t *testing.T) {
	fromCommerce := basketView(commerce.Basket{
		BasketID:     "b-1",
		Currency:     "USD",
		CustomerInfo: commerce.CustomerInfo{CustomerID: "c-1", Email: "jane@example.com"},
		Shipments: []commerce.Shipment{{
			ShipmentID:      "me",
			ShippingAddress: &commerce.Address{FirstName: "Jane", Address1: "1 Main St", City: "Boston", PostalCode: "02101"},
			ShippingMethod:  &commerce.ShippingMethod{ID: "pickup", Name: "Pickup", StorePickupEnabled: true},
		}},
		BillingAddress:     &commerce.Address{FirstName: "Jane", City: "Boston"},
		PaymentInstruments: []commerce.PaymentInstrument{{PaymentInstrumentID: "pi-1", PaymentMethodID: "STRIPE_CREDIT_CARD", Amount: 23}},
		OrderTotal:         23,
	})
	fromOCAPI := basketView(normalizeOCAPIBasket(ocapi.Basket{
		BasketID:     "b-1",
		Currency:     "USD",
		CustomerInfo: ocapi.CustomerInfo{CustomerID: "c-1", Email: "jane@example.com"},
		Shipments: []ocapi.Shipment{{
			ShipmentID:      "me",
			ShippingAddress: &ocapi.Address{FirstName: "Jane", Address1: "1 Main St", City: "Boston", PostalCode: "02101"},
			ShippingMethod:  &ocapi.ShippingMethod{ID: "pickup", Name: "Pickup", StorePickupEnabled: true},
		}},
		BillingAddress:     &ocapi.Address{FirstName: "Jane", City: "Boston"},
		PaymentInstruments: []ocapi.PaymentInstrument{{PaymentInstrumentID: "pi-1", PaymentMethodID: "STRIPE_CREDIT_CARD", Amount: 23}},
		OrderTotal:         23,
	}))

	if fromOCAPI.CustomerEmail != "jane@example.com" || fromOCAPI.BillingAddress == nil || len(fromOCAPI.PaymentInstruments) != 1 {
		t.Fatalf("checkout state dropped: %+v", fromOCAPI)
	}
	if !reflect.DeepEqual(fromCommerce, fromOCAPI) {
		t.Errorf("views differ:\n%+v\n%+v", fromCommerce, fromOCAPI)
	}
}

func TestFormatMoney_UnknownCurrency(t *testing.T) {
	if got := formatMoney(4.5, "XYZ?"); got != "4.50" {
		t.Errorf("got %q", got)
	}
}
