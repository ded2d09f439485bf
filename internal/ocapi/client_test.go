package ocapi

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type routeEntry struct {
	method string
	suffix string
	status int
	body   any
	check  func(t *testing.T, r *http.Request, body []byte)
}

func routingServer(t *testing.T, routes []routeEntry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		for _, route := range routes {
			if r.Method != route.method || !strings.HasSuffix(r.URL.Path, route.suffix) {
				continue
			}
			if route.check != nil {
				route.check(t, r, body)
			}
			status := route.status
			if status == 0 {
				status = http.StatusOK
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if route.body != nil {
				_ = json.NewEncoder(w).Encode(route.body)
			}
			return
		}
		t.Errorf("routingServer: no route for %s %s", r.Method, r.URL.Path)
		http.Error(w, "no route", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *Client {
	return NewClient(Config{
		BaseURL:           srv.URL,
		ClientID:          "ocapi-client",
		ClientSecret:      "ocapi-secret",
		BMUser:            "bm-user",
		BMPassword:        "bm-pass",
		AccountManagerURL: srv.URL,
	})
}

func TestSearchStores_QueryAndDecode(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodGet,
		suffix: "/s/RefArch/dw/shop/v21_3/stores",
		body: map[string]any{
			"count": 1,
			"data": []map[string]any{{
				"id": "store-1", "name": "Downtown", "latitude": 47.37, "longitude": 8.54,
				"c_deliveryMethods": []string{"pickup", "delivery"},
			}},
		},
		check: func(t *testing.T, r *http.Request, _ []byte) {
			q := r.URL.Query()
			if q.Get("latitude") != "47.37" || q.Get("longitude") != "8.54" {
				t.Errorf("coordinates = %s,%s", q.Get("latitude"), q.Get("longitude"))
			}
			if q.Get("max_distance") != "25" {
				t.Errorf("max_distance = %q", q.Get("max_distance"))
			}
			if q.Get("client_id") != "ocapi-client" {
				t.Errorf("client_id = %q", q.Get("client_id"))
			}
			if got := r.Header.Get("Authorization"); got != "Bearer shopper" {
				t.Errorf("Authorization = %q", got)
			}
		},
	}})

	stores, err := newClient(srv).SearchStores(t.Context(), "shopper", StoreSearch{
		SiteID: "RefArch", Locale: "en-US", Latitude: 47.37, Longitude: 8.54, MaxDistance: 25,
	})
	if err != nil {
		t.Fatalf("SearchStores: %v", err)
	}
	if len(stores) != 1 || stores[0].ID != "store-1" {
		t.Fatalf("stores = %+v", stores)
	}
	if !stores[0].Supports("pickup") || stores[0].Supports("shipping") {
		t.Errorf("Supports mismatch for %v", stores[0].DeliveryMethods)
	}
}

func TestDo_FaultInSuccessfulResponseIsAnError(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodGet,
		suffix: "/stores/missing",
		body:   map[string]any{"fault": map[string]string{"type": "StoreNotFoundException", "message": "No store with id 'missing'"}},
	}})

	_, err := newClient(srv).GetStore(t.Context(), "shopper", "RefArch", "missing")
	if err == nil {
		t.Fatal("expected an error for a fault body")
	}
	if !strings.Contains(err.Error(), "StoreNotFoundException") {
		t.Errorf("error should carry the fault type, got %v", err)
	}
}

func TestGetStore_NotFound(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodGet,
		suffix: "/stores/gone",
		status: http.StatusNotFound,
		body:   map[string]any{"fault": map[string]string{"type": "NotFound", "message": "gone"}},
	}})

	_, err := newClient(srv).GetStore(t.Context(), "shopper", "RefArch", "gone")
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false", err)
	}
}

func TestContentAssets_BatchPath(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodGet,
		suffix: "/content/(footer,menu)",
		body: map[string]any{"data": []map[string]string{
			{"id": "footer", "c_body": `{"links":[]}`},
			{"id": "menu", "c_body": `{"items":[]}`},
		}},
	}})

	assets, err := newClient(srv).ContentAssets(t.Context(), "RefArch", "en-US", []string{"footer", "menu"})
	if err != nil {
		t.Fatalf("ContentAssets: %v", err)
	}
	if len(assets) != 2 || assets[1].Body != `{"items":[]}` {
		t.Errorf("assets = %+v", assets)
	}
}

func TestContentAssets_NoIDsNoCall(t *testing.T) {
	srv := routingServer(t, nil)
	assets, err := newClient(srv).ContentAssets(t.Context(), "RefArch", "", nil)
	if err != nil || assets != nil {
		t.Fatalf("got %v, %v", assets, err)
	}
}

func TestSitePreferences_UsesDataGrant(t *testing.T) {
	srv := routingServer(t, []routeEntry{
		{
			method: http.MethodPost,
			suffix: "/dwsso/oauth2/access_token",
			body:   map[string]any{"access_token": "data-token", "token_type": "Bearer", "expires_in": 1799},
			check: func(t *testing.T, r *http.Request, body []byte) {
				user, pass, ok := r.BasicAuth()
				if !ok || user != "ocapi-client" || pass != "ocapi-secret" {
					t.Errorf("basic auth = %q/%q", user, pass)
				}
				if !strings.Contains(string(body), "grant_type=client_credentials") {
					t.Errorf("body = %s", body)
				}
			},
		},
		{
			method: http.MethodGet,
			suffix: "/s/-/dw/data/v21_9/sites/RefArch/site_preferences/preference_groups/storefront/development",
			body: map[string]any{
				"c_siteLogo":          map[string]string{"abs_url": "https://cdn/logo.svg"},
				"c_footerJsonAssetId": "footer",
				"c_menuJsonAssetId":   "menu",
			},
			check: func(t *testing.T, r *http.Request, _ []byte) {
				if got := r.Header.Get("Authorization"); got != "Bearer data-token" {
					t.Errorf("Authorization = %q", got)
				}
			},
		},
	})

	prefs, err := newClient(srv).SitePreferences(t.Context(), "RefArch", "storefront", "development")
	if err != nil {
		t.Fatalf("SitePreferences: %v", err)
	}
	if prefs.SiteLogo == nil || prefs.SiteLogo.AbsURL != "https://cdn/logo.svg" {
		t.Errorf("SiteLogo = %+v", prefs.SiteLogo)
	}
	if prefs.FooterJSONAssetID != "footer" || prefs.MenuJSONAssetID != "menu" {
		t.Errorf("asset ids = %q, %q", prefs.FooterJSONAssetID, prefs.MenuJSONAssetID)
	}
}

func TestAdjustItemPrice_BMGrantAndBody(t *testing.T) {
	wantBasic := "Basic " + base64.StdEncoding.EncodeToString([]byte("bm-user:bm-pass:ocapi-secret"))
	srv := routingServer(t, []routeEntry{
		{
			method: http.MethodPost,
			suffix: "/dw/oauth2/access_token",
			body:   map[string]any{"access_token": "bm-token"},
			check: func(t *testing.T, r *http.Request, _ []byte) {
				if got := r.Header.Get("Authorization"); got != wantBasic {
					t.Errorf("Authorization = %q", got)
				}
				if got := r.URL.Query().Get("grant_type"); got != bmGrantType {
					t.Errorf("grant_type = %q", got)
				}
			},
		},
		{
			method: http.MethodPost,
			suffix: "/baskets/b-1/price_adjustments",
			body: map[string]any{
				"basket_id": "b-1",
				"currency":  "USD",
				"product_items": []map[string]any{
					{"item_id": "i-1", "product_id": "burger", "quantity": 2, "price": 21.0, "price_after_item_discount": 21.0},
				},
				"order_total": 21.0,
			},
			check: func(t *testing.T, r *http.Request, body []byte) {
				if got := r.Header.Get("Authorization"); got != "Bearer bm-token" {
					t.Errorf("Authorization = %q", got)
				}
				var got struct {
					Discount struct {
						Type  string  `json:"type"`
						Value float64 `json:"value"`
					} `json:"discount"`
					ItemID     string `json:"item_id"`
					Level      string `json:"level"`
					ReasonCode string `json:"reason_code"`
				}
				if err := json.Unmarshal(body, &got); err != nil {
					t.Errorf("decode body: %v", err)
					return
				}
				if got.Discount.Type != "fixed_price" || got.Discount.Value != 21 {
					t.Errorf("discount = %+v", got.Discount)
				}
				if got.ItemID != "i-1" || got.Level != "product" || got.ReasonCode != "PRICE_MATCH" {
					t.Errorf("body = %s", body)
				}
			},
		},
	})

	b, err := newClient(srv).AdjustItemPrice(t.Context(), "RefArch", PriceAdjustment{
		BasketID: "b-1", ItemID: "i-1", ItemText: "Burger", Amount: 21,
	})
	if err != nil {
		t.Fatalf("AdjustItemPrice: %v", err)
	}
	if b.BasketID != "b-1" || len(b.ProductItems) != 1 || b.ProductItems[0].Quantity != 2 {
		t.Errorf("basket = %+v", b)
	}
}

func TestAdjustItemPrice_GrantFailure(t *testing.T) {
	srv := routingServer(t, []routeEntry{{
		method: http.MethodPost,
		suffix: "/dw/oauth2/access_token",
		status: http.StatusUnauthorized,
		body:   map[string]string{"error": "invalid_client"},
	}})

	_, err := newClient(srv).AdjustItemPrice(t.Context(), "RefArch", PriceAdjustment{BasketID: "b-1", ItemID: "i-1"})
	if err == nil || !strings.Contains(err.Error(), "bm grant non-2xx (401)") {
		t.Fatalf("err = %v", err)
	}
}
