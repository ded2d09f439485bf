package ocapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Response types (snake_case as the legacy API returns them)
// ---------------------------------------------------------------------------

type Store struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Address1        string   `json:"address1"`
	Address2        string   `json:"address2"`
	City            string   `json:"city"`
	StateCode       string   `json:"state_code"`
	PostalCode      string   `json:"postal_code"`
	CountryCode     string   `json:"country_code"`
	Phone           string   `json:"phone"`
	Latitude        float64  `json:"latitude"`
	Longitude       float64  `json:"longitude"`
	Distance        float64  `json:"distance"`
	StoreHours      string   `json:"store_hours"`
	DeliveryMethods []string `json:"c_deliveryMethods"`
	ImgMobile       string   `json:"c_imgMobile"`
	ImgDesktop      string   `json:"c_imgDesktop"`
	Icon            string   `json:"c_icon"`
	// Features is a JSON document configured per store.
	Features string `json:"c_features"`
}

// Supports reports whether the store offers deliveryMethodID.
func (s Store) Supports(deliveryMethodID string) bool {
	for _, m := range s.DeliveryMethods {
		if m == deliveryMethodID {
			return true
		}
	}
	return false
}

type MediaFile struct {
	AbsURL string `json:"abs_url"`
}

type SitePreferences struct {
	SiteLogo            *MediaFile `json:"c_siteLogo"`
	Favicon32           *MediaFile `json:"c_favicon_32x32"`
	Favicon16           *MediaFile `json:"c_favicon_16x16"`
	FooterJSONAssetID   string     `json:"c_footerJsonAssetId"`
	MenuJSONAssetID     string     `json:"c_menuJsonAssetId"`
	StorelocatorConfigs string     `json:"c_storelocatorConfigs"`
	PDPsToPrerender     string     `json:"c_pdpsToPrerender"`
	PLPsToPrerender     string     `json:"c_plpsToPrerender"`
	CLPsToPrerender     string     `json:"c_clpsToPrerender"`
}

type ContentAsset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"c_body"`
}

type ProductItem struct {
	ItemID                 string  `json:"item_id"`
	ProductID              string  `json:"product_id"`
	ProductName            string  `json:"product_name"`
	ItemText               string  `json:"item_text"`
	Quantity               int     `json:"quantity"`
	BasePrice              float64 `json:"base_price"`
	Price                  float64 `json:"price"`
	PriceAfterItemDiscount float64 `json:"price_after_item_discount"`
	InventoryID            string  `json:"inventory_id"`
	Ingredients            string  `json:"c_ingredients"`
	MinQty                 int     `json:"c_minQty"`
	MaxQty                 int     `json:"c_maxQty"`
	Image                  string  `json:"c_image"`
}

type Address struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	StateCode   string `json:"state_code"`
	PostalCode  string `json:"postal_code"`
	CountryCode string `json:"country_code"`
	Phone       string `json:"phone"`
}

type ShippingMethod struct {
	ID                   string  `json:"id"`
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	Price                float64 `json:"price"`
	EstimatedArrivalTime string  `json:"c_estimatedArrivalTime"`
	RequiresDate         bool    `json:"c_requiresDate"`
	StorePickupEnabled   bool    `json:"c_storePickupEnabled"`
}

type Shipment struct {
	ShipmentID      string          `json:"shipment_id"`
	ShippingAddress *Address        `json:"shipping_address"`
	ShippingMethod  *ShippingMethod `json:"shipping_method"`
}

type PaymentInstrument struct {
	PaymentInstrumentID   string  `json:"payment_instrument_id"`
	PaymentMethodID       string  `json:"payment_method_id"`
	Amount                float64 `json:"amount"`
	StripePaymentIntentID string  `json:"c_stripePaymentIntentID"`
}

type CustomerInfo struct {
	CustomerID string `json:"customer_id"`
	CustomerNo string `json:"customer_no"`
	Email      string `json:"email"`
}

// Basket is the snake_case basket the legacy shop API answers with.
type Basket struct {
	BasketID           string              `json:"basket_id"`
	Currency           string              `json:"currency"`
	CustomerInfo       CustomerInfo        `json:"customer_info"`
	ProductItems       []ProductItem       `json:"product_items"`
	Shipments          []Shipment          `json:"shipments"`
	BillingAddress     *Address            `json:"billing_address"`
	PaymentInstruments []PaymentInstrument `json:"payment_instruments"`
	OrderTotal         float64             `json:"order_total"`
	ProductSubTotal    float64             `json:"product_sub_total"`
	ProductTotal       float64             `json:"product_total"`
	ShippingTotal      float64             `json:"shipping_total"`
	TaxTotal           float64             `json:"tax_total"`
}

// ---------------------------------------------------------------------------
// Stores
// ---------------------------------------------------------------------------

type StoreSearch struct {
	SiteID      string
	Locale      string
	Latitude    float64
	Longitude   float64
	MaxDistance int
}

// SearchStores lists stores around a point.
func (c *Client) SearchStores(ctx context.Context, token string, s StoreSearch) ([]Store, error) {
	q := url.Values{
		"latitude":  {strconv.FormatFloat(s.Latitude, 'f', -1, 64)},
		"longitude": {strconv.FormatFloat(s.Longitude, 'f', -1, 64)},
		"client_id": {c.clientID},
	}
	if s.Locale != "" {
		q.Set("locale", s.Locale)
	}
	if s.MaxDistance > 0 {
		q.Set("max_distance", strconv.Itoa(s.MaxDistance))
	}

	var res struct {
		Count int     `json:"count"`
		Data  []Store `json:"data"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.shopPath(s.SiteID, "stores"),
		query:  q,
		auth:   "Bearer " + token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) GetStore(ctx context.Context, token, siteID, storeID string) (*Store, error) {
	var s Store
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.shopPath(siteID, "stores", storeID),
		query:  url.Values{"client_id": {c.clientID}},
		auth:   "Bearer " + token,
	}, &s)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// Content and preferences
// ---------------------------------------------------------------------------

// ContentAssets reads several content assets in one call.
func (c *Client) ContentAssets(ctx context.Context, siteID, locale string, ids []string) ([]ContentAsset, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	escaped := make([]string, 0, len(ids))
	for _, id := range ids {
		escaped = append(escaped, url.PathEscape(id))
	}
	q := url.Values{"client_id": {c.clientID}}
	if locale != "" {
		q.Set("locale", locale)
	}

	var res struct {
		Data []ContentAsset `json:"data"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.shopPath(siteID) + "/content/(" + strings.Join(escaped, ",") + ")",
		query:  q,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// SitePreferences reads one preference group through the Data API.
func (c *Client) SitePreferences(ctx context.Context, siteID, groupID, instanceType string) (*SitePreferences, error) {
	token, err := c.dataToken(ctx)
	if err != nil {
		return nil, err
	}
	var prefs SitePreferences
	err = c.do(ctx, request{
		method: http.MethodGet,
		path: fmt.Sprintf("/s/-/dw/data/%s/sites/%s/site_preferences/preference_groups/%s/%s",
			dataVersion, url.PathEscape(siteID), url.PathEscape(groupID), url.PathEscape(instanceType)),
		auth: "Bearer " + token,
	}, &prefs)
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// ---------------------------------------------------------------------------
// Price adjustments
// ---------------------------------------------------------------------------

// PriceAdjustment fixes a basket line item's price. Amount is in major units.
type PriceAdjustment struct {
	BasketID string
	ItemID   string
	ItemText string
	Amount   float64
}

// AdjustItemPrice applies a fixed-price, product-level adjustment under the
// Business Manager user and returns the basket after the adjustment.
func (c *Client) AdjustItemPrice(ctx context.Context, siteID string, adj PriceAdjustment) (*Basket, error) {
	token, err := c.bmToken(ctx)
	if err != nil {
		return nil, err
	}

	type discount struct {
		Type  string  `json:"type"`
		Value float64 `json:"value"`
	}
	body := struct {
		Discount   discount `json:"discount"`
		ItemID     string   `json:"item_id"`
		ItemText   string   `json:"item_text"`
		Level      string   `json:"level"`
		ReasonCode string   `json:"reason_code"`
	}{
		Discount:   discount{Type: "fixed_price", Value: adj.Amount},
		ItemID:     adj.ItemID,
		ItemText:   adj.ItemText,
		Level:      "product",
		ReasonCode: "PRICE_MATCH",
	}

	var b Basket
	err = c.do(ctx, request{
		method: http.MethodPost,
		path:   c.shopPath(siteID, "baskets", adj.BasketID, "price_adjustments"),
		auth:   "Bearer " + token,
		body:   body,
	}, &b)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
