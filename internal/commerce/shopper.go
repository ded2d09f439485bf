package commerce

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Every method in this file authenticates with the shopper's access token.

// ---------------------------------------------------------------------------
// Products, categories, search
// ---------------------------------------------------------------------------

// GetProduct reads one product with all images, per-pricebook prices and,
// when inventoryID is set, that inventory's availability.
func (c *Client) GetProduct(ctx context.Context, token, siteID, locale, productID, inventoryID string) (*Product, error) {
	q := productQuery(siteID, locale, inventoryID)
	var p Product
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiProducts, "products", productID),
		query:  q,
		token:  token,
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProducts reads several products at once. No ids means no call.
func (c *Client) GetProducts(ctx context.Context, token, siteID, locale string, ids []string, inventoryID string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := productQuery(siteID, locale, inventoryID)
	q.Set("ids", strings.Join(ids, ","))

	var res productsResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiProducts, "products"),
		query:  q,
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func productQuery(siteID, locale, inventoryID string) url.Values {
	q := siteLocale(siteID, locale)
	q.Set("allImages", "true")
	q.Set("perPricebook", "true")
	if inventoryID != "" {
		q.Set("inventoryIds", inventoryID)
	}
	return q
}

func (c *Client) GetCategory(ctx context.Context, token, siteID, locale, categoryID string) (*Category, error) {
	var cat Category
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiProducts, "categories", categoryID),
		query:  siteLocale(siteID, locale),
		token:  token,
	}, &cat)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// SearchParams selects a product search. Refine holds attribute filters
// such as {"cgid": {"pizza"}}.
type SearchParams struct {
	Query  string
	Refine map[string][]string
	Offset int
	Limit  int
}

// SearchProducts runs a product search restricted to product hits.
func (c *Client) SearchProducts(ctx context.Context, token, siteID, locale string, p SearchParams) (*SearchResult, error) {
	q := siteLocale(siteID, locale)
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	for attr, values := range p.Refine {
		if len(values) == 0 {
			continue
		}
		q.Add("refine", attr+"="+strings.Join(values, "|"))
	}
	q.Add("refine", "htype=product")

	var res SearchResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiSearch, "product-search"),
		query:  q,
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ---------------------------------------------------------------------------
// Baskets
// ---------------------------------------------------------------------------

// CustomerBaskets lists the shopper's baskets; the platform keeps at most one.
func (c *Client) CustomerBaskets(ctx context.Context, token, siteID, customerID string) ([]Basket, error) {
	var res basketsResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiCustomers, "customers", customerID, "baskets"),
		query:  site(siteID),
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Baskets, nil
}

// CreateBasket creates a basket seeded with one product line.
func (c *Client) CreateBasket(ctx context.Context, token, siteID, locale string, item ItemInput) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiBaskets, "baskets"),
		query:  siteLocale(siteID, locale),
		token:  token,
		body:   map[string]any{"productItems": []ItemInput{item}},
	})
}

func (c *Client) AddItems(ctx context.Context, token, siteID, locale, basketID string, items ...ItemInput) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiBaskets, "baskets", basketID, "items"),
		query:  siteLocale(siteID, locale),
		token:  token,
		body:   items,
	})
}

func (c *Client) UpdateItemQuantity(ctx context.Context, token, siteID, locale, basketID, itemID string, quantity int) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPatch,
		path:   c.path(apiBaskets, "baskets", basketID, "items", itemID),
		query:  siteLocale(siteID, locale),
		token:  token,
		body:   map[string]int{"quantity": quantity},
	})
}

func (c *Client) DeleteBasket(ctx context.Context, token, siteID, basketID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   c.path(apiBaskets, "baskets", basketID),
		query:  site(siteID),
		token:  token,
		want:   http.StatusNoContent,
	}, nil)
}

// TransferBasket moves the guest basket of the previous session to the
// registered shopper identified by token, replacing any basket they had.
func (c *Client) TransferBasket(ctx context.Context, token, siteID string) (*Basket, error) {
	q := site(siteID)
	q.Set("overrideExisting", "true")
	return c.basketCall(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiBaskets, "baskets", "actions", "transfer"),
		query:  q,
		token:  token,
	})
}

func (c *Client) SetShippingAddress(ctx context.Context, token, siteID, basketID, shipmentID string, addr Address) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPut,
		path:   c.path(apiBaskets, "baskets", basketID, "shipments", shipmentID, "shipping-address"),
		query:  site(siteID),
		token:  token,
		body:   addr,
	})
}

func (c *Client) SetShippingMethod(ctx context.Context, token, siteID, basketID, shipmentID, methodID string) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPut,
		path:   c.path(apiBaskets, "baskets", basketID, "shipments", shipmentID, "shipping-method"),
		query:  site(siteID),
		token:  token,
		body:   map[string]string{"id": methodID},
	})
}

func (c *Client) SetBillingAddress(ctx context.Context, token, siteID, basketID string, addr Address) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPut,
		path:   c.path(apiBaskets, "baskets", basketID, "billing-address"),
		query:  site(siteID),
		token:  token,
		body:   addr,
	})
}

func (c *Client) AddPaymentInstrument(ctx context.Context, token, siteID, basketID, methodID string) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiBaskets, "baskets", basketID, "payment-instruments"),
		query:  site(siteID),
		token:  token,
		body:   map[string]string{"paymentMethodId": methodID},
	})
}

func (c *Client) RemovePaymentInstrument(ctx context.Context, token, siteID, basketID, instrumentID string) (*Basket, error) {
	return c.basketCall(ctx, request{
		method: http.MethodDelete,
		path:   c.path(apiBaskets, "baskets", basketID, "payment-instruments", instrumentID),
		query:  site(siteID),
		token:  token,
	})
}

func (c *Client) PaymentMethods(ctx context.Context, token, siteID, locale, basketID string) ([]PaymentMethod, error) {
	var res struct {
		ApplicablePaymentMethods []PaymentMethod `json:"applicablePaymentMethods"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiBaskets, "baskets", basketID, "payment-methods"),
		query:  siteLocale(siteID, locale),
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.ApplicablePaymentMethods, nil
}

func (c *Client) ShippingMethods(ctx context.Context, token, siteID, locale, basketID, shipmentID string) ([]ShippingMethod, error) {
	var res struct {
		ApplicableShippingMethods []ShippingMethod `json:"applicableShippingMethods"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiBaskets, "baskets", basketID, "shipments", shipmentID, "shipping-methods"),
		query:  siteLocale(siteID, locale),
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.ApplicableShippingMethods, nil
}

func (c *Client) basketCall(ctx context.Context, r request) (*Basket, error) {
	var b Basket
	if err := c.do(ctx, r, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// CreateOrder turns the basket into an order.
func (c *Client) CreateOrder(ctx context.Context, token, siteID, basketID string) (*Order, error) {
	var o Order
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiShopperOrders, "orders"),
		query:  site(siteID),
		token:  token,
		body:   map[string]string{"basketId": basketID},
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder reads one of the shopper's own orders.
func (c *Client) GetOrder(ctx context.Context, token, siteID, locale, orderNo string) (*Order, error) {
	var o Order
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiShopperOrders, "orders", orderNo),
		query:  siteLocale(siteID, locale),
		token:  token,
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

func (c *Client) RegisterCustomer(ctx context.Context, token, siteID string, customer NewCustomer, password string) (*Customer, error) {
	var out Customer
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiCustomers, "customers"),
		query:  site(siteID),
		token:  token,
		body: struct {
			Customer NewCustomer `json:"customer"`
			Password string      `json:"password"`
		}{customer, password},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCustomer(ctx context.Context, token, siteID, customerID string) (*Customer, error) {
	var out Customer
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiCustomers, "customers", customerID),
		query:  site(siteID),
		token:  token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePassword(ctx context.Context, token, siteID, customerID, current, next string) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   c.path(apiCustomers, "customers", customerID, "password"),
		query:  site(siteID),
		token:  token,
		body:   map[string]string{"currentPassword": current, "password": next},
		want:   http.StatusNoContent,
	}, nil)
}

func (c *Client) CustomerOrders(ctx context.Context, token, siteID, customerID string) ([]Order, error) {
	var res ordersResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiCustomers, "customers", customerID, "orders"),
		query:  site(siteID),
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (c *Client) AddAddress(ctx context.Context, token, siteID, customerID string, addr Address) (*Address, error) {
	var out Address
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiCustomers, "customers", customerID, "addresses"),
		query:  site(siteID),
		token:  token,
		body:   addr,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAddress replaces the saved address named addr.AddressID.
func (c *Client) UpdateAddress(ctx context.Context, token, siteID, customerID string, addr Address) (*Address, error) {
	var out Address
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   c.path(apiCustomers, "customers", customerID, "addresses", addr.AddressID),
		query:  site(siteID),
		token:  token,
		body:   addr,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteAddress(ctx context.Context, token, siteID, customerID, addressID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   c.path(apiCustomers, "customers", customerID, "addresses", addressID),
		query:  site(siteID),
		token:  token,
		want:   http.StatusNoContent,
	}, nil)
}

func (c *Client) ProductLists(ctx context.Context, token, siteID, customerID string) ([]ProductList, error) {
	var res productListsResult
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiCustomers, "customers", customerID, "product-lists"),
		query:  site(siteID),
		token:  token,
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

// CreateWishlist creates the shopper's private wish list.
func (c *Client) CreateWishlist(ctx context.Context, token, siteID, customerID string) (*ProductList, error) {
	var out ProductList
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiCustomers, "customers", customerID, "product-lists"),
		query:  site(siteID),
		token:  token,
		body:   map[string]any{"public": false, "type": "wish_list"},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddProductListItem(ctx context.Context, token, siteID, customerID, listID string, item ProductListItem) (*ProductListItem, error) {
	var out ProductListItem
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.path(apiCustomers, "customers", customerID, "product-lists", listID, "items"),
		query:  site(siteID),
		token:  token,
		body: struct {
			ProductID string `json:"productId"`
			Quantity  int    `json:"quantity"`
			Priority  int    `json:"priority"`
			Public    bool   `json:"public"`
			Type      string `json:"type"`
			StoreID   string `json:"c_storeId,omitempty"`
		}{item.ProductID, item.Quantity, item.Priority, item.Public, "product", item.StoreID},
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProductListItem(ctx context.Context, token, siteID, customerID, listID, itemID string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   c.path(apiCustomers, "customers", customerID, "product-lists", listID, "items", itemID),
		query:  site(siteID),
		token:  token,
		want:   http.StatusNoContent,
	}, nil)
}
