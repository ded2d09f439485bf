package commerce

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Calls in this file use machine credentials, never the shopper's token.

// AttachPriceBook makes pricebookID the active price book of a basket.
func (c *Client) AttachPriceBook(ctx context.Context, siteID, basketID, pricebookID string) error {
	token, err := c.machineToken(ctx, c.basketsAdmin)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   c.path(apiBaskets, "baskets", basketID, "price-books"),
		query:  site(siteID),
		token:  token,
		body:   []string{pricebookID},
		want:   http.StatusNoContent,
	}, nil)
}

// UpdateCustomerProfile writes profile and login changes. The customer list
// id equals the site id.
func (c *Client) UpdateCustomerProfile(ctx context.Context, siteID, customerNo string, p ProfileUpdate) error {
	token, err := c.machineToken(ctx, c.customerAdmin)
	if err != nil {
		return err
	}
	p.CustomerNo = customerNo
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   c.path(apiCustomerLists, "customer-lists", siteID, "customers", customerNo),
		token:  token,
		body:   p,
	}, nil)
}

// AdminGetOrder reads any order regardless of the shopper session.
func (c *Client) AdminGetOrder(ctx context.Context, siteID, orderNo string) (*Order, error) {
	token, err := c.machineToken(ctx, c.ordersAdmin)
	if err != nil {
		return nil, err
	}
	var o Order
	err = c.do(ctx, request{
		method: http.MethodGet,
		path:   c.path(apiOrdersAdmin, "orders", orderNo),
		query:  site(siteID),
		token:  token,
		want:   http.StatusOK,
	}, &o)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SetOrderStore records the fulfilling store on the order.
func (c *Client) SetOrderStore(ctx context.Context, siteID, orderNo, storeID, storeName string) error {
	return c.orderWrite(ctx, http.MethodPatch, siteID, orderNo, "",
		map[string]string{"c_storeId": storeID, "c_storeName": storeName})
}

func (c *Client) SetOrderStatus(ctx context.Context, siteID, orderNo, status string) error {
	return c.orderWrite(ctx, http.MethodPut, siteID, orderNo, "status", map[string]string{"status": status})
}

func (c *Client) SetPaymentStatus(ctx context.Context, siteID, orderNo, status string) error {
	return c.orderWrite(ctx, http.MethodPut, siteID, orderNo, "payment-status", map[string]string{"status": status})
}

func (c *Client) SetConfirmationStatus(ctx context.Context, siteID, orderNo, status string) error {
	return c.orderWrite(ctx, http.MethodPut, siteID, orderNo, "confirmation-status", map[string]string{"status": status})
}

// SetPaymentIntentID stores the payment processor's intent id on an order
// payment instrument.
func (c *Client) SetPaymentIntentID(ctx context.Context, siteID, orderNo, instrumentID, intentID string) error {
	return c.orderWrite(ctx, http.MethodPatch, siteID, orderNo, "payment-instruments/"+url.PathEscape(instrumentID),
		map[string]string{"c_stripePaymentIntentID": intentID})
}

func (c *Client) orderWrite(ctx context.Context, method, siteID, orderNo, sub string, body any) error {
	token, err := c.machineToken(ctx, c.ordersAdmin)
	if err != nil {
		return err
	}
	path := c.path(apiOrdersAdmin, "orders", orderNo)
	if sub != "" {
		path += "/" + sub
	}
	if err := c.do(ctx, request{
		method: method,
		path:   path,
		query:  site(siteID),
		token:  token,
		body:   body,
		want:   http.StatusNoContent,
	}, nil); err != nil {
		return fmt.Errorf("order %s %s: %w", orderNo, sub, err)
	}
	return nil
}
