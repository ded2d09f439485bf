package graph

import (
	"context"
	"errors"

	"storefront-bff/internal/app/storefront"
	"storefront-bff/internal/identity"
	"storefront-bff/internal/payment"
	"storefront-bff/internal/session"
)

// Storefront is the set of operations the resolvers delegate to.
// *storefront.Service implements it; tests inject a stub.
type Storefront interface {
	// catalog
	GetProduct(ctx context.Context, req storefront.Request, productID string) (*storefront.ProductDetail, error)
	GetProductPrice(ctx context.Context, req storefront.Request, productID, ingredients string, qty int) (*storefront.ProductPrice, error)
	GetPLPData(ctx context.Context, req storefront.Request, p storefront.PLPParams) (*storefront.PLPData, error)
	GetCLPData(ctx context.Context, req storefront.Request, categoryID string) (*storefront.CLPData, error)
	SearchProducts(ctx context.Context, req storefront.Request, query string) (*storefront.SearchResults, error)

	// basket
	AddToBasket(ctx context.Context, req storefront.Request, in storefront.AddToBasketInput) (storefront.LineItemResult, error)
	Reorder(ctx context.Context, req storefront.Request, orderNo string) (storefront.LineItemResult, error)
	UpdateItemInBasket(ctx context.Context, req storefront.Request, basketID, itemID string, quantity int) (storefront.LineItemResult, error)
	GetCustomerBasket(ctx context.Context, req storefront.Request) (*storefront.Basket, error)
	GetProductsFromOrder(ctx context.Context, req storefront.Request, orderNo string) ([]storefront.OrderProduct, error)

	// checkout
	GetCheckoutData(ctx context.Context, req storefront.Request) (*storefront.CheckoutData, error)
	AddShippingAddress(ctx context.Context, req storefront.Request, addr storefront.Address) (*storefront.Basket, error)
	AddBillingAddress(ctx context.Context, req storefront.Request, addr storefront.Address) (*storefront.Basket, error)
	AddShippingMethod(ctx context.Context, req storefront.Request, methodID string) (*storefront.Basket, error)
	AddPaymentMethod(ctx context.Context, req storefront.Request, methodID string) (*storefront.Basket, error)
	CreateOrder(ctx context.Context, req storefront.Request) (*storefront.OrderRef, error)
	GetOrder(ctx context.Context, req storefront.Request, orderNo string) (*storefront.Order, error)
	GetOrderStatus(ctx context.Context, req storefront.Request, orderNo, phone, timestamp string) (*storefront.Order, error)
	GetOrderConfirmation(ctx context.Context, req storefront.Request, orderNo string) (*storefront.OrderConfirmation, error)

	// stores and site
	GetStoresByCoordinates(ctx context.Context, req storefront.Request, in storefront.StoreSearchInput) ([]storefront.Store, error)
	GetStoreByID(ctx context.Context, req storefront.Request, storeID string) (*storefront.Store, error)
	GetSelectedStore(ctx context.Context, req storefront.Request) (*storefront.Store, error)
	SetSelectedStoreID(ctx context.Context, req storefront.Request, storeID string) error
	GetGlobalData(ctx context.Context, req storefront.Request) (string, error)
	GetPrerenderedPDPs(ctx context.Context, req storefront.Request) ([]storefront.PrerenderedProduct, error)
	GetPrerenderedPLPs(ctx context.Context, req storefront.Request) ([]string, error)
	GetPrerenderedCLPs(ctx context.Context, req storefront.Request) ([]string, error)

	// auth
	LoginStart(ctx context.Context, req storefront.Request, in storefront.LoginStartInput) (string, error)
	LoginEnd(ctx context.Context, req storefront.Request, in storefront.LoginEndInput) (*storefront.ProfileSummary, error)
	Register(ctx context.Context, req storefront.Request, in storefront.RegisterInput) (string, error)
	Logout(ctx context.Context, req storefront.Request) error

	// account
	GetGlobalUserData(ctx context.Context, req storefront.Request) (*storefront.ProfileSummary, error)
	GetProfile(ctx context.Context, req storefront.Request) (*storefront.Profile, error)
	UpdateProfile(ctx context.Context, req storefront.Request, in storefront.ProfileInput) (bool, error)
	UpdatePassword(ctx context.Context, req storefront.Request, current, next string) error
	GetSavedAddresses(ctx context.Context, req storefront.Request) ([]storefront.Address, error)
	AddAddress(ctx context.Context, req storefront.Request, addr storefront.Address) (*storefront.Address, error)
	UpdateAddress(ctx context.Context, req storefront.Request, addr storefront.Address) (*storefront.Address, error)
	DeleteAddress(ctx context.Context, req storefront.Request, addressID string) error
	GetCustomerOrders(ctx context.Context, req storefront.Request) ([]storefront.Order, error)
	GetWishlist(ctx context.Context, req storefront.Request) (*storefront.Wishlist, error)
	AddWishlistProduct(ctx context.Context, req storefront.Request, in storefront.WishlistItemInput) (*storefront.WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, req storefront.Request, wishlistID, itemID string) error
}

// Payments creates card payment intents. *payment.Service implements it.
type Payments interface {
	CreatePaymentIntent(ctx context.Context, siteID, orderNo string) (*payment.Intent, error)
}

// Resolver is the root resolver wired in cmd/api/main.go. It serves both the
// Query and the Mutation type.
type Resolver struct {
	Storefront Storefront
	Payments   Payments
	// Site is used when the request carries no site of its own.
	Site Site
}

// errNoSession means the session middleware did not run for this request.
var errNoSession = errors.New("request has no resolved session")

// request assembles the per-request context the service operations take:
// the identity and cookie jar put there by the session middleware, plus the
// site being served.
func (r *Resolver) request(ctx context.Context) (storefront.Request, error) {
	id, ok := identity.FromContext(ctx)
	jar := session.JarFromContext(ctx)
	if !ok || jar == nil {
		return storefront.Request{}, gqlErrorFrom(ctx, errNoSession)
	}

	site := r.Site
	if s, ok := SiteFromContext(ctx); ok {
		if s.ID != "" {
			site.ID = s.ID
		}
		if s.Locale != "" {
			site.Locale = s.Locale
		}
	}
	return storefront.Request{
		SiteID:   site.ID,
		Locale:   site.Locale,
		Identity: id,
		Session:  jar,
	}, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int32) int {
	if n == nil {
		return 0
	}
	return int(*n)
}
