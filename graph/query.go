package graph

import (
	"context"

	"storefront-bff/internal/app/storefront"
)

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (r *Resolver) Product(ctx context.Context, args struct{ ID string }) (*product, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	p, err := r.Storefront.GetProduct(ctx, req, args.ID)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &product{*p}, nil
}

func (r *Resolver) ProductPrice(ctx context.Context, args struct {
	ProductID   string
	Ingredients *string
	Qty         *int32
}) (*storefront.ProductPrice, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	qty := 1
	if args.Qty != nil {
		qty = int(*args.Qty)
	}
	p, err := r.Storefront.GetProductPrice(ctx, req, args.ProductID, derefString(args.Ingredients), qty)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return p, nil
}

func (r *Resolver) PlpData(ctx context.Context, args struct {
	CategoryID *string
	Filters    *[]storefront.FilterInput
	Offset     *int32
	Limit      *int32
}) (*plpData, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	params := storefront.PLPParams{
		CategoryID: derefString(args.CategoryID),
		Offset:     derefInt(args.Offset),
		Limit:      derefInt(args.Limit),
	}
	if args.Filters != nil {
		params.Filters = *args.Filters
	}
	d, err := r.Storefront.GetPLPData(ctx, req, params)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &plpData{*d}, nil
}

func (r *Resolver) ClpData(ctx context.Context, args struct{ CategoryID string }) (*storefront.CLPData, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	d, err := r.Storefront.GetCLPData(ctx, req, args.CategoryID)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return d, nil
}

func (r *Resolver) SearchProducts(ctx context.Context, args struct{ Query string }) (*storefront.SearchResults, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	res, err := r.Storefront.SearchProducts(ctx, req, args.Query)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return res, nil
}

// ---------------------------------------------------------------------------
// Basket and checkout
// ---------------------------------------------------------------------------

func (r *Resolver) CustomerBasket(ctx context.Context) (*basket, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.Storefront.GetCustomerBasket(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return basketOf(b), nil
}

func (r *Resolver) ProductsFromOrder(ctx context.Context, args struct{ OrderNo string }) ([]orderProduct, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	items, err := r.Storefront.GetProductsFromOrder(ctx, req, args.OrderNo)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	out := make([]orderProduct, len(items))
	for i, it := range items {
		out[i] = orderProduct{it}
	}
	return out, nil
}

func (r *Resolver) CheckoutData(ctx context.Context) (*storefront.CheckoutData, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	d, err := r.Storefront.GetCheckoutData(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return d, nil
}

func (r *Resolver) Order(ctx context.Context, args struct{ OrderNo string }) (*order, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	o, err := r.Storefront.GetOrder(ctx, req, args.OrderNo)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &order{*o}, nil
}

func (r *Resolver) OrderStatus(ctx context.Context, args struct {
	OrderNo   string
	Phone     string
	Timestamp string
}) (*order, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	o, err := r.Storefront.GetOrderStatus(ctx, req, args.OrderNo, args.Phone, args.Timestamp)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &order{*o}, nil
}

func (r *Resolver) OrderConfirmation(ctx context.Context, args struct{ OrderNo string }) (*orderConfirmation, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	c, err := r.Storefront.GetOrderConfirmation(ctx, req, args.OrderNo)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &orderConfirmation{*c}, nil
}

// ---------------------------------------------------------------------------
// Stores and site
// ---------------------------------------------------------------------------

func (r *Resolver) StoresByCoordinates(ctx context.Context, args struct{ Input storeSearchInput }) ([]storefront.Store, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	stores, err := r.Storefront.GetStoresByCoordinates(ctx, req, storefront.StoreSearchInput{
		Latitude:         args.Input.Latitude,
		Longitude:        args.Input.Longitude,
		MaxDistance:      derefInt(args.Input.MaxDistance),
		DeliveryMethodID: args.Input.DeliveryMethodID,
	})
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return stores, nil
}

func (r *Resolver) Store(ctx context.Context, args struct{ ID string }) (*storefront.Store, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	st, err := r.Storefront.GetStoreByID(ctx, req, args.ID)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return st, nil
}

func (r *Resolver) SelectedStore(ctx context.Context) (*storefront.Store, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	st, err := r.Storefront.GetSelectedStore(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return st, nil
}

// GlobalData is a JSON document; the client parses it.
func (r *Resolver) GlobalData(ctx context.Context) (string, error) {
	req, err := r.request(ctx)
	if err != nil {
		return "", err
	}
	doc, err := r.Storefront.GetGlobalData(ctx, req)
	if err != nil {
		return "", gqlErrorFrom(ctx, err)
	}
	return doc, nil
}

func (r *Resolver) PrerenderedPDPs(ctx context.Context) ([]storefront.PrerenderedProduct, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	out, err := r.Storefront.GetPrerenderedPDPs(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return out, nil
}

func (r *Resolver) PrerenderedPLPs(ctx context.Context) ([]string, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	out, err := r.Storefront.GetPrerenderedPLPs(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return out, nil
}

func (r *Resolver) PrerenderedCLPs(ctx context.Context) ([]string, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	out, err := r.Storefront.GetPrerenderedCLPs(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

func (r *Resolver) GlobalUserData(ctx context.Context) (*storefront.ProfileSummary, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	s, err := r.Storefront.GetGlobalUserData(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return s, nil
}

func (r *Resolver) Profile(ctx context.Context) (*profile, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	p, err := r.Storefront.GetProfile(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &profile{*p}, nil
}

func (r *Resolver) SavedAddresses(ctx context.Context) ([]storefront.Address, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	addrs, err := r.Storefront.GetSavedAddresses(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return addrs, nil
}

func (r *Resolver) CustomerOrders(ctx context.Context) ([]order, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := r.Storefront.GetCustomerOrders(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	out := make([]order, len(orders))
	for i, o := range orders {
		out[i] = order{o}
	}
	return out, nil
}

func (r *Resolver) Wishlist(ctx context.Context) (*wishlist, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	w, err := r.Storefront.GetWishlist(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	if w == nil {
		return nil, nil
	}
	return &wishlist{*w}, nil
}
