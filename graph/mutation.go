package graph

import (
	"context"

	"storefront-bff/internal/app/storefront"
)

// ---------------------------------------------------------------------------
// Basket
// ---------------------------------------------------------------------------

// writeResult turns a basket write into its GraphQL outcome. Data is only
// returned for a fully applied write.
func writeResult(ctx context.Context, res storefront.LineItemResult, err error) (*basketWriteResult, error) {
	if err != nil {
		return nil, writeError(ctx, res, err)
	}
	return &basketWriteResult{status: res.Status, itemID: res.ItemID, basket: res.Basket}, nil
}

func (r *Resolver) AddToBasket(ctx context.Context, args struct{ Input addToBasketInput }) (*basketWriteResult, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	res, err := r.Storefront.AddToBasket(ctx, req, storefront.AddToBasketInput{
		ProductID:   in.ProductID,
		Quantity:    int(in.Quantity),
		Ingredients: derefString(in.Ingredients),
		MinOrderQty: derefInt(in.MinOrderQty),
		MaxOrderQty: derefInt(in.MaxOrderQty),
	})
	return writeResult(ctx, res, err)
}

func (r *Resolver) Reorder(ctx context.Context, args struct{ OrderNo string }) (*basketWriteResult, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	res, err := r.Storefront.Reorder(ctx, req, args.OrderNo)
	return writeResult(ctx, res, err)
}

func (r *Resolver) UpdateItemInBasket(ctx context.Context, args struct {
	BasketID string
	ItemID   string
	Quantity int32
}) (*basketWriteResult, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	res, err := r.Storefront.UpdateItemInBasket(ctx, req, args.BasketID, args.ItemID, int(args.Quantity))
	return writeResult(ctx, res, err)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func (r *Resolver) LoginStart(ctx context.Context, args struct{ Input loginStartInput }) (string, error) {
	req, err := r.request(ctx)
	if err != nil {
		return "", err
	}
	in := args.Input
	code, err := r.Storefront.LoginStart(ctx, req, storefront.LoginStartInput{
		Username:      in.Username,
		Password:      in.Password,
		CodeChallenge: in.CodeChallenge,
		RedirectURL:   derefString(in.RedirectURL),
	})
	if err != nil {
		return "", gqlErrorFrom(ctx, err)
	}
	return code, nil
}

func (r *Resolver) LoginEnd(ctx context.Context, args struct{ Input loginEndInput }) (*storefront.ProfileSummary, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	s, err := r.Storefront.LoginEnd(ctx, req, storefront.LoginEndInput{
		Code:         in.Code,
		CodeVerifier: in.CodeVerifier,
		USID:         in.USID,
		RedirectURL:  derefString(in.RedirectURL),
	})
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return s, nil
}

func (r *Resolver) Register(ctx context.Context, args struct{ Input storefront.RegisterInput }) (string, error) {
	req, err := r.request(ctx)
	if err != nil {
		return "", err
	}
	id, err := r.Storefront.Register(ctx, req, args.Input)
	if err != nil {
		return "", gqlErrorFrom(ctx, err)
	}
	return id, nil
}

func (r *Resolver) Logout(ctx context.Context) (bool, error) {
	req, err := r.request(ctx)
	if err != nil {
		return false, err
	}
	if err := r.Storefront.Logout(ctx, req); err != nil {
		return false, gqlErrorFrom(ctx, err)
	}
	return true, nil
}

func (r *Resolver) SetSelectedStoreID(ctx context.Context, args struct{ StoreID string }) (bool, error) {
	req, err := r.request(ctx)
	if err != nil {
		return false, err
	}
	if err := r.Storefront.SetSelectedStoreID(ctx, req, args.StoreID); err != nil {
		return false, gqlErrorFrom(ctx, err)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

func (r *Resolver) AddShippingAddress(ctx context.Context, args struct{ Address addressInput }) (*basket, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.Storefront.AddShippingAddress(ctx, req, args.Address.address())
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return basketOf(b), nil
}

func (r *Resolver) AddBillingAddress(ctx context.Context, args struct{ Address addressInput }) (*basket, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.Storefront.AddBillingAddress(ctx, req, args.Address.address())
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return basketOf(b), nil
}

func (r *Resolver) AddShippingMethod(ctx context.Context, args struct{ MethodID string }) (*basket, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.Storefront.AddShippingMethod(ctx, req, args.MethodID)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return basketOf(b), nil
}

func (r *Resolver) AddPaymentMethod(ctx context.Context, args struct{ MethodID string }) (*basket, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	b, err := r.Storefront.AddPaymentMethod(ctx, req, args.MethodID)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return basketOf(b), nil
}

func (r *Resolver) CreateOrder(ctx context.Context) (*storefront.OrderRef, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := r.Storefront.CreateOrder(ctx, req)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return ref, nil
}

// CreatePaymentIntent only serves orders the caller owns; the intent itself
// is created with the machine credentials.
func (r *Resolver) CreatePaymentIntent(ctx context.Context, args struct{ OrderNo string }) (*paymentIntent, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := r.Storefront.GetOrder(ctx, req, args.OrderNo); err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	intent, err := r.Payments.CreatePaymentIntent(ctx, req.SiteID, args.OrderNo)
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &paymentIntent{*intent}, nil
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

func (r *Resolver) UpdateProfile(ctx context.Context, args struct{ Input profileInput }) (*updateProfileResult, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	changed, err := r.Storefront.UpdateProfile(ctx, req, storefront.ProfileInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     derefString(in.Phone),
	})
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &updateProfileResult{EmailChanged: changed}, nil
}

func (r *Resolver) UpdatePassword(ctx context.Context, args struct {
	CurrentPassword string
	NewPassword     string
}) (bool, error) {
	req, err := r.request(ctx)
	if err != nil {
		return false, err
	}
	if err := r.Storefront.UpdatePassword(ctx, req, args.CurrentPassword, args.NewPassword); err != nil {
		return false, gqlErrorFrom(ctx, err)
	}
	return true, nil
}

func (r *Resolver) AddAddress(ctx context.Context, args struct{ Address addressInput }) (*storefront.Address, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	a, err := r.Storefront.AddAddress(ctx, req, args.Address.address())
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return a, nil
}

func (r *Resolver) UpdateAddress(ctx context.Context, args struct{ Address addressInput }) (*storefront.Address, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	a, err := r.Storefront.UpdateAddress(ctx, req, args.Address.address())
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return a, nil
}

func (r *Resolver) DeleteAddress(ctx context.Context, args struct{ AddressID string }) (bool, error) {
	req, err := r.request(ctx)
	if err != nil {
		return false, err
	}
	if err := r.Storefront.DeleteAddress(ctx, req, args.AddressID); err != nil {
		return false, gqlErrorFrom(ctx, err)
	}
	return true, nil
}

func (r *Resolver) AddWishlistProduct(ctx context.Context, args struct{ Input wishlistItemInput }) (*wishlistItem, error) {
	req, err := r.request(ctx)
	if err != nil {
		return nil, err
	}
	in := args.Input
	it, err := r.Storefront.AddWishlistProduct(ctx, req, storefront.WishlistItemInput{
		ProductID: in.ProductID,
		Quantity:  derefInt(in.Quantity),
		StoreID:   derefString(in.StoreID),
	})
	if err != nil {
		return nil, gqlErrorFrom(ctx, err)
	}
	return &wishlistItem{*it}, nil
}

func (r *Resolver) DeleteWishlistItem(ctx context.Context, args struct {
	WishlistID string
	ItemID     string
}) (bool, error) {
	req, err := r.request(ctx)
	if err != nil {
		return false, err
	}
	if err := r.Storefront.DeleteWishlistItem(ctx, req, args.WishlistID, args.ItemID); err != nil {
		return false, gqlErrorFrom(ctx, err)
	}
	return true, nil
}
