package graph

import (
	"storefront-bff/internal/app/storefront"
	"storefront-bff/internal/payment"
)

// The wrappers below adapt the service views to the schema. GraphQL Int is
// 32-bit, so every integer field is re-exposed as an int32 method; all other
// fields resolve from the embedded view.

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type product struct{ storefront.ProductDetail }

func (p product) MinQty() int32 { return int32(p.ProductDetail.MinQty) }
func (p product) MaxQty() int32 { return int32(p.ProductDetail.MaxQty) }

func (p product) IngredientGroups() []ingredientGroup {
	out := make([]ingredientGroup, len(p.ProductDetail.IngredientGroups))
	for i, g := range p.ProductDetail.IngredientGroups {
		out[i] = ingredientGroup{g}
	}
	return out
}

type ingredientGroup struct{ storefront.IngredientGroup }

func (g ingredientGroup) Items() []ingredientItem {
	out := make([]ingredientItem, len(g.IngredientGroup.Items))
	for i, it := range g.IngredientGroup.Items {
		out[i] = ingredientItem{it}
	}
	return out
}

type ingredientItem struct{ storefront.IngredientItem }

func (i ingredientItem) Qty() int32        { return int32(i.IngredientItem.Qty) }
func (i ingredientItem) InitialQty() int32 { return int32(i.IngredientItem.InitialQty) }
func (i ingredientItem) Min() int32        { return int32(i.IngredientItem.Min) }
func (i ingredientItem) Max() int32        { return int32(i.IngredientItem.Max) }

type plpData struct{ storefront.PLPData }

func (p plpData) ResultsQty() int32 { return int32(p.PLPData.ResultsQty) }

func (p plpData) Filters() []filter {
	out := make([]filter, len(p.PLPData.Filters))
	for i, f := range p.PLPData.Filters {
		out[i] = filter{f}
	}
	return out
}

type filter struct{ storefront.Filter }

func (f filter) Values() []filterValue {
	out := make([]filterValue, len(f.Filter.Values))
	for i, v := range f.Filter.Values {
		out[i] = filterValue{v}
	}
	return out
}

type filterValue struct{ storefront.FilterValue }

func (v filterValue) ResultsCount() int32 { return int32(v.FilterValue.ResultsCount) }

// ---------------------------------------------------------------------------
// Basket and orders
// ---------------------------------------------------------------------------

type lineItem struct{ storefront.LineItem }

func (l lineItem) Quantity() int32 { return int32(l.LineItem.Quantity) }
func (l lineItem) MinQty() int32   { return int32(l.LineItem.MinQty) }
func (l lineItem) MaxQty() int32   { return int32(l.LineItem.MaxQty) }

func lineItems(in []storefront.LineItem) []lineItem {
	out := make([]lineItem, len(in))
	for i, l := range in {
		out[i] = lineItem{l}
	}
	return out
}

type basket struct{ storefront.Basket }

func (b basket) ProductItems() []lineItem { return lineItems(b.Basket.ProductItems) }

func basketOf(b *storefront.Basket) *basket {
	if b == nil {
		return nil
	}
	return &basket{*b}
}

type basketWriteResult struct {
	status storefront.PriceStatus
	itemID string
	basket storefront.Basket
}

func (r basketWriteResult) Status() string  { return string(r.status) }
func (r basketWriteResult) ItemID() string  { return r.itemID }
func (r basketWriteResult) Basket() *basket { return &basket{r.basket} }

type order struct{ storefront.Order }

func (o order) ProductItems() []lineItem { return lineItems(o.Order.ProductItems) }

type orderConfirmation struct{ storefront.OrderConfirmation }

func (o orderConfirmation) Items() []lineItem { return lineItems(o.OrderConfirmation.Items) }

type orderProduct struct{ storefront.OrderProduct }

func (p orderProduct) Quantity() int32 { return int32(p.OrderProduct.Quantity) }

type paymentIntent struct{ payment.Intent }

func (p paymentIntent) Amount() int32 { return int32(p.Intent.Amount) }

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

type profile struct{ storefront.Profile }

func (p profile) NumberOfOrders() int32 { return int32(p.Profile.NumberOfOrders) }

type wishlistItem struct{ storefront.WishlistItem }

func (w wishlistItem) Quantity() int32 { return int32(w.WishlistItem.Quantity) }

type wishlist struct{ storefront.Wishlist }

func (w wishlist) Items() []wishlistItem {
	out := make([]wishlistItem, len(w.Wishlist.Items))
	for i, it := range w.Wishlist.Items {
		out[i] = wishlistItem{it}
	}
	return out
}

type updateProfileResult struct {
	EmailChanged bool
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

type addressInput struct {
	ID          *string
	FirstName   string
	LastName    string
	FullName    *string
	Address1    string
	Address2    *string
	City        string
	StateCode   string
	PostalCode  string
	CountryCode string
	Phone       string
	Preferred   *bool
}

func (a addressInput) address() storefront.Address {
	addr := storefront.Address{
		ID:          derefString(a.ID),
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    derefString(a.FullName),
		Address1:    a.Address1,
		Address2:    derefString(a.Address2),
		City:        a.City,
		StateCode:   a.StateCode,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Phone:       a.Phone,
	}
	if a.Preferred != nil {
		addr.Preferred = *a.Preferred
	}
	return addr
}

type addToBasketInput struct {
	ProductID   string
	Quantity    int32
	Ingredients *string
	MinOrderQty *int32
	MaxOrderQty *int32
}

type storeSearchInput struct {
	Latitude         float64
	Longitude        float64
	MaxDistance      *int32
	DeliveryMethodID string
}

type loginStartInput struct {
	Username      string
	Password      string
	CodeChallenge string
	RedirectURL   *string
}

type loginEndInput struct {
	Code         string
	CodeVerifier string
	USID         string
	RedirectURL  *string
}

type profileInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
}

type wishlistItemInput struct {
	ProductID string
	Quantity  *int32
	StoreID   *string
}
