package storefront

import (
	"context"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/logging"
)

type Profile struct {
	FirstName      string
	LastName       string
	Phone          string
	Email          string
	NumberOfOrders int
	LastOrderDate  string
}

type ProfileInput struct {
	FirstName string `validate:"required"`
	LastName  string `validate:"required"`
	Email     string `validate:"required,email"`
	Phone     string
}

type WishlistItem struct {
	ID         string
	ProductID  string
	Name       string
	Image      string
	Size       string
	Quantity   int
	Price      string
	WishlistID string
	StoreID    string
}

type Wishlist struct {
	ID     string
	Public bool
	Items  []WishlistItem
}

type WishlistItemInput struct {
	ProductID string
	Quantity  int
	StoreID   string
}

func (s *Service) customer(ctx context.Context, req Request) (*commerce.Customer, error) {
	c, err := s.commerce.GetCustomer(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	return c, nil
}

// GetGlobalUserData is the header summary of the current shopper.
func (s *Service) GetGlobalUserData(ctx context.Context, req Request) (*ProfileSummary, error) {
	c, err := s.customer(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ProfileSummary{FirstName: c.FirstName, LastName: c.LastName, IsLoggedIn: c.AuthType == "registered"}, nil
}

func (s *Service) GetProfile(ctx context.Context, req Request) (*Profile, error) {
	c, err := s.customer(ctx, req)
	if err != nil {
		return nil, err
	}
	orders, err := s.commerce.CustomerOrders(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	p := &Profile{
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Phone:          c.PhoneMobile,
		Email:          c.Login,
		NumberOfOrders: len(orders),
	}
	if len(orders) > 0 {
		p.LastOrderDate = orders[0].CreationDate
	}
	return p, nil
}

// UpdateProfile writes the profile through the admin customer list, the only
// endpoint allowed to change a login. Changing the email changes the login,
// so the shopper is logged out first. It reports whether that happened.
func (s *Service) UpdateProfile(ctx context.Context, req Request, in ProfileInput) (bool, error) {
	if err := validate.Struct(in); err != nil {
		return false, apperr.Validation(apperr.CodeInvalidInput, "Invalid profile data.")
	}
	c, err := s.customer(ctx, req)
	if err != nil {
		return false, err
	}

	emailChanged := in.Email != c.Login
	if emailChanged {
		if err := s.Logout(ctx, req); err != nil {
			return false, err
		}
	}

	var upd commerce.ProfileUpdate
	upd.Credentials.Login = in.Email
	upd.Credentials.Enabled = true
	upd.FirstName = in.FirstName
	upd.LastName = in.LastName
	upd.PhoneMobile = in.Phone
	upd.Email = in.Email
	upd.CustomerNo = c.CustomerNo
	if err := s.commerce.UpdateCustomerProfile(ctx, req.SiteID, c.CustomerNo, upd); err != nil {
		return false, upstream(err)
	}
	return emailChanged, nil
}

func (s *Service) UpdatePassword(ctx context.Context, req Request, current, next string) error {
	err := s.commerce.UpdatePassword(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID, current, next)
	return upstream(err)
}

// ---------------------------------------------------------------------------
// Addresses
// ---------------------------------------------------------------------------

func (s *Service) GetSavedAddresses(ctx context.Context, req Request) ([]Address, error) {
	c, err := s.customer(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]Address, 0, len(c.Addresses))
	for i := range c.Addresses {
		out = append(out, *addressView(&c.Addresses[i]))
	}
	return out, nil
}

// AddAddress saves a new address. The first address, or any address added
// while none is preferred, becomes the preferred one.
func (s *Service) AddAddress(ctx context.Context, req Request, addr Address) (*Address, error) {
	c, err := s.customer(ctx, req)
	if err != nil {
		return nil, err
	}
	hasPreferred := false
	for _, a := range c.Addresses {
		if a.Preferred {
			hasPreferred = true
			break
		}
	}
	if !hasPreferred {
		addr.Preferred = true
	}
	saved, err := s.commerce.AddAddress(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID, addressInput(addr))
	if err != nil {
		return nil, upstream(err)
	}
	return addressView(saved), nil
}

func (s *Service) UpdateAddress(ctx context.Context, req Request, addr Address) (*Address, error) {
	if addr.ID == "" {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "An address id is required.")
	}
	saved, err := s.commerce.UpdateAddress(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID, addressInput(addr))
	if err != nil {
		return nil, upstream(err)
	}
	return addressView(saved), nil
}

func (s *Service) DeleteAddress(ctx context.Context, req Request, addressID string) error {
	err := s.commerce.DeleteAddress(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID, addressID)
	return upstream(err)
}

func (s *Service) GetCustomerOrders(ctx context.Context, req Request) ([]Order, error) {
	orders, err := s.commerce.CustomerOrders(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView(o))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Wishlist
// ---------------------------------------------------------------------------

// GetWishlist returns the shopper's first product list, or nil when there is
// none yet.
func (s *Service) GetWishlist(ctx context.Context, req Request) (*Wishlist, error) {
	token := req.Identity.AccessToken
	lists, err := s.commerce.ProductLists(ctx, token, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	if len(lists) == 0 {
		return nil, nil
	}
	list := lists[0]
	out := &Wishlist{ID: list.ID, Public: list.Public, Items: []WishlistItem{}}
	if len(list.CustomerProductListItems) == 0 {
		return out, nil
	}

	ids := make([]string, 0, len(list.CustomerProductListItems))
	for _, it := range list.CustomerProductListItems {
		ids = append(ids, it.ProductID)
	}
	products, err := s.commerce.GetProducts(ctx, token, req.SiteID, req.Locale, ids, inventoryFor(req.Session.SelectedStoreID()))
	if err != nil {
		return nil, upstream(err)
	}
	byID := make(map[string]commerce.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, it := range list.CustomerProductListItems {
		p, ok := byID[it.ProductID]
		if !ok {
			logging.Ctx(ctx).Warn().Str("product_id", it.ProductID).Msg("wishlist product no longer in catalog")
			continue
		}
		item := WishlistItem{
			ID:         it.ID,
			ProductID:  it.ProductID,
			Name:       p.Name,
			Quantity:   it.Quantity,
			WishlistID: list.ID,
			StoreID:    it.StoreID,
		}
		if img, ok := p.FirstImage("default"); ok {
			item.Image = img.Link
		}
		if weights, ok := p.VariationValuesOf("weight"); ok {
			for _, w := range weights {
				if w.Value == p.VariationValues["weight"] {
					item.Size = w.Name
				}
			}
		}
		if p.Price != nil {
			item.Price = formatMoney(*p.Price, p.Currency)
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// AddWishlistProduct adds a product to the shopper's wishlist, creating the
// wishlist on first use.
func (s *Service) AddWishlistProduct(ctx context.Context, req Request, in WishlistItemInput) (*WishlistItem, error) {
	if in.ProductID == "" {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "A product id is required.")
	}
	if in.Quantity < 1 {
		in.Quantity = 1
	}
	token, customerID := req.Identity.AccessToken, req.Identity.CustomerID

	lists, err := s.commerce.ProductLists(ctx, token, req.SiteID, customerID)
	if err != nil {
		return nil, upstream(err)
	}
	var listID string
	if len(lists) > 0 {
		listID = lists[0].ID
	} else {
		created, err := s.commerce.CreateWishlist(ctx, token, req.SiteID, customerID)
		if err != nil {
			return nil, upstream(err)
		}
		listID = created.ID
	}

	added, err := s.commerce.AddProductListItem(ctx, token, req.SiteID, customerID, listID, commerce.ProductListItem{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Priority:  1,
		Public:    false,
		StoreID:   in.StoreID,
	})
	if err != nil {
		return nil, upstream(err)
	}
	return &WishlistItem{
		ID:         added.ID,
		ProductID:  added.ProductID,
		Quantity:   added.Quantity,
		WishlistID: listID,
		StoreID:    added.StoreID,
	}, nil
}

func (s *Service) DeleteWishlistItem(ctx context.Context, req Request, wishlistID, itemID string) error {
	if wishlistID == "" || itemID == "" {
		return apperr.Validation(apperr.CodeInvalidInput, "A wishlist id and an item id are required.")
	}
	err := s.commerce.DeleteProductListItem(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID, wishlistID, itemID)
	return upstream(err)
}
