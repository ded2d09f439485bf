package storefront

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/metrics"
	"storefront-bff/internal/ocapi"
	"storefront-bff/internal/pricing"
)

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

type AddToBasketInput struct {
	ProductID string
	Quantity  int
	// Ingredients is the client's ingredient document. Only ids and
	// quantities are used.
	Ingredients string
	MinOrderQty int
	MaxOrderQty int
}

// PriceStatus is how far a basket line-item write got.
type PriceStatus string

const (
	// PriceApplied: the item is in the basket at its computed price.
	PriceApplied PriceStatus = "APPLIED"
	// PricePending: the item is in the basket but the price adjustment
	// failed, so it is priced at base price.
	PricePending PriceStatus = "PRICE_PENDING"
	// PriceRejected: nothing was written.
	PriceRejected PriceStatus = "REJECTED"
)

// LineItemResult reports a two-step basket write: the line item, then its
// price adjustment. Basket is the latest basket state known.
type LineItemResult struct {
	Status PriceStatus
	ItemID string
	Basket Basket
}

type OrderProduct struct {
	ProductID          string
	ProductName        string
	ImgURL             string
	Price              string
	Weight             string
	IsAvailableInStore bool
	IngredientsString  string
	Quantity           int
}

// ---------------------------------------------------------------------------
// AddToBasket
// ---------------------------------------------------------------------------

func rejected(err error) (LineItemResult, error) {
	if apperr.As(err).Class == apperr.ClassValidation {
		metrics.PriceAdjustments.WithLabelValues("rejected").Inc()
	}
	return LineItemResult{Status: PriceRejected}, err
}

// AddToBasket validates the ingredient selection against the catalog, writes
// the line item and pushes its computed price.
func (s *Service) AddToBasket(ctx context.Context, req Request, in AddToBasketInput) (LineItemResult, error) {
	storeID, err := requireStore(req)
	if err != nil {
		return rejected(err)
	}
	if in.Quantity < 1 {
		return rejected(apperr.Validation(apperr.CodeInvalidInput, "Quantity must be at least 1."))
	}
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)
	token := req.Identity.AccessToken

	product, err := s.commerce.GetProduct(ctx, token, req.SiteID, req.Locale, in.ProductID, inventoryID)
	if err != nil {
		return rejected(upstream(err))
	}
	if product.IsIngredient {
		return rejected(apperr.User(apperr.CodeProductNotFound, "Product not found."))
	}
	if !product.Orderable(inventoryID) {
		return rejected(apperr.User(apperr.CodeProductNotAvailable, "The product is not available in the selected store."))
	}

	ingredientsDoc, err := s.resolveIngredients(ctx, req, product, in.Ingredients, inventoryID, pricebook)
	if err != nil {
		return rejected(err)
	}

	item := commerce.ItemInput{
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		InventoryID: inventoryID,
		MinQty:      in.MinOrderQty,
		MaxQty:      in.MaxOrderQty,
		Ingredients: ingredientsDoc,
	}
	if img, ok := product.FirstImage("default"); ok {
		item.Image = img.Link
	}

	basket, err := s.writeItem(ctx, req, nil, item, pricebook)
	if err != nil {
		return rejected(err)
	}
	return s.adjustLatest(ctx, req, *basket, in.ProductID)
}

// resolveIngredients validates a submission and returns the canonical
// document to store on the line item.
func (s *Service) resolveIngredients(
	ctx context.Context,
	req Request,
	product *commerce.Product,
	submittedDoc, inventoryID, pricebook string,
) (string, error) {
	groups, err := parseIngredientGroups(product.IngredientGroups)
	if err != nil {
		return "", apperr.Configuration("Invalid product configuration", err)
	}
	submitted, err := parseLineIngredients(submittedDoc)
	if err != nil {
		return "", errInvalidIngredients
	}
	if len(submitted) == 0 {
		return "", nil
	}
	if len(groups) == 0 {
		// nothing is customisable on this product
		return "", errInvalidIngredients
	}
	if err := ValidateIngredients(groups, submitted); err != nil {
		return "", err
	}

	cur, err := pricing.ParseCurrency(product.Currency)
	if err != nil {
		return "", apperr.Configuration("Invalid product configuration", err)
	}
	ids := make([]string, 0, len(submitted))
	for _, in := range submitted {
		ids = append(ids, in.ID)
	}
	products, err := s.commerce.GetProducts(ctx, req.Identity.AccessToken, req.SiteID, req.Locale, ids, inventoryID)
	if err != nil {
		return "", upstream(err)
	}
	canon, err := canonicalIngredients(groups, submitted, products, pricebook, cur)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("product_id", product.ID).Msg("ingredient configuration")
		return "", err
	}
	b, err := json.Marshal(canon)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("encode ingredients: %w", err))
	}
	return string(b), nil
}

// writeItem adds item to basketID, or, when basketID is nil, to the
// customer's basket, creating it with the store price book when the customer
// has none.
func (s *Service) writeItem(ctx context.Context, req Request, basketID *string, item commerce.ItemInput, pricebook string) (*commerce.Basket, error) {
	token := req.Identity.AccessToken
	if basketID == nil {
		baskets, err := s.commerce.CustomerBaskets(ctx, token, req.SiteID, req.Identity.CustomerID)
		if err != nil {
			return nil, upstream(err)
		}
		if len(baskets) > 0 {
			basketID = &baskets[0].BasketID
		}
	}

	if basketID != nil {
		b, err := s.commerce.AddItems(ctx, token, req.SiteID, req.Locale, *basketID, item)
		if err != nil {
			return nil, upstream(err)
		}
		return b, nil
	}

	created, err := s.commerce.CreateBasket(ctx, token, req.SiteID, req.Locale, item)
	if err != nil {
		return nil, upstream(err)
	}
	if err := s.commerce.AttachPriceBook(ctx, req.SiteID, created.BasketID, pricebook); err != nil {
		return nil, upstream(err)
	}
	// re-read so line items carry price-book prices
	baskets, err := s.commerce.CustomerBaskets(ctx, token, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	if len(baskets) == 0 {
		return nil, apperr.Internal(fmt.Errorf("basket %s not listed after create", created.BasketID))
	}
	return &baskets[0], nil
}

// latestLineItem picks the line item to price for productID. The same
// product may appear on several lines; the last one in upstream order is
// taken as the one just written.
// TODO: confirm with the commerce platform team that new lines are always
// appended, then key on the returned item id instead.
func latestLineItem(items []commerce.ProductItem, productID string) (commerce.ProductItem, bool) {
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].ProductID == productID {
			return items[i], true
		}
	}
	return commerce.ProductItem{}, false
}

func (s *Service) adjustLatest(ctx context.Context, req Request, basket commerce.Basket, productID string) (LineItemResult, error) {
	line, ok := latestLineItem(basket.ProductItems, productID)
	if !ok {
		err := apperr.Internal(fmt.Errorf("basket %s has no line for product %s", basket.BasketID, productID))
		return LineItemResult{Status: PriceRejected, Basket: basketView(basket)}, err
	}
	return s.adjustPrice(ctx, req, basket, line)
}

// adjustPrice computes the line's price from its stored ingredients and
// pushes it as a fixed-price adjustment. A failure here leaves the item in
// the basket at base price.
func (s *Service) adjustPrice(ctx context.Context, req Request, basket commerce.Basket, line commerce.ProductItem) (LineItemResult, error) {
	pending := LineItemResult{Status: PricePending, ItemID: line.ItemID, Basket: basketView(basket)}
	log := logging.Ctx(ctx).With().
		Str("basket_id", basket.BasketID).
		Str("item_id", line.ItemID).
		Logger()

	cur, err := pricing.ParseCurrency(basket.Currency)
	if err != nil {
		metrics.PriceAdjustments.WithLabelValues("price_pending").Inc()
		return pending, apperr.NonAtomic("Price adjustment failed", err)
	}
	ings, err := parseLineIngredients(line.Ingredients)
	if err != nil {
		log.Error().Err(err).Str("ingredients", line.Ingredients).Msg("stored ingredients do not parse")
		metrics.PriceAdjustments.WithLabelValues("price_pending").Inc()
		return pending, apperr.NonAtomic("Price adjustment failed", err)
	}

	price := pricing.Compute(cur, pricingIngredients(ings, cur), pricing.ToMinor(line.BasePrice, cur), line.Quantity)

	adjusted, err := s.ocapi.AdjustItemPrice(ctx, req.SiteID, ocapi.PriceAdjustment{
		BasketID: basket.BasketID,
		ItemID:   line.ItemID,
		ItemText: line.ItemText,
		Amount:   pricing.ToMajor(price.TotalPriceValue, cur),
	})
	if err != nil {
		log.Error().Err(err).Int64("total_minor", price.TotalPriceValue).Msg("price adjustment failed, line item left at base price")
		metrics.PriceAdjustments.WithLabelValues("price_pending").Inc()
		return pending, apperr.NonAtomic("Price adjustment failed", err)
	}

	metrics.PriceAdjustments.WithLabelValues("applied").Inc()
	return LineItemResult{
		Status: PriceApplied,
		ItemID: line.ItemID,
		Basket: basketView(normalizeOCAPIBasket(*adjusted)),
	}, nil
}

// ---------------------------------------------------------------------------
// Reorder
// ---------------------------------------------------------------------------

// Reorder adds the still-orderable items of a past order to the basket. Each
// item is a separate two-step write; a failure part way returns what was
// written so far.
func (s *Service) Reorder(ctx context.Context, req Request, orderNo string) (LineItemResult, error) {
	storeID, err := requireStore(req)
	if err != nil {
		return rejected(err)
	}
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)
	token := req.Identity.AccessToken

	order, err := s.customerOrder(ctx, req, orderNo)
	if err != nil {
		return rejected(err)
	}

	ids := make([]string, 0, len(order.ProductItems))
	for _, it := range order.ProductItems {
		ids = append(ids, it.ProductID)
	}
	products, err := s.commerce.GetProducts(ctx, token, req.SiteID, req.Locale, ids, inventoryID)
	if err != nil {
		return rejected(upstream(err))
	}
	orderable := make(map[string]bool, len(products))
	for _, p := range products {
		orderable[p.ID] = p.Orderable(inventoryID)
	}

	var items []commerce.ItemInput
	for _, it := range order.ProductItems {
		if !orderable[it.ProductID] {
			continue
		}
		items = append(items, commerce.ItemInput{
			ProductID:   it.ProductID,
			Quantity:    it.Quantity,
			InventoryID: inventoryID,
			MinQty:      it.MinQty,
			MaxQty:      it.MaxQty,
			Ingredients: it.Ingredients,
			Image:       it.Image,
		})
	}
	if len(items) == 0 {
		return rejected(apperr.User(apperr.CodeNoProductsToAdd, "No products to add."))
	}

	var (
		basketID *string
		result   LineItemResult
	)
	for i, item := range items {
		basket, err := s.writeItem(ctx, req, basketID, item, pricebook)
		if err != nil {
			if i == 0 {
				return rejected(err)
			}
			return result, apperr.NonAtomic("Reorder stopped part way", err)
		}
		basketID = &basket.BasketID

		result, err = s.adjustLatest(ctx, req, *basket, item.ProductID)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// customerOrder reads an order with the machine grant and checks it belongs
// to the caller.
func (s *Service) customerOrder(ctx context.Context, req Request, orderNo string) (*commerce.Order, error) {
	order, err := s.commerce.AdminGetOrder(ctx, req.SiteID, orderNo)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeOrderNotFound, "Order not found.")
		}
		return nil, upstream(err)
	}
	if order.CustomerInfo.CustomerID != req.Identity.CustomerID {
		logging.Ctx(ctx).Warn().Str("order_no", orderNo).Msg("order requested by another customer")
		return nil, apperr.User(apperr.CodeOrderNotFound, "Order not found.")
	}
	return order, nil
}

// ---------------------------------------------------------------------------
// Update / read
// ---------------------------------------------------------------------------

// UpdateItemInBasket changes a line's quantity and re-prices it. A quantity
// of zero removes the line.
func (s *Service) UpdateItemInBasket(ctx context.Context, req Request, basketID, itemID string, quantity int) (LineItemResult, error) {
	if quantity < 0 {
		return rejected(apperr.Validation(apperr.CodeInvalidInput, "Quantity must not be negative."))
	}
	basket, err := s.commerce.UpdateItemQuantity(ctx, req.Identity.AccessToken, req.SiteID, req.Locale, basketID, itemID, quantity)
	if err != nil {
		return rejected(upstream(err))
	}
	if quantity == 0 {
		return LineItemResult{Status: PriceApplied, ItemID: itemID, Basket: basketView(*basket)}, nil
	}
	for _, line := range basket.ProductItems {
		if line.ItemID == itemID {
			return s.adjustPrice(ctx, req, *basket, line)
		}
	}
	return LineItemResult{Status: PriceRejected, Basket: basketView(*basket)},
		apperr.Internal(fmt.Errorf("basket %s has no item %s after update", basketID, itemID))
}

// GetCustomerBasket returns the shopper's basket, or nil when there is none.
func (s *Service) GetCustomerBasket(ctx context.Context, req Request) (*Basket, error) {
	baskets, err := s.commerce.CustomerBaskets(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	if len(baskets) == 0 {
		return nil, nil
	}
	b := basketView(baskets[0])
	return &b, nil
}

// GetProductsFromOrder lists the items of a past order with their current
// availability and price in the selected store.
func (s *Service) GetProductsFromOrder(ctx context.Context, req Request, orderNo string) ([]OrderProduct, error) {
	storeID, err := requireStore(req)
	if err != nil {
		return nil, err
	}
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)

	order, err := s.customerOrder(ctx, req, orderNo)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(order.ProductItems))
	for _, it := range order.ProductItems {
		ids = append(ids, it.ProductID)
	}
	products, err := s.commerce.GetProducts(ctx, req.Identity.AccessToken, req.SiteID, req.Locale, ids, inventoryID)
	if err != nil {
		return nil, upstream(err)
	}
	tiles, err := productTiles(products, pricebook, inventoryID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ProductTile, len(tiles))
	for _, t := range tiles {
		byID[t.ID] = t
	}

	out := make([]OrderProduct, 0, len(order.ProductItems))
	for _, it := range order.ProductItems {
		t, ok := byID[it.ProductID]
		if !ok {
			// no longer in the catalog
			out = append(out, OrderProduct{
				ProductID:         it.ProductID,
				ProductName:       it.ProductName,
				IngredientsString: ingredientsString(it.Ingredients),
				Quantity:          it.Quantity,
			})
			continue
		}
		out = append(out, OrderProduct{
			ProductID:          t.ID,
			ProductName:        t.Name,
			ImgURL:             t.ImgURL,
			Price:              t.Price,
			Weight:             t.Weight,
			IsAvailableInStore: t.IsAvailableInStore,
			IngredientsString:  ingredientsString(it.Ingredients),
			Quantity:           it.Quantity,
		})
	}
	return out, nil
}
