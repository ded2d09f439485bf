package storefront

import (
	"context"
	"fmt"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/pricing"
)

// ---------------------------------------------------------------------------
// Domain types
// ---------------------------------------------------------------------------

type Image struct {
	URL   string
	Alt   string
	Title string
}

// ProductTile is a product in a listing.
type ProductTile struct {
	ID                 string
	Name               string
	Description        string
	Price              string
	Weight             string
	ImgURL             string
	IsAvailableInStore bool
}

type SizeTile struct {
	ID       string
	IsActive bool
	Title    string
	SubTitle string
	Price    string
}

type Tab struct {
	ID      string
	Title   string
	Content string
}

// IngredientItem is an ingredient as shown on the product page.
type IngredientItem struct {
	ID         string
	Name       string
	Price      IngredientPrice
	Qty        int
	InitialQty int
	Min        int
	Max        int
	ImgURL     string
}

type IngredientGroup struct {
	ID    string
	Name  string
	Items []IngredientItem
}

type ProductInventory struct {
	ID         string
	Orderable  bool
	ATS        float64
	StockLevel float64
}

type ProductDetail struct {
	ID                       string
	Name                     string
	ShortDescription         string
	Weight                   string
	// Price is the unit price with default ingredients; empty when the
	// product cannot be ordered.
	Price                    string
	ImgSquare                *Image
	ImgLandscape             *Image
	ParentCategoryID         string
	MinQty                   int
	MaxQty                   int
	IsProductSavedInWishlist bool
	SizeTiles                []SizeTile
	Tabs                     []Tab
	IngredientGroups         []IngredientGroup
	IsMasterProduct          bool
	Inventory                *ProductInventory
	IsStoreSelected          bool
}

type ProductPrice struct {
	UnitPrice  string
	TotalPrice string
}

type SubCategory struct {
	ID               string
	Name             string
	ParentCategoryID string
	CategoryLogo     string
}

type FilterValue struct {
	ID           string
	Name         string
	ResultsCount int
}

// Filter is a search refinement. Type is one of boolean, radioGroup or
// checkboxGroup.
type Filter struct {
	ID               string
	Name             string
	Type             string
	IsCategoryFilter bool
	Values           []FilterValue
}

// FilterInput selects refinement values.
type FilterInput struct {
	ID     string
	Values []string
}

type PLPData struct {
	Name            string
	ImgMobileURL    string
	ImgDesktopURL   string
	ResultsQty      int
	Filters         []Filter
	ProductsList    []ProductTile
	SubCategories   []SubCategory
	IsStoreSelected bool
}

type CLPData struct {
	SubCategories   []SubCategory
	PopularProducts []ProductTile
	ImgDesktop      string
	ImgMobile       string
}

type SearchProduct struct {
	ID                 string
	Name               string
	Image              *Image
	Price              string
	IsAvailableInStore bool
}

type SearchCategory struct {
	ID   string
	Name string
}

type SearchResults struct {
	Products   []SearchProduct
	Categories []SearchCategory
}

const (
	categoryFilterKey = "cgid"
	defaultPageSize   = 12
	clpPopularLimit   = 5
	searchLimit       = 12
	defaultMinQty     = 1
	defaultMaxQty     = 10
)

var (
	booleanRefinements    = map[string]bool{"c_isVegan": true, "c_isVegetarian": true, "c_isGlutenFree": true}
	radioGroupRefinements = map[string]bool{"cgid": true, "c_size": true}
)

// ---------------------------------------------------------------------------
// Shared mapping
// ---------------------------------------------------------------------------

func imageView(img commerce.Image, ok bool) *Image {
	if !ok {
		return nil
	}
	return &Image{URL: img.Link, Alt: img.Alt, Title: img.Title}
}

// priceIn formats a product's price-book price, or "" when it has none.
func priceIn(tiers func(string) (float64, bool), pricebook, cur string) string {
	p, ok := tiers(pricebook)
	if !ok {
		return ""
	}
	return formatMoney(p, cur)
}

// productTiles maps listed products. Every listed product must carry weight
// variation values; a product without them is misconfigured.
func productTiles(products []commerce.Product, pricebook, inventoryID string) ([]ProductTile, error) {
	out := make([]ProductTile, 0, len(products))
	for _, p := range products {
		weights, ok := p.VariationValuesOf("weight")
		if !ok {
			return nil, apperr.Configuration("Invalid product configuration",
				fmt.Errorf("product %q has no weight variation values", p.ID))
		}
		weight := ""
		for _, w := range weights {
			if w.Value == p.VariationValues["weight"] {
				weight = w.Name
				break
			}
		}
		img, _ := p.FirstImage("default")
		out = append(out, ProductTile{
			ID:                 p.ID,
			Name:               p.Name,
			Description:        p.ShortDescription,
			Price:              priceIn(p.PriceIn, pricebook, p.Currency),
			Weight:             weight,
			ImgURL:             img.Link,
			IsAvailableInStore: p.Orderable(inventoryID),
		})
	}
	return out, nil
}

func subCategories(cat *commerce.Category) []SubCategory {
	out := make([]SubCategory, 0, len(cat.Categories))
	for _, c := range cat.Categories {
		out = append(out, SubCategory{
			ID:               c.ID,
			Name:             c.Name,
			ParentCategoryID: c.ParentCategoryID,
			CategoryLogo:     c.CategoryLogo,
		})
	}
	return out
}

// filtersView maps search refinements. The category refinement is flattened
// one level so its values are the sub-categories.
func filtersView(refinements []commerce.Refinement) []Filter {
	out := make([]Filter, 0, len(refinements))
	for _, r := range refinements {
		f := Filter{
			ID:               r.AttributeID,
			Name:             r.Label,
			Type:             "checkboxGroup",
			IsCategoryFilter: r.AttributeID == categoryFilterKey,
			Values:           []FilterValue{},
		}
		switch {
		case booleanRefinements[r.AttributeID]:
			f.Type = "boolean"
		case radioGroupRefinements[r.AttributeID]:
			f.Type = "radioGroup"
		}
		for _, v := range r.Values {
			if f.IsCategoryFilter {
				for _, sub := range v.Values {
					f.Values = append(f.Values, FilterValue{ID: sub.Value, Name: sub.Label, ResultsCount: sub.HitCount})
				}
				continue
			}
			f.Values = append(f.Values, FilterValue{ID: v.Value, Name: v.Label, ResultsCount: v.HitCount})
		}
		out = append(out, f)
	}
	return out
}

// ---------------------------------------------------------------------------
// Product page
// ---------------------------------------------------------------------------

// GetProduct builds the product page: ingredient groups priced from the
// store's price book, size tiles, tabs and the wishlist flag.
func (s *Service) GetProduct(ctx context.Context, req Request, productID string) (*ProductDetail, error) {
	storeID := req.Session.SelectedStoreID()
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)
	token := req.Identity.AccessToken

	p, err := s.commerce.GetProduct(ctx, token, req.SiteID, req.Locale, productID, inventoryID)
	if err != nil {
		return nil, upstream(err)
	}
	if p.IsIngredient {
		return nil, apperr.User(apperr.CodeProductNotFound, "Product not found.")
	}

	sizeTiles, err := sizeTilesFor(p, productID, pricebook)
	if err != nil {
		return nil, err
	}

	groups, err := parseIngredientGroups(p.IngredientGroups)
	if err != nil {
		return nil, apperr.Configuration("Invalid product configuration", err)
	}
	var ingredientProducts []commerce.Product
	if ids := ingredientIDs(groups); len(ids) > 0 {
		ingredientProducts, err = s.commerce.GetProducts(ctx, token, req.SiteID, req.Locale, ids, inventoryID)
		if err != nil {
			return nil, upstream(err)
		}
	}
	ingredientGroups, err := ingredientGroupsView(groups, ingredientProducts, pricebook, p.Currency)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("product_id", productID).Msg("ingredient configuration")
		return nil, err
	}

	detail := &ProductDetail{
		ID:               p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		ParentCategoryID: p.PrimaryCategoryID,
		MinQty:           defaultMinQty,
		MaxQty:           defaultMaxQty,
		SizeTiles:        sizeTiles,
		Tabs:             tabsFor(p),
		IngredientGroups: ingredientGroups,
		IsMasterProduct:  p.Type.Master,
		IsStoreSelected:  storeID != "",
		ImgSquare:        imageView(p.FirstImage("pdpBannerMobile")),
		ImgLandscape:     imageView(p.FirstImage("pdpBannerDesktop")),
	}
	if p.MinQty != nil {
		detail.MinQty = *p.MinQty
	}
	if p.MaxQty != nil {
		detail.MaxQty = *p.MaxQty
	}
	if !p.Type.Master {
		detail.Weight = p.Weight
	}
	if inv, ok := p.InventoryByID(inventoryID); ok {
		detail.Inventory = &ProductInventory{ID: inv.ID, Orderable: inv.Orderable, ATS: inv.ATS, StockLevel: inv.StockLevel}
	}

	if storeID != "" && p.Orderable(inventoryID) && !p.Type.Master {
		cur, err := pricing.ParseCurrency(p.Currency)
		if err != nil {
			return nil, apperr.Configuration("Invalid product configuration", err)
		}
		base, _ := p.PriceIn(pricebook)
		var ings []LineIngredient
		for _, g := range ingredientGroups {
			for _, it := range g.Items {
				ings = append(ings, LineIngredient{Price: it.Price, Qty: it.Qty, InitialQty: it.InitialQty})
			}
		}
		detail.Price = pricing.Compute(cur, pricingIngredients(ings, cur), pricing.ToMinor(base, cur), 0).UnitPrice
	}

	// a shopper without lists, or a failed lookup, just shows the product unsaved
	lists, err := s.commerce.ProductLists(ctx, token, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("wishlist lookup failed")
	} else if len(lists) > 0 {
		detail.IsProductSavedInWishlist = lists[0].Contains(productID)
	}
	return detail, nil
}

func sizeTilesFor(p *commerce.Product, activeID, pricebook string) ([]SizeTile, error) {
	if len(p.Variants) == 0 {
		return []SizeTile{}, nil
	}
	sizes, okSize := p.VariationValuesOf("size")
	weights, okWeight := p.VariationValuesOf("weight")
	if !okSize || !okWeight {
		return nil, apperr.Configuration("Invalid product configuration",
			fmt.Errorf("product %q has variants without size/weight attributes", p.ID))
	}
	name := func(values []commerce.VariationValue, v string) string {
		for _, x := range values {
			if x.Value == v {
				return x.Name
			}
		}
		return ""
	}

	out := make([]SizeTile, 0, len(p.Variants))
	for _, v := range p.Variants {
		t := SizeTile{
			ID:       v.ProductID,
			IsActive: v.ProductID == activeID,
			Title:    name(sizes, v.VariationValues["size"]),
			SubTitle: name(weights, v.VariationValues["weight"]),
		}
		if v.Price != 0 {
			price, _ := v.PriceIn(pricebook)
			t.Price = formatMoney(price, p.Currency)
		}
		out = append(out, t)
	}
	return out, nil
}

func tabsFor(p *commerce.Product) []Tab {
	tabs := []Tab{}
	add := func(id, title, content string) {
		if title != "" && content != "" {
			tabs = append(tabs, Tab{ID: id, Title: title, Content: content})
		}
	}
	add("details", p.DetailsTabTitle, p.DetailsTab)
	add("ingredients", p.IngredientsTabTitle, p.IngredientsTab)
	add("nutrition", p.NutritionTabTitle, p.NutritionTab)
	return tabs
}

func ingredientGroupsView(groups []IngredientGroupConfig, products []commerce.Product, pricebook, cur string) ([]IngredientGroup, error) {
	byID := make(map[string]commerce.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	unit, err := pricing.ParseCurrency(cur)
	if err != nil {
		return nil, apperr.Configuration("Invalid product configuration", err)
	}

	out := make([]IngredientGroup, 0, len(groups))
	for _, g := range groups {
		group := IngredientGroup{ID: g.ID, Name: g.Name, Items: make([]IngredientItem, 0, len(g.Items))}
		for _, it := range g.Items {
			p, ok := byID[it.ID]
			if !ok || p.Name == "" {
				return nil, apperr.Configuration("Invalid product configuration",
					fmt.Errorf("ingredient product %q missing", it.ID))
			}
			price, ok := p.PriceIn(pricebook)
			if !ok && pricebook != "" {
				return nil, apperr.Configuration("Invalid product configuration",
					fmt.Errorf("ingredient %q has no price in %q", it.ID, pricebook))
			}
			img, _ := p.FirstImage("default")
			group.Items = append(group.Items, IngredientItem{
				ID:         it.ID,
				Name:       p.Name,
				Price:      IngredientPrice{Value: price, DisplayValue: pricing.FormatMajor(price, unit)},
				Qty:        it.Qty,
				InitialQty: it.Qty,
				Min:        it.Min,
				Max:        it.Max,
				ImgURL:     img.Link,
			})
		}
		out = append(out, group)
	}
	return out, nil
}

// GetProductPrice previews the price of a customised product. It returns nil
// when no store is selected or the product cannot be ordered from it. Submitted
// ingredients are validated and priced from the catalog.
func (s *Service) GetProductPrice(ctx context.Context, req Request, productID, ingredients string, qty int) (*ProductPrice, error) {
	storeID := req.Session.SelectedStoreID()
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)

	p, err := s.commerce.GetProduct(ctx, req.Identity.AccessToken, req.SiteID, req.Locale, productID, inventoryID)
	if err != nil {
		return nil, upstream(err)
	}
	if storeID == "" || !p.Orderable(inventoryID) || p.Type.Master {
		return nil, nil
	}

	doc, err := s.resolveIngredients(ctx, req, p, ingredients, inventoryID, pricebook)
	if err != nil {
		return nil, err
	}
	ings, err := parseLineIngredients(doc)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	cur, err := pricing.ParseCurrency(p.Currency)
	if err != nil {
		return nil, apperr.Configuration("Invalid product configuration", err)
	}
	base, _ := p.PriceIn(pricebook)
	price := pricing.Compute(cur, pricingIngredients(ings, cur), pricing.ToMinor(base, cur), qty)
	return &ProductPrice{UnitPrice: price.UnitPrice, TotalPrice: price.TotalPrice}, nil
}

// ---------------------------------------------------------------------------
// Listings
// ---------------------------------------------------------------------------

type PLPParams struct {
	CategoryID string
	Filters    []FilterInput
	Offset     int
	Limit      int
}

// GetPLPData is a category product listing with refinements.
func (s *Service) GetPLPData(ctx context.Context, req Request, p PLPParams) (*PLPData, error) {
	storeID := req.Session.SelectedStoreID()
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)
	token := req.Identity.AccessToken

	if p.CategoryID == "" {
		p.CategoryID = "root"
	}
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	refine := make(map[string][]string, len(p.Filters)+1)
	for _, f := range p.Filters {
		refine[f.ID] = append(refine[f.ID], f.Values...)
	}
	if _, ok := refine[categoryFilterKey]; !ok {
		refine[categoryFilterKey] = []string{p.CategoryID}
	}

	res, err := s.commerce.SearchProducts(ctx, token, req.SiteID, req.Locale, commerce.SearchParams{
		Refine: refine,
		Offset: p.Offset,
		Limit:  p.Limit,
	})
	if err != nil {
		return nil, upstream(err)
	}
	products, err := s.commerce.GetProducts(ctx, token, req.SiteID, req.Locale, res.ProductIDs(), inventoryID)
	if err != nil {
		return nil, upstream(err)
	}
	tiles, err := productTiles(products, pricebook, inventoryID)
	if err != nil {
		return nil, err
	}
	cat, err := s.commerce.GetCategory(ctx, token, req.SiteID, req.Locale, p.CategoryID)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeCategoryNotFound, "Category not found.")
		}
		return nil, upstream(err)
	}

	return &PLPData{
		Name:            cat.Name,
		ImgMobileURL:    cat.BannerMobile,
		ImgDesktopURL:   cat.BannerDesktop,
		ResultsQty:      res.Total,
		Filters:         filtersView(res.Refinements),
		ProductsList:    tiles,
		SubCategories:   subCategories(cat),
		IsStoreSelected: storeID != "",
	}, nil
}

// GetCLPData is a category landing page: sub-categories and a few popular
// products. Failing to load the products does not fail the page.
func (s *Service) GetCLPData(ctx context.Context, req Request, categoryID string) (*CLPData, error) {
	storeID := req.Session.SelectedStoreID()
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)
	token := req.Identity.AccessToken

	cat, err := s.commerce.GetCategory(ctx, token, req.SiteID, req.Locale, categoryID)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeCategoryNotFound, "Category not found.")
		}
		return nil, upstream(err)
	}
	if len(cat.Categories) == 0 {
		return nil, apperr.Configuration("Invalid category configuration",
			fmt.Errorf("category %q has no sub-categories", categoryID))
	}

	out := &CLPData{
		SubCategories:   subCategories(cat),
		PopularProducts: []ProductTile{},
		ImgDesktop:      cat.BannerDesktop,
		ImgMobile:       cat.BannerMobile,
	}

	popular, err := s.popularProducts(ctx, req, categoryID, inventoryID, pricebook)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("category_id", categoryID).Msg("popular products unavailable")
		return out, nil
	}
	out.PopularProducts = popular
	return out, nil
}

func (s *Service) popularProducts(ctx context.Context, req Request, categoryID, inventoryID, pricebook string) ([]ProductTile, error) {
	token := req.Identity.AccessToken
	res, err := s.commerce.SearchProducts(ctx, token, req.SiteID, req.Locale, commerce.SearchParams{
		Refine: map[string][]string{categoryFilterKey: {categoryID}},
		Limit:  clpPopularLimit,
	})
	if err != nil {
		return nil, err
	}
	products, err := s.commerce.GetProducts(ctx, token, req.SiteID, req.Locale, res.ProductIDs(), inventoryID)
	if err != nil {
		return nil, err
	}
	return productTiles(products, pricebook, inventoryID)
}

// SearchProducts is the free-text site search.
func (s *Service) SearchProducts(ctx context.Context, req Request, query string) (*SearchResults, error) {
	storeID := req.Session.SelectedStoreID()
	inventoryID, pricebook := inventoryFor(storeID), pricebookFor(storeID)
	token := req.Identity.AccessToken

	params := commerce.SearchParams{Query: query, Limit: searchLimit}
	if storeID != "" {
		// store catalogs are modelled as categories named after the store
		params.Refine = map[string][]string{categoryFilterKey: {storeID}}
	}
	res, err := s.commerce.SearchProducts(ctx, token, req.SiteID, req.Locale, params)
	if err != nil {
		return nil, upstream(err)
	}
	products, err := s.commerce.GetProducts(ctx, token, req.SiteID, req.Locale, res.ProductIDs(), inventoryID)
	if err != nil {
		return nil, upstream(err)
	}

	out := &SearchResults{Products: []SearchProduct{}, Categories: []SearchCategory{}}
	for _, p := range products {
		out.Products = append(out.Products, SearchProduct{
			ID:                 p.ID,
			Name:               p.Name,
			Image:              imageView(p.FirstImage("default")),
			Price:              priceIn(p.PriceIn, pricebook, p.Currency),
			IsAvailableInStore: p.Orderable(inventoryID),
		})
	}
	for _, r := range res.Refinements {
		if r.AttributeID != categoryFilterKey {
			continue
		}
		for _, v := range r.Values {
			for _, sub := range v.Values {
				out.Categories = append(out.Categories, SearchCategory{ID: sub.Value, Name: sub.Label})
			}
		}
	}
	return out, nil
}
