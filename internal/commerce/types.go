package commerce

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

type Image struct {
	Alt         string `json:"alt"`
	Link        string `json:"link"`
	Title       string `json:"title"`
	DisBaseLink string `json:"disBaseLink,omitempty"`
}

type ImageGroup struct {
	ViewType string  `json:"viewType"`
	Images   []Image `json:"images"`
}

type Inventory struct {
	ID         string  `json:"id"`
	Orderable  bool    `json:"orderable"`
	ATS        float64 `json:"ats"`
	StockLevel float64 `json:"stockLevel"`
}

type TieredPrice struct {
	Price     float64 `json:"price"`
	Pricebook string  `json:"pricebook"`
	Quantity  float64 `json:"quantity"`
}

type ProductType struct {
	Master  bool `json:"master"`
	Variant bool `json:"variant"`
	Item    bool `json:"item"`
	Set     bool `json:"set"`
	Bundle  bool `json:"bundle"`
}

type VariationValue struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Orderable bool   `json:"orderable"`
}

type VariationAttribute struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Values []VariationValue `json:"values"`
}

type Variant struct {
	ProductID       string            `json:"productId"`
	Orderable       bool              `json:"orderable"`
	Price           float64           `json:"price"`
	TieredPrices    []TieredPrice     `json:"tieredPrices"`
	VariationValues map[string]string `json:"variationValues"`
}

type Product struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	ShortDescription    string               `json:"shortDescription"`
	LongDescription     string               `json:"longDescription"`
	Currency            string               `json:"currency"`
	Price               *float64             `json:"price"`
	PrimaryCategoryID   string               `json:"primaryCategoryId"`
	Type                ProductType          `json:"type"`
	Inventory           *Inventory           `json:"inventory"`
	Inventories         []Inventory          `json:"inventories"`
	ImageGroups         []ImageGroup         `json:"imageGroups"`
	TieredPrices        []TieredPrice        `json:"tieredPrices"`
	Variants            []Variant            `json:"variants"`
	VariationAttributes []VariationAttribute `json:"variationAttributes"`
	VariationValues     map[string]string    `json:"variationValues"`

	// IngredientGroups is a JSON document configured in the catalog.
	IngredientGroups    string `json:"c_ingredientGroups"`
	IsIngredient        bool   `json:"c_isIngredient"`
	MinQty              *int   `json:"c_minQty"`
	MaxQty              *int   `json:"c_maxQty"`
	Weight              string `json:"c_weight"`
	DetailsTab          string `json:"c_detailsTab"`
	DetailsTabTitle     string `json:"c_detailsTabTitle"`
	IngredientsTab      string `json:"c_ingredientsTab"`
	IngredientsTabTitle string `json:"c_ingredientsTabTitle"`
	NutritionTab        string `json:"c_nutritionTab"`
	NutritionTabTitle   string `json:"c_nutritionTabTitle"`
}

// InventoryByID returns the product's record in inventory id.
func (p Product) InventoryByID(id string) (Inventory, bool) {
	for _, inv := range p.Inventories {
		if inv.ID == id {
			return inv, true
		}
	}
	return Inventory{}, false
}

// Orderable reports whether the product can be ordered from inventory id.
func (p Product) Orderable(inventoryID string) bool {
	inv, ok := p.InventoryByID(inventoryID)
	return ok && inv.Orderable
}

// PriceIn returns the product's price in pricebook.
func (p Product) PriceIn(pricebook string) (float64, bool) {
	return tieredPrice(p.TieredPrices, pricebook)
}

// FirstImage returns the first image of the group with viewType.
func (p Product) FirstImage(viewType string) (Image, bool) {
	for _, g := range p.ImageGroups {
		if g.ViewType == viewType && len(g.Images) > 0 {
			return g.Images[0], true
		}
	}
	return Image{}, false
}

// VariationValuesOf returns the values of the variation attribute id.
func (p Product) VariationValuesOf(id string) ([]VariationValue, bool) {
	for _, a := range p.VariationAttributes {
		if a.ID == id {
			return a.Values, true
		}
	}
	return nil, false
}

func (v Variant) PriceIn(pricebook string) (float64, bool) {
	return tieredPrice(v.TieredPrices, pricebook)
}

func tieredPrice(tiers []TieredPrice, pricebook string) (float64, bool) {
	if pricebook == "" {
		return 0, false
	}
	for _, t := range tiers {
		if t.Pricebook == pricebook {
			return t.Price, true
		}
	}
	return 0, false
}

type productsResult struct {
	Limit int       `json:"limit"`
	Total int       `json:"total"`
	Data  []Product `json:"data"`
}

type Category struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	PageTitle        string     `json:"pageTitle"`
	ParentCategoryID string     `json:"parentCategoryId"`
	Image            string     `json:"image"`
	Categories       []Category `json:"categories"`
	CategoryLogo     string     `json:"c_categoryLogo"`
	BannerDesktop    string     `json:"c_bannerDesktop"`
	BannerMobile     string     `json:"c_bannerMobile"`
}

type SearchHit struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Currency    string  `json:"currency"`
	Price       float64 `json:"price"`
	Orderable   bool    `json:"orderable"`
	Image       *Image  `json:"image"`
}

type RefinementValue struct {
	Value    string            `json:"value"`
	Label    string            `json:"label"`
	HitCount int               `json:"hitCount"`
	Values   []RefinementValue `json:"values"`
}

type Refinement struct {
	AttributeID string            `json:"attributeId"`
	Label       string            `json:"label"`
	Values      []RefinementValue `json:"values"`
}

type SearchResult struct {
	Limit       int          `json:"limit"`
	Offset      int          `json:"offset"`
	Total       int          `json:"total"`
	Query       string       `json:"query"`
	Hits        []SearchHit  `json:"hits"`
	Refinements []Refinement `json:"refinements"`
}

// ProductIDs lists the hit product ids in result order.
func (r SearchResult) ProductIDs() []string {
	ids := make([]string, 0, len(r.Hits))
	for _, h := range r.Hits {
		ids = append(ids, h.ProductID)
	}
	return ids
}

// ---------------------------------------------------------------------------
// Baskets and orders
// ---------------------------------------------------------------------------

type Address struct {
	AddressID   string `json:"addressId,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FullName    string `json:"fullName,omitempty"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	City        string `json:"city"`
	StateCode   string `json:"stateCode"`
	PostalCode  string `json:"postalCode"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone"`
	Preferred   bool   `json:"preferred,omitempty"`
}

type ProductItem struct {
	ItemID                 string  `json:"itemId"`
	ProductID              string  `json:"productId"`
	ProductName            string  `json:"productName"`
	ItemText               string  `json:"itemText"`
	Quantity               int     `json:"quantity"`
	BasePrice              float64 `json:"basePrice"`
	Price                  float64 `json:"price"`
	PriceAfterItemDiscount float64 `json:"priceAfterItemDiscount"`
	InventoryID            string  `json:"inventoryId"`
	Ingredients            string  `json:"c_ingredients"`
	MinQty                 int     `json:"c_minQty"`
	MaxQty                 int     `json:"c_maxQty"`
	Image                  string  `json:"c_image"`
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
	ShipmentID      string          `json:"shipmentId"`
	ShippingAddress *Address        `json:"shippingAddress"`
	ShippingMethod  *ShippingMethod `json:"shippingMethod"`
}

type PaymentInstrument struct {
	PaymentInstrumentID   string  `json:"paymentInstrumentId"`
	PaymentMethodID       string  `json:"paymentMethodId"`
	Amount                float64 `json:"amount"`
	StripePaymentIntentID string  `json:"c_stripePaymentIntentID"`
}

type CustomerInfo struct {
	CustomerID string `json:"customerId"`
	CustomerNo string `json:"customerNo"`
	Email      string `json:"email"`
}

type Basket struct {
	BasketID           string              `json:"basketId"`
	Currency           string              `json:"currency"`
	CustomerInfo       CustomerInfo        `json:"customerInfo"`
	ProductItems       []ProductItem       `json:"productItems"`
	Shipments          []Shipment          `json:"shipments"`
	BillingAddress     *Address            `json:"billingAddress"`
	PaymentInstruments []PaymentInstrument `json:"paymentInstruments"`
	OrderTotal         float64             `json:"orderTotal"`
	ProductSubTotal    float64             `json:"productSubTotal"`
	ProductTotal       float64             `json:"productTotal"`
	ShippingTotal      float64             `json:"shippingTotal"`
	TaxTotal           float64             `json:"taxTotal"`
}

type basketsResult struct {
	Total   int      `json:"total"`
	Baskets []Basket `json:"baskets"`
}

// ItemInput is one product line written to a basket.
type ItemInput struct {
	ProductID   string `json:"productId"`
	Quantity    int    `json:"quantity"`
	InventoryID string `json:"inventoryId"`
	MinQty      int    `json:"c_minQty,omitempty"`
	MaxQty      int    `json:"c_maxQty,omitempty"`
	Ingredients string `json:"c_ingredients,omitempty"`
	Image       string `json:"c_image,omitempty"`
}

type PaymentMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Order status values written by the admin endpoints.
const (
	OrderStatusNew           = "new"
	PaymentStatusPaid        = "paid"
	PaymentStatusNotPaid     = "not_paid"
	ConfirmationConfirmed    = "confirmed"
	ConfirmationNotConfirmed = "not_confirmed"
)

type Order struct {
	OrderNo            string              `json:"orderNo"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"paymentStatus"`
	ConfirmationStatus string              `json:"confirmationStatus"`
	Currency           string              `json:"currency"`
	CreationDate       string              `json:"creationDate"`
	CustomerName       string              `json:"customerName"`
	CustomerInfo       CustomerInfo        `json:"customerInfo"`
	BillingAddress     *Address            `json:"billingAddress"`
	ProductItems       []ProductItem       `json:"productItems"`
	Shipments          []Shipment          `json:"shipments"`
	PaymentInstruments []PaymentInstrument `json:"paymentInstruments"`
	OrderTotal         float64             `json:"orderTotal"`
	ProductSubTotal    float64             `json:"productSubTotal"`
	ShippingTotal      float64             `json:"shippingTotal"`
	TaxTotal           float64             `json:"taxTotal"`
	StoreID            string              `json:"c_storeId"`
	StoreName          string              `json:"c_storeName"`
	PaymentIntentID    string              `json:"c_paymentIntentId"`
}

// PaymentInstrumentFor returns the order's instrument paid with methodID.
func (o Order) PaymentInstrumentFor(methodID string) (PaymentInstrument, bool) {
	for _, pi := range o.PaymentInstruments {
		if pi.PaymentMethodID == methodID {
			return pi, true
		}
	}
	return PaymentInstrument{}, false
}

type ordersResult struct {
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Total  int     `json:"total"`
	Data   []Order `json:"data"`
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

type Customer struct {
	CustomerID  string    `json:"customerId"`
	CustomerNo  string    `json:"customerNo"`
	Login       string    `json:"login"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	PhoneMobile string    `json:"phoneMobile"`
	AuthType    string    `json:"authType"`
	Addresses   []Address `json:"addresses"`
}

// NewCustomer is the profile part of a registration.
type NewCustomer struct {
	Login       string `json:"login"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneMobile string `json:"phoneMobile,omitempty"`
}

// ProfileUpdate is written through the customer-list admin endpoint, which is
// the only one allowed to change the login.
type ProfileUpdate struct {
	Credentials struct {
		Login   string `json:"login"`
		Enabled bool   `json:"enabled"`
		Locked  bool   `json:"locked"`
	} `json:"credentials"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneMobile string `json:"phoneMobile"`
	Email       string `json:"email"`
	CustomerNo  string `json:"customerNo"`
}

type ProductListItem struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Priority  int    `json:"priority"`
	Public    bool   `json:"public"`
	StoreID   string `json:"c_storeId,omitempty"`
}

type ProductList struct {
	ID                       string            `json:"id"`
	Type                     string            `json:"type"`
	Public                   bool              `json:"public"`
	CustomerProductListItems []ProductListItem `json:"customerProductListItems"`
}

// Contains reports whether productID is on the list.
func (l ProductList) Contains(productID string) bool {
	for _, it := range l.CustomerProductListItems {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

type productListsResult struct {
	Total int           `json:"total"`
	Data  []ProductList `json:"data"`
}
