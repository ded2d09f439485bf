package storefront

import (
	"fmt"
	"strings"

	"storefront-bff/internal/commerce"
	"storefront-bff/internal/ocapi"
	"storefront-bff/internal/pricing"
)

// ---------------------------------------------------------------------------
// Client view types
// ---------------------------------------------------------------------------

type Address struct {
	ID          string
	FirstName   string
	LastName    string
	FullName    string
	Address1    string
	Address2    string
	City        string
	StateCode   string
	PostalCode  string
	CountryCode string
	Phone       string
	Preferred   bool
}

type LineItem struct {
	ItemID                 string
	ProductID              string
	ProductName            string
	ItemText               string
	Quantity               int
	BasePrice              float64
	PriceAfterItemDiscount float64
	// Price is PriceAfterItemDiscount formatted in the basket currency.
	Price       string
	InventoryID string
	// Ingredients is the stored ingredient document.
	Ingredients       string
	IngredientsString string
	MinQty            int
	MaxQty            int
	Image             string
}

type ShippingMethod struct {
	ID                   string
	Name                 string
	Description          string
	Price                float64
	EstimatedArrivalTime string
	RequiresDate         bool
	StorePickupEnabled   bool
}

type Shipment struct {
	ShipmentID      string
	ShippingAddress *Address
	ShippingMethod  *ShippingMethod
}

type PaymentInstrument struct {
	ID       string
	MethodID string
	Amount   float64
}

type Basket struct {
	BasketID           string
	Currency           string
	CustomerID         string
	CustomerEmail      string
	ProductItems       []LineItem
	Shipments          []Shipment
	BillingAddress     *Address
	PaymentInstruments []PaymentInstrument
	OrderTotal         string
	ProductSubTotal    string
	ShippingTotal      string
	TaxTotal           string
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

// formatMoney renders a major-unit amount in cur. Unknown currencies fall back
// to a plain two-decimal number.
func formatMoney(major float64, cur string) string {
	u, err := pricing.ParseCurrency(cur)
	if err != nil {
		return fmt.Sprintf("%.2f", major)
	}
	return pricing.FormatMajor(major, u)
}

// ingredientsString renders the ingredients of a line item with a quantity,
// e.g. "Cheese: 2, Bacon: 1". Documents that do not parse render as "".
func ingredientsString(doc string) string {
	ings, err := parseLineIngredients(doc)
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(ings))
	for _, in := range ings {
		if in.Qty <= 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", in.Name, in.Qty))
	}
	return strings.Join(parts, ", ")
}

func addressView(a *commerce.Address) *Address {
	if a == nil {
		return nil
	}
	return &Address{
		ID:          a.AddressID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		StateCode:   a.StateCode,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Phone:       a.Phone,
		Preferred:   a.Preferred,
	}
}

func addressInput(a Address) commerce.Address {
	return commerce.Address{
		AddressID:   a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		StateCode:   a.StateCode,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Phone:       a.Phone,
		Preferred:   a.Preferred,
	}
}

func shippingMethodView(m *commerce.ShippingMethod) *ShippingMethod {
	if m == nil {
		return nil
	}
	return &ShippingMethod{
		ID:                   m.ID,
		Name:                 m.Name,
		Description:          m.Description,
		Price:                m.Price,
		EstimatedArrivalTime: m.EstimatedArrivalTime,
		RequiresDate:         m.RequiresDate,
		StorePickupEnabled:   m.StorePickupEnabled,
	}
}

func lineItemView(it commerce.ProductItem, cur string) LineItem {
	return LineItem{
		ItemID:                 it.ItemID,
		ProductID:              it.ProductID,
		ProductName:            it.ProductName,
		ItemText:               it.ItemText,
		Quantity:               it.Quantity,
		BasePrice:              it.BasePrice,
		PriceAfterItemDiscount: it.PriceAfterItemDiscount,
		Price:                  formatMoney(it.PriceAfterItemDiscount, cur),
		InventoryID:            it.InventoryID,
		Ingredients:            it.Ingredients,
		IngredientsString:      ingredientsString(it.Ingredients),
		MinQty:                 it.MinQty,
		MaxQty:                 it.MaxQty,
		Image:                  it.Image,
	}
}

// basketView is the one place a commerce basket becomes a client basket.
func basketView(b commerce.Basket) Basket {
	out := Basket{
		BasketID:        b.BasketID,
		Currency:        b.Currency,
		CustomerID:      b.CustomerInfo.CustomerID,
		CustomerEmail:   b.CustomerInfo.Email,
		BillingAddress:  addressView(b.BillingAddress),
		OrderTotal:      formatMoney(b.OrderTotal, b.Currency),
		ProductSubTotal: formatMoney(b.ProductSubTotal, b.Currency),
		ShippingTotal:   formatMoney(b.ShippingTotal, b.Currency),
		TaxTotal:        formatMoney(b.TaxTotal, b.Currency),
		ProductItems:    make([]LineItem, 0, len(b.ProductItems)),
	}
	for _, it := range b.ProductItems {
		out.ProductItems = append(out.ProductItems, lineItemView(it, b.Currency))
	}
	for _, s := range b.Shipments {
		out.Shipments = append(out.Shipments, Shipment{
			ShipmentID:      s.ShipmentID,
			ShippingAddress: addressView(s.ShippingAddress),
			ShippingMethod:  shippingMethodView(s.ShippingMethod),
		})
	}
	for _, pi := range b.PaymentInstruments {
		out.PaymentInstruments = append(out.PaymentInstruments, PaymentInstrument{
			ID:       pi.PaymentInstrumentID,
			MethodID: pi.PaymentMethodID,
			Amount:   pi.Amount,
		})
	}
	return out
}

// normalizeOCAPIBasket maps the legacy snake_case basket onto the commerce
// schema so both flow through basketView.
func normalizeOCAPIBasket(b ocapi.Basket) commerce.Basket {
	out := commerce.Basket{
		BasketID: b.BasketID,
		Currency: b.Currency,
		CustomerInfo: commerce.CustomerInfo{
			CustomerID: b.CustomerInfo.CustomerID,
			CustomerNo: b.CustomerInfo.CustomerNo,
			Email:      b.CustomerInfo.Email,
		},
		BillingAddress:  normalizeOCAPIAddress(b.BillingAddress),
		OrderTotal:      b.OrderTotal,
		ProductSubTotal: b.ProductSubTotal,
		ProductTotal:    b.ProductTotal,
		ShippingTotal:   b.ShippingTotal,
		TaxTotal:        b.TaxTotal,
	}
	for _, it := range b.ProductItems {
		out.ProductItems = append(out.ProductItems, commerce.ProductItem{
			ItemID:                 it.ItemID,
			ProductID:              it.ProductID,
			ProductName:            it.ProductName,
			ItemText:               it.ItemText,
			Quantity:               it.Quantity,
			BasePrice:              it.BasePrice,
			Price:                  it.Price,
			PriceAfterItemDiscount: it.PriceAfterItemDiscount,
			InventoryID:            it.InventoryID,
			Ingredients:            it.Ingredients,
			MinQty:                 it.MinQty,
			MaxQty:                 it.MaxQty,
			Image:                  it.Image,
		})
	}
	for _, s := range b.Shipments {
		sh := commerce.Shipment{
			ShipmentID:      s.ShipmentID,
			ShippingAddress: normalizeOCAPIAddress(s.ShippingAddress),
		}
		if m := s.ShippingMethod; m != nil {
			sh.ShippingMethod = &commerce.ShippingMethod{
				ID:                   m.ID,
				Name:                 m.Name,
				Description:          m.Description,
				Price:                m.Price,
				EstimatedArrivalTime: m.EstimatedArrivalTime,
				RequiresDate:         m.RequiresDate,
				StorePickupEnabled:   m.StorePickupEnabled,
			}
		}
		out.Shipments = append(out.Shipments, sh)
	}
	for _, pi := range b.PaymentInstruments {
		out.PaymentInstruments = append(out.PaymentInstruments, commerce.PaymentInstrument{
			PaymentInstrumentID:   pi.PaymentInstrumentID,
			PaymentMethodID:       pi.PaymentMethodID,
			Amount:                pi.Amount,
			StripePaymentIntentID: pi.StripePaymentIntentID,
		})
	}
	return out
}

func normalizeOCAPIAddress(a *ocapi.Address) *commerce.Address {
	if a == nil {
		return nil
	}
	return &commerce.Address{
		AddressID:   a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		FullName:    a.FullName,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		StateCode:   a.StateCode,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Phone:       a.Phone,
	}
}

type Order struct {
	OrderNo            string
	Status             string
	PaymentStatus      string
	ConfirmationStatus string
	Currency           string
	CreationDate       string
	CustomerName       string
	CustomerID         string
	CustomerEmail      string
	ProductItems       []LineItem
	Shipments          []Shipment
	BillingAddress     *Address
	OrderTotal         string
	ProductSubTotal    string
	ShippingTotal      string
	TaxTotal           string
	StoreID            string
	StoreName          string
	PaymentIntentID    string
}

// orderView shares the line item and address transforms with basketView.
func orderView(o commerce.Order) Order {
	out := Order{
		OrderNo:            o.OrderNo,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		ConfirmationStatus: o.ConfirmationStatus,
		Currency:           o.Currency,
		CreationDate:       o.CreationDate,
		CustomerName:       o.CustomerName,
		CustomerID:         o.CustomerInfo.CustomerID,
		CustomerEmail:      o.CustomerInfo.Email,
		BillingAddress:     addressView(o.BillingAddress),
		OrderTotal:         formatMoney(o.OrderTotal, o.Currency),
		ProductSubTotal:    formatMoney(o.ProductSubTotal, o.Currency),
		ShippingTotal:      formatMoney(o.ShippingTotal, o.Currency),
		TaxTotal:           formatMoney(o.TaxTotal, o.Currency),
		StoreID:            o.StoreID,
		StoreName:          o.StoreName,
		PaymentIntentID:    o.PaymentIntentID,
		ProductItems:       make([]LineItem, 0, len(o.ProductItems)),
	}
	for _, it := range o.ProductItems {
		out.ProductItems = append(out.ProductItems, lineItemView(it, o.Currency))
	}
	for _, s := range o.Shipments {
		out.Shipments = append(out.Shipments, Shipment{
			ShipmentID:      s.ShipmentID,
			ShippingAddress: addressView(s.ShippingAddress),
			ShippingMethod:  shippingMethodView(s.ShippingMethod),
		})
	}
	return out
}
