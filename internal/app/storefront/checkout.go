package storefront

import (
	"context"
	"fmt"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/ocapi"
)

type DeliveryMethod struct {
	ID            string
	Name          string
	Description   string
	ETA           string
	RequiresDate  bool
	IsStorePickup bool
	Price         string
}

type PaymentMethod struct {
	ID   string
	Name string
}

type CheckoutData struct {
	SavedAddresses []Address
	// SelectedStoreAddress is nil when the store's address is incomplete.
	SelectedStoreAddress *Address
	DeliveryMethods      []DeliveryMethod
	PaymentMethods       []PaymentMethod
}

type OrderConfirmation struct {
	OrderNo         string
	Status          string
	PaymentStatus   string
	OrderDate       string
	Phone           string
	DeliveryMethod  *ShippingMethod
	BillingAddress  *Address
	ShippingAddress *Address
	StoreID         string
	StoreName       string
	Total           string
	Subtotal        string
	ShippingTotal   string
	TaxTotal        string
	Items           []LineItem
}

// currentBasket returns the shopper's basket or BASKET_NOT_FOUND.
func (s *Service) currentBasket(ctx context.Context, req Request) (*commerce.Basket, error) {
	baskets, err := s.commerce.CustomerBaskets(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return nil, upstream(err)
	}
	if len(baskets) == 0 || baskets[0].BasketID == "" {
		return nil, apperr.User(apperr.CodeBasketNotFound, "No basket found.")
	}
	return &baskets[0], nil
}

func firstShipment(b *commerce.Basket) (string, error) {
	if len(b.Shipments) == 0 || b.Shipments[0].ShipmentID == "" {
		return "", apperr.User(apperr.CodeShipmentsNotFound, "No shipments found.")
	}
	return b.Shipments[0].ShipmentID, nil
}

func (s *Service) selectedStore(ctx context.Context, req Request) (*ocapi.Store, error) {
	storeID, err := requireStore(req)
	if err != nil {
		return nil, err
	}
	store, err := s.ocapi.GetStore(ctx, req.Identity.AccessToken, req.SiteID, storeID)
	if err != nil {
		if ocapi.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeNoStoreSelected, "No store selected.")
		}
		return nil, upstream(err)
	}
	return store, nil
}

func storeAddress(st *ocapi.Store) *Address {
	if st.Name == "" || st.Address1 == "" || st.CountryCode == "" || st.City == "" || st.StateCode == "" || st.PostalCode == "" {
		return nil
	}
	return &Address{
		ID:          "Primary",
		FullName:    st.Name,
		Address1:    st.Address1,
		Address2:    st.Address2,
		City:        st.City,
		StateCode:   st.StateCode,
		PostalCode:  st.PostalCode,
		CountryCode: st.CountryCode,
		Phone:       st.Phone,
	}
}

// GetCheckoutData gathers what the checkout page needs. Delivery methods are
// limited to the ones the selected store offers; a store offering none is
// NO_DELIVERY_METHODS.
func (s *Service) GetCheckoutData(ctx context.Context, req Request) (*CheckoutData, error) {
	store, err := s.selectedStore(ctx, req)
	if err != nil {
		return nil, err
	}
	basket, err := s.currentBasket(ctx, req)
	if err != nil {
		return nil, err
	}
	shipmentID, err := firstShipment(basket)
	if err != nil {
		return nil, err
	}
	token := req.Identity.AccessToken

	out := &CheckoutData{
		SavedAddresses:       []Address{},
		SelectedStoreAddress: storeAddress(store),
		DeliveryMethods:      []DeliveryMethod{},
		PaymentMethods:       []PaymentMethod{},
	}

	if basket.CustomerInfo.CustomerNo != "" {
		customer, err := s.commerce.GetCustomer(ctx, token, req.SiteID, req.Identity.CustomerID)
		if err != nil {
			return nil, upstream(err)
		}
		for i := range customer.Addresses {
			out.SavedAddresses = append(out.SavedAddresses, *addressView(&customer.Addresses[i]))
		}
	}

	shipping, err := s.commerce.ShippingMethods(ctx, token, req.SiteID, req.Locale, basket.BasketID, shipmentID)
	if err != nil {
		return nil, upstream(err)
	}
	payments, err := s.commerce.PaymentMethods(ctx, token, req.SiteID, req.Locale, basket.BasketID)
	if err != nil {
		return nil, upstream(err)
	}

	for _, m := range shipping {
		if !store.Supports(m.ID) {
			continue
		}
		out.DeliveryMethods = append(out.DeliveryMethods, DeliveryMethod{
			ID:            m.ID,
			Name:          m.Name,
			Description:   m.Description,
			ETA:           m.EstimatedArrivalTime,
			RequiresDate:  m.RequiresDate,
			IsStorePickup: m.StorePickupEnabled,
			Price:         formatMoney(m.Price, basket.Currency),
		})
	}
	if len(out.DeliveryMethods) == 0 {
		return nil, apperr.User(apperr.CodeNoDeliveryMethods, "The store does not support any delivery methods.")
	}
	for _, m := range payments {
		out.PaymentMethods = append(out.PaymentMethods, PaymentMethod{ID: m.ID, Name: m.Name})
	}
	return out, nil
}

func (s *Service) AddShippingAddress(ctx context.Context, req Request, addr Address) (*Basket, error) {
	basket, err := s.currentBasket(ctx, req)
	if err != nil {
		return nil, err
	}
	shipmentID, err := firstShipment(basket)
	if err != nil {
		return nil, err
	}
	updated, err := s.commerce.SetShippingAddress(ctx, req.Identity.AccessToken, req.SiteID, basket.BasketID, shipmentID, addressInput(addr))
	if err != nil {
		return nil, upstream(err)
	}
	b := basketView(*updated)
	return &b, nil
}

func (s *Service) AddBillingAddress(ctx context.Context, req Request, addr Address) (*Basket, error) {
	basket, err := s.currentBasket(ctx, req)
	if err != nil {
		return nil, err
	}
	updated, err := s.commerce.SetBillingAddress(ctx, req.Identity.AccessToken, req.SiteID, basket.BasketID, addressInput(addr))
	if err != nil {
		return nil, upstream(err)
	}
	b := basketView(*updated)
	return &b, nil
}

// AddShippingMethod sets the delivery method. Methods the selected store does
// not offer are refused.
func (s *Service) AddShippingMethod(ctx context.Context, req Request, methodID string) (*Basket, error) {
	store, err := s.selectedStore(ctx, req)
	if err != nil {
		return nil, err
	}
	if !store.Supports(methodID) {
		return nil, apperr.Validation(apperr.CodeInvalidInput, "The store does not support this delivery method.")
	}
	basket, err := s.currentBasket(ctx, req)
	if err != nil {
		return nil, err
	}
	shipmentID, err := firstShipment(basket)
	if err != nil {
		return nil, err
	}
	updated, err := s.commerce.SetShippingMethod(ctx, req.Identity.AccessToken, req.SiteID, basket.BasketID, shipmentID, methodID)
	if err != nil {
		return nil, upstream(err)
	}
	b := basketView(*updated)
	return &b, nil
}

// AddPaymentMethod replaces any payment instrument on the basket with one for
// methodID.
func (s *Service) AddPaymentMethod(ctx context.Context, req Request, methodID string) (*Basket, error) {
	basket, err := s.currentBasket(ctx, req)
	if err != nil {
		return nil, err
	}
	token := req.Identity.AccessToken
	for _, pi := range basket.PaymentInstruments {
		if _, err := s.commerce.RemovePaymentInstrument(ctx, token, req.SiteID, basket.BasketID, pi.PaymentInstrumentID); err != nil {
			return nil, upstream(err)
		}
	}
	updated, err := s.commerce.AddPaymentInstrument(ctx, token, req.SiteID, basket.BasketID, methodID)
	if err != nil {
		return nil, upstream(err)
	}
	b := basketView(*updated)
	return &b, nil
}

type OrderRef struct {
	OrderNo string
	Status  string
}

// CreateOrder places the basket as an order for the selected store and marks
// it new. The status and store writes happen after the order exists; a failure
// there leaves a placed order without them.
func (s *Service) CreateOrder(ctx context.Context, req Request) (*OrderRef, error) {
	store, err := s.selectedStore(ctx, req)
	if err != nil {
		return nil, err
	}
	basket, err := s.currentBasket(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(basket.ProductItems) == 0 {
		return nil, apperr.User(apperr.CodeEmptyBasket, "The basket is empty.")
	}

	order, err := s.commerce.CreateOrder(ctx, req.Identity.AccessToken, req.SiteID, basket.BasketID)
	if err != nil {
		return nil, upstream(err)
	}
	log := logging.Ctx(ctx).With().Str("order_no", order.OrderNo).Str("store_id", store.ID).Logger()

	if err := s.commerce.SetOrderStatus(ctx, req.SiteID, order.OrderNo, commerce.OrderStatusNew); err != nil {
		log.Error().Err(err).Msg("set order status")
		return nil, apperr.Internal(fmt.Errorf("order %s: set status: %w", order.OrderNo, err))
	}
	if err := s.commerce.SetOrderStore(ctx, req.SiteID, order.OrderNo, store.ID, store.Name); err != nil {
		log.Error().Err(err).Msg("set order store")
		return nil, apperr.Internal(fmt.Errorf("order %s: set store: %w", order.OrderNo, err))
	}
	log.Info().Msg("order created")
	return &OrderRef{OrderNo: order.OrderNo, Status: commerce.OrderStatusNew}, nil
}

// GetOrder returns one of the shopper's own orders.
func (s *Service) GetOrder(ctx context.Context, req Request, orderNo string) (*Order, error) {
	order, err := s.customerOrder(ctx, req, orderNo)
	if err != nil {
		return nil, err
	}
	o := orderView(*order)
	return &o, nil
}

// GetOrderStatus lets anyone holding the order number, the shipping phone
// number and the creation timestamp track an order without logging in.
func (s *Service) GetOrderStatus(ctx context.Context, req Request, orderNo, phone, timestamp string) (*Order, error) {
	order, err := s.commerce.AdminGetOrder(ctx, req.SiteID, orderNo)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeOrderNotFound, "Order not found.")
		}
		return nil, upstream(err)
	}
	if len(order.Shipments) == 0 || order.Shipments[0].ShippingAddress == nil ||
		order.Shipments[0].ShippingAddress.Phone != phone || order.CreationDate != timestamp {
		return nil, apperr.User(apperr.CodeOrderNotFound, "Order not found.")
	}
	o := orderView(*order)
	return &o, nil
}

// GetOrderConfirmation reads the order with the shopper's token; the platform
// only returns orders placed by the same shopper.
func (s *Service) GetOrderConfirmation(ctx context.Context, req Request, orderNo string) (*OrderConfirmation, error) {
	order, err := s.commerce.GetOrder(ctx, req.Identity.AccessToken, req.SiteID, req.Locale, orderNo)
	if err != nil {
		if commerce.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeOrderNotFound, "Order not found.")
		}
		return nil, upstream(err)
	}
	if len(order.Shipments) == 0 {
		return nil, apperr.User(apperr.CodeShipmentsNotFound, "No shipments found.")
	}
	view := orderView(*order)
	ship := view.Shipments[0]

	out := &OrderConfirmation{
		OrderNo:         view.OrderNo,
		Status:          view.Status,
		PaymentStatus:   view.PaymentStatus,
		OrderDate:       view.CreationDate,
		DeliveryMethod:  ship.ShippingMethod,
		BillingAddress:  view.BillingAddress,
		ShippingAddress: ship.ShippingAddress,
		StoreID:         view.StoreID,
		StoreName:       view.StoreName,
		Total:           view.OrderTotal,
		Subtotal:        view.ProductSubTotal,
		ShippingTotal:   view.ShippingTotal,
		TaxTotal:        view.TaxTotal,
		Items:           view.ProductItems,
	}
	if ship.ShippingAddress != nil {
		out.Phone = ship.ShippingAddress.Phone
	}
	return out, nil
}
