package storefront

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/logging"
	"storefront-bff/internal/ocapi"
	"storefront-bff/internal/session"
)

type StoreFeature struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	IsAvailable bool   `json:"isAvailable"`
}

type Store struct {
	ID              string
	Name            string
	Address1        string
	Address2        string
	City            string
	StateCode       string
	PostalCode      string
	CountryCode     string
	Phone           string
	Latitude        float64
	Longitude       float64
	Distance        float64
	StoreHours      string
	DeliveryMethods []string
	ImgMobile       string
	ImgDesktop      string
	Icon            string
	Features        []StoreFeature
}

type StoreSearchInput struct {
	Latitude         float64
	Longitude        float64
	MaxDistance      int
	DeliveryMethodID string
}

// PrerenderedProduct is a product page built ahead of time by the frontend.
type PrerenderedProduct struct {
	ID   string
	Name string
}

// storeView maps a legacy store. A features document that does not parse is
// dropped rather than failing the store.
func storeView(ctx context.Context, st ocapi.Store) Store {
	out := Store{
		ID:              st.ID,
		Name:            st.Name,
		Address1:        st.Address1,
		Address2:        st.Address2,
		City:            st.City,
		StateCode:       st.StateCode,
		PostalCode:      st.PostalCode,
		CountryCode:     st.CountryCode,
		Phone:           st.Phone,
		Latitude:        st.Latitude,
		Longitude:       st.Longitude,
		Distance:        st.Distance,
		StoreHours:      st.StoreHours,
		DeliveryMethods: st.DeliveryMethods,
		ImgMobile:       st.ImgMobile,
		ImgDesktop:      st.ImgDesktop,
		Icon:            st.Icon,
	}
	if out.DeliveryMethods == nil {
		out.DeliveryMethods = []string{}
	}
	if st.Features != "" {
		if err := json.Unmarshal([]byte(st.Features), &out.Features); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("store_id", st.ID).Msg("store features")
			out.Features = nil
		}
	}
	return out
}

// GetStoresByCoordinates lists nearby stores offering the delivery method.
func (s *Service) GetStoresByCoordinates(ctx context.Context, req Request, in StoreSearchInput) ([]Store, error) {
	stores, err := s.ocapi.SearchStores(ctx, req.Identity.AccessToken, ocapi.StoreSearch{
		SiteID:      req.SiteID,
		Locale:      req.Locale,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		MaxDistance: in.MaxDistance,
	})
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]Store, 0, len(stores))
	for _, st := range stores {
		if !st.Supports(in.DeliveryMethodID) {
			continue
		}
		out = append(out, storeView(ctx, st))
	}
	return out, nil
}

func (s *Service) GetStoreByID(ctx context.Context, req Request, storeID string) (*Store, error) {
	st, err := s.ocapi.GetStore(ctx, req.Identity.AccessToken, req.SiteID, storeID)
	if err != nil {
		if ocapi.IsNotFound(err) {
			return nil, apperr.User(apperr.CodeNoStoreSelected, "Store not found.")
		}
		return nil, upstream(err)
	}
	v := storeView(ctx, *st)
	return &v, nil
}

func (s *Service) GetSelectedStore(ctx context.Context, req Request) (*Store, error) {
	st, err := s.selectedStore(ctx, req)
	if err != nil {
		return nil, err
	}
	v := storeView(ctx, *st)
	return &v, nil
}

// SetSelectedStoreID remembers the store for a year. Prices and inventory are
// store scoped, so switching to another store drops the shopper's basket.
func (s *Service) SetSelectedStoreID(ctx context.Context, req Request, storeID string) error {
	if storeID == "" {
		return apperr.Validation(apperr.CodeInvalidInput, "A store id is required.")
	}
	previous := req.Session.SelectedStoreID()
	if err := req.Session.SetSelectedStoreID(storeID, s.now().Add(session.StoreLifetime)); err != nil {
		return apperr.Internal(fmt.Errorf("write store cookie: %w", err))
	}
	if previous == "" || previous == storeID {
		return nil
	}

	baskets, err := s.commerce.CustomerBaskets(ctx, req.Identity.AccessToken, req.SiteID, req.Identity.CustomerID)
	if err != nil {
		return upstream(err)
	}
	for _, b := range baskets {
		if err := s.commerce.DeleteBasket(ctx, req.Identity.AccessToken, req.SiteID, b.BasketID); err != nil {
			return upstream(err)
		}
		logging.Ctx(ctx).Info().Str("basket_id", b.BasketID).Str("from_store", previous).Str("to_store", storeID).Msg("basket dropped on store change")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Global data
// ---------------------------------------------------------------------------

type globalData struct {
	SitePreferences struct {
		SiteLogo          *string `json:"siteLogo"`
		Favicon32         *string `json:"favicon_32"`
		Favicon16         *string `json:"favicon_16"`
		IsWishlistEnabled bool    `json:"isWishlistEnabled"`
	} `json:"sitePreferences"`
	FooterData          json.RawMessage            `json:"footerData"`
	NavigationData      json.RawMessage            `json:"navigationData"`
	StorelocatorConfigs json.RawMessage            `json:"storelocatorConfigs"`
	ContentAssets       map[string]json.RawMessage `json:"contentAssets,omitempty"`
}

func mediaURL(m *ocapi.MediaFile) *string {
	if m == nil || m.AbsURL == "" {
		return nil
	}
	return &m.AbsURL
}

// rawJSON passes a configured JSON document through, or null when it is
// empty or malformed.
func rawJSON(doc string) json.RawMessage {
	if doc == "" || !json.Valid([]byte(doc)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(doc)
}

func (s *Service) sitePreferences(ctx context.Context, req Request) (*ocapi.SitePreferences, error) {
	prefs, err := s.ocapi.SitePreferences(ctx, req.SiteID, s.cfg.PreferenceGroupID, s.cfg.PreferenceGroupInstanceType)
	if err != nil {
		return nil, upstream(err)
	}
	return prefs, nil
}

// GetGlobalData returns the site chrome (logos, footer, navigation, store
// locator settings) as one JSON document.
func (s *Service) GetGlobalData(ctx context.Context, req Request) (string, error) {
	prefs, err := s.sitePreferences(ctx, req)
	if err != nil {
		return "", err
	}

	ids := []string{}
	for _, id := range append([]string{prefs.FooterJSONAssetID, prefs.MenuJSONAssetID}, s.cfg.ContentAssetIDs...) {
		if id != "" {
			ids = append(ids, id)
		}
	}
	assets, err := s.ocapi.ContentAssets(ctx, req.SiteID, req.Locale, ids)
	if err != nil {
		return "", upstream(err)
	}
	bodies := make(map[string]string, len(assets))
	for _, a := range assets {
		bodies[a.ID] = a.Body
	}

	var out globalData
	out.SitePreferences.SiteLogo = mediaURL(prefs.SiteLogo)
	out.SitePreferences.Favicon32 = mediaURL(prefs.Favicon32)
	out.SitePreferences.Favicon16 = mediaURL(prefs.Favicon16)
	out.SitePreferences.IsWishlistEnabled = true
	out.FooterData = rawJSON(bodies[prefs.FooterJSONAssetID])
	out.NavigationData = rawJSON(bodies[prefs.MenuJSONAssetID])
	out.StorelocatorConfigs = rawJSON(prefs.StorelocatorConfigs)
	if len(s.cfg.ContentAssetIDs) > 0 {
		out.ContentAssets = make(map[string]json.RawMessage, len(s.cfg.ContentAssetIDs))
		for _, id := range s.cfg.ContentAssetIDs {
			out.ContentAssets[id] = rawJSON(bodies[id])
		}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("encode global data: %w", err))
	}
	return string(b), nil
}

// prerenderList reads {"<key>": [...]} from a preference document.
func prerenderList(doc, key string) ([]string, error) {
	if doc == "" {
		return []string{}, nil
	}
	var m map[string][]string
	if err := json.Unmarshal([]byte(doc), &m); err != nil {
		return nil, apperr.Configuration("Invalid site preference", fmt.Errorf("prerender %s: %w", key, err))
	}
	if m[key] == nil {
		return []string{}, nil
	}
	return m[key], nil
}

func (s *Service) GetPrerenderedPDPs(ctx context.Context, req Request) ([]PrerenderedProduct, error) {
	prefs, err := s.sitePreferences(ctx, req)
	if err != nil {
		return nil, err
	}
	ids, err := prerenderList(prefs.PDPsToPrerender, "products")
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []PrerenderedProduct{}, nil
	}
	products, err := s.commerce.GetProducts(ctx, req.Identity.AccessToken, req.SiteID, req.Locale, ids, defaultInventoryID)
	if err != nil {
		return nil, upstream(err)
	}
	out := make([]PrerenderedProduct, 0, len(products))
	for _, p := range products {
		out = append(out, PrerenderedProduct{ID: p.ID, Name: p.Name})
	}
	return out, nil
}

func (s *Service) GetPrerenderedPLPs(ctx context.Context, req Request) ([]string, error) {
	prefs, err := s.sitePreferences(ctx, req)
	if err != nil {
		return nil, err
	}
	return prerenderList(prefs.PLPsToPrerender, "categories")
}

func (s *Service) GetPrerenderedCLPs(ctx context.Context, req Request) ([]string, error) {
	prefs, err := s.sitePreferences(ctx, req)
	if err != nil {
		return nil, err
	}
	return prerenderList(prefs.CLPsToPrerender, "categories")
}
