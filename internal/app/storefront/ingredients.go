package storefront

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/text/currency"

	"storefront-bff/internal/apperr"
	"storefront-bff/internal/commerce"
	"storefront-bff/internal/pricing"
)

// IngredientGroupConfig is one group of the catalog's ingredient document.
type IngredientGroupConfig struct {
	ID    string             `json:"id"`
	Name  string             `json:"name"`
	Items []IngredientConfig `json:"items"`
}

// IngredientConfig is the server-side bounds of one ingredient. Qty is the
// default quantity.
type IngredientConfig struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
	Min int    `json:"min"`
	Max int    `json:"max"`
}

type IngredientPrice struct {
	Value        float64 `json:"value"`
	DisplayValue string  `json:"displayValue"`
}

// LineIngredient is the ingredient document stored on a basket line item and
// submitted by clients. Only ID and Qty of a submission are trusted.
type LineIngredient struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      IngredientPrice `json:"price"`
	Qty        int             `json:"qty"`
	InitialQty int             `json:"initialQty"`
	Min        int             `json:"min"`
	Max        int             `json:"max"`
	ImgURL     string          `json:"imgUrl,omitempty"`
}

func parseIngredientGroups(doc string) ([]IngredientGroupConfig, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}
	var groups []IngredientGroupConfig
	if err := json.Unmarshal([]byte(doc), &groups); err != nil {
		return nil, fmt.Errorf("parse ingredient groups: %w", err)
	}
	return groups, nil
}

func parseLineIngredients(doc string) ([]LineIngredient, error) {
	if strings.TrimSpace(doc) == "" {
		return nil, nil
	}
	var ings []LineIngredient
	if err := json.Unmarshal([]byte(doc), &ings); err != nil {
		return nil, fmt.Errorf("parse ingredients: %w", err)
	}
	return ings, nil
}

func flattenGroups(groups []IngredientGroupConfig) map[string]IngredientConfig {
	out := make(map[string]IngredientConfig)
	for _, g := range groups {
		for _, it := range g.Items {
			out[it.ID] = it
		}
	}
	return out
}

func ingredientIDs(groups []IngredientGroupConfig) []string {
	var ids []string
	for _, g := range groups {
		for _, it := range g.Items {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

var errInvalidIngredients = apperr.Validation(apperr.CodeInvalidIngredients, "Invalid ingredients.")

// ValidateIngredients accepts submitted only if every entry names a
// configured ingredient at most once and lies within its bounds. A single
// failure rejects the whole submission.
func ValidateIngredients(groups []IngredientGroupConfig, submitted []LineIngredient) error {
	known := flattenGroups(groups)
	seen := make(map[string]bool, len(submitted))
	for _, in := range submitted {
		cfg, ok := known[in.ID]
		if !ok || seen[in.ID] || in.Qty < cfg.Min || in.Qty > cfg.Max {
			return errInvalidIngredients
		}
		seen[in.ID] = true
	}
	return nil
}

// canonicalIngredients rebuilds a validated submission from server data:
// names and prices from the ingredient products, bounds and defaults from the
// group config. A missing product or price is a catalog configuration error.
func canonicalIngredients(
	groups []IngredientGroupConfig,
	submitted []LineIngredient,
	products []commerce.Product,
	pricebook string,
	cur currency.Unit,
) ([]LineIngredient, error) {
	known := flattenGroups(groups)
	byID := make(map[string]commerce.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]LineIngredient, 0, len(submitted))
	for _, in := range submitted {
		cfg := known[in.ID]
		p, ok := byID[in.ID]
		if !ok || p.Name == "" {
			return nil, apperr.Configuration("Invalid product configuration",
				fmt.Errorf("ingredient product %q missing", in.ID))
		}
		price, ok := p.PriceIn(pricebook)
		if !ok {
			return nil, apperr.Configuration("Invalid product configuration",
				fmt.Errorf("ingredient %q has no price in %q", in.ID, pricebook))
		}
		img, _ := p.FirstImage("default")
		out = append(out, LineIngredient{
			ID:   in.ID,
			Name: p.Name,
			Price: IngredientPrice{
				Value:        price,
				DisplayValue: pricing.FormatMajor(price, cur),
			},
			Qty:        in.Qty,
			InitialQty: cfg.Qty,
			Min:        cfg.Min,
			Max:        cfg.Max,
			ImgURL:     img.Link,
		})
	}
	return out, nil
}

func pricingIngredients(ings []LineIngredient, cur currency.Unit) []pricing.Ingredient {
	out := make([]pricing.Ingredient, 0, len(ings))
	for _, in := range ings {
		out = append(out, pricing.Ingredient{
			ID:         in.ID,
			Name:       in.Name,
			UnitPrice:  pricing.ToMinor(in.Price.Value, cur),
			Qty:        in.Qty,
			InitialQty: in.InitialQty,
			Min:        in.Min,
			Max:        in.Max,
		})
	}
	return out
}
