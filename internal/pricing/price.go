// Package pricing computes customised line-item prices in integer minor units.
//
// Ingredient surcharges are one-directional: only quantity above an
// ingredient's server default is charged, and removing a default ingredient
// never produces a credit.
package pricing

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Ingredient is one customisable add-on of a product. UnitPrice is in minor units.
type Ingredient struct {
	ID         string
	Name       string
	UnitPrice  int64
	Qty        int
	InitialQty int
	Min        int
	Max        int
}

// Price is the result of Compute. The *Value fields are minor units.
type Price struct {
	UnitPrice       string
	TotalPrice      string
	UnitPriceValue  int64
	TotalPriceValue int64
}

// ParseCurrency resolves an ISO 4217 code such as "USD".
func ParseCurrency(code string) (currency.Unit, error) {
	u, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return currency.Unit{}, fmt.Errorf("parse currency %q: %w", code, err)
	}
	return u, nil
}

// Surcharge is the sum charged for ingredients above their default quantity.
func Surcharge(ingredients []Ingredient) int64 {
	var acc int64
	for _, in := range ingredients {
		if in.Qty <= in.InitialQty {
			continue
		}
		acc += in.UnitPrice * int64(in.Qty-in.InitialQty)
	}
	return acc
}

// Compute returns the unit price (basePrice plus surcharge) and the total for
// qty units. A qty of zero or less prices a single unit.
func Compute(cur currency.Unit, ingredients []Ingredient, basePrice int64, qty int) Price {
	unit := basePrice + Surcharge(ingredients)
	total := unit
	if qty > 0 {
		total = unit * int64(qty)
	}
	return Price{
		UnitPrice:       Format(unit, cur),
		TotalPrice:      Format(total, cur),
		UnitPriceValue:  unit,
		TotalPriceValue: total,
	}
}

func scale(cur currency.Unit) int {
	s, _ := currency.Standard.Rounding(cur)
	return s
}

// ToMinor converts a major-unit amount (as the commerce APIs return it) into
// minor units, rounding half away from zero.
func ToMinor(major float64, cur currency.Unit) int64 {
	return int64(math.Round(major * math.Pow10(scale(cur))))
}

// ToMajor converts minor units back into the major-unit amount upstream writes expect.
func ToMajor(minor int64, cur currency.Unit) float64 {
	return float64(minor) / math.Pow10(scale(cur))
}

var printer = message.NewPrinter(language.English)

// Format renders minor units as a display string, the symbol directly
// followed by the grouped amount: "$1,400.00".
func Format(minor int64, cur currency.Unit) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return sign + printer.Sprint(currency.Symbol(cur)) +
		printer.Sprint(number.Decimal(ToMajor(minor, cur), number.Scale(scale(cur))))
}

// FormatMajor formats a major-unit upstream amount.
func FormatMajor(major float64, cur currency.Unit) string {
	return Format(ToMinor(major, cur), cur)
}
