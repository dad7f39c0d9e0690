package models

import "github.com/shopspring/decimal"

const (
	currencySign  = "₴"
	noOffersLabel = "Пропозицій немає"
)

// PriceRange - минимальная и максимальная цена по предложениям аромата
type PriceRange struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

// Label формирует строку цены для витрины
func (r PriceRange) Label() string {
	switch {
	case r.Min != nil && (r.Max == nil || r.Min.Equal(*r.Max)):
		return currencySign + r.Min.StringFixed(2)
	case r.Min == nil && r.Max != nil:
		return currencySign + r.Max.StringFixed(2)
	case r.Min != nil && r.Max != nil:
		return "Від " + currencySign + r.Min.StringFixed(2) + " до " + currencySign + r.Max.StringFixed(2)
	}
	return noOffersLabel
}
