package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    Category            `json:"category"`
	Price       decimal.Decimal     `json:"price"`
	MRP         decimal.NullDecimal `json:"mrp"`
	ImageURL    string              `json:"image_url"`
	CreatedAt   time.Time           `json:"created_at"`
}

var hundred = decimal.NewFromInt(100)

// DiscountPercent returns the whole-number percentage saved against the MRP,
// or 0 when there is no MRP or it does not exceed the price.
func (p Product) DiscountPercent() int64 {
	if !p.MRP.Valid || p.MRP.Decimal.LessThanOrEqual(p.Price) {
		return 0
	}
	return p.MRP.Decimal.Sub(p.Price).Div(p.MRP.Decimal).Mul(hundred).Round(0).IntPart()
}
