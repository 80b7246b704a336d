package domain

import "github.com/shopspring/decimal"

// LineItem is one cart entry. Items are unique by (ProductID, Size, Color).
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
}

// LineKey identifies a line item.
type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (i LineItem) Key() LineKey {
	return LineKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

// LineTotal returns unit price times quantity, unrounded.
func (i LineItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState is a point-in-time copy of a cart, used for caching and responses.
type CartState struct {
	Items  []LineItem `json:"items"`
	IsOpen bool       `json:"is_open"`
}
