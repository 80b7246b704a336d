package cart

import "github.com/shopspring/decimal"

// TaxRate applied on top of the cart subtotal at checkout.
var TaxRate = decimal.RequireFromString("0.1")

// Summary is the checkout breakdown. Amounts are unrounded; use Fixed for display.
type Summary struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

func (s *Store) Summary() Summary {
	subtotal := s.Total()
	tax := subtotal.Mul(TaxRate)
	return Summary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Fixed formats an amount with two decimal places.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
