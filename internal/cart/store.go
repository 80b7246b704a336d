// Package cart holds the shopper's line items and derives totals from them.
//
// A Store is owned by exactly one writer. It does no locking; whoever owns it
// (see internal/session) serializes calls.
package cart

import (
	"slices"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	items  []domain.LineItem
	isOpen bool
}

func NewStore() *Store {
	return &Store{}
}

// Add merges item into the cart. An item with the same (product, size, color)
// has its quantity increased, anything else is appended. Quantities below 1
// are treated as 1.
func (s *Store) Add(item domain.LineItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	key := item.Key()
	for i := range s.items {
		if s.items[i].Key() == key {
			s.items[i].Quantity += quantity
			return
		}
	}

	item.Quantity = quantity
	s.items = append(s.items, item)
}

// Remove deletes every line with productID, whatever its size or color.
func (s *Store) Remove(productID string) {
	s.items = slices.DeleteFunc(s.items, func(item domain.LineItem) bool {
		return item.ProductID == productID
	})
}

// UpdateQuantity sets the quantity of every line with productID. A quantity
// of zero or less removes those lines.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		s.Remove(productID)
		return
	}
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Quantity = quantity
		}
	}
}

func (s *Store) Clear() {
	s.items = nil
}

func (s *Store) ToggleVisibility() {
	s.isOpen = !s.isOpen
}

func (s *Store) IsOpen() bool {
	return s.isOpen
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []domain.LineItem {
	return slices.Clone(s.items)
}

// Total is the unrounded sum of price times quantity.
func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount is the sum of quantities, not the number of lines.
func (s *Store) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}

func (s *Store) Snapshot() domain.CartState {
	items := s.Items()
	if items == nil {
		items = []domain.LineItem{}
	}
	return domain.CartState{Items: items, IsOpen: s.isOpen}
}

// Restore replaces the cart contents with state. Lines with a quantity below 1
// are dropped and duplicate keys are merged.
func (s *Store) Restore(state domain.CartState) {
	s.items = nil
	s.isOpen = state.IsOpen
	for _, item := range state.Items {
		if item.Quantity < 1 {
			continue
		}
		s.Add(item, item.Quantity)
	}
}
