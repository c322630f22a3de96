package cart

import "github.com/shopspring/decimal"

// TotalItems is the sum of quantities across all line items.
func (s *Store) TotalItems() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalAmount is the sum of price*quantity over all items, rendered
// with two decimals ("0.00" for an empty cart).
func (s *Store) TotalAmount() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return sumAmount(s.items, false)
}

// Selected returns the currently selected line items.
func (s *Store) Selected() []Item {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	var selected []Item
	for _, item := range s.items {
		if item.Selected {
			selected = append(selected, item)
		}
	}
	return selected
}

// SelectedAmount is TotalAmount restricted to selected items.
func (s *Store) SelectedAmount() string {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return sumAmount(s.items, true)
}

func sumAmount(items []Item, selectedOnly bool) string {
	total := decimal.Zero
	for _, item := range items {
		if selectedOnly && !item.Selected {
			continue
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.StringFixed(2)
}
