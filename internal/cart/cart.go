// Package cart maintains the authoritative in-session cart: a list of line
// items keyed by (product id, size) with derived totals that are recomputed
// from scratch after every mutation.
package cart

// Item is a single cart line. Identity is the (ID, Size) pair; the reducer
// keeps Total at Price * Count for every mutation it applies.
type Item struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Size  string `json:"size"`
	Price int64  `json:"price"`
	Count int    `json:"count"`
	Total int64  `json:"total"`
	Image string `json:"image,omitempty"`
}

// State is the cart aggregate. TotalAmount and TotalCount are stored, never
// derived lazily; Reduce keeps them consistent with Items.
type State struct {
	Items       []Item `json:"items"`
	TotalAmount int64  `json:"totalAmount"`
	TotalCount  int    `json:"totalCount"`
}

// Limits carries the per-line ordering bounds.
type Limits struct {
	MinCount int
	MaxCount int
}

// DefaultLimits mirror the shop's standard ordering rules.
var DefaultLimits = Limits{MinCount: 1, MaxCount: 10}

// CalculateTotals sums the stored line totals and counts.
func CalculateTotals(items []Item) (amount int64, count int) {
	for _, item := range items {
		amount += item.Total
		count += item.Count
	}
	return amount, count
}

// IsEmpty reports whether the state holds no items.
func (s State) IsEmpty() bool { return len(s.Items) == 0 }

func indexOf(items []Item, id int64, size string) int {
	for i, item := range items {
		if item.ID == id && item.Size == size {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	return append([]Item(nil), items...)
}
