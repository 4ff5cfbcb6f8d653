package cart

// Action is a cart state transition. All actions are total: invalid
// transitions leave the state unchanged instead of failing.
type Action interface {
	actionName() string
}

// AddItem merges a line into the cart. A zero Count falls back to the
// configured minimum; merging with an existing (ID, Size) line caps the count
// at the configured maximum.
type AddItem struct {
	ID    int64
	Title string
	Size  string
	Price int64
	Count int
	Image string
}

// RemoveItem drops the matching line; absent lines are a no-op.
type RemoveItem struct {
	ID   int64
	Size string
}

// UpdateQuantity sets the count of an existing line. Counts outside
// [1, MaxCount] are silently ignored.
type UpdateQuantity struct {
	ID    int64
	Size  string
	Count int
}

// Clear resets the cart to empty, used after a successful order.
type Clear struct{}

// Restore replaces the item list wholesale when rehydrating from persisted
// storage. The input shape is trusted: stored line totals are kept verbatim
// and the aggregates sum whatever the lines say.
type Restore struct {
	Items []Item
}

func (AddItem) actionName() string        { return "cart/addItem" }
func (RemoveItem) actionName() string     { return "cart/removeItem" }
func (UpdateQuantity) actionName() string { return "cart/updateQuantity" }
func (Clear) actionName() string          { return "cart/clear" }
func (Restore) actionName() string        { return "cart/restore" }

// ActionName exposes the dispatch label of an action for logging hooks.
func ActionName(action Action) string {
	if action == nil {
		return ""
	}
	return action.actionName()
}

// Reduce applies an action to the state and returns the next state. It never
// mutates its input; totals are recomputed from the full item list after every
// action so the aggregates cannot drift from the lines.
func Reduce(state State, action Action, limits Limits) State {
	if limits.MinCount <= 0 {
		limits.MinCount = DefaultLimits.MinCount
	}
	if limits.MaxCount < limits.MinCount {
		limits.MaxCount = DefaultLimits.MaxCount
	}

	items := cloneItems(state.Items)

	switch a := action.(type) {
	case AddItem:
		addCount := a.Count
		if addCount <= 0 {
			addCount = limits.MinCount
		}
		if idx := indexOf(items, a.ID, a.Size); idx >= 0 {
			newCount := items[idx].Count + addCount
			if newCount > limits.MaxCount {
				newCount = limits.MaxCount
			}
			items[idx].Count = newCount
			items[idx].Total = int64(newCount) * a.Price
		} else {
			items = append(items, Item{
				ID:    a.ID,
				Title: a.Title,
				Size:  a.Size,
				Price: a.Price,
				Count: addCount,
				Total: int64(addCount) * a.Price,
				Image: a.Image,
			})
		}

	case RemoveItem:
		if idx := indexOf(items, a.ID, a.Size); idx >= 0 {
			items = append(items[:idx], items[idx+1:]...)
		}

	case UpdateQuantity:
		idx := indexOf(items, a.ID, a.Size)
		if idx >= 0 && a.Count >= 1 && a.Count <= limits.MaxCount {
			items[idx].Count = a.Count
			items[idx].Total = int64(a.Count) * items[idx].Price
		}

	case Clear:
		items = nil

	case Restore:
		items = cloneItems(a.Items)
	}

	amount, count := CalculateTotals(items)
	return State{Items: items, TotalAmount: amount, TotalCount: count}
}
