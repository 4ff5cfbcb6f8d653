package cart

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ring(count int) Item {
	return Item{
		ID:    42,
		Title: "Silver ring",
		Size:  "17",
		Price: 100,
		Count: count,
		Total: int64(count) * 100,
		Image: "/img/ring.jpg",
	}
}

func TestReduceAddItem(t *testing.T) {
	limits := Limits{MinCount: 1, MaxCount: 10}

	cases := []struct {
		name   string
		state  State
		action Action
		want   State
	}{
		{
			name:   "add to empty cart",
			state:  State{},
			action: AddItem{ID: 42, Title: "Silver ring", Size: "17", Price: 100, Count: 2, Image: "/img/ring.jpg"},
			want:   State{Items: []Item{ring(2)}, TotalAmount: 200, TotalCount: 2},
		},
		{
			name:   "zero count falls back to minimum",
			state:  State{},
			action: AddItem{ID: 42, Title: "Silver ring", Size: "17", Price: 100, Image: "/img/ring.jpg"},
			want:   State{Items: []Item{ring(1)}, TotalAmount: 100, TotalCount: 1},
		},
		{
			name:   "merge same id and size sums counts",
			state:  State{Items: []Item{ring(2)}, TotalAmount: 200, TotalCount: 2},
			action: AddItem{ID: 42, Title: "Silver ring", Size: "17", Price: 100, Count: 3, Image: "/img/ring.jpg"},
			want:   State{Items: []Item{ring(5)}, TotalAmount: 500, TotalCount: 5},
		},
		{
			name:   "merge caps at maximum",
			state:  State{Items: []Item{ring(9)}, TotalAmount: 900, TotalCount: 9},
			action: AddItem{ID: 42, Title: "Silver ring", Size: "17", Price: 100, Count: 5, Image: "/img/ring.jpg"},
			want:   State{Items: []Item{ring(10)}, TotalAmount: 1000, TotalCount: 10},
		},
		{
			name:   "same id different size is a separate line",
			state:  State{Items: []Item{ring(1)}, TotalAmount: 100, TotalCount: 1},
			action: AddItem{ID: 42, Title: "Silver ring", Size: "18", Price: 100, Count: 1, Image: "/img/ring.jpg"},
			want: State{
				Items: []Item{
					ring(1),
					{ID: 42, Title: "Silver ring", Size: "18", Price: 100, Count: 1, Total: 100, Image: "/img/ring.jpg"},
				},
				TotalAmount: 200,
				TotalCount:  2,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Reduce(tc.state, tc.action, limits)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReduceRemoveItem(t *testing.T) {
	limits := DefaultLimits
	state := State{
		Items: []Item{
			ring(2),
			{ID: 7, Title: "Chain", Size: "50", Price: 250, Count: 1, Total: 250},
		},
		TotalAmount: 450,
		TotalCount:  3,
	}

	got := Reduce(state, RemoveItem{ID: 42, Size: "17"}, limits)
	if len(got.Items) != 1 || got.Items[0].ID != 7 {
		t.Fatalf("expected only the chain to remain, got %+v", got.Items)
	}
	if got.TotalAmount != 250 || got.TotalCount != 1 {
		t.Fatalf("totals not recomputed: amount=%d count=%d", got.TotalAmount, got.TotalCount)
	}

	// Absent identity leaves the state unchanged.
	unchanged := Reduce(got, RemoveItem{ID: 42, Size: "17"}, limits)
	if diff := cmp.Diff(got, unchanged); diff != "" {
		t.Fatalf("removing an absent line must be a no-op (-want +got):\n%s", diff)
	}
}

func TestReduceUpdateQuantity(t *testing.T) {
	limits := Limits{MinCount: 1, MaxCount: 10}
	state := State{Items: []Item{ring(2)}, TotalAmount: 200, TotalCount: 2}

	got := Reduce(state, UpdateQuantity{ID: 42, Size: "17", Count: 5}, limits)
	if got.Items[0].Count != 5 || got.Items[0].Total != 500 {
		t.Fatalf("expected count 5 total 500, got %+v", got.Items[0])
	}
	if got.TotalAmount != 500 || got.TotalCount != 5 {
		t.Fatalf("totals not recomputed: %+v", got)
	}

	for _, count := range []int{0, -1, 11} {
		unchanged := Reduce(state, UpdateQuantity{ID: 42, Size: "17", Count: count}, limits)
		if diff := cmp.Diff(state, unchanged); diff != "" {
			t.Fatalf("count %d must be ignored (-want +got):\n%s", count, diff)
		}
	}

	missing := Reduce(state, UpdateQuantity{ID: 99, Size: "17", Count: 3}, limits)
	if diff := cmp.Diff(state, missing); diff != "" {
		t.Fatalf("updating an absent line must be a no-op (-want +got):\n%s", diff)
	}
}

func TestReduceClear(t *testing.T) {
	state := State{Items: []Item{ring(3)}, TotalAmount: 300, TotalCount: 3}

	got := Reduce(state, Clear{}, DefaultLimits)
	if !got.IsEmpty() {
		t.Fatalf("expected empty cart, got %+v", got)
	}
	if got.TotalAmount != 0 || got.TotalCount != 0 {
		t.Fatalf("expected zero totals, got %+v", got)
	}
}

func TestReduceRestoreTrustsPersistedLines(t *testing.T) {
	// Rehydration carries the stored lines over verbatim, totals included,
	// so a restore round-trips exactly what was persisted.
	items := []Item{
		{ID: 42, Title: "Silver ring", Size: "17", Price: 100, Count: 2, Total: 999999},
		{ID: 7, Title: "Chain", Size: "50", Price: 250, Count: 1, Total: -5},
	}

	got := Reduce(State{}, Restore{Items: items}, DefaultLimits)
	if diff := cmp.Diff(items, got.Items); diff != "" {
		t.Fatalf("restored lines must match the input (-want +got):\n%s", diff)
	}
	if got.TotalAmount != 999994 || got.TotalCount != 3 {
		t.Fatalf("expected summed totals 999994/3, got %d/%d", got.TotalAmount, got.TotalCount)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	state := State{Items: []Item{ring(2)}, TotalAmount: 200, TotalCount: 2}
	original := State{Items: []Item{ring(2)}, TotalAmount: 200, TotalCount: 2}

	_ = Reduce(state, AddItem{ID: 42, Size: "17", Price: 100, Count: 3}, DefaultLimits)
	_ = Reduce(state, RemoveItem{ID: 42, Size: "17"}, DefaultLimits)
	_ = Reduce(state, UpdateQuantity{ID: 42, Size: "17", Count: 9}, DefaultLimits)

	if diff := cmp.Diff(original, state); diff != "" {
		t.Fatalf("input state mutated (-want +got):\n%s", diff)
	}
}

func TestReduceTotalsInvariant(t *testing.T) {
	limits := Limits{MinCount: 1, MaxCount: 10}
	state := State{}

	actions := []Action{
		AddItem{ID: 1, Title: "A", Size: "16", Price: 100, Count: 2},
		AddItem{ID: 2, Title: "B", Size: "17", Price: 250, Count: 1},
		AddItem{ID: 1, Title: "A", Size: "16", Price: 100, Count: 4},
		UpdateQuantity{ID: 2, Size: "17", Count: 3},
		RemoveItem{ID: 1, Size: "16"},
	}

	for i, action := range actions {
		state = Reduce(state, action, limits)
		wantAmount, wantCount := CalculateTotals(state.Items)
		if state.TotalAmount != wantAmount || state.TotalCount != wantCount {
			t.Fatalf("after action %d totals drifted: have %d/%d want %d/%d",
				i, state.TotalAmount, state.TotalCount, wantAmount, wantCount)
		}
	}
}

func TestActionName(t *testing.T) {
	if got := ActionName(AddItem{}); got != "cart/addItem" {
		t.Fatalf("unexpected action name %q", got)
	}
	if got := ActionName(nil); got != "" {
		t.Fatalf("expected empty name for nil action, got %q", got)
	}
}
