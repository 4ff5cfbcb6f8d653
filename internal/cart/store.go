package cart

import (
	"sync"
)

// Hook observes completed dispatches. Hooks run synchronously after the state
// transition, in registration order, and receive a snapshot they may retain.
type Hook func(action Action, state State)

// Store serialises cart dispatches and fires side-effect hooks (persistence,
// logging) after each one. Restoration happens once, at construction, before
// any dispatch is accepted.
type Store struct {
	mu     sync.Mutex
	state  State
	limits Limits
	hooks  []Hook
}

// StoreOption customises a store during construction.
type StoreOption func(*Store)

// WithHook registers a side-effect hook.
func WithHook(hook Hook) StoreOption {
	return func(s *Store) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

// WithRestoredItems seeds the store from persisted storage. The restore goes
// through the reducer, which sums the aggregates from the stored lines, but
// hooks do not fire for it: rehydration is not a user action.
func WithRestoredItems(items []Item) StoreOption {
	return func(s *Store) {
		s.state = Reduce(s.state, Restore{Items: items}, s.limits)
	}
}

// NewStore constructs an empty cart store with the given limits.
func NewStore(limits Limits, opts ...StoreOption) *Store {
	s := &Store{limits: limits}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch applies the action and notifies hooks with the resulting state.
func (s *Store) Dispatch(action Action) State {
	if action == nil {
		return s.State()
	}

	s.mu.Lock()
	s.state = Reduce(s.state, action, s.limits)
	next := snapshot(s.state)
	hooks := s.hooks
	s.mu.Unlock()

	for _, hook := range hooks {
		hook(action, next)
	}
	return next
}

// State returns a snapshot of the current cart.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

// IsEmpty reports whether the cart holds no items.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsEmpty()
}

// Contains reports whether a line with the given identity is present.
func (s *Store) Contains(id int64, size string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.state.Items, id, size) >= 0
}

func snapshot(state State) State {
	state.Items = cloneItems(state.Items)
	return state
}
