package checkout

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/cart"
)

var (
	// ErrSubmitInProgress rejects a second submission while one is in flight.
	ErrSubmitInProgress = errors.New("checkout: submission already in progress")
	// ErrEmptyCart rejects submitting an order with no items.
	ErrEmptyCart = errors.New("checkout: cart is empty")
	// ErrInvalidOwner rejects submissions with missing contact details.
	ErrInvalidOwner = errors.New("checkout: phone and address are required")
)

// Submitter drives the order submission flow for one visitor's cart. On
// success the cart and any persisted draft are cleared; on failure both are
// left untouched so the visitor can retry.
type Submitter struct {
	client *Client
	cart   *cart.Store
	drafts *DraftStore
	logger *zap.Logger

	mu         sync.Mutex
	submitting bool
}

// NewSubmitter wires the submission flow. drafts may be nil.
func NewSubmitter(client *Client, store *cart.Store, drafts *DraftStore, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{client: client, cart: store, drafts: drafts, logger: logger}
}

// Submitting reports whether a submission is currently in flight.
func (s *Submitter) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// Submit validates the owner block, posts the order, and on success clears
// the cart and the persisted draft.
func (s *Submitter) Submit(ctx context.Context, owner Owner) error {
	owner = normalizeOwner(owner)
	if owner.Phone == "" || owner.Address == "" {
		return ErrInvalidOwner
	}

	state := s.cart.State()
	if state.IsEmpty() {
		return ErrEmptyCart
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return ErrSubmitInProgress
	}
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	if err := s.client.SubmitOrder(ctx, OrderRequest{Owner: owner, Items: state.Items}); err != nil {
		s.logger.Warn("order submission failed",
			zap.Int("lines", len(state.Items)),
			zap.Error(err),
		)
		return err
	}

	s.cart.Dispatch(cart.Clear{})
	if s.drafts != nil {
		s.drafts.Clear()
	}
	s.logger.Info("order submitted",
		zap.Int("lines", len(state.Items)),
		zap.Int64("total_amount", state.TotalAmount),
	)
	return nil
}
