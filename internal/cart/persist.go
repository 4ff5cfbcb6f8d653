package cart

import (
	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/platform/kvstore"
)

// Persistence stores a visitor's cart items in the key-value blob store,
// written on every mutating action and read once when the store is created.
type Persistence struct {
	kv     *kvstore.Store
	key    string
	logger *zap.Logger
}

// NewPersistence binds a persistence helper to the visitor's storage key.
func NewPersistence(kv *kvstore.Store, sessionID string, logger *zap.Logger) *Persistence {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persistence{kv: kv, key: "cart:" + sessionID, logger: logger}
}

// Load reads the persisted items, returning an empty list when nothing was
// saved or the blob is unreadable. Rehydration never fails the session.
func (p *Persistence) Load() []Item {
	if p == nil || p.kv == nil {
		return nil
	}
	var items []Item
	found, err := p.kv.Get(p.key, &items)
	if err != nil {
		p.logger.Warn("cart restore failed", zap.String("key", p.key), zap.Error(err))
		return nil
	}
	if !found {
		return nil
	}
	return items
}

// Hook returns a store hook that writes the item list after every dispatch.
// Clearing the cart removes the blob instead of writing an empty list.
func (p *Persistence) Hook() Hook {
	return func(action Action, state State) {
		if p == nil || p.kv == nil {
			return
		}
		var err error
		if state.IsEmpty() {
			err = p.kv.Delete(p.key)
		} else {
			err = p.kv.Set(p.key, state.Items)
		}
		if err != nil {
			p.logger.Warn("cart persist failed",
				zap.String("key", p.key),
				zap.String("action", ActionName(action)),
				zap.Error(err),
			)
		}
	}
}

// LoggingHook returns a store hook that records each dispatch.
func LoggingHook(logger *zap.Logger) Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(action Action, state State) {
		logger.Debug("cart dispatch",
			zap.String("action", ActionName(action)),
			zap.Int("lines", len(state.Items)),
			zap.Int("total_count", state.TotalCount),
			zap.Int64("total_amount", state.TotalAmount),
		)
	}
}

// Key exposes the storage key, primarily for diagnostics.
func (p *Persistence) Key() string {
	if p == nil {
		return ""
	}
	return p.key
}
