package checkout

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/platform/kvstore"
)

const (
	// DefaultDraftTTL bounds how long a saved order-form draft stays usable.
	DefaultDraftTTL = 24 * time.Hour
	// DefaultDraftDebounce delays draft writes so keystroke-cadence saves
	// collapse into one.
	DefaultDraftDebounce = 500 * time.Millisecond
)

type draftBlob struct {
	Data      Owner `json:"data"`
	Timestamp int64 `json:"timestamp"`
}

// DraftStore persists a time-boxed copy of the checkout form fields. Writes
// are debounce-delayed; loads discard drafts older than the TTL window.
type DraftStore struct {
	kv       *kvstore.Store
	key      string
	ttl      time.Duration
	debounce time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	pending *Owner
	closed  bool
}

// DraftOption customises a draft store.
type DraftOption func(*DraftStore)

// WithDraftTTL overrides the expiry window.
func WithDraftTTL(ttl time.Duration) DraftOption {
	return func(d *DraftStore) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithDraftDebounce overrides the write delay. Zero disables debouncing.
func WithDraftDebounce(debounce time.Duration) DraftOption {
	return func(d *DraftStore) {
		if debounce >= 0 {
			d.debounce = debounce
		}
	}
}

// WithDraftClock substitutes the time source for tests.
func WithDraftClock(now func() time.Time) DraftOption {
	return func(d *DraftStore) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDraftStore binds a draft store to the visitor's storage key.
func NewDraftStore(kv *kvstore.Store, sessionID string, logger *zap.Logger, opts ...DraftOption) *DraftStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &DraftStore{
		kv:       kv,
		key:      "draft:" + sessionID,
		ttl:      DefaultDraftTTL,
		debounce: DefaultDraftDebounce,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Save schedules a debounced write of the draft. Later saves within the
// debounce window replace earlier ones; only the last value is written.
func (d *DraftStore) Save(owner Owner) {
	owner = normalizeOwner(owner)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.pending = &owner
	if d.debounce <= 0 {
		d.writeLocked()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.flushTimer)
}

func (d *DraftStore) flushTimer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writeLocked()
}

// Flush writes any pending draft immediately.
func (d *DraftStore) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.writeLocked()
}

func (d *DraftStore) writeLocked() {
	if d.pending == nil {
		return
	}
	blob := draftBlob{Data: *d.pending, Timestamp: d.now().UnixMilli()}
	d.pending = nil
	if err := d.kv.Set(d.key, blob); err != nil {
		d.logger.Warn("draft persist failed", zap.String("key", d.key), zap.Error(err))
	}
}

// Load returns the saved draft when one exists and is still inside the TTL
// window. Expired drafts are deleted and reported as absent.
func (d *DraftStore) Load() (Owner, bool) {
	var blob draftBlob
	found, err := d.kv.Get(d.key, &blob)
	if err != nil {
		d.logger.Warn("draft load failed", zap.String("key", d.key), zap.Error(err))
		return Owner{}, false
	}
	if !found {
		return Owner{}, false
	}

	saved := time.UnixMilli(blob.Timestamp)
	if d.now().Sub(saved) > d.ttl {
		_ = d.kv.Delete(d.key)
		return Owner{}, false
	}
	return blob.Data, true
}

// Clear drops both the pending and the persisted draft.
func (d *DraftStore) Clear() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.mu.Unlock()

	if err := d.kv.Delete(d.key); err != nil {
		d.logger.Warn("draft clear failed", zap.String("key", d.key), zap.Error(err))
	}
}

// Close flushes any pending draft and stops the debounce timer. The store is
// unusable afterwards.
func (d *DraftStore) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.writeLocked()
	d.closed = true
}
