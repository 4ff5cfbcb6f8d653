package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/cart"
	"github.com/bosanoga/storefront/internal/catalog"
	"github.com/bosanoga/storefront/internal/checkout"
	"github.com/bosanoga/storefront/internal/listing"
	"github.com/bosanoga/storefront/internal/platform/kvstore"
	"github.com/bosanoga/storefront/internal/platform/requestctx"
)

type sessionContextKeyType struct{}

var sessionContextKey sessionContextKeyType

const defaultCleanupInterval = 5 * time.Minute

// Session bundles the per-visitor state: the cart store, the items listing
// controller, and the checkout flow. It also tracks the visitor's current
// catalog selection so load-more calls reuse the right parameters.
type Session struct {
	ID     string
	Cart   *cart.Store
	Items  *listing.Paginator[catalog.Product]
	Drafts *checkout.DraftStore
	Submit *checkout.Submitter

	mu         sync.Mutex
	categoryID int64
	query      string
	started    bool
	lastSeen   time.Time
}

// Selection returns the visitor's active catalog filter and whether the
// listing has been started at all.
func (s *Session) Selection() (categoryID int64, query string, started bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoryID, s.query, s.started
}

// SetSelection records the active catalog filter.
func (s *Session) SetSelection(categoryID int64, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryID = categoryID
	s.query = query
	s.started = true
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// dispose tears down the session's controllers and flushes pending drafts.
func (s *Session) dispose() {
	s.Items.Dispose()
	s.Drafts.Close()
}

// SessionRegistryDeps wires the collaborators needed to build visitor sessions.
type SessionRegistryDeps struct {
	KV            *kvstore.Store
	Catalog       *catalog.Client
	Orders        *checkout.Client
	Limits        cart.Limits
	CookieName    string
	IdleTTL       time.Duration
	DraftTTL      time.Duration
	DraftDebounce time.Duration
	Logger        *zap.Logger
	Clock         func() time.Time
}

// SessionRegistry owns the per-visitor sessions and their lifecycle: a cookie
// identifies the visitor, the registry builds the session lazily (restoring
// the persisted cart first), and a janitor disposes sessions idle beyond the
// TTL so abandoned listings do not accumulate.
type SessionRegistry struct {
	deps SessionRegistryDeps

	mu       sync.Mutex
	sessions map[string]*Session
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

// NewSessionRegistry constructs the registry and starts its janitor.
func NewSessionRegistry(deps SessionRegistryDeps) *SessionRegistry {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = 30 * time.Minute
	}
	if deps.CookieName == "" {
		deps.CookieName = "STOREFRONT_SESSION"
	}

	r := &SessionRegistry{
		deps:     deps,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.janitor()
	return r
}

// Middleware resolves the visitor session from the cookie (minting a new one
// when absent) and attaches it to the request context.
func (r *SessionRegistry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		id := ""
		if cookie, err := req.Cookie(r.deps.CookieName); err == nil {
			id = sanitizeSessionID(cookie.Value)
		}
		if id == "" {
			id = ulid.Make().String()
			http.SetCookie(w, &http.Cookie{
				Name:     r.deps.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		session := r.Acquire(id)
		ctx := context.WithValue(req.Context(), sessionContextKey, session)
		ctx = requestctx.WithSessionID(ctx, id)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// Acquire returns the session for id, creating and rehydrating it on first use.
func (r *SessionRegistry) Acquire(id string) *Session {
	now := r.deps.Clock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		session.touch(now)
		return session
	}

	logger := r.deps.Logger.With(zap.String("session_id", id))
	persistence := cart.NewPersistence(r.deps.KV, id, logger)
	store := cart.NewStore(r.deps.Limits,
		cart.WithRestoredItems(persistence.Load()),
		cart.WithHook(persistence.Hook()),
		cart.WithHook(cart.LoggingHook(logger)),
	)
	drafts := checkout.NewDraftStore(r.deps.KV, id, logger,
		checkout.WithDraftTTL(r.deps.DraftTTL),
		checkout.WithDraftDebounce(r.deps.DraftDebounce),
	)

	session := &Session{
		ID:         id,
		Cart:       store,
		Items:      r.deps.Catalog.NewItemsPaginator(),
		Drafts:     drafts,
		Submit:     checkout.NewSubmitter(r.deps.Orders, store, drafts, logger),
		categoryID: catalog.AllCategoryID,
		lastSeen:   now,
	}
	r.sessions[id] = session
	return session
}

// Close stops the janitor and disposes every live session.
func (r *SessionRegistry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.stop)
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	<-r.done
	for _, session := range sessions {
		session.dispose()
	}
}

func (r *SessionRegistry) janitor() {
	defer close(r.done)
	interval := r.deps.IdleTTL / 4
	if interval <= 0 || interval > defaultCleanupInterval {
		interval = defaultCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *SessionRegistry) sweep() {
	now := r.deps.Clock()

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.idleSince(now) > r.deps.IdleTTL {
			delete(r.sessions, id)
			expired = append(expired, session)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		session.dispose()
		r.deps.Logger.Debug("session disposed", zap.String("session_id", session.ID))
	}
}

// SessionFromContext extracts the visitor session attached by Middleware.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*Session)
	return session, ok && session != nil
}

func sanitizeSessionID(value string) string {
	if len(value) == 0 || len(value) > 64 {
		return ""
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return ""
		}
	}
	return value
}
