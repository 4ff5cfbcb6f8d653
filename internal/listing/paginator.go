// Package listing coordinates paginated collection fetches against the shop
// API: one Paginator per logical listing, accumulating pages into a flat item
// list while guaranteeing that at most one fetch is live per listing and that
// a superseded fetch never contributes to state.
package listing

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/apiclient"
)

// DefaultPerPage is the client-side page size expectation. It is never sent to
// the server; it only calibrates the has-more inference.
const DefaultPerPage = 6

// Params carries listing filter values (category, search query, ...). Empty
// values are omitted from the query string, as is any "offset" entry: the
// paginator owns offset handling itself.
type Params map[string]string

// State is an immutable snapshot of a listing.
type State[T any] struct {
	Items          []T
	Offset         int
	HasMore        bool
	LoadingInitial bool
	LoadingMore    bool
	Err            error
}

// Option customises a paginator during construction.
type Option func(*settings)

type settings struct {
	perPage int
	params  Params
	logger  *zap.Logger
}

// WithPerPage overrides the expected page size.
func WithPerPage(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.perPage = n
		}
	}
}

// WithParams sets the baseline parameters restored by Reset.
func WithParams(params Params) Option {
	return func(s *settings) {
		s.params = cloneParams(params)
	}
}

// WithLogger attaches a logger for fetch diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Paginator manages the fetch sequence for a single listing. All methods are
// safe for concurrent use; a newer Refetch or LoadMore always supersedes an
// older in-flight fetch via cancellation.
type Paginator[T any] struct {
	client   *apiclient.Client
	endpoint string
	perPage  int
	initial  Params
	logger   *zap.Logger

	mu     sync.Mutex
	params Params
	state  State[T]
	cancel context.CancelFunc
	gen    uint64
}

// NewPaginator constructs a paginator for the collection endpoint.
func NewPaginator[T any](client *apiclient.Client, endpoint string, opts ...Option) *Paginator[T] {
	cfg := settings{perPage: DefaultPerPage, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Paginator[T]{
		client:   client,
		endpoint: endpoint,
		perPage:  cfg.perPage,
		initial:  cloneParams(cfg.params),
		logger:   cfg.logger,
		params:   cloneParams(cfg.params),
		state:    State[T]{HasMore: true},
	}
}

// Snapshot returns a copy of the current listing state.
func (p *Paginator[T]) Snapshot() State[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := p.state
	snapshot.Items = append([]T(nil), p.state.Items...)
	return snapshot
}

// Refetch cancels any in-flight fetch for this listing and issues a new GET.
// When isInitial is true the result replaces the item list and the merged
// parameters become the new baseline; otherwise the result is appended at the
// given offset.
func (p *Paginator[T]) Refetch(ctx context.Context, params Params, isInitial bool, offset int) error {
	return p.fetch(ctx, params, isInitial, offset)
}

// LoadMore fetches the next page. It is a no-op once the listing is exhausted;
// an in-flight load-more is superseded, so only the newest call's results are
// ever applied.
func (p *Paginator[T]) LoadMore(ctx context.Context, params Params) error {
	p.mu.Lock()
	if !p.state.HasMore {
		p.mu.Unlock()
		return nil
	}
	nextOffset := p.state.Offset + p.perPage
	p.mu.Unlock()
	return p.fetch(ctx, params, false, nextOffset)
}

// Reset cancels any in-flight fetch and restores the empty initial state,
// including the configured baseline parameters.
func (p *Paginator[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supersedeLocked()
	p.params = cloneParams(p.initial)
	p.state = State[T]{HasMore: true}
}

// Dispose cancels any in-flight fetch and bars stale results from ever being
// applied. The paginator remains usable; Dispose is the owner's teardown hook.
func (p *Paginator[T]) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.supersedeLocked()
	p.state.LoadingInitial = false
	p.state.LoadingMore = false
}

func (p *Paginator[T]) supersedeLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Paginator[T]) fetch(ctx context.Context, params Params, isInitial bool, requestOffset int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	p.supersedeLocked()
	gen := p.gen
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.cancel = cancel

	merged := mergeParams(p.params, params)
	if isInitial {
		p.params = merged
	}

	p.state.LoadingInitial = isInitial
	p.state.LoadingMore = !isInitial
	p.state.Err = nil
	p.mu.Unlock()

	query := buildQuery(merged, requestOffset)
	p.logger.Debug("listing fetch",
		zap.String("endpoint", p.endpoint),
		zap.Int("offset", requestOffset),
		zap.Bool("initial", isInitial),
	)

	var page []T
	err := p.client.GetJSON(fetchCtx, p.endpoint, query, &page)

	hasMore := false
	if err == nil {
		hasMore = p.probeHasMore(fetchCtx, merged, requestOffset, len(page))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.gen {
		// Superseded while in flight: a newer fetch owns the state now.
		return nil
	}
	p.cancel = nil
	p.state.LoadingInitial = false
	p.state.LoadingMore = false

	if err != nil {
		if apiclient.IsCancelled(err) {
			// The caller tore the fetch down; nothing to surface.
			return nil
		}
		p.state.Err = err
		if isInitial {
			p.state.Items = nil
		}
		return err
	}

	if isInitial {
		p.state.Items = page
		p.state.Offset = 0
	} else {
		p.state.Items = append(p.state.Items, page...)
		p.state.Offset = requestOffset
	}
	p.state.HasMore = hasMore
	return nil
}

// probeHasMore infers whether another page exists. A short page settles it; an
// over-full page (unexpected, but tolerated) means more; an exactly full page
// is disambiguated with a lookahead request at the next offset. Lookahead
// failures report false so the caller never offers a dead load-more.
func (p *Paginator[T]) probeHasMore(ctx context.Context, params Params, requestOffset, pageLen int) bool {
	switch {
	case pageLen < p.perPage:
		return false
	case pageLen > p.perPage:
		return true
	}

	query := buildQuery(params, requestOffset+p.perPage)
	var lookahead []T
	if err := p.client.GetJSON(ctx, p.endpoint, query, &lookahead); err != nil {
		if !apiclient.IsCancelled(err) {
			p.logger.Debug("lookahead probe failed", zap.String("endpoint", p.endpoint), zap.Error(err))
		}
		return false
	}
	return len(lookahead) > 0
}

func buildQuery(params Params, offset int) url.Values {
	query := url.Values{}
	for key, value := range params {
		if key == "offset" || strings.TrimSpace(value) == "" {
			continue
		}
		query.Set(key, value)
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	return query
}

func mergeParams(base, overlay Params) Params {
	merged := cloneParams(base)
	if merged == nil {
		merged = Params{}
	}
	for key, value := range overlay {
		merged[key] = value
	}
	return merged
}

func cloneParams(params Params) Params {
	if params == nil {
		return nil
	}
	clone := make(Params, len(params))
	for key, value := range params {
		clone[key] = value
	}
	return clone
}
