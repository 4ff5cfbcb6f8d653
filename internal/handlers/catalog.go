package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/bosanoga/storefront/internal/apiclient"
	"github.com/bosanoga/storefront/internal/catalog"
	"github.com/bosanoga/storefront/internal/listing"
	"github.com/bosanoga/storefront/internal/platform/cache"
	"github.com/bosanoga/storefront/internal/platform/httpx"
)

const (
	categoriesCacheKey = "categories"
	topSalesCacheKey   = "top-sales"
	catalogCacheTTL    = 5 * time.Minute
)

// CatalogHandlers expose the paginated catalog listing and its sibling
// collections to the storefront UI.
type CatalogHandlers struct {
	catalog    *catalog.Client
	categories *cache.TTL[[]catalog.Category]
	topSales   *cache.TTL[[]catalog.Product]
}

// NewCatalogHandlers constructs the catalog endpoint group.
func NewCatalogHandlers(client *catalog.Client) *CatalogHandlers {
	return &CatalogHandlers{
		catalog:    client,
		categories: cache.NewTTL[[]catalog.Category](catalogCacheTTL),
		topSales:   cache.NewTTL[[]catalog.Product](catalogCacheTTL),
	}
}

// Routes wires the catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCatalog)
	r.Post("/more", h.loadMore)
	r.Get("/top-sales", h.getTopSales)
	r.Get("/items/{itemID}", h.getProduct)
}

// listingView is the JSON shape of a listing snapshot.
type listingView struct {
	Items          []catalog.Product `json:"items"`
	Offset         int               `json:"offset"`
	HasMore        bool              `json:"hasMore"`
	LoadingInitial bool              `json:"loadingInitial"`
	LoadingMore    bool              `json:"loadingMore"`
	Error          string            `json:"error,omitempty"`
}

type catalogResponse struct {
	listingView
	Categories       []catalog.Category `json:"categories"`
	ActiveCategoryID int64              `json:"activeCategoryId"`
	Query            string             `json:"query,omitempty"`
}

// getCatalog serves the catalog page view: the first page of items for the
// requested filter plus the category list, fetched concurrently. Repeating
// the current filter returns the accumulated listing without a refetch.
func (h *CatalogHandlers) getCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	categoryID, err := parseCategoryID(r.URL.Query().Get("categoryId"))
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_category", "categoryId must be an integer", http.StatusBadRequest))
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	prevCategory, prevQuery, started := session.Selection()
	filterChanged := !started || prevCategory != categoryID || prevQuery != query

	group, groupCtx := errgroup.WithContext(ctx)

	var categories []catalog.Category
	group.Go(func() error {
		var err error
		categories, err = h.loadCategories(groupCtx, categoryID)
		return err
	})

	if filterChanged {
		group.Go(func() error {
			session.Items.Reset()
			session.SetSelection(categoryID, query)
			return session.Items.Refetch(groupCtx, catalog.ListingParams(categoryID, query), true, 0)
		})
	}

	if err := group.Wait(); err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}

	writeCatalogResponse(w, session, categories, categoryID, query)
}

// loadMore appends the next page for the visitor's current filter. An
// exhausted listing is a no-op that simply echoes the current state.
func (h *CatalogHandlers) loadMore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	categoryID, query, started := session.Selection()
	if !started {
		httpx.WriteError(ctx, w, httpx.NewError("listing_not_started", "load the catalog before requesting more", http.StatusConflict))
		return
	}

	if err := session.Items.LoadMore(ctx, catalog.ListingParams(categoryID, query)); err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}

	categories, _ := h.categories.Get(categoriesCacheKey)
	writeCatalogResponse(w, session, categories, categoryID, query)
}

func (h *CatalogHandlers) getTopSales(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if products, ok := h.topSales.Get(topSalesCacheKey); ok {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": products})
		return
	}

	products, err := h.catalog.TopSales(ctx)
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}
	h.topSales.Set(topSalesCacheKey, products)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": products})
}

// productDetailResponse extends the upstream product shape with the sizes a
// visitor can actually order.
type productDetailResponse struct {
	catalog.Product
	OrderableSizes []catalog.ProductSize `json:"orderableSizes"`
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_item_id", "item id must be a positive integer", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.ProductByID(ctx, id)
	if err != nil {
		writeUpstreamError(ctx, w, err)
		return
	}

	sizes := product.OrderableSizes()
	if sizes == nil {
		sizes = []catalog.ProductSize{}
	}
	httpx.WriteJSON(w, http.StatusOK, productDetailResponse{Product: product, OrderableSizes: sizes})
}

// loadCategories serves the category list through the TTL cache. A filter for
// a category the cached list does not know means the list is stale, so the
// entry is dropped and refetched instead of served.
func (h *CatalogHandlers) loadCategories(ctx context.Context, activeID int64) ([]catalog.Category, error) {
	if categories, ok := h.categories.Get(categoriesCacheKey); ok {
		if containsCategory(categories, activeID) {
			return categories, nil
		}
		h.categories.Invalidate(categoriesCacheKey)
	}
	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	h.categories.Set(categoriesCacheKey, categories)
	return categories, nil
}

func containsCategory(categories []catalog.Category, id int64) bool {
	if id == catalog.AllCategoryID {
		return true
	}
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func writeCatalogResponse(w http.ResponseWriter, session *Session, categories []catalog.Category, categoryID int64, query string) {
	snapshot := session.Items.Snapshot()
	httpx.WriteJSON(w, http.StatusOK, catalogResponse{
		listingView:      buildListingView(snapshot),
		Categories:       categories,
		ActiveCategoryID: categoryID,
		Query:            query,
	})
}

func buildListingView(snapshot listing.State[catalog.Product]) listingView {
	view := listingView{
		Items:          snapshot.Items,
		Offset:         snapshot.Offset,
		HasMore:        snapshot.HasMore,
		LoadingInitial: snapshot.LoadingInitial,
		LoadingMore:    snapshot.LoadingMore,
	}
	if view.Items == nil {
		view.Items = []catalog.Product{}
	}
	if snapshot.Err != nil {
		view.Error = snapshot.Err.Error()
	}
	return view
}

func parseCategoryID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return catalog.AllCategoryID, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func writeSessionMissing(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("session_missing", "visitor session is unavailable", http.StatusInternalServerError))
}

// writeUpstreamError maps apiclient failures onto the storefront's error
// envelope: upstream statuses become 502 with the server-provided message,
// timeouts become 504, network failures get their own code, and cancellations
// mean the visitor went away.
func writeUpstreamError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case apiclient.IsCancelled(err):
		// The client disconnected; nobody is listening for the body.
		w.WriteHeader(statusClientClosedRequest)
	case apiclient.IsTimeout(err):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_timeout", err.Error(), http.StatusGatewayTimeout))
	case apiclient.IsNetwork(err):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unreachable", err.Error(), http.StatusBadGateway))
	default:
		if status, ok := apiclient.StatusOf(err); ok && status == http.StatusNotFound {
			httpx.WriteError(ctx, w, httpx.NewError("not_found", err.Error(), http.StatusNotFound))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("upstream_error", err.Error(), http.StatusBadGateway))
	}
}

// statusClientClosedRequest is the conventional nginx status for a request the
// client abandoned before the response was ready.
const statusClientClosedRequest = 499
