package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/bosanoga/storefront/internal/apiclient"
	"github.com/bosanoga/storefront/internal/cart"
	"github.com/bosanoga/storefront/internal/catalog"
	"github.com/bosanoga/storefront/internal/checkout"
	"github.com/bosanoga/storefront/internal/platform/kvstore"
)

const testPerPage = 6

// shopBackend fakes the upstream shop API: a fixed catalogue with offset
// pagination, category and search filters, and an order endpoint.
type shopBackend struct {
	mu          sync.Mutex
	items       []catalog.Product
	categories  []catalog.Category
	orderStatus int
	orderBody   string
	orders      []checkout.OrderRequest
	itemCalls   int
}

func newShopBackend(total int) *shopBackend {
	items := make([]catalog.Product, 0, total)
	for i := 0; i < total; i++ {
		items = append(items, catalog.Product{
			ID:       int64(i + 1),
			Category: int64(i%2 + 1),
			Title:    "item-" + strconv.Itoa(i+1),
			Price:    int64((i + 1) * 100),
			Images:   []string{"/img/" + strconv.Itoa(i+1) + ".jpg"},
		})
	}
	return &shopBackend{
		items: items,
		categories: []catalog.Category{
			{ID: 1, Title: "Rings"},
			{ID: 2, Title: "Chains"},
		},
	}
}

func (b *shopBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		categories := append([]catalog.Category(nil), b.categories...)
		b.mu.Unlock()
		b.writeJSON(w, categories)
	})
	mux.HandleFunc("/api/top-sales", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		top := b.items[:min(3, len(b.items))]
		b.mu.Unlock()
		b.writeJSON(w, top)
	})
	mux.HandleFunc("/api/items/", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/items/"), 10, 64)
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		for _, item := range b.items {
			if item.ID == id {
				b.writeJSON(w, item)
				return
			}
		}
		http.Error(w, "item not found", http.StatusNotFound)
	})
	mux.HandleFunc("/api/items", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.itemCalls++
		matched := make([]catalog.Product, 0, len(b.items))
		categoryID, _ := strconv.ParseInt(r.URL.Query().Get("categoryId"), 10, 64)
		query := strings.ToLower(r.URL.Query().Get("q"))
		for _, item := range b.items {
			if categoryID != 0 && item.Category != categoryID {
				continue
			}
			if query != "" && !strings.Contains(strings.ToLower(item.Title), query) {
				continue
			}
			matched = append(matched, item)
		}
		b.mu.Unlock()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		if offset < 0 || offset > len(matched) {
			offset = len(matched)
		}
		end := offset + testPerPage
		if end > len(matched) {
			end = len(matched)
		}
		b.writeJSON(w, matched[offset:end])
	})
	mux.HandleFunc("/api/order", func(w http.ResponseWriter, r *http.Request) {
		var req checkout.OrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.orders = append(b.orders, req)
		status := b.orderStatus
		body := b.orderBody
		b.mu.Unlock()
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
	return mux
}

func (b *shopBackend) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func (b *shopBackend) addCategory(c catalog.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories = append(b.categories, c)
}

func (b *shopBackend) setSizes(id int64, sizes []catalog.ProductSize) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].ID == id {
			b.items[i].Sizes = sizes
			return
		}
	}
}

func (b *shopBackend) itemRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.itemCalls
}

func (b *shopBackend) orderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

type testEnv struct {
	backend  *shopBackend
	upstream *httptest.Server
	registry *SessionRegistry
	server   *httptest.Server
	client   *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newShopBackend(15)
	upstream := httptest.NewServer(backend.handler())
	t.Cleanup(upstream.Close)

	kv, err := kvstore.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open kv store: %v", err)
	}

	api := apiclient.NewClient(upstream.URL)
	registry := NewSessionRegistry(SessionRegistryDeps{
		KV:            kv,
		Catalog:       catalog.NewClient(api, testPerPage, nil),
		Orders:        checkout.NewClient(api),
		Limits:        cart.Limits{MinCount: 1, MaxCount: 10},
		DraftDebounce: 0, // write drafts immediately in tests
	})
	t.Cleanup(registry.Close)

	catalogHandlers := NewCatalogHandlers(catalog.NewClient(api, testPerPage, nil))
	router := NewRouter(
		WithMiddleware(registry.Middleware),
		WithCatalogRoutes(catalogHandlers.Routes),
		WithCartRoutes(NewCartHandlers().Routes),
		WithCheckoutRoutes(NewCheckoutHandlers().Routes),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}

	return &testEnv{
		backend:  backend,
		upstream: upstream,
		registry: registry,
		server:   server,
		client:   &http.Client{Jar: jar},
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode response %s: %v", data, err)
	}
	return out
}

func requireStatus(t *testing.T, resp *http.Response, body []byte, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d: %s", want, resp.StatusCode, body)
	}
}

func addCartItem(t *testing.T, env *testEnv, id int64, size string, price int64, count int) {
	t.Helper()
	payload := fmt.Sprintf(`{"id":%d,"title":"item-%d","size":%q,"price":%d,"count":%d}`, id, id, size, price, count)
	resp, body := env.do(t, http.MethodPost, "/api/v1/cart/items", payload)
	requireStatus(t, resp, body, http.StatusOK)
}
