package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bosanoga/storefront/internal/cart"
	"github.com/bosanoga/storefront/internal/platform/httpx"
)

const maxCartBodySize = 16 * 1024

// CartHandlers expose the visitor's cart over JSON.
type CartHandlers struct{}

// NewCartHandlers constructs the cart endpoint group.
func NewCartHandlers() *CartHandlers {
	return &CartHandlers{}
}

// Routes wires the cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Post("/items", h.addItem)
	r.Patch("/items", h.updateQuantity)
	r.Delete("/items", h.removeItem)
}

type cartView struct {
	Items       []cart.Item `json:"items"`
	TotalAmount int64       `json:"totalAmount"`
	TotalCount  int         `json:"totalCount"`
	IsEmpty     bool        `json:"isEmpty"`
}

func buildCartView(state cart.State) cartView {
	view := cartView{
		Items:       state.Items,
		TotalAmount: state.TotalAmount,
		TotalCount:  state.TotalCount,
		IsEmpty:     state.IsEmpty(),
	}
	if view.Items == nil {
		view.Items = []cart.Item{}
	}
	return view
}

type addItemRequest struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Size  string `json:"size"`
	Price int64  `json:"price"`
	Count int    `json:"count"`
	Image string `json:"image"`
}

type lineKeyRequest struct {
	ID    int64  `json:"id"`
	Size  string `json:"size"`
	Count int    `json:"count"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildCartView(session.Cart.State()))
}

func (h *CartHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	var req addItemRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}
	if req.ID <= 0 || strings.TrimSpace(req.Size) == "" || req.Price < 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_cart_item", "id, size, and a non-negative price are required", http.StatusBadRequest))
		return
	}

	state := session.Cart.Dispatch(cart.AddItem{
		ID:    req.ID,
		Title: strings.TrimSpace(req.Title),
		Size:  strings.TrimSpace(req.Size),
		Price: req.Price,
		Count: req.Count,
		Image: strings.TrimSpace(req.Image),
	})
	httpx.WriteJSON(w, http.StatusOK, buildCartView(state))
}

// updateQuantity applies the clamp-or-ignore policy: an out-of-range count or
// unknown line leaves the cart unchanged and still responds 200 with the
// current state.
func (h *CartHandlers) updateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	var req lineKeyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	state := session.Cart.Dispatch(cart.UpdateQuantity{ID: req.ID, Size: req.Size, Count: req.Count})
	httpx.WriteJSON(w, http.StatusOK, buildCartView(state))
}

func (h *CartHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	var req lineKeyRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	state := session.Cart.Dispatch(cart.RemoveItem{ID: req.ID, Size: req.Size})
	httpx.WriteJSON(w, http.StatusOK, buildCartView(state))
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	state := session.Cart.Dispatch(cart.Clear{})
	httpx.WriteJSON(w, http.StatusOK, buildCartView(state))
}

var errEmptyBody = errors.New("request body is required")

func decodeJSONBody(r *http.Request, out any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxCartBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	httpx.WriteError(ctx, w, httpx.NewError("invalid_body", err.Error(), http.StatusBadRequest))
}
