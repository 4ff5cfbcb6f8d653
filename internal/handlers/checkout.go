package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bosanoga/storefront/internal/checkout"
	"github.com/bosanoga/storefront/internal/platform/httpx"
)

// CheckoutHandlers expose order submission and the persisted form draft.
type CheckoutHandlers struct{}

// NewCheckoutHandlers constructs the checkout endpoint group.
func NewCheckoutHandlers() *CheckoutHandlers {
	return &CheckoutHandlers{}
}

// Routes wires the order endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitOrder)
	r.Get("/draft", h.getDraft)
	r.Put("/draft", h.saveDraft)
	r.Delete("/draft", h.clearDraft)
}

type submitOrderRequest struct {
	Owner checkout.Owner `json:"owner"`
}

type draftRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// submitOrder drives the linear submission flow. On success the cleared cart
// is returned so the UI can reset in one round trip; on failure the cart is
// untouched and the error message is surfaced.
func (h *CheckoutHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	var req submitOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	if err := session.Submit.Submit(ctx, req.Owner); err != nil {
		switch {
		case errors.Is(err, checkout.ErrInvalidOwner):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_owner", err.Error(), http.StatusBadRequest))
		case errors.Is(err, checkout.ErrEmptyCart):
			httpx.WriteError(ctx, w, httpx.NewError("empty_cart", err.Error(), http.StatusBadRequest))
		case errors.Is(err, checkout.ErrSubmitInProgress):
			httpx.WriteError(ctx, w, httpx.NewError("submit_in_progress", err.Error(), http.StatusConflict))
		default:
			writeUpstreamError(ctx, w, err)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"cart":   buildCartView(session.Cart.State()),
	})
}

func (h *CheckoutHandlers) getDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	owner, found := session.Drafts.Load()
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, owner)
}

// saveDraft schedules a debounced write; 202 reflects that the write is
// deferred, not lost.
func (h *CheckoutHandlers) saveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	var req draftRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	session.Drafts.Save(checkout.Owner{Phone: req.Phone, Address: req.Address})
	w.WriteHeader(http.StatusAccepted)
}

func (h *CheckoutHandlers) clearDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, ok := SessionFromContext(ctx)
	if !ok {
		writeSessionMissing(ctx, w)
		return
	}

	session.Drafts.Clear()
	w.WriteHeader(http.StatusNoContent)
}
