package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/booster-sim/internal/api/response"
	"github.com/ramonehamilton/booster-sim/internal/facade"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
)

// ShopHandler handles catalog, wallet and cart requests.
type ShopHandler struct {
	facade *facade.ShopFacade
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(facade *facade.ShopFacade) *ShopHandler {
	return &ShopHandler{facade: facade}
}

// GetSets returns the purchasable sets.
func (h *ShopHandler) GetSets(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.facade.Sets(r.Context()))
}

// GetSetCards returns a set's cards for browsing.
func (h *ShopHandler) GetSetCards(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	list, err := h.facade.SetCards(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, list)
}

// GetOdds returns the pack roll tables.
func (h *ShopHandler) GetOdds(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, booster.GetOdds())
}

// GetWallet returns the balance and pack price.
func (h *ShopHandler) GetWallet(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.Wallet())
}

// GetCart returns the cart.
func (h *ShopHandler) GetCart(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.Cart())
}

// AddToCartRequest adds one booster of a set.
type AddToCartRequest struct {
	SetCode string `json:"setCode"`
}

// AddToCart adds one booster to the cart.
func (h *ShopHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if strings.TrimSpace(req.SetCode) == "" {
		response.BadRequest(w, errors.New("setCode is required"))
		return
	}

	view, err := h.facade.AddToCart(r.Context(), req.SetCode)
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, view)
}

// UpdateCartQuantity sets a cart line's quantity. Zero removes the line.
func (h *ShopHandler) UpdateCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if err := req.validate(); err != nil {
		response.BadRequest(w, err)
		return
	}
	response.Success(w, h.facade.UpdateCartQuantity(chi.URLParam(r, "code"), *req.Quantity))
}

// RemoveFromCart drops a cart line.
func (h *ShopHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.facade.RemoveFromCart(chi.URLParam(r, "code")))
}

// Checkout buys the cart.
func (h *ShopHandler) Checkout(w http.ResponseWriter, _ *http.Request) {
	receipt, err := h.facade.Checkout()
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, receipt)
}
