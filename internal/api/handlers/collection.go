package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/booster-sim/internal/api/response"
	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/export"
	"github.com/ramonehamilton/booster-sim/internal/facade"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// CollectionHandler handles collection and sell cart requests.
type CollectionHandler struct {
	facade *facade.CollectionFacade
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(facade *facade.CollectionFacade) *CollectionHandler {
	return &CollectionHandler{facade: facade}
}

// GetCollection returns owned cards. Query params: rarity, set, q, sort,
// hideStaged.
func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	response.Success(w, h.facade.Collection(filter))
}

func parseFilter(r *http.Request) (economy.CollectionFilter, error) {
	q := r.URL.Query()
	filter := economy.CollectionFilter{
		SetCode: q.Get("set"),
		Search:  q.Get("q"),
		Sort:    economy.ParseSortKey(q.Get("sort")),
	}

	if v := q.Get("rarity"); v != "" && v != "all" {
		rarity := cards.Rarity(strings.ToLower(v))
		if !rarity.Valid() {
			return filter, fmt.Errorf("unknown rarity %q", v)
		}
		filter.Rarity = rarity
	}
	if v := q.Get("hideStaged"); v != "" {
		hide, err := strconv.ParseBool(v)
		if err != nil {
			return filter, errors.New("hideStaged must be a boolean")
		}
		filter.HideStaged = hide
	}
	return filter, nil
}

// GetStats returns collection totals.
func (h *CollectionHandler) GetStats(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.Stats())
}

// GetSetCompletion returns per-set progress.
func (h *CollectionHandler) GetSetCompletion(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.SetCompletion())
}

// GetChart renders a chart page (?kind=rarity|sets).
func (h *CollectionHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.facade.Chart(r.URL.Query().Get("kind"), &buf); err != nil {
		writeError(w, err)
		return
	}
	response.HTML(w, buf.Bytes())
}

// ExportCollection downloads the filtered collection (?format=csv|json plus
// the GetCollection filters).
func (h *CollectionHandler) ExportCollection(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.BadRequest(w, err)
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.facade.Export(&buf, format, filter); err != nil {
		writeError(w, err)
		return
	}
	response.Attachment(w, format.ContentType(), export.GenerateFilename("collection", format), buf.Bytes())
}

// sellCartResult reports whether a sell cart request changed anything.
// Rejected changes still return 200 with the unchanged cart.
type sellCartResult struct {
	facade.SellCartView
	Changed bool `json:"changed"`
}

// GetSellCart returns the sell cart.
func (h *CollectionHandler) GetSellCart(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.SellCart())
}

// AddToSellCartRequest stages one copy of a card.
type AddToSellCartRequest struct {
	CardID string `json:"cardId"`
}

// AddToSellCart stages one more copy of a card.
func (h *CollectionHandler) AddToSellCart(w http.ResponseWriter, r *http.Request) {
	var req AddToSellCartRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if req.CardID == "" {
		response.BadRequest(w, errors.New("cardId is required"))
		return
	}

	view, changed := h.facade.AddToSellCart(req.CardID)
	response.Success(w, sellCartResult{SellCartView: view, Changed: changed})
}

// UpdateSellCartQuantity sets a staged quantity. Zero unstages the card.
func (h *CollectionHandler) UpdateSellCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if err := decode(r, &req); err != nil {
		response.BadRequest(w, err)
		return
	}
	if err := req.validate(); err != nil {
		response.BadRequest(w, err)
		return
	}

	view, changed := h.facade.UpdateSellCartQuantity(chi.URLParam(r, "id"), *req.Quantity)
	response.Success(w, sellCartResult{SellCartView: view, Changed: changed})
}

// RemoveFromSellCart unstages a card.
func (h *CollectionHandler) RemoveFromSellCart(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.facade.RemoveFromSellCart(chi.URLParam(r, "id")))
}

// ClearSellCart unstages everything.
func (h *CollectionHandler) ClearSellCart(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.ClearSellCart())
}

// Sell sells everything staged.
func (h *CollectionHandler) Sell(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.Sell())
}
