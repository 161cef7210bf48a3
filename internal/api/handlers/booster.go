package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/booster-sim/internal/api/response"
	"github.com/ramonehamilton/booster-sim/internal/facade"
)

// BoosterHandler handles unopened booster requests.
type BoosterHandler struct {
	facade *facade.BoosterFacade
}

// NewBoosterHandler creates a new BoosterHandler.
func NewBoosterHandler(facade *facade.BoosterFacade) *BoosterHandler {
	return &BoosterHandler{facade: facade}
}

// GetBoosters lists unopened boosters, grouped by set with ?grouped=true.
func (h *BoosterHandler) GetBoosters(w http.ResponseWriter, r *http.Request) {
	if grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped")); grouped {
		response.Success(w, h.facade.Grouped())
		return
	}
	response.Success(w, h.facade.List())
}

// OpenBooster opens one booster.
func (h *BoosterHandler) OpenBooster(w http.ResponseWriter, r *http.Request) {
	res, err := h.facade.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}

// OpenAll opens every booster. Boosters that could not be opened are listed
// in the result rather than failing the request.
func (h *BoosterHandler) OpenAll(w http.ResponseWriter, r *http.Request) {
	res, err := h.facade.OpenAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}
