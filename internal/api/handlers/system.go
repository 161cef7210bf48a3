package handlers

import (
	"net/http"

	"github.com/ramonehamilton/booster-sim/internal/api/response"
	"github.com/ramonehamilton/booster-sim/internal/facade"
	"github.com/ramonehamilton/booster-sim/internal/version"
)

// SystemHandler handles health, reset and maintenance requests.
type SystemHandler struct {
	facade *facade.SystemFacade
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(facade *facade.SystemFacade) *SystemHandler {
	return &SystemHandler{facade: facade}
}

// GetHealth returns liveness and background job status.
func (h *SystemHandler) GetHealth(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, h.facade.Health())
}

// GetVersion returns the application version.
func (h *SystemHandler) GetVersion(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"version": version.Version,
		"service": "booster-sim-api",
	})
}

// GetState returns the whole ledger state.
func (h *SystemHandler) GetState(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.State())
}

// GetMetrics returns open and pool fetch statistics.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.Metrics())
}

// Reset restores the starting balance and empties everything else.
func (h *SystemHandler) Reset(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, h.facade.Reset())
}

// RefreshCatalog reloads the set catalog now.
func (h *SystemHandler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	res, err := h.facade.RefreshCatalog(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	response.Success(w, res)
}
