// Package handlers translates HTTP requests into facade calls.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/api/response"
	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/facade"
)

var errInvalidBody = errors.New("invalid request body")

// writeError maps a facade error to a status code.
func writeError(w http.ResponseWriter, err error) {
	var appErr *facade.AppError
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		response.PaymentRequired(w, err)
	case errors.Is(err, economy.ErrBoosterNotFound), errors.Is(err, facade.ErrUnknownSet):
		response.NotFound(w, err)
	case errors.Is(err, facade.ErrPoolUnavailable), errors.Is(err, facade.ErrRefreshDisabled):
		response.ServiceUnavailable(w, err)
	case errors.Is(err, context.DeadlineExceeded):
		response.GatewayTimeout(w, errors.New("request timed out"))
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		response.ServiceUnavailable(w, errors.New("request cancelled"))
	case errors.As(err, &appErr):
		response.BadRequest(w, err)
	default:
		log.WithError(err).Error("[API] Unhandled error")
		response.InternalError(w, err)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}

// QuantityRequest sets a line quantity.
type QuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (q QuantityRequest) validate() error {
	if q.Quantity == nil {
		return errors.New("quantity is required")
	}
	return nil
}
