package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/booster-sim/internal/api/response"
	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/facade"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"insufficient funds", &facade.AppError{Message: "Not enough balance", Err: economy.ErrInsufficientFunds}, http.StatusPaymentRequired},
		{"booster not found", fmt.Errorf("%w: b1", economy.ErrBoosterNotFound), http.StatusNotFound},
		{"unknown set", &facade.AppError{Message: "nope", Err: facade.ErrUnknownSet}, http.StatusNotFound},
		{"pool unavailable", &facade.AppError{Message: "later", Err: facade.ErrPoolUnavailable}, http.StatusServiceUnavailable},
		{"empty pack", errors.Join(facade.ErrPoolUnavailable, economy.ErrEmptyPack), http.StatusServiceUnavailable},
		{"refresh disabled", facade.ErrRefreshDisabled, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"cancelled", context.Canceled, http.StatusServiceUnavailable},
		{"app error", &facade.AppError{Message: "Unknown chart", Err: errors.New("x")}, http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, http.StatusText(tt.status), body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		query   url.Values
		want    economy.CollectionFilter
		wantErr bool
	}{
		{
			name:  "defaults",
			query: url.Values{},
			want:  economy.CollectionFilter{Sort: economy.SortByName},
		},
		{
			name:  "all params",
			query: url.Values{"rarity": {"Mythic"}, "set": {"abc"}, "q": {"bolt"}, "sort": {"quantity"}, "hideStaged": {"true"}},
			want: economy.CollectionFilter{
				Rarity:     cards.Mythic,
				SetCode:    "abc",
				Search:     "bolt",
				Sort:       economy.SortByQuantity,
				HideStaged: true,
			},
		},
		{
			name:  "all rarities",
			query: url.Values{"rarity": {"all"}},
			want:  economy.CollectionFilter{Sort: economy.SortByName},
		},
		{name: "bad rarity", query: url.Values{"rarity": {"legendary"}}, wantErr: true},
		{name: "bad bool", query: url.Values{"hideStaged": {"maybe"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/collection?"+tt.query.Encode(), nil)
			got, err := parseFilter(r)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
