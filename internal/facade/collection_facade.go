package facade

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/charts"
	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/export"
)

// Chart kinds.
const (
	ChartRarity = "rarity"
	ChartSets   = "sets"
)

// CollectionFacade handles the collection and the sell cart.
type CollectionFacade struct {
	services *Services
}

// NewCollectionFacade creates a new CollectionFacade with the given services.
func NewCollectionFacade(services *Services) *CollectionFacade {
	return &CollectionFacade{services: services}
}

// SellCartView is the sell cart with its payout total.
type SellCartView struct {
	Lines []economy.SellLine `json:"lines"`
	Total decimal.Decimal    `json:"total"`
}

// Collection returns owned cards matching filter.
func (c *CollectionFacade) Collection(filter economy.CollectionFilter) []economy.CollectionItem {
	return c.services.Ledger.Collection(filter)
}

// Stats returns collection totals.
func (c *CollectionFacade) Stats() economy.CollectionStats {
	return c.services.Ledger.Stats()
}

// SetCompletion returns per-set progress.
func (c *CollectionFacade) SetCompletion() []economy.SetProgress {
	return c.services.Ledger.SetCompletion()
}

// Chart renders the named chart as HTML into w.
func (c *CollectionFacade) Chart(kind string, w io.Writer) error {
	switch kind {
	case ChartRarity, "":
		return charts.RenderRarityChart(w, c.Stats())
	case ChartSets:
		return charts.RenderSetCompletionChart(w, c.SetCompletion())
	default:
		return appError(fmt.Sprintf("Unknown chart %q", kind), fmt.Errorf("unknown chart kind %q", kind))
	}
}

// Export writes the cards matching filter to w in the given format.
func (c *CollectionFacade) Export(w io.Writer, format export.Format, filter economy.CollectionFilter) error {
	rows := export.CollectionRows(c.Collection(filter))
	if err := export.Write(w, format, rows, false); err != nil {
		return fmt.Errorf("export collection: %w", err)
	}
	return nil
}

// SellCart returns the sell cart view.
func (c *CollectionFacade) SellCart() SellCartView {
	lines, total := c.services.Ledger.SellCart()
	return SellCartView{Lines: lines, Total: total}
}

// AddToSellCart stages one more copy of the card. The bool reports whether
// anything changed.
func (c *CollectionFacade) AddToSellCart(cardID string) (SellCartView, bool) {
	_, changed := c.services.Ledger.AddToSellCart(cardID)
	return c.SellCart(), changed
}

// UpdateSellCartQuantity sets a staged quantity. The bool reports whether
// anything changed.
func (c *CollectionFacade) UpdateSellCartQuantity(cardID string, qty int) (SellCartView, bool) {
	_, changed := c.services.Ledger.UpdateSellCartQuantity(cardID, qty)
	return c.SellCart(), changed
}

// RemoveFromSellCart unstages a card.
func (c *CollectionFacade) RemoveFromSellCart(cardID string) SellCartView {
	c.services.Ledger.RemoveFromSellCart(cardID)
	return c.SellCart()
}

// ClearSellCart unstages everything.
func (c *CollectionFacade) ClearSellCart() SellCartView {
	c.services.Ledger.ClearSellCart()
	return c.SellCart()
}

// Sell sells everything staged.
func (c *CollectionFacade) Sell() economy.SaleReceipt {
	return c.services.Ledger.SellCartItems()
}
