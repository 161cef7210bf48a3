// Package economy is the single authority over the player's balance,
// collection, purchase cart, unopened boosters and sell cart. Every mutation
// validates first and then commits in one step under the ledger lock.
package economy

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/ramonehamilton/booster-sim/internal/events"
	"github.com/ramonehamilton/booster-sim/internal/mtga/booster"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// Config holds the ledger's prices.
type Config struct {
	StartingBalance decimal.Decimal
	PackPrice       decimal.Decimal
}

// DefaultConfig returns a 50.00 starting balance and 5.00 packs.
func DefaultConfig() Config {
	return Config{
		StartingBalance: decimal.NewFromInt(50),
		PackPrice:       decimal.NewFromInt(5),
	}
}

// Ledger holds the economy state. It is safe for concurrent use.
// Events are dispatched while the lock is held so observers see changes in
// commit order; observers must not call back into the ledger.
type Ledger struct {
	mu       sync.Mutex
	state    State
	cfg      Config
	gen      *booster.Generator
	events   events.Dispatcher
	newToken func() string
}

// NewLedger creates a ledger in its default state. A nil dispatcher
// discards events and a nil generator uses the global random source.
func NewLedger(cfg Config, gen *booster.Generator, dispatcher events.Dispatcher) *Ledger {
	if gen == nil {
		gen = booster.NewGenerator(nil)
	}
	if dispatcher == nil {
		dispatcher = events.Nop{}
	}
	return &Ledger{
		state:    DefaultState(cfg.StartingBalance),
		cfg:      cfg,
		gen:      gen,
		events:   dispatcher,
		newToken: func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Config returns the ledger's prices.
func (l *Ledger) Config() Config {
	return l.cfg
}

// Restore replaces the state wholesale, e.g. from a snapshot. It does not
// emit an event.
func (l *Ledger) Restore(s State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s.Clone()
	return nil
}

// State returns a copy of the current state.
func (l *Ledger) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// Balance returns the current balance.
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balance
}

// commit must be called with l.mu held.
func (l *Ledger) commit(op string, next State) {
	l.state = next
	eventType := events.LedgerChanged
	if op == OpReset {
		eventType = events.LedgerReset
	}
	l.events.Dispatch(events.NewTypedEvent(eventType, Change{Op: op, State: next.Clone()}, context.Background()))
}

// AddToCart adds one pack of a set to the cart at the fixed pack price.
func (l *Ledger) AddToCart(set SetInfo) []CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.state.Clone()
	if i := findCartLine(next.Cart, set.Code); i >= 0 {
		next.Cart[i].Quantity++
	} else {
		next.Cart = append(next.Cart, CartLine{
			SetCode:   set.Code,
			SetName:   set.Name,
			Icon:      set.Icon,
			CardCount: set.CardCount,
			Quantity:  1,
			UnitPrice: l.cfg.PackPrice,
		})
	}

	l.commit(OpAddToCart, next)
	return append([]CartLine{}, next.Cart...)
}

// RemoveFromCart drops a set's line from the cart.
func (l *Ledger) RemoveFromCart(setCode string) []CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := findCartLine(l.state.Cart, setCode)
	if i < 0 {
		return append([]CartLine{}, l.state.Cart...)
	}

	next := l.state.Clone()
	next.Cart = append(next.Cart[:i], next.Cart[i+1:]...)
	l.commit(OpRemoveFromCart, next)
	return append([]CartLine{}, next.Cart...)
}

// UpdateCartQuantity sets a line's quantity. qty <= 0 removes the line.
func (l *Ledger) UpdateCartQuantity(setCode string, qty int) []CartLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := findCartLine(l.state.Cart, setCode)
	if i < 0 || l.state.Cart[i].Quantity == qty {
		return append([]CartLine{}, l.state.Cart...)
	}

	next := l.state.Clone()
	if qty <= 0 {
		next.Cart = append(next.Cart[:i], next.Cart[i+1:]...)
	} else {
		next.Cart[i].Quantity = qty
	}
	l.commit(OpUpdateCartQuantity, next)
	return append([]CartLine{}, next.Cart...)
}

// Cart returns the purchase cart and its total.
func (l *Ledger) Cart() ([]CartLine, decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]CartLine{}, l.state.Cart...), cartTotal(l.state.Cart)
}

// Checkout pays for the cart and turns every unit into an unopened booster.
// It fails with ErrInsufficientFunds, leaving everything untouched, when the
// balance does not cover the total. An empty cart is a no-op.
func (l *Ledger) Checkout() (CheckoutReceipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := cartTotal(l.state.Cart)
	if len(l.state.Cart) == 0 {
		return CheckoutReceipt{Total: total, Boosters: []Booster{}, Balance: l.state.Balance}, nil
	}
	if l.state.Balance.LessThan(total) {
		return CheckoutReceipt{}, fmt.Errorf("%w: cart costs %s, balance is %s", ErrInsufficientFunds, total.StringFixed(2), l.state.Balance.StringFixed(2))
	}

	token := l.newToken()
	bought := make([]Booster, 0)
	for _, line := range l.state.Cart {
		for i := 0; i < line.Quantity; i++ {
			bought = append(bought, Booster{
				ID:        fmt.Sprintf("%s-%s-%d", line.SetCode, token, len(bought)),
				SetCode:   line.SetCode,
				SetName:   line.SetName,
				Icon:      line.Icon,
				CardCount: line.CardCount,
			})
		}
	}

	next := l.state.Clone()
	next.Balance = next.Balance.Sub(total)
	next.Cart = []CartLine{}
	next.UnopenedBoosters = append(next.UnopenedBoosters, bought...)
	l.commit(OpCheckout, next)

	log.WithFields(log.Fields{
		"total":    total.StringFixed(2),
		"boosters": len(bought),
		"balance":  next.Balance.StringFixed(2),
	}).Info("[Ledger] Checkout complete")

	return CheckoutReceipt{Total: total, Boosters: bought, Balance: next.Balance}, nil
}

// Booster looks up an unopened booster.
func (l *Ledger) Booster(id string) (Booster, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := findBooster(l.state.UnopenedBoosters, id); i >= 0 {
		return l.state.UnopenedBoosters[i], true
	}
	return Booster{}, false
}

// Boosters returns the unopened boosters in purchase order.
func (l *Ledger) Boosters() []Booster {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Booster{}, l.state.UnopenedBoosters...)
}

// OpenBooster generates a pack from pool, credits the cards and removes the
// booster, all in one step. When the pack comes out empty the booster is kept
// and ErrEmptyPack is returned.
func (l *Ledger) OpenBooster(id string, pool cards.Pool) (OpenResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bi := findBooster(l.state.UnopenedBoosters, id)
	if bi < 0 {
		return OpenResult{}, fmt.Errorf("%w: %s", ErrBoosterNotFound, id)
	}
	b := l.state.UnopenedBoosters[bi]

	pack := l.gen.Generate(pool, b.Meta())
	if len(pack) == 0 {
		return OpenResult{}, fmt.Errorf("%w: booster %s (set %s)", ErrEmptyPack, id, b.SetCode)
	}

	next := l.state.Clone()
	index := make(map[string]int, len(next.Collection))
	for i, e := range next.Collection {
		index[e.Card.ID] = i
	}
	for _, c := range pack {
		if i, ok := index[c.ID]; ok {
			next.Collection[i].Quantity++
			continue
		}
		index[c.ID] = len(next.Collection)
		next.Collection = append(next.Collection, CollectionEntry{Card: c, Quantity: 1})
	}
	next.UnopenedBoosters = append(next.UnopenedBoosters[:bi], next.UnopenedBoosters[bi+1:]...)
	l.commit(OpOpenBooster, next)

	return OpenResult{Booster: b, Cards: pack, Balance: next.Balance}, nil
}

// AddToSellCart stages one more copy of an owned card for sale. It reports
// false, changing nothing, when the card is not owned or every owned copy is
// already staged.
func (l *Ledger) AddToSellCart(cardID string) ([]SellLine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ci := findEntry(l.state.Collection, cardID)
	if ci < 0 {
		return append([]SellLine{}, l.state.SellCart...), false
	}
	owned := l.state.Collection[ci]

	si := findSellLine(l.state.SellCart, cardID)
	if si >= 0 && l.state.SellCart[si].Quantity >= owned.Quantity {
		return append([]SellLine{}, l.state.SellCart...), false
	}

	next := l.state.Clone()
	if si >= 0 {
		next.SellCart[si].Quantity++
	} else {
		next.SellCart = append(next.SellCart, SellLine{
			CardID:    cardID,
			Name:      owned.Card.Name,
			Rarity:    owned.Card.Rarity,
			Image:     owned.Card.Image,
			Quantity:  1,
			UnitPrice: booster.SalePrice(owned.Card.Price),
		})
	}
	l.commit(OpAddToSellCart, next)
	return append([]SellLine{}, next.SellCart...), true
}

// UpdateSellCartQuantity sets a staged quantity. qty <= 0 removes the line.
// A quantity above the owned count, or a card with no line, is rejected and
// reported as false.
func (l *Ledger) UpdateSellCartQuantity(cardID string, qty int) ([]SellLine, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	si := findSellLine(l.state.SellCart, cardID)
	if si < 0 {
		return append([]SellLine{}, l.state.SellCart...), false
	}
	if qty > 0 {
		ci := findEntry(l.state.Collection, cardID)
		if ci < 0 || qty > l.state.Collection[ci].Quantity {
			return append([]SellLine{}, l.state.SellCart...), false
		}
	}
	if l.state.SellCart[si].Quantity == qty {
		return append([]SellLine{}, l.state.SellCart...), true
	}

	next := l.state.Clone()
	if qty <= 0 {
		next.SellCart = append(next.SellCart[:si], next.SellCart[si+1:]...)
	} else {
		next.SellCart[si].Quantity = qty
	}
	l.commit(OpUpdateSellQuantity, next)
	return append([]SellLine{}, next.SellCart...), true
}

// RemoveFromSellCart unstages a card.
func (l *Ledger) RemoveFromSellCart(cardID string) []SellLine {
	l.mu.Lock()
	defer l.mu.Unlock()

	si := findSellLine(l.state.SellCart, cardID)
	if si < 0 {
		return append([]SellLine{}, l.state.SellCart...)
	}

	next := l.state.Clone()
	next.SellCart = append(next.SellCart[:si], next.SellCart[si+1:]...)
	l.commit(OpRemoveFromSellCart, next)
	return append([]SellLine{}, next.SellCart...)
}

// SellCart returns the staged lines and their total.
func (l *Ledger) SellCart() ([]SellLine, decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]SellLine{}, l.state.SellCart...), sellTotal(l.state.SellCart)
}

// SellCartItems sells every staged card: owned counts drop (entries reaching
// zero are removed), the balance is credited and the sell cart is cleared.
// Selling never fails; an empty sell cart is a no-op.
func (l *Ledger) SellCartItems() SaleReceipt {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.state.SellCart) == 0 {
		return SaleReceipt{Total: decimal.Zero, Lines: []SellLine{}, Balance: l.state.Balance}
	}

	total := sellTotal(l.state.SellCart)
	sold := make(map[string]int, len(l.state.SellCart))
	for _, line := range l.state.SellCart {
		sold[line.CardID] += line.Quantity
	}

	next := l.state.Clone()
	kept := make([]CollectionEntry, 0, len(next.Collection))
	for _, e := range next.Collection {
		e.Quantity -= sold[e.Card.ID]
		if e.Quantity > 0 {
			kept = append(kept, e)
		}
	}
	next.Collection = kept
	next.Balance = next.Balance.Add(total)
	lines := next.SellCart
	next.SellCart = []SellLine{}
	l.commit(OpSell, next)

	log.WithFields(log.Fields{
		"total":   total.StringFixed(2),
		"lines":   len(lines),
		"balance": next.Balance.StringFixed(2),
	}).Info("[Ledger] Sold cards")

	return SaleReceipt{Total: total, Lines: lines, Balance: next.Balance}
}

// ClearSellCart empties the sell cart.
func (l *Ledger) ClearSellCart() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.state.SellCart) == 0 {
		return
	}
	next := l.state.Clone()
	next.SellCart = []SellLine{}
	l.commit(OpClearSellCart, next)
}

// Reset restores the default state. Observers clear the snapshot sink.
func (l *Ledger) Reset() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := DefaultState(l.cfg.StartingBalance)
	l.commit(OpReset, next)
	log.Info("[Ledger] Reset to defaults")
	return next.Clone()
}

func cartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func sellTotal(lines []SellLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func findCartLine(lines []CartLine, setCode string) int {
	for i, line := range lines {
		if line.SetCode == setCode {
			return i
		}
	}
	return -1
}

func findBooster(list []Booster, id string) int {
	for i, b := range list {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func findEntry(list []CollectionEntry, cardID string) int {
	for i, e := range list {
		if e.Card.ID == cardID {
			return i
		}
	}
	return -1
}

func findSellLine(lines []SellLine, cardID string) int {
	for i, line := range lines {
		if line.CardID == cardID {
			return i
		}
	}
	return -1
}
