package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ramonehamilton/booster-sim/internal/economy"
	"github.com/ramonehamilton/booster-sim/internal/mtga/cards"
)

// ShopFacade handles the catalog, wallet and purchase cart.
type ShopFacade struct {
	services *Services
}

// NewShopFacade creates a new ShopFacade with the given services.
func NewShopFacade(services *Services) *ShopFacade {
	return &ShopFacade{services: services}
}

// Wallet is the balance and current pack price.
type Wallet struct {
	Balance   decimal.Decimal `json:"balance"`
	PackPrice decimal.Decimal `json:"packPrice"`
}

// CartView is the purchase cart with totals.
type CartView struct {
	Lines      []economy.CartLine `json:"lines"`
	Total      decimal.Decimal    `json:"total"`
	Balance    decimal.Decimal    `json:"balance"`
	Affordable bool               `json:"affordable"`
}

// Sets returns the purchasable sets. An unreachable provider yields none.
func (s *ShopFacade) Sets(ctx context.Context) []cards.SetMeta {
	return s.services.Cards.FetchSets(ctx)
}

// SetCards returns the browsable card list of a set.
func (s *ShopFacade) SetCards(ctx context.Context, code string) ([]cards.Card, error) {
	list := s.services.Cards.FetchCardsForSet(ctx, code)
	if len(list) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, appError(fmt.Sprintf("Cards for set %q are unavailable", code), ErrPoolUnavailable)
	}
	return list, nil
}

// Wallet returns the balance and pack price.
func (s *ShopFacade) Wallet() Wallet {
	return Wallet{
		Balance:   s.services.Ledger.Balance(),
		PackPrice: s.services.Ledger.Config().PackPrice,
	}
}

// Cart returns the cart view.
func (s *ShopFacade) Cart() CartView {
	lines, total := s.services.Ledger.Cart()
	return s.view(lines, total)
}

func (s *ShopFacade) view(lines []economy.CartLine, total decimal.Decimal) CartView {
	balance := s.services.Ledger.Balance()
	return CartView{
		Lines:      lines,
		Total:      total,
		Balance:    balance,
		Affordable: total.LessThanOrEqual(balance),
	}
}

// AddToCart adds one booster of the set to the cart. The set must be in
// the purchasable catalog.
func (s *ShopFacade) AddToCart(ctx context.Context, code string) (CartView, error) {
	meta, ok := s.services.Cards.LookupSet(ctx, code)
	if !ok {
		return CartView{}, appError(fmt.Sprintf("Set %q is not available", code), ErrUnknownSet)
	}
	s.services.Ledger.AddToCart(economy.SetInfoFromMeta(meta))
	return s.Cart(), nil
}

// RemoveFromCart drops the set's line.
func (s *ShopFacade) RemoveFromCart(code string) CartView {
	s.services.Ledger.RemoveFromCart(code)
	return s.Cart()
}

// UpdateCartQuantity sets the set's quantity; zero or less removes it.
func (s *ShopFacade) UpdateCartQuantity(code string, qty int) CartView {
	s.services.Ledger.UpdateCartQuantity(code, qty)
	return s.Cart()
}

// Checkout buys everything in the cart.
func (s *ShopFacade) Checkout() (economy.CheckoutReceipt, error) {
	receipt, err := s.services.Ledger.Checkout()
	if errors.Is(err, economy.ErrInsufficientFunds) {
		return economy.CheckoutReceipt{}, appError("Not enough balance for this purchase", err)
	}
	if err != nil {
		return economy.CheckoutReceipt{}, err
	}
	return receipt, nil
}
