package economy

import "errors"

var (
	// ErrInsufficientFunds is returned when a checkout costs more than the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBoosterNotFound is returned when opening an unknown booster id.
	ErrBoosterNotFound = errors.New("booster not found")
	// ErrEmptyPack is returned when a booster's pool produced no cards. The
	// booster stays in inventory.
	ErrEmptyPack = errors.New("pack generation produced no cards")
	// ErrInvalidState marks a state that breaks a ledger invariant.
	ErrInvalidState = errors.New("invalid ledger state")
)
