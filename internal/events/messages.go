package events

// Event types.
const (
	// LedgerChanged fires after every committed ledger mutation.
	LedgerChanged = "ledger:changed"
	// LedgerReset fires after the ledger is restored to defaults.
	LedgerReset = "ledger:reset"
	// CatalogRefreshed fires when the set catalog is reloaded.
	CatalogRefreshed = "catalog:refreshed"
)

// CatalogRefreshedEvent is the payload for catalog:refreshed events.
type CatalogRefreshedEvent struct {
	Sets    int `json:"sets"`    // Purchasable sets after filtering
	Evicted int `json:"evicted"` // Expired card pools dropped from cache
}
