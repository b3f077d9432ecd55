package domain

// SecretProvider supplies credentials to external collaborators (broker
// clients, discovery feeds). The core itself never reads secrets; it only
// threads this interface through to whichever client needs one.
type SecretProvider interface {
	// Get returns the named secret, with ok=false when it is absent.
	Get(name string) (value string, ok bool)
}

// PriceLookup resolves a current price for a symbol.
type PriceLookup interface {
	// Quote returns the current price for symbol, with ok=false when the
	// price is unknown. Unknown is a legitimate outcome, distinct from a
	// zero price.
	Quote(symbol string) (price float64, ok bool)
}

// DiscoverySource supplies raw opportunity candidates as untyped field sets.
// Each map is passed through the validating record factory; the source may
// emit duplicates across cycles, which the ranker collapses.
type DiscoverySource interface {
	Discover() ([]map[string]any, error)
}

// BrokerPositionSource supplies live positions from one brokerage account.
type BrokerPositionSource interface {
	// Broker returns the broker label positions from this source carry.
	Broker() string
	// GetPositions returns the account's current open positions.
	GetPositions() ([]BrokerPosition, error)
}
