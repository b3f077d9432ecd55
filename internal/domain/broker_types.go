package domain

// BrokerPosition is one open position as reported by a live brokerage feed.
// Field names follow the broker wire format ({symbol, qty, avg_cost,
// current_price, market_value, unrealized_pl, unrealized_plpc}).
type BrokerPosition struct {
	Symbol         string  `json:"symbol"`
	Qty            float64 `json:"qty"`
	AvgCost        float64 `json:"avg_cost"`
	CurrentPrice   float64 `json:"current_price"`
	MarketValue    float64 `json:"market_value"`
	UnrealizedPL   float64 `json:"unrealized_pl"`
	UnrealizedPLPC float64 `json:"unrealized_plpc"`
}
