// Package portfolio provides holding records and the multi-source
// reconciliation that merges them into one aggregate per-symbol view.
package portfolio

import (
	"strings"

	"github.com/aristath/catalyst/internal/domain"
)

// Origin tags where a holding record came from.
type Origin string

const (
	// OriginManual marks a human-entered holding from the static
	// configuration.
	OriginManual Origin = "MANUAL"
	// OriginAutomated marks a holding reported by a live broker feed.
	OriginAutomated Origin = "AUTOMATED"
)

// Holding is one validated position from a single source. Automated records
// additionally carry the price data supplied by the broker; manual records
// derive it from the price lookup at reconciliation time.
type Holding struct {
	Symbol   string  `json:"symbol" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	AvgCost  float64 `json:"avg_cost" validate:"gte=0"`
	Broker   string  `json:"broker" validate:"required"`
	Origin   Origin  `json:"origin" validate:"required,oneof=MANUAL AUTOMATED"`

	// Broker-supplied fields, present on automated records only.
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	MarketValue    *float64 `json:"market_value,omitempty"`
	UnrealizedPL   *float64 `json:"unrealized_pl,omitempty"`
	UnrealizedPLPC *float64 `json:"unrealized_plpc,omitempty"`
}

// NewHolding validates and normalizes one holding. The symbol is trimmed and
// upper-cased. On any violation the zero Holding and a
// domain.ValidationError are returned.
func NewHolding(h Holding) (Holding, error) {
	h.Symbol = strings.ToUpper(strings.TrimSpace(h.Symbol))
	h.Broker = strings.TrimSpace(h.Broker)

	if err := domain.ValidateStruct("holding", h); err != nil {
		return Holding{}, err
	}

	return h, nil
}

// NewManualHolding builds a holding from a human-edited configuration entry.
func NewManualHolding(symbol string, quantity, avgCost float64, broker string) (Holding, error) {
	return NewHolding(Holding{
		Symbol:   symbol,
		Quantity: quantity,
		AvgCost:  avgCost,
		Broker:   broker,
		Origin:   OriginManual,
	})
}

// NewAutomatedHolding builds a holding from a live broker position.
func NewAutomatedHolding(broker string, pos domain.BrokerPosition) (Holding, error) {
	price := pos.CurrentPrice
	marketValue := pos.MarketValue
	unrealizedPL := pos.UnrealizedPL
	unrealizedPLPC := pos.UnrealizedPLPC

	return NewHolding(Holding{
		Symbol:         pos.Symbol,
		Quantity:       pos.Qty,
		AvgCost:        pos.AvgCost,
		Broker:         broker,
		Origin:         OriginAutomated,
		CurrentPrice:   &price,
		MarketValue:    &marketValue,
		UnrealizedPL:   &unrealizedPL,
		UnrealizedPLPC: &unrealizedPLPC,
	})
}
