package portfolio

import (
	"sort"
	"strings"

	"github.com/aristath/catalyst/internal/domain"
)

// Contribution records one source's share of an aggregate position.
type Contribution struct {
	Broker   string  `json:"broker"`
	Origin   Origin  `json:"origin"`
	Quantity float64 `json:"quantity"`
	AvgCost  float64 `json:"avg_cost"`
}

// Conflict annotates a symbol reported by both an automated and a manual
// source under different brokers. It is an annotation, not a failure: both
// sides still contribute to the aggregate quantity, since they represent
// genuinely separate holdings at separate brokers.
type Conflict struct {
	Symbol          string `json:"symbol"`
	AutomatedBroker string `json:"automated_broker"`
	ManualBroker    string `json:"manual_broker"`
}

// AggregatePosition is the reconciled per-symbol view. Pointer fields are nil
// when the underlying value is unknown; unknown is never conflated with zero.
type AggregatePosition struct {
	Symbol          string         `json:"symbol"`
	Quantity        float64        `json:"quantity"`
	WeightedAvgCost *float64       `json:"weighted_avg_cost"`
	CurrentPrice    *float64       `json:"current_price"`
	MarketValue     *float64       `json:"market_value"`
	UnrealizedPL    *float64       `json:"unrealized_pl"`
	Contributions   []Contribution `json:"contributions"`
	Conflicts       []Conflict     `json:"conflicts,omitempty"`
}

// Reconcile merges holdings from automated and manual sources into one
// aggregate position per distinct symbol, ordered by symbol.
//
// A manual entry under the same broker as an automated entry for the same
// symbol is treated as a stale duplicate of the automatically reported
// position and excluded from the quantity sum. Automated data is
// authoritative for prices; when no automated price exists the price lookup
// is consulted, and when that also fails the market value and unrealized P&L
// are reported as unknown rather than defaulting to zero.
//
// Reconcile is a pure function of its three inputs and never mutates them.
func Reconcile(automated, manual []Holding, prices domain.PriceLookup) []AggregatePosition {
	type group struct {
		automated []Holding
		manual    []Holding
	}

	groups := make(map[string]*group)
	grp := func(symbol string) *group {
		g, ok := groups[symbol]
		if !ok {
			g = &group{}
			groups[symbol] = g
		}
		return g
	}

	for _, h := range automated {
		grp(h.Symbol).automated = append(grp(h.Symbol).automated, h)
	}
	for _, h := range manual {
		grp(h.Symbol).manual = append(grp(h.Symbol).manual, h)
	}

	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	aggregates := make([]AggregatePosition, 0, len(symbols))
	for _, symbol := range symbols {
		aggregates = append(aggregates, reconcileSymbol(symbol, groups[symbol].automated, groups[symbol].manual, prices))
	}

	return aggregates
}

func reconcileSymbol(symbol string, automated, manual []Holding, prices domain.PriceLookup) AggregatePosition {
	agg := AggregatePosition{Symbol: symbol}

	// Contributing records: all automated, plus manual entries that are not
	// same-broker duplicates of an automated one.
	contributing := make([]Holding, 0, len(automated)+len(manual))
	contributing = append(contributing, sortedByBroker(automated)...)
	for _, m := range sortedByBroker(manual) {
		if hasBroker(automated, m.Broker) {
			continue // stale duplicate of the automated position
		}
		contributing = append(contributing, m)
	}

	var costSum float64
	for _, h := range contributing {
		agg.Quantity += h.Quantity
		costSum += h.Quantity * h.AvgCost
		agg.Contributions = append(agg.Contributions, Contribution{
			Broker:   h.Broker,
			Origin:   h.Origin,
			Quantity: h.Quantity,
			AvgCost:  h.AvgCost,
		})
	}

	if agg.Quantity > 0 {
		wac := costSum / agg.Quantity
		agg.WeightedAvgCost = &wac
	}

	// Price resolution: automated data first, then the lookup, then unknown.
	for _, h := range sortedByBroker(automated) {
		if h.CurrentPrice != nil {
			price := *h.CurrentPrice
			agg.CurrentPrice = &price
			break
		}
	}
	if agg.CurrentPrice == nil && prices != nil {
		if price, ok := prices.Quote(symbol); ok {
			agg.CurrentPrice = &price
		}
	}

	if agg.CurrentPrice != nil {
		mv := agg.Quantity * *agg.CurrentPrice
		agg.MarketValue = &mv
		if agg.WeightedAvgCost != nil {
			pl := mv - agg.Quantity**agg.WeightedAvgCost
			agg.UnrealizedPL = &pl
		}
	}

	// Cross-broker manual/automated overlap is flagged, not failed.
	for _, a := range sortedByBroker(automated) {
		for _, m := range sortedByBroker(manual) {
			if !strings.EqualFold(a.Broker, m.Broker) {
				agg.Conflicts = append(agg.Conflicts, Conflict{
					Symbol:          symbol,
					AutomatedBroker: a.Broker,
					ManualBroker:    m.Broker,
				})
			}
		}
	}

	return agg
}

// sortedByBroker returns a copy ordered by broker label, so every derived
// list and tie-break is deterministic for any input ordering.
func sortedByBroker(holdings []Holding) []Holding {
	out := make([]Holding, len(holdings))
	copy(out, holdings)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Broker < out[j].Broker
	})
	return out
}

func hasBroker(holdings []Holding, broker string) bool {
	for _, h := range holdings {
		if strings.EqualFold(h.Broker, broker) {
			return true
		}
	}
	return false
}
