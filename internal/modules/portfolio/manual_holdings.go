package portfolio

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// manualHoldingsFile is the shape of the human-edited holdings configuration:
//
//	brokers:
//	  - broker: SoFi
//	    holdings:
//	      - symbol: AAPL
//	        quantity: 10
//	        avg_cost: 175.0
type manualHoldingsFile struct {
	Brokers []struct {
		Broker   string `yaml:"broker"`
		Holdings []struct {
			Symbol   string  `yaml:"symbol"`
			Quantity float64 `yaml:"quantity"`
			AvgCost  float64 `yaml:"avg_cost"`
		} `yaml:"holdings"`
	} `yaml:"brokers"`
}

// LoadManualHoldings reads the static manual-holdings configuration and
// returns the concatenated, validated entries across all broker groupings.
// Entries that fail validation are skipped with a warning; one bad line in a
// hand-edited file must not take down the rest of the portfolio.
func LoadManualHoldings(path string, log zerolog.Logger) ([]Holding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manual holdings file: %w", err)
	}

	var file manualHoldingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse manual holdings file: %w", err)
	}

	log = log.With().Str("component", "manual_holdings").Logger()

	var holdings []Holding
	for _, brokerGroup := range file.Brokers {
		for _, entry := range brokerGroup.Holdings {
			h, err := NewManualHolding(entry.Symbol, entry.Quantity, entry.AvgCost, brokerGroup.Broker)
			if err != nil {
				log.Warn().
					Err(err).
					Str("broker", brokerGroup.Broker).
					Str("symbol", entry.Symbol).
					Msg("Skipping invalid manual holding")
				continue
			}
			holdings = append(holdings, h)
		}
	}

	log.Info().Int("holdings", len(holdings)).Int("brokers", len(file.Brokers)).Msg("Loaded manual holdings")
	return holdings, nil
}
