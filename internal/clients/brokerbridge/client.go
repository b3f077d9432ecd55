// Package brokerbridge provides the HTTP client for the broker position and
// quote bridge.
package brokerbridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/catalyst/internal/domain"
)

// Client talks to a broker bridge service exposing the account's open
// positions and per-symbol quotes. It implements both
// domain.BrokerPositionSource and domain.PriceLookup.
type Client struct {
	baseURL string
	broker  string
	apiKey  string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a broker bridge client. The API key is resolved through
// the secret provider; an absent key leaves requests unauthenticated, which
// some local bridges accept.
func NewClient(baseURL, broker, keyName string, secrets domain.SecretProvider, log zerolog.Logger) *Client {
	apiKey := ""
	if secrets != nil {
		if v, ok := secrets.Get(keyName); ok {
			apiKey = v
		} else {
			log.Warn().Str("secret", keyName).Msg("Broker bridge API key not configured")
		}
	}

	return &Client{
		baseURL: baseURL,
		broker:  broker,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("client", "broker_bridge").Str("broker", broker).Logger(),
	}
}

// Broker returns the broker label positions from this source carry.
func (c *Client) Broker() string {
	return c.broker
}

// GetPositions fetches the account's current open positions.
func (c *Client) GetPositions() ([]domain.BrokerPosition, error) {
	var positions []domain.BrokerPosition
	if err := c.getJSON("/positions", &positions); err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}

	c.log.Debug().Int("positions", len(positions)).Msg("Fetched broker positions")
	return positions, nil
}

// Quote returns the current price for a symbol, ok=false when the bridge
// does not know it.
func (c *Client) Quote(symbol string) (float64, bool) {
	var result struct {
		Symbol string   `json:"symbol"`
		Price  *float64 `json:"price"`
	}
	if err := c.getJSON("/quote?symbol="+url.QueryEscape(symbol), &result); err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
		return 0, false
	}
	if result.Price == nil {
		return 0, false
	}
	return *result.Price, true
}

func (c *Client) getJSON(path string, dst any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
