// Package discovery provides the HTTP client for the catalyst discovery feed.
package discovery

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client fetches raw catalyst candidates from a discovery feed. The feed
// returns untyped field sets; validation happens downstream in the
// opportunities module, so a malformed candidate from the feed never breaks
// the fetch itself. Implements domain.DiscoverySource.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a discovery feed client.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("client", "discovery").Logger(),
	}
}

// Discover fetches the current candidate batch.
func (c *Client) Discover() ([]map[string]any, error) {
	resp, err := c.client.Get(c.baseURL + "/candidates")
	if err != nil {
		return nil, fmt.Errorf("discovery request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery feed returned status %d", resp.StatusCode)
	}

	var candidates []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("failed to decode discovery response: %w", err)
	}

	c.log.Debug().Int("candidates", len(candidates)).Msg("Fetched discovery candidates")
	return candidates, nil
}
