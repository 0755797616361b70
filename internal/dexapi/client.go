/**
 * @description
 * HTTP client for the order-matching engine's JSON-RPC surface.
 * Only the orderbook method is used here; the engine itself (matching,
 * trade execution) is an external collaborator.
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package dexapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dexstats-project/backend/internal/config"
)

const DefaultTimeout = 10 * time.Second

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL: cfg.DexAPI.URL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Orderbook fetches the live book for one (base, rel) sub-pair.
func (c *Client) Orderbook(ctx context.Context, base, rel string) (*OrderbookResponse, error) {
	body, err := json.Marshal(OrderbookRequest{
		Method: "orderbook",
		Base:   base,
		Rel:    rel,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("orderbook rpc error: status %d", resp.StatusCode)
	}

	var book OrderbookResponse
	if err := json.NewDecoder(resp.Body).Decode(&book); err != nil {
		return nil, err
	}
	return &book, nil
}
