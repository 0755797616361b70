/**
 * @description
 * HTTP client for the coin catalog source plus the process-wide catalog
 * holder. The catalog is refreshed on its own schedule by the worker;
 * readers always see a complete catalog (never a partially applied one).
 *
 * @dependencies
 * - net/http
 * - encoding/json
 * - backend/internal/config
 */

package coins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dexstats-project/backend/internal/config"
)

const DefaultTimeout = 30 * time.Second

type Client struct {
	ConfigURL  string
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		ConfigURL: cfg.Coins.ConfigURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// FetchCatalog downloads and decodes the full coins_config document.
func (c *Client) FetchCatalog(ctx context.Context) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.ConfigURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coins config error: status %d", resp.StatusCode)
	}

	var raw map[string]Info
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("coins config is empty")
	}

	return NewCatalog(raw), nil
}

// Cache is the single-writer, multi-reader catalog holder.
type Cache struct {
	mu      sync.RWMutex
	catalog *Catalog
}

func NewCache() *Cache {
	return &Cache{catalog: NewCatalog(nil)}
}

// Catalog returns the current catalog snapshot.
func (c *Cache) Catalog() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

// Set replaces the catalog in full.
func (c *Cache) Set(catalog *Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = catalog
}
