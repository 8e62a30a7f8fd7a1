// Package market wraps the external financial data providers. Each lookup
// issues one outbound HTTP request and normalizes the provider's response.
// Failures are logged and swallowed: callers get nil (or an empty list),
// never an error.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/finsight/finsight/internal/logging"
)

// Default provider endpoints.
const (
	defaultAlphaVantageURL = "https://www.alphavantage.co"
	defaultCoinGeckoURL    = "https://api.coingecko.com/api/v3"
	defaultExchangeRateURL = "https://api.exchangerate-api.com/v4"
	defaultAlternativeURL  = "https://api.alternative.me"
)

// Client fetches live market data. All methods are safe for concurrent use.
type Client struct {
	http     *http.Client
	log      *logging.Logger
	alphaKey string

	alphaURL     string
	coinGeckoURL string
	forexURL     string
	fngURL       string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithAlphaVantageURL overrides the Alpha Vantage base URL (used in tests).
func WithAlphaVantageURL(u string) Option {
	return func(c *Client) { c.alphaURL = u }
}

// WithCoinGeckoURL overrides the CoinGecko base URL.
func WithCoinGeckoURL(u string) Option {
	return func(c *Client) { c.coinGeckoURL = u }
}

// WithExchangeRateURL overrides the exchangerate-api base URL.
func WithExchangeRateURL(u string) Option {
	return func(c *Client) { c.forexURL = u }
}

// WithAlternativeURL overrides the alternative.me base URL.
func WithAlternativeURL(u string) Option {
	return func(c *Client) { c.fngURL = u }
}

// New creates a market data client. The Alpha Vantage key may be the literal
// "demo" key, which the provider accepts with canned data.
func New(alphaVantageKey string, log *logging.Logger, opts ...Option) *Client {
	c := &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		log:          log.Sub("market"),
		alphaKey:     alphaVantageKey,
		alphaURL:     defaultAlphaVantageURL,
		coinGeckoURL: defaultCoinGeckoURL,
		forexURL:     defaultExchangeRateURL,
		fngURL:       defaultAlternativeURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getJSON issues a GET request and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "finsight/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return json.Unmarshal(body, v)
}
