package market

import (
	"context"
	"fmt"
	"net/url"
)

// CryptoPrice is one coin record from the CoinGecko markets endpoint.
// Field names keep the provider's snake_case so the raw record round-trips
// to clients unchanged.
type CryptoPrice struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChange24h           float64 `json:"price_change_24h"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
}

// CryptoPrice fetches the market record for a single coin id (e.g. "bitcoin").
// Returns nil on any failure or unknown coin.
func (c *Client) CryptoPrice(ctx context.Context, coinID string) *CryptoPrice {
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&ids=%s&order=market_cap_desc&per_page=1&page=1&sparkline=false&price_change_percentage=24h",
		c.coinGeckoURL, url.QueryEscape(coinID))

	var coins []CryptoPrice
	if err := c.getJSON(ctx, u, &coins); err != nil {
		c.log.Error().Err(err).Str("coin", coinID).Msg("crypto price fetch failed")
		return nil
	}
	if len(coins) == 0 {
		c.log.Debug().Str("coin", coinID).Msg("unknown coin id")
		return nil
	}
	return &coins[0]
}

// TopCryptos fetches the top coins by market cap. Returns an empty slice on
// any failure.
func (c *Client) TopCryptos(ctx context.Context, limit int) []CryptoPrice {
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=false&price_change_percentage=24h",
		c.coinGeckoURL, limit)

	var coins []CryptoPrice
	if err := c.getJSON(ctx, u, &coins); err != nil {
		c.log.Error().Err(err).Int("limit", limit).Msg("top cryptos fetch failed")
		return nil
	}
	return coins
}
