package market

import (
	"context"
	"fmt"
	"net/url"
)

// ForexRate is a normalized currency exchange rate.
type ForexRate struct {
	Base        string  `json:"base"`
	Target      string  `json:"target"`
	Rate        float64 `json:"rate"`
	LastUpdated string  `json:"lastUpdated"`
}

type forexLatestResponse struct {
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

// ForexRate fetches the current exchange rate between two currency codes.
// Returns nil on any failure or unknown target currency.
func (c *Client) ForexRate(ctx context.Context, base, target string) *ForexRate {
	u := fmt.Sprintf("%s/latest/%s", c.forexURL, url.PathEscape(base))

	var payload forexLatestResponse
	if err := c.getJSON(ctx, u, &payload); err != nil {
		c.log.Error().Err(err).Str("base", base).Str("target", target).Msg("forex rate fetch failed")
		return nil
	}

	rate, ok := payload.Rates[target]
	if !ok {
		c.log.Debug().Str("base", base).Str("target", target).Msg("target currency not in rates")
		return nil
	}

	return &ForexRate{
		Base:        base,
		Target:      target,
		Rate:        rate,
		LastUpdated: payload.Date,
	}
}
