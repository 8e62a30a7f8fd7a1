package market

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// StockQuote is a normalized equity quote.
type StockQuote struct {
	Symbol           string  `json:"symbol"`
	Price            float64 `json:"price"`
	Change           float64 `json:"change"`
	ChangePercent    float64 `json:"changePercent"`
	High             float64 `json:"high"`
	Low              float64 `json:"low"`
	Volume           int64   `json:"volume"`
	LatestTradingDay string  `json:"latestTradingDay"`
}

// globalQuoteResponse mirrors Alpha Vantage's GLOBAL_QUOTE payload. Fields
// carry positional prefixes ("05. price") so the object decodes as a string map.
type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
}

// StockQuote fetches a real-time quote for an equity symbol.
// Returns nil on any network, parse, or not-found condition.
func (c *Client) StockQuote(ctx context.Context, symbol string) *StockQuote {
	u := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		c.alphaURL, url.QueryEscape(symbol), url.QueryEscape(c.alphaKey))

	var payload globalQuoteResponse
	if err := c.getJSON(ctx, u, &payload); err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("stock quote fetch failed")
		return nil
	}

	q := payload.GlobalQuote
	if len(q) == 0 {
		c.log.Debug().Str("symbol", symbol).Msg("empty Global Quote payload")
		return nil
	}

	price, err := strconv.ParseFloat(q["05. price"], 64)
	if err != nil {
		c.log.Error().Err(err).Str("symbol", symbol).Msg("unparseable quote price")
		return nil
	}

	return &StockQuote{
		Symbol:           q["01. symbol"],
		Price:            price,
		Change:           parseFloat(q["09. change"]),
		ChangePercent:    parseFloat(strings.TrimSuffix(q["10. change percent"], "%")),
		High:             parseFloat(q["03. high"]),
		Low:              parseFloat(q["04. low"]),
		Volume:           parseInt(q["06. volume"]),
		LatestTradingDay: q["07. latest trading day"],
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseInt(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
