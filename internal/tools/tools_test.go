package tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finsight/internal/logging"
	"github.com/finsight/finsight/internal/market"
)

// newTestRegistry spins up a fake provider backend and a registry pointed at it.
func newTestRegistry(t *testing.T, handler http.Handler) (*Registry, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logging.New(io.Discard, logging.Options{Level: "silent", Style: "json"})
	data := market.New("testkey", log,
		market.WithAlphaVantageURL(srv.URL),
		market.WithCoinGeckoURL(srv.URL),
		market.WithExchangeRateURL(srv.URL),
		market.WithAlternativeURL(srv.URL),
	)
	return DefaultRegistry(data), srv
}

func execute(t *testing.T, r *Registry, name, args string) (bool, string) {
	t.Helper()
	tool, ok := r.Get(name)
	require.True(t, ok, "tool %s not registered", name)
	result, err := tool.Execute(context.Background(), json.RawMessage(args))
	require.NoError(t, err)
	return result.Success, result.Message
}

func TestRegistryDefinitions(t *testing.T) {
	r, _ := newTestRegistry(t, http.NotFoundHandler())
	defs := r.Definitions()
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"getStockQuote",
		"getCryptoPrice",
		"getTopCryptos",
		"getForexRate",
		"getMarketNews",
		"getFearGreedIndex",
		"getMarketOverview",
	}, names)
	for _, d := range defs {
		assert.NotEmpty(t, d.Description)
		assert.True(t, json.Valid([]byte(d.InputSchema)), "schema for %s is not valid JSON", d.Name)
	}
}

func TestStockQuoteMessage(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"Global Quote":{
			"01. symbol":"AAPL",
			"03. high":"151.0000",
			"04. low":"148.0000",
			"05. price":"150.2500",
			"06. volume":"50000000",
			"07. latest trading day":"2025-08-29",
			"09. change":"1.5000",
			"10. change percent":"1.01%"
		}}`))
	}))

	ok, msg := execute(t, r, "getStockQuote", `{"symbol":"aapl"}`)
	assert.True(t, ok)
	assert.Equal(t, "Stock data for AAPL: Price $150.25, Change: +1.50 (+1.01%), Day Range: $148.00 - $151.00, Volume: 50,000,000", msg)
}

func TestStockQuoteProviderFailure(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))

	ok, msg := execute(t, r, "getStockQuote", `{"symbol":"AAPL"}`)
	assert.False(t, ok)
	assert.Contains(t, msg, "Unable to fetch stock data for AAPL")
}

func TestStockQuoteValidation(t *testing.T) {
	r, _ := newTestRegistry(t, http.NotFoundHandler())
	tool, _ := r.Get("getStockQuote")
	_, err := tool.Execute(context.Background(), json.RawMessage(`{"symbol":"  "}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "symbol", verr.Field)
}

func TestCryptoPriceMessage(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin",
			"current_price":45000.5,"price_change_percentage_24h":2.34,
			"market_cap":880000000000,"total_volume":25000000000,
			"high_24h":45500,"low_24h":44000}]`))
	}))

	ok, msg := execute(t, r, "getCryptoPrice", `{"coinId":"Bitcoin"}`)
	assert.True(t, ok)
	assert.Equal(t, "Bitcoin (BTC): Price $45,000.50, 24h Change: +2.34%, Market Cap: $880.00B, 24h Volume: $25.00B", msg)
}

func TestCryptoPriceUnknownCoin(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[]`))
	}))

	ok, msg := execute(t, r, "getCryptoPrice", `{"coinId":"notacoin"}`)
	assert.False(t, ok)
	assert.Contains(t, msg, "notacoin")
}

func TestTopCryptosDefaultLimit(t *testing.T) {
	var gotPerPage string
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPerPage = req.URL.Query().Get("per_page")
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":45000.5,"price_change_percentage_24h":-2.34}]`))
	}))

	ok, msg := execute(t, r, "getTopCryptos", `{}`)
	assert.True(t, ok)
	assert.Equal(t, "10", gotPerPage)
	assert.Contains(t, msg, "Top 10 Cryptocurrencies by Market Cap:")
	assert.Contains(t, msg, "1. Bitcoin (BTC): $45,000.50 (-2.34%)")
}

func TestTopCryptosLimitBounds(t *testing.T) {
	r, _ := newTestRegistry(t, http.NotFoundHandler())
	tool, _ := r.Get("getTopCryptos")

	for _, args := range []string{`{"limit":0}`, `{"limit":25}`, `{"limit":-3}`} {
		_, err := tool.Execute(context.Background(), json.RawMessage(args))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "args %s", args)
		assert.Equal(t, "limit", verr.Field)
	}
}

func TestForexRateMessage(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"base":"USD","date":"2025-08-30","rates":{"EUR":0.9234,"GBP":0.79}}`))
	}))

	ok, msg := execute(t, r, "getForexRate", `{"baseCurrency":"usd","targetCurrency":"eur"}`)
	assert.True(t, ok)
	assert.Equal(t, "Exchange Rate: 1 USD = 0.9234 EUR (Last updated: 2025-08-30)", msg)
}

func TestForexRateUnknownTarget(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"base":"USD","date":"2025-08-30","rates":{"EUR":0.9234}}`))
	}))

	ok, msg := execute(t, r, "getForexRate", `{"baseCurrency":"USD","targetCurrency":"XXX"}`)
	assert.False(t, ok)
	assert.Contains(t, msg, "USD/XXX")
}

func TestMarketNewsMessage(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"feed":[
			{"title":"Fed holds rates","summary":"Short summary.","source":"Reuters","url":"https://example.com/1","time_published":"20250830T120000","overall_sentiment_label":"Neutral"},
			{"title":"Chips rally","summary":"Another summary.","source":"Bloomberg","url":"https://example.com/2","time_published":"20250830T110000","overall_sentiment_label":"Bullish"}
		]}`))
	}))

	ok, msg := execute(t, r, "getMarketNews", `{"tickers":"AAPL"}`)
	assert.True(t, ok)
	assert.Contains(t, msg, "Latest Market News:")
	assert.Contains(t, msg, "1. **Fed holds rates** (Reuters) - Sentiment: Neutral")
	assert.Contains(t, msg, "2. **Chips rally** (Bloomberg) - Sentiment: Bullish")
	assert.Contains(t, msg, "Short summary....")
}

func TestMarketNewsEmptyFeed(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{}`))
	}))

	ok, msg := execute(t, r, "getMarketNews", `{}`)
	assert.False(t, ok)
	assert.Equal(t, "Unable to fetch market news at this time.", msg)
}

func TestFearGreedMessage(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"data":[{"value":"62","value_classification":"Greed","timestamp":"1756512000"}]}`))
	}))

	ok, msg := execute(t, r, "getFearGreedIndex", `{}`)
	assert.True(t, ok)
	assert.Contains(t, msg, "Crypto Fear & Greed Index: 62/100 (Greed).")
}

func TestMarketOverviewFull(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/fng/" {
			w.Write([]byte(`{"data":[{"value":"62","value_classification":"Greed","timestamp":"1756512000"}]}`))
			return
		}
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":45000.5,"price_change_percentage_24h":2.34},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":2400,"price_change_percentage_24h":-1.2},
			{"id":"solana","symbol":"sol","name":"Solana","current_price":140.25,"price_change_percentage_24h":0.5}
		]`))
	}))

	ok, msg := execute(t, r, "getMarketOverview", `{}`)
	assert.True(t, ok)
	assert.Contains(t, msg, "📊 **Market Overview**")
	assert.Contains(t, msg, "**Crypto Market Sentiment:** Greed (62/100)")
	assert.Contains(t, msg, "**Top 3 Cryptocurrencies:**")
	assert.Contains(t, msg, "1. Bitcoin: $45,000.50 📈 2.34%")
	assert.Contains(t, msg, "2. Ethereum: $2,400.00 📉 -1.20%")
}

func TestMarketOverviewPartial(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/fng/" {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":45000.5,"price_change_percentage_24h":2.34}]`))
	}))

	ok, msg := execute(t, r, "getMarketOverview", `{}`)
	assert.True(t, ok)
	assert.NotContains(t, msg, "Crypto Market Sentiment")
	assert.Contains(t, msg, "1. Bitcoin: $45,000.50 📈 2.34%")
}

func TestMarketOverviewTotalFailure(t *testing.T) {
	r, _ := newTestRegistry(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))

	ok, msg := execute(t, r, "getMarketOverview", `{}`)
	assert.True(t, ok)
	assert.Equal(t, "📊 **Market Overview**", msg)
	assert.NotContains(t, msg, "Crypto Market Sentiment")
	assert.NotContains(t, msg, "Top 3 Cryptocurrencies")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "45,000.50", commaMoney(45000.5))
	assert.Equal(t, "150.25", commaMoney(150.25))
	assert.Equal(t, "-1,234.00", commaMoney(-1234))
	assert.Equal(t, "0.50", commaMoney(0.5))
	assert.Equal(t, "+1.01%", signedPercent(1.01))
	assert.Equal(t, "-1.01%", signedPercent(-1.01))
	assert.Equal(t, "+0.00%", signedPercent(0))
	assert.Equal(t, "880.00", billions(880e9))
}
