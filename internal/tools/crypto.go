package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

const (
	topCryptosDefault = 10
	topCryptosMax     = 20
)

type cryptoPriceTool struct {
	data *market.Client
}

// NewCryptoPrice returns the getCryptoPrice tool.
func NewCryptoPrice(data *market.Client) Tool {
	return &cryptoPriceTool{data: data}
}

func (t *cryptoPriceTool) Name() string {
	return "getCryptoPrice"
}

func (t *cryptoPriceTool) Description() string {
	return "Get the current price and market data for a cryptocurrency"
}

func (t *cryptoPriceTool) InputSchema() string {
	return `{"type":"object","properties":{"coinId":{"type":"string","description":"The CoinGecko coin id (e.g., bitcoin, ethereum, solana)"}},"required":["coinId"]}`
}

func (t *cryptoPriceTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	var args struct {
		CoinID string `json:"coinId"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return domain.ToolResult{}, err
	}
	coinID := strings.ToLower(strings.TrimSpace(args.CoinID))
	if coinID == "" {
		return domain.ToolResult{}, &ValidationError{Field: "coinId", Reason: "must not be empty"}
	}

	coin := t.data.CryptoPrice(ctx, coinID)
	if coin == nil {
		return domain.ToolResult{
			Success: false,
			Message: fmt.Sprintf("Unable to fetch data for %s. Please check the cryptocurrency name.", coinID),
		}, nil
	}
	return domain.ToolResult{
		Success: true,
		Data:    coin,
		Message: fmt.Sprintf("%s (%s): Price $%s, 24h Change: %s, Market Cap: $%sB, 24h Volume: $%sB",
			coin.Name, strings.ToUpper(coin.Symbol), commaMoney(coin.CurrentPrice),
			signedPercent(coin.PriceChangePercentage24h), billions(coin.MarketCap), billions(coin.TotalVolume)),
	}, nil
}

type topCryptosTool struct {
	data *market.Client
}

// NewTopCryptos returns the getTopCryptos tool.
func NewTopCryptos(data *market.Client) Tool {
	return &topCryptosTool{data: data}
}

func (t *topCryptosTool) Name() string {
	return "getTopCryptos"
}

func (t *topCryptosTool) Description() string {
	return "Get the top cryptocurrencies by market capitalization"
}

func (t *topCryptosTool) InputSchema() string {
	return `{"type":"object","properties":{"limit":{"type":"integer","description":"Number of coins to return (1-20, default 10)"}}}`
}

func (t *topCryptosTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	var args struct {
		Limit *int `json:"limit"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return domain.ToolResult{}, err
	}
	limit := topCryptosDefault
	if args.Limit != nil {
		limit = *args.Limit
	}
	if limit < 1 || limit > topCryptosMax {
		return domain.ToolResult{}, &ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be between 1 and %d", topCryptosMax),
		}
	}

	coins := t.data.TopCryptos(ctx, limit)
	if len(coins) == 0 {
		return domain.ToolResult{
			Success: false,
			Message: "Unable to fetch cryptocurrency data at this time.",
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d Cryptocurrencies by Market Cap:\n", limit)
	for i, coin := range coins {
		fmt.Fprintf(&b, "%d. %s (%s): $%s (%s)\n",
			i+1, coin.Name, strings.ToUpper(coin.Symbol),
			commaMoney(coin.CurrentPrice), signedPercent(coin.PriceChangePercentage24h))
	}
	return domain.ToolResult{
		Success: true,
		Data:    coins,
		Message: strings.TrimRight(b.String(), "\n"),
	}, nil
}
