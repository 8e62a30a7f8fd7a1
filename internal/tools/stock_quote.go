package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

type stockQuoteTool struct {
	data *market.Client
}

// NewStockQuote returns the getStockQuote tool.
func NewStockQuote(data *market.Client) Tool {
	return &stockQuoteTool{data: data}
}

func (t *stockQuoteTool) Name() string {
	return "getStockQuote"
}

func (t *stockQuoteTool) Description() string {
	return "Get the current stock price and trading data for a given ticker symbol"
}

func (t *stockQuoteTool) InputSchema() string {
	return `{"type":"object","properties":{"symbol":{"type":"string","description":"The stock ticker symbol (e.g., AAPL, GOOGL, MSFT)"}},"required":["symbol"]}`
}

func (t *stockQuoteTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	var args struct {
		Symbol string `json:"symbol"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return domain.ToolResult{}, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(args.Symbol))
	if symbol == "" {
		return domain.ToolResult{}, &ValidationError{Field: "symbol", Reason: "must not be empty"}
	}

	quote := t.data.StockQuote(ctx, symbol)
	if quote == nil {
		return domain.ToolResult{
			Success: false,
			Message: fmt.Sprintf("Unable to fetch stock data for %s. The symbol might be invalid or the API limit may have been reached.", symbol),
		}, nil
	}
	return domain.ToolResult{
		Success: true,
		Data:    quote,
		Message: fmt.Sprintf("Stock data for %s: Price $%s, Change: %s (%s), Day Range: $%s - $%s, Volume: %s",
			quote.Symbol, money(quote.Price), signedMoney(quote.Change), signedPercent(quote.ChangePercent),
			money(quote.Low), money(quote.High), commaInt(quote.Volume)),
	}, nil
}
