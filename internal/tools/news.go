package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

type marketNewsTool struct {
	data *market.Client
}

// NewMarketNews returns the getMarketNews tool.
func NewMarketNews(data *market.Client) Tool {
	return &marketNewsTool{data: data}
}

func (t *marketNewsTool) Name() string {
	return "getMarketNews"
}

func (t *marketNewsTool) Description() string {
	return "Get the latest market news and sentiment, optionally filtered by ticker symbols"
}

func (t *marketNewsTool) InputSchema() string {
	return `{"type":"object","properties":{"tickers":{"type":"string","description":"Optional comma-separated ticker symbols to filter news (e.g., AAPL,TSLA)"}}}`
}

func (t *marketNewsTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	var args struct {
		Tickers string `json:"tickers"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return domain.ToolResult{}, err
	}

	items := t.data.MarketNews(ctx, strings.TrimSpace(args.Tickers))
	if len(items) == 0 {
		return domain.ToolResult{
			Success: false,
			Message: "Unable to fetch market news at this time.",
		}, nil
	}

	var b strings.Builder
	b.WriteString("Latest Market News:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. **%s** (%s) - Sentiment: %s\n   %s\n",
			i+1, item.Title, item.Source, item.Sentiment, item.Summary)
	}
	return domain.ToolResult{
		Success: true,
		Data:    items,
		Message: strings.TrimRight(b.String(), "\n"),
	}, nil
}
