package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

type forexRateTool struct {
	data *market.Client
}

// NewForexRate returns the getForexRate tool.
func NewForexRate(data *market.Client) Tool {
	return &forexRateTool{data: data}
}

func (t *forexRateTool) Name() string {
	return "getForexRate"
}

func (t *forexRateTool) Description() string {
	return "Get the current exchange rate between two currencies"
}

func (t *forexRateTool) InputSchema() string {
	return `{"type":"object","properties":{"baseCurrency":{"type":"string","description":"The base currency code (e.g., USD)"},"targetCurrency":{"type":"string","description":"The target currency code (e.g., EUR)"}},"required":["baseCurrency","targetCurrency"]}`
}

func (t *forexRateTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	var args struct {
		BaseCurrency   string `json:"baseCurrency"`
		TargetCurrency string `json:"targetCurrency"`
	}
	if err := decodeArgs(input, &args); err != nil {
		return domain.ToolResult{}, err
	}
	base := strings.ToUpper(strings.TrimSpace(args.BaseCurrency))
	target := strings.ToUpper(strings.TrimSpace(args.TargetCurrency))
	if base == "" {
		return domain.ToolResult{}, &ValidationError{Field: "baseCurrency", Reason: "must not be empty"}
	}
	if target == "" {
		return domain.ToolResult{}, &ValidationError{Field: "targetCurrency", Reason: "must not be empty"}
	}

	rate := t.data.ForexRate(ctx, base, target)
	if rate == nil {
		return domain.ToolResult{
			Success: false,
			Message: fmt.Sprintf("Unable to fetch exchange rate for %s/%s.", base, target),
		}, nil
	}
	return domain.ToolResult{
		Success: true,
		Data:    rate,
		Message: fmt.Sprintf("Exchange Rate: 1 %s = %.4f %s (Last updated: %s)",
			rate.Base, rate.Rate, rate.Target, rate.LastUpdated),
	}, nil
}
