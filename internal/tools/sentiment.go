package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

type fearGreedTool struct {
	data *market.Client
}

// NewFearGreed returns the getFearGreedIndex tool.
func NewFearGreed(data *market.Client) Tool {
	return &fearGreedTool{data: data}
}

func (t *fearGreedTool) Name() string {
	return "getFearGreedIndex"
}

func (t *fearGreedTool) Description() string {
	return "Get the current Crypto Fear & Greed Index, a gauge of overall crypto market sentiment"
}

func (t *fearGreedTool) InputSchema() string {
	return `{"type":"object","properties":{}}`
}

func (t *fearGreedTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	index := t.data.FearGreed(ctx)
	if index == nil {
		return domain.ToolResult{
			Success: false,
			Message: "Unable to fetch Fear & Greed Index at this time.",
		}, nil
	}
	return domain.ToolResult{
		Success: true,
		Data:    index,
		Message: fmt.Sprintf("Crypto Fear & Greed Index: %d/100 (%s). This indicates the current market sentiment - lower values suggest fear (potential buying opportunity), higher values suggest greed (potential caution).",
			index.Value, index.Classification),
	}, nil
}
