package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/finsight/finsight/internal/domain"
	"github.com/finsight/finsight/internal/market"
)

// overviewCoinCount is how many top coins the overview includes.
const overviewCoinCount = 3

// Overview bundles the data behind one market overview snapshot.
type Overview struct {
	FearGreed  *market.FearGreedIndex `json:"fearGreed,omitempty"`
	TopCryptos []market.CryptoPrice   `json:"topCryptos,omitempty"`
}

type marketOverviewTool struct {
	data *market.Client
}

// NewMarketOverview returns the getMarketOverview tool.
func NewMarketOverview(data *market.Client) Tool {
	return &marketOverviewTool{data: data}
}

func (t *marketOverviewTool) Name() string {
	return "getMarketOverview"
}

func (t *marketOverviewTool) Description() string {
	return "Get a general market overview including crypto market sentiment and the top cryptocurrencies"
}

func (t *marketOverviewTool) InputSchema() string {
	return `{"type":"object","properties":{}}`
}

func (t *marketOverviewTool) Execute(ctx context.Context, input json.RawMessage) (domain.ToolResult, error) {
	var (
		wg       sync.WaitGroup
		overview Overview
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		overview.FearGreed = t.data.FearGreed(ctx)
	}()
	go func() {
		defer wg.Done()
		overview.TopCryptos = t.data.TopCryptos(ctx, overviewCoinCount)
	}()
	wg.Wait()

	// Render whatever subset arrived; a provider outage still produces an
	// overview rather than a failed call.
	var b strings.Builder
	b.WriteString("📊 **Market Overview**\n")
	if overview.FearGreed != nil {
		fmt.Fprintf(&b, "\n**Crypto Market Sentiment:** %s (%d/100)\n",
			overview.FearGreed.Classification, overview.FearGreed.Value)
	}
	if len(overview.TopCryptos) > 0 {
		fmt.Fprintf(&b, "\n**Top %d Cryptocurrencies:**\n", overviewCoinCount)
		for i, coin := range overview.TopCryptos {
			icon := "📈"
			if coin.PriceChangePercentage24h < 0 {
				icon = "📉"
			}
			fmt.Fprintf(&b, "%d. %s: $%s %s %.2f%%\n",
				i+1, coin.Name, commaMoney(coin.CurrentPrice), icon, coin.PriceChangePercentage24h)
		}
	}
	return domain.ToolResult{
		Success: true,
		Data:    overview,
		Message: strings.TrimRight(b.String(), "\n"),
	}, nil
}
