package market

import (
	"context"
	"strconv"
)

// FearGreedIndex is the crypto market sentiment gauge from alternative.me.
type FearGreedIndex struct {
	Value          int    `json:"value"` // 0-100
	Classification string `json:"classification"`
	Timestamp      string `json:"timestamp"`
}

type fngResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
		Timestamp           string `json:"timestamp"`
	} `json:"data"`
}

// FearGreed fetches the current Fear & Greed Index.
// Returns nil on any failure.
func (c *Client) FearGreed(ctx context.Context) *FearGreedIndex {
	var payload fngResponse
	if err := c.getJSON(ctx, c.fngURL+"/fng/", &payload); err != nil {
		c.log.Error().Err(err).Msg("fear & greed fetch failed")
		return nil
	}
	if len(payload.Data) == 0 {
		return nil
	}

	value, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		c.log.Error().Err(err).Str("value", payload.Data[0].Value).Msg("unparseable index value")
		return nil
	}

	return &FearGreedIndex{
		Value:          value,
		Classification: payload.Data[0].ValueClassification,
		Timestamp:      payload.Data[0].Timestamp,
	}
}
