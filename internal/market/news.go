package market

import (
	"context"
	"fmt"
	"net/url"
)

// maxNewsItems caps how many stories one lookup returns.
const maxNewsItems = 5

// newsSummaryLimit is the character budget for a story summary.
const newsSummaryLimit = 200

// NewsItem is a normalized market news story.
type NewsItem struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Sentiment   string `json:"sentiment"`
}

type newsSentimentResponse struct {
	Feed []newsFeedItem `json:"feed"`
}

type newsFeedItem struct {
	Title                 string `json:"title"`
	Summary               string `json:"summary"`
	Source                string `json:"source"`
	URL                   string `json:"url"`
	TimePublished         string `json:"time_published"`
	OverallSentimentLabel string `json:"overall_sentiment_label"`
}

// MarketNews fetches the latest market news with sentiment labels, optionally
// filtered by comma-separated ticker symbols. Returns an empty slice on any
// failure or when the feed is absent.
func (c *Client) MarketNews(ctx context.Context, tickers string) []NewsItem {
	u := fmt.Sprintf("%s/query?function=NEWS_SENTIMENT&apikey=%s", c.alphaURL, url.QueryEscape(c.alphaKey))
	if tickers != "" {
		u += "&tickers=" + url.QueryEscape(tickers)
	}

	var payload newsSentimentResponse
	if err := c.getJSON(ctx, u, &payload); err != nil {
		c.log.Error().Err(err).Str("tickers", tickers).Msg("market news fetch failed")
		return nil
	}
	if len(payload.Feed) == 0 {
		return nil
	}

	feed := payload.Feed
	if len(feed) > maxNewsItems {
		feed = feed[:maxNewsItems]
	}

	items := make([]NewsItem, 0, len(feed))
	for _, f := range feed {
		items = append(items, NewsItem{
			Title:       f.Title,
			Summary:     truncate(f.Summary, newsSummaryLimit) + "...",
			Source:      f.Source,
			URL:         f.URL,
			PublishedAt: f.TimePublished,
			Sentiment:   f.OverallSentimentLabel,
		})
	}
	return items
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
