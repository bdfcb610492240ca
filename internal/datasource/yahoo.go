package datasource

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/msevon/NATGAS-trader/internal/market"
)

const defaultYahooURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooClient fetches daily close prices from the Yahoo Finance chart
// API.
type YahooClient struct {
	client  *Client
	baseURL string
}

func NewYahooClient(baseURL string, opts Options, logger *log.Logger) *YahooClient {
	if baseURL == "" {
		baseURL = defaultYahooURL
	}
	return &YahooClient{
		client:  NewClient("yahoo", opts, logger),
		baseURL: baseURL,
	}
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// DailyCloses fetches daily closing prices for symbol over the range.
// Days where Yahoo reports a null close (holidays, halts) are dropped;
// the engine's last-observation carry-forward fills the gaps.
func (y *YahooClient) DailyCloses(ctx context.Context, symbol string, start, end time.Time) (*market.Series, error) {
	q := url.Values{}
	q.Set("period1", fmt.Sprintf("%d", start.Unix()))
	q.Set("period2", fmt.Sprintf("%d", end.AddDate(0, 0, 1).Unix()))
	q.Set("interval", "1d")
	q.Set("events", "history")

	endpoint := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(symbol), q.Encode())

	var resp yahooChartResponse
	if err := y.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("yahoo: fetching %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo: %s: %s (%s)", symbol,
			resp.Chart.Error.Description, resp.Chart.Error.Code)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo: no chart result for %s", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: no quote data for %s", symbol)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("yahoo: %s: %d timestamps but %d closes",
			symbol, len(result.Timestamp), len(closes))
	}

	points := make([]market.Point, 0, len(closes))
	for i, ts := range result.Timestamp {
		if closes[i] == nil {
			continue
		}
		points = append(points, market.Point{
			Date:  time.Unix(ts, 0).UTC(),
			Value: *closes[i],
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("yahoo: no usable closes for %s", symbol)
	}
	return market.NewSeries(points), nil
}
