package datasource

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/msevon/NATGAS-trader/internal/market"
)

const defaultEIAURL = "https://api.eia.gov/v2/natural-gas/stor/wkly/data/"

// EIAClient fetches weekly natural gas storage inventories from the
// EIA v2 API.
type EIAClient struct {
	client  *Client
	baseURL string
	apiKey  string
}

// NewEIAClient requires an API key; EIA rejects anonymous requests.
func NewEIAClient(apiKey, baseURL string, opts Options, logger *log.Logger) (*EIAClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("eia: API key not provided")
	}
	if baseURL == "" {
		baseURL = defaultEIAURL
	}
	return &EIAClient{
		client:  NewClient("eia", opts, logger),
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

type eiaResponse struct {
	Response struct {
		Data []struct {
			Period string  `json:"period"`
			Value  float64 `json:"value"`
		} `json:"data"`
	} `json:"response"`
}

// StorageSeries fetches weekly storage levels (Bcf) for the given range.
func (e *EIAClient) StorageSeries(ctx context.Context, start, end time.Time) (*market.Series, error) {
	q := url.Values{}
	q.Set("api_key", e.apiKey)
	q.Set("data[]", "value")
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	q.Set("length", "1000")

	var resp eiaResponse
	if err := e.client.GetJSON(ctx, e.baseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("eia: fetching storage data: %w", err)
	}
	if len(resp.Response.Data) == 0 {
		return nil, fmt.Errorf("eia: no storage data returned for %s..%s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	points := make([]market.Point, 0, len(resp.Response.Data))
	for _, row := range resp.Response.Data {
		date, err := time.Parse("2006-01-02", row.Period)
		if err != nil {
			// Some series report monthly periods (2006-01); skip rows
			// that are not weekly dates.
			continue
		}
		points = append(points, market.Point{Date: date, Value: row.Value})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("eia: no parseable weekly periods in response")
	}
	return market.NewSeries(points), nil
}
