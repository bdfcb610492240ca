package datasource

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/msevon/NATGAS-trader/internal/market"
)

const (
	defaultOpenMeteoURL = "https://archive-api.open-meteo.com/v1/archive"

	// Base temperature for heating degree days, degrees Fahrenheit.
	hddBaseTempF = 65.0
)

// Region is a lat/lon pair for a demand center.
type Region struct {
	Name      string
	Latitude  float64
	Longitude float64
}

// DefaultRegions covers the major US gas demand centers.
var DefaultRegions = []Region{
	{Name: "New York", Latitude: 40.7128, Longitude: -74.0060},
	{Name: "Chicago", Latitude: 41.8781, Longitude: -87.6298},
	{Name: "Boston", Latitude: 42.3601, Longitude: -71.0589},
}

// OpenMeteoClient fetches daily temperatures from the Open-Meteo
// archive API and converts them to heating degree days.
type OpenMeteoClient struct {
	client  *Client
	baseURL string
	regions []Region
}

func NewOpenMeteoClient(baseURL string, regions []Region, opts Options, logger *log.Logger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = defaultOpenMeteoURL
	}
	if len(regions) == 0 {
		regions = DefaultRegions
	}
	return &OpenMeteoClient{
		client:  NewClient("open-meteo", opts, logger),
		baseURL: baseURL,
		regions: regions,
	}
}

type openMeteoResponse struct {
	Daily struct {
		Time    []string  `json:"time"`
		TempMax []float64 `json:"temperature_2m_max"`
		TempMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
}

// HDD converts a day's max/min temperatures to heating degree days.
func HDD(tempMaxF, tempMinF float64) float64 {
	avg := (tempMaxF + tempMinF) / 2
	if avg >= hddBaseTempF {
		return 0
	}
	return hddBaseTempF - avg
}

// HDDSeries fetches daily temperatures for all regions over the range
// and returns the cross-region average heating degree days per day.
func (o *OpenMeteoClient) HDDSeries(ctx context.Context, start, end time.Time) (*market.Series, error) {
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)

	for _, region := range o.regions {
		resp, err := o.fetchRegion(ctx, region, start, end)
		if err != nil {
			return nil, fmt.Errorf("open-meteo: region %s: %w", region.Name, err)
		}
		n := len(resp.Daily.Time)
		if len(resp.Daily.TempMax) != n || len(resp.Daily.TempMin) != n {
			return nil, fmt.Errorf("open-meteo: region %s: ragged daily arrays", region.Name)
		}
		for i := 0; i < n; i++ {
			date, err := time.Parse("2006-01-02", resp.Daily.Time[i])
			if err != nil {
				return nil, fmt.Errorf("open-meteo: parsing date %q: %w", resp.Daily.Time[i], err)
			}
			sums[date] += HDD(resp.Daily.TempMax[i], resp.Daily.TempMin[i])
			counts[date]++
		}
	}
	if len(sums) == 0 {
		return nil, fmt.Errorf("open-meteo: no temperature data for %s..%s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	points := make([]market.Point, 0, len(sums))
	for date, sum := range sums {
		points = append(points, market.Point{Date: date, Value: sum / float64(counts[date])})
	}
	return market.NewSeries(points), nil
}

func (o *OpenMeteoClient) fetchRegion(ctx context.Context, region Region, start, end time.Time) (*openMeteoResponse, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", region.Latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", region.Longitude))
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("daily", "temperature_2m_max,temperature_2m_min")
	q.Set("temperature_unit", "fahrenheit")
	q.Set("timezone", "America/New_York")

	var resp openMeteoResponse
	if err := o.client.GetJSON(ctx, o.baseURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
