package datasource

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/msevon/NATGAS-trader/internal/market"
)

const defaultNOAAURL = "https://api.weather.gov/alerts"

// Event types that matter for gas supply and demand disruption.
var stormKeywords = []string{
	"storm", "winter", "blizzard", "ice", "freeze",
	"hurricane", "tornado", "severe",
}

// NOAAClient fetches active weather alerts from the National Weather
// Service and reduces them to a binary disruption flag.
type NOAAClient struct {
	client  *Client
	baseURL string
}

func NewNOAAClient(baseURL string, opts Options, logger *log.Logger) *NOAAClient {
	if baseURL == "" {
		baseURL = defaultNOAAURL
	}
	return &NOAAClient{
		client:  NewClient("noaa", opts, logger),
		baseURL: baseURL,
	}
}

type noaaResponse struct {
	Features []struct {
		Properties struct {
			Event     string `json:"event"`
			Severity  string `json:"severity"`
			Urgency   string `json:"urgency"`
			AreaDesc  string `json:"areaDesc"`
			Effective string `json:"effective"`
			Expires   string `json:"expires"`
		} `json:"properties"`
	} `json:"features"`
}

// Alert is a storm-relevant NWS alert.
type Alert struct {
	Event    string
	Severity string
	Urgency  string
	Area     string
}

// ActiveAlerts returns the currently active storm-relevant alerts.
// Non-storm events (heat advisories, air quality, flooding) are
// filtered out.
func (n *NOAAClient) ActiveAlerts(ctx context.Context) ([]Alert, error) {
	url := n.baseURL + "?active=true&status=actual&message_type=alert"

	var resp noaaResponse
	if err := n.client.GetJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("noaa: fetching alerts: %w", err)
	}

	var alerts []Alert
	for _, feature := range resp.Features {
		event := strings.ToLower(feature.Properties.Event)
		for _, keyword := range stormKeywords {
			if strings.Contains(event, keyword) {
				alerts = append(alerts, Alert{
					Event:    feature.Properties.Event,
					Severity: feature.Properties.Severity,
					Urgency:  feature.Properties.Urgency,
					Area:     feature.Properties.AreaDesc,
				})
				break
			}
		}
	}
	return alerts, nil
}

// StormFlag returns 1 when any storm-relevant alert is active, else 0,
// as a single-point series dated today. Historical storm series come
// from CSV files; the live API only reports current conditions.
func (n *NOAAClient) StormFlag(ctx context.Context) (*market.Series, error) {
	alerts, err := n.ActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}
	value := 0.0
	if len(alerts) > 0 {
		value = 1.0
	}
	return market.NewSeries([]market.Point{{Date: time.Now().UTC(), Value: value}}), nil
}
