package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msevon/NATGAS-trader/internal/datasource"
	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/signals"
)

// EngineParams builds the engine parameter set from the configuration.
func (c *Config) EngineParams() engine.Params {
	return engine.Params{
		Symbol:                c.Instruments.Symbol,
		InverseSymbol:         c.Instruments.InverseSymbol,
		InitialCapital:        c.Sizing.InitialCapital,
		BasePositionSize:      c.Sizing.BasePositionSize,
		MinPositionSize:       c.Sizing.MinPositionSize,
		MaxPositionSize:       c.Sizing.MaxPositionSize,
		MinTradeValue:         c.Sizing.MinTradeValue,
		SignalCapMultiplier:   c.Sizing.SignalCapMultiplier,
		BuyThreshold:          c.Signals.BuyThreshold,
		SellThreshold:         c.Signals.SellThreshold,
		StopLossPct:           c.Risk.StopLossPct,
		TakeProfitPct:         c.Risk.TakeProfitPct,
		TrailingStopPct:       c.Risk.TrailingStopPct,
		TrailingActivationPct: c.Risk.TrailingActivationPct,
		CommissionPerTrade:    c.Costs.CommissionPerTrade,
		SlippagePct:           c.Costs.SlippagePct,
	}
}

// SignalConfig builds the generator configuration.
func (c *Config) SignalConfig() signals.Config {
	return signals.Config{
		Weights: signals.Weights{
			Temperature: c.Signals.TemperatureWeight,
			Inventory:   c.Signals.InventoryWeight,
			Storm:       c.Signals.StormWeight,
		},
		BuyThreshold:  c.Signals.BuyThreshold,
		SellThreshold: c.Signals.SellThreshold,
		Symbol:        c.Instruments.Symbol,
		InverseSymbol: c.Instruments.InverseSymbol,
	}
}

// SourceOptions builds the shared HTTP client options for the data
// source adapters.
func (c *Config) SourceOptions() datasource.Options {
	return datasource.Options{
		Timeout:    c.HTTPTimeout(),
		MaxRetries: c.Sources.MaxRetries,
		Backoff:    c.RetryBackoff(),
	}
}

// Regions parses the configured "lat,lon" pairs. An empty list means
// the adapter's default demand centers.
func (c *Config) Regions() ([]datasource.Region, error) {
	var out []datasource.Region
	for i, raw := range c.Sources.Regions {
		parts := strings.SplitN(raw, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("sources.regions[%d]: want \"lat,lon\", got %q", i, raw)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("sources.regions[%d]: latitude: %w", i, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("sources.regions[%d]: longitude: %w", i, err)
		}
		out = append(out, datasource.Region{
			Name:      fmt.Sprintf("region-%d", i+1),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return out, nil
}
