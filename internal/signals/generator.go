// Package signals builds the daily composite trading signal from
// weather, storage-inventory, and storm-disruption observations, and
// applies the consecutive-day confirmation filter. The composite
// formula is fixed input to the engine, not something this package
// tunes.
package signals

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/models"
)

// Weights are the sub-signal weights of the composite formula. They
// must sum to 1.
type Weights struct {
	Temperature float64
	Inventory   float64
	Storm       float64
}

// Config parameterizes signal generation.
type Config struct {
	Weights       Weights
	BuyThreshold  float64 // > 0, targets Symbol
	SellThreshold float64 // < 0, targets InverseSymbol
	Symbol        string
	InverseSymbol string
}

// maxConfidence caps the threshold-relative confidence value.
const maxConfidence = 2.0

// Inputs are the observation series the generator reads. HDD is daily
// heating degree days, Inventory the weekly storage level, Storms a
// 0/1 disruption flag series.
type Inputs struct {
	HDD       *market.Series
	Inventory *market.Series
	Storms    *market.Series
}

// Generator computes one composite signal per calendar day.
type Generator struct {
	cfg    Config
	logger *log.Logger
}

// NewGenerator validates the configuration and returns a generator.
func NewGenerator(cfg Config, logger *log.Logger) (*Generator, error) {
	sum := cfg.Weights.Temperature + cfg.Weights.Inventory + cfg.Weights.Storm
	if math.Abs(sum-1.0) > 0.01 {
		return nil, fmt.Errorf("signals: weights must sum to 1.0 (got %.3f)", sum)
	}
	if cfg.BuyThreshold <= 0 || cfg.SellThreshold >= 0 {
		return nil, fmt.Errorf("signals: thresholds must straddle zero")
	}
	if cfg.Symbol == "" || cfg.InverseSymbol == "" {
		return nil, fmt.Errorf("signals: both symbols are required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Generator{cfg: cfg, logger: logger}, nil
}

// TemperatureSignal measures how much colder the day is than the
// historical average: positive when HDD is above average (bullish for
// heating demand). The closest available reading stands in for a
// missing day.
func (g *Generator) TemperatureSignal(hdd *market.Series, day time.Time) float64 {
	point, ok := hdd.Nearest(day)
	if !ok {
		g.logger.Printf("no temperature data near %s", day.Format("2006-01-02"))
		return 0
	}
	avg := hdd.Mean()
	if avg == 0 {
		return 0
	}
	return (point.Value - avg) / avg
}

// InventorySignal measures how far storage sits below its historical
// average: positive when inventory is tight (bullish). Storage levels
// are weekly, so the most recent report at or before the day is used.
func (g *Generator) InventorySignal(inventory *market.Series, day time.Time) float64 {
	current, ok := inventory.At(day)
	if !ok {
		g.logger.Printf("no inventory data at or before %s", day.Format("2006-01-02"))
		return 0
	}
	avg := inventory.Mean()
	if avg == 0 {
		return 0
	}
	return (avg - current) / avg
}

// StormSignal returns the disruption flag closest to the day, 0 when no
// storm data exists.
func (g *Generator) StormSignal(storms *market.Series, day time.Time) float64 {
	point, ok := storms.Nearest(day)
	if !ok {
		return 0
	}
	return point.Value
}

// Total combines the sub-signals with the configured weights.
func (g *Generator) Total(temperature, inventory, storm float64) float64 {
	return temperature*g.cfg.Weights.Temperature +
		inventory*g.cfg.Weights.Inventory +
		storm*g.cfg.Weights.Storm
}

// Decide maps the total signal to an action, a target instrument, and a
// confidence capped at maxConfidence.
func (g *Generator) Decide(total float64) (models.Action, string, float64) {
	switch {
	case total > g.cfg.BuyThreshold:
		return models.ActionBuy, g.cfg.Symbol, math.Min(total/g.cfg.BuyThreshold, maxConfidence)
	case total < g.cfg.SellThreshold:
		return models.ActionBuy, g.cfg.InverseSymbol, math.Min(math.Abs(total)/math.Abs(g.cfg.SellThreshold), maxConfidence)
	default:
		return models.ActionHold, "", 0
	}
}

// ForDate builds the composite signal for one day.
func (g *Generator) ForDate(in Inputs, day time.Time) models.Signal {
	day = market.Day(day)
	temp := g.TemperatureSignal(in.HDD, day)
	inv := g.InventorySignal(in.Inventory, day)
	storm := g.StormSignal(in.Storms, day)
	total := g.Total(temp, inv, storm)
	action, symbol, confidence := g.Decide(total)
	return models.Signal{
		Timestamp:   day,
		Temperature: temp,
		Inventory:   inv,
		Storm:       storm,
		Total:       total,
		Action:      action,
		Symbol:      symbol,
		Confidence:  confidence,
	}
}

// Generate produces one signal for every calendar day in [start, end].
func (g *Generator) Generate(in Inputs, start, end time.Time) []models.Signal {
	start, end = market.Day(start), market.Day(end)
	var out []models.Signal
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		out = append(out, g.ForDate(in, day))
	}
	g.logger.Printf("generated %d signals from %s to %s",
		len(out), start.Format("2006-01-02"), end.Format("2006-01-02"))
	return out
}
