package signals

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/models"
)

func testConfig() Config {
	return Config{
		Weights:       Weights{Temperature: 0.4, Inventory: 0.4, Storm: 0.2},
		BuyThreshold:  0.3,
		SellThreshold: -0.3,
		Symbol:        "BOIL",
		InverseSymbol: "KOLD",
	}
}

func quiet() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func d(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func series(prices map[int]float64) *market.Series {
	points := make([]market.Point, 0, len(prices))
	for offset, v := range prices {
		points = append(points, market.Point{Date: d(offset), Value: v})
	}
	return market.NewSeries(points)
}

func TestNewGeneratorValidation(t *testing.T) {
	_, err := NewGenerator(testConfig(), quiet())
	assert.NoError(t, err)

	bad := testConfig()
	bad.Weights.Storm = 0.5 // sums to 1.3
	_, err = NewGenerator(bad, quiet())
	assert.Error(t, err)

	bad = testConfig()
	bad.BuyThreshold = -0.1
	_, err = NewGenerator(bad, quiet())
	assert.Error(t, err)

	bad = testConfig()
	bad.Symbol = ""
	_, err = NewGenerator(bad, quiet())
	assert.Error(t, err)
}

func TestTemperatureSignal(t *testing.T) {
	g, err := NewGenerator(testConfig(), quiet())
	require.NoError(t, err)

	// Mean HDD is 20; a 30-HDD day reads +0.5 (colder than average).
	hdd := series(map[int]float64{0: 10, 1: 20, 2: 30})
	assert.InDelta(t, 0.5, g.TemperatureSignal(hdd, d(2)), 1e-9)
	assert.InDelta(t, -0.5, g.TemperatureSignal(hdd, d(0)), 1e-9)

	assert.Equal(t, 0.0, g.TemperatureSignal(market.NewSeries(nil), d(0)))
}

func TestInventorySignal(t *testing.T) {
	g, err := NewGenerator(testConfig(), quiet())
	require.NoError(t, err)

	// Mean storage 2000; current 1500 reads +0.25 (tight, bullish).
	inv := series(map[int]float64{0: 2500, 7: 2000, 14: 1500})
	assert.InDelta(t, 0.25, g.InventorySignal(inv, d(14)), 1e-9)

	// Weekly data carries forward between reports.
	assert.InDelta(t, 0.0, g.InventorySignal(inv, d(10)), 1e-9)

	// Before the first report there is nothing to read.
	assert.Equal(t, 0.0, g.InventorySignal(inv, d(-1)))
}

func TestStormSignal(t *testing.T) {
	g, err := NewGenerator(testConfig(), quiet())
	require.NoError(t, err)

	storms := series(map[int]float64{0: 0, 1: 1})
	assert.Equal(t, 1.0, g.StormSignal(storms, d(1)))
	assert.Equal(t, 0.0, g.StormSignal(market.NewSeries(nil), d(0)))
}

func TestDecideThresholds(t *testing.T) {
	g, err := NewGenerator(testConfig(), quiet())
	require.NoError(t, err)

	action, symbol, conf := g.Decide(0.45)
	assert.Equal(t, models.ActionBuy, action)
	assert.Equal(t, "BOIL", symbol)
	assert.InDelta(t, 1.5, conf, 1e-9)

	action, symbol, conf = g.Decide(-0.6)
	assert.Equal(t, models.ActionBuy, action)
	assert.Equal(t, "KOLD", symbol)
	assert.InDelta(t, 2.0, conf, 1e-9)

	// Confidence caps at 2x.
	_, _, conf = g.Decide(1.5)
	assert.InDelta(t, 2.0, conf, 1e-9)

	// Inside the dead zone, including exactly at the thresholds.
	for _, total := range []float64{0, 0.3, -0.3, 0.1} {
		action, symbol, _ = g.Decide(total)
		assert.Equal(t, models.ActionHold, action, "total=%v", total)
		assert.Empty(t, symbol)
	}
}

func TestForDateComposesWeightedTotal(t *testing.T) {
	g, err := NewGenerator(testConfig(), quiet())
	require.NoError(t, err)

	in := Inputs{
		HDD:       series(map[int]float64{0: 10, 1: 30}), // mean 20, day1 => +0.5
		Inventory: series(map[int]float64{0: 2500, 1: 1500}),
		Storms:    series(map[int]float64{0: 0, 1: 1}),
	}

	sig := g.ForDate(in, d(1))
	assert.InDelta(t, 0.5, sig.Temperature, 1e-9)
	assert.InDelta(t, 0.25, sig.Inventory, 1e-9) // mean 2000, current 1500
	assert.InDelta(t, 1.0, sig.Storm, 1e-9)
	assert.InDelta(t, 0.4*0.5+0.4*0.25+0.2*1.0, sig.Total, 1e-9)
	assert.Equal(t, models.ActionBuy, sig.Action)
	assert.Equal(t, "BOIL", sig.Symbol)
}

func TestGenerateOnePerDay(t *testing.T) {
	g, err := NewGenerator(testConfig(), quiet())
	require.NoError(t, err)

	in := Inputs{
		HDD:       series(map[int]float64{0: 20, 5: 20}),
		Inventory: series(map[int]float64{0: 2000, 5: 2000}),
		Storms:    series(map[int]float64{0: 0, 5: 0}),
	}

	out := g.Generate(in, d(0), d(5))
	require.Len(t, out, 6)
	for i, sig := range out {
		assert.True(t, sig.Timestamp.Equal(d(i)))
		assert.Equal(t, models.ActionHold, sig.Action) // all-flat data
	}
}
