package optimize

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/perf"
	"github.com/msevon/NATGAS-trader/internal/signals"
)

func baseCandidate() Candidate {
	return Candidate{
		Params: engine.Params{
			Symbol:                "BOIL",
			InverseSymbol:         "KOLD",
			InitialCapital:        100000,
			BasePositionSize:      1000,
			MinPositionSize:       100,
			MaxPositionSize:       5000,
			MinTradeValue:         100,
			SignalCapMultiplier:   2.0,
			BuyThreshold:          0.3,
			SellThreshold:         -0.3,
			StopLossPct:           0.05,
			TakeProfitPct:         0.15,
			TrailingStopPct:       0.03,
			TrailingActivationPct: 0.10,
			CommissionPerTrade:    1.0,
			SlippagePct:           0.001,
		},
		Weights:          signals.Weights{Temperature: 0.4, Inventory: 0.4, Storm: 0.2},
		ConfirmationDays: 1,
	}
}

func smallGrid() Grid {
	return Grid{
		BuyThresholds:      []float64{0.3, 0.5},
		SellThresholds:     []float64{-0.5, -0.3},
		TemperatureWeights: []float64{0.4},
		InventoryWeights:   []float64{0.4},
		StormWeights:       []float64{0.2},
		BasePositionSizes:  []float64{1000},
		MaxPositionSizes:   []float64{5000},
		StopLossPcts:       []float64{0.05, 0.10},
		TakeProfitPcts:     []float64{0.15},
		TrailingStopPcts:   []float64{0.03},
		Commissions:        []float64{1.0},
		SlippagePcts:       []float64{0.001},
		ConfirmationDays:   []int{1},
	}
}

func d(offset int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func flatSeries(days int, value float64) *market.Series {
	points := make([]market.Point, days)
	for i := range points {
		points[i] = market.Point{Date: d(i), Value: value}
	}
	return market.NewSeries(points)
}

func testOptimizer() *Optimizer {
	inputs := signals.Inputs{
		HDD:       flatSeries(10, 20),
		Inventory: flatSeries(10, 2000),
		Storms:    flatSeries(10, 0),
	}
	return New(inputs, flatSeries(10, 100), flatSeries(10, 50),
		d(0), d(9), log.New(io.Discard, "", 0))
}

func TestExpandProducesValidCombinations(t *testing.T) {
	candidates := Expand(baseCandidate(), smallGrid(), 0, 1)

	// 2 buy * 2 sell * 2 stoploss = 8 combinations, all valid.
	require.Len(t, candidates, 8)
	for _, c := range candidates {
		assert.NoError(t, c.Validate())
	}
}

func TestExpandSkipsInvalidWeights(t *testing.T) {
	grid := smallGrid()
	grid.StormWeights = []float64{0.2, 0.5} // 0.4+0.4+0.5 does not sum to 1

	candidates := Expand(baseCandidate(), grid, 0, 1)
	require.Len(t, candidates, 8) // the 0.5 variants are dropped
	for _, c := range candidates {
		assert.InDelta(t, 0.2, c.Weights.Storm, 1e-9)
	}
}

func TestExpandSamplingIsDeterministic(t *testing.T) {
	first := Expand(baseCandidate(), smallGrid(), 3, 42)
	second := Expand(baseCandidate(), smallGrid(), 3, 42)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	other := Expand(baseCandidate(), smallGrid(), 3, 7)
	require.Len(t, other, 3)
}

func TestRunEvaluatesAllCandidates(t *testing.T) {
	opt := testOptimizer()
	opt.Workers = 2

	candidates := Expand(baseCandidate(), smallGrid(), 0, 1)
	results, err := opt.Run(context.Background(), candidates)
	require.NoError(t, err)
	require.Len(t, results, len(candidates))

	for i, r := range results {
		assert.NoError(t, r.Err)
		// Results keep input order.
		assert.Equal(t, candidates[i], r.Candidate)
		// Flat data produces no trades and zero return.
		assert.Equal(t, 0, r.Summary.TotalTrades)
		assert.InDelta(t, 0, r.Summary.TotalReturnPct, 1e-9)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	opt := testOptimizer()
	opt.Workers = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := opt.Run(ctx, Expand(baseCandidate(), smallGrid(), 0, 1))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRank(t *testing.T) {
	results := []Result{
		{Summary: perf.Summary{TotalReturnPct: 5}},
		{Err: errors.New("boom")},
		{Summary: perf.Summary{TotalReturnPct: 12}},
		{Summary: perf.Summary{TotalReturnPct: -3}},
	}

	ranked := Rank(results)
	require.Len(t, ranked, 4)
	assert.InDelta(t, 12, ranked[0].Summary.TotalReturnPct, 1e-9)
	assert.InDelta(t, 5, ranked[1].Summary.TotalReturnPct, 1e-9)
	assert.InDelta(t, -3, ranked[2].Summary.TotalReturnPct, 1e-9)
	assert.Error(t, ranked[3].Err)

	// Input order is untouched.
	assert.InDelta(t, 5, results[0].Summary.TotalReturnPct, 1e-9)
}

func TestDefaultGridIsNonTrivial(t *testing.T) {
	grid := DefaultGrid()
	assert.NotEmpty(t, grid.BuyThresholds)
	assert.NotEmpty(t, grid.StopLossPcts)
	assert.NotEmpty(t, grid.ConfirmationDays)
}
