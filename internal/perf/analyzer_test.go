package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msevon/NATGAS-trader/internal/models"
)

func TestAnalyzeZeroInput(t *testing.T) {
	a := Analyze(nil, nil, 100000, pvDay(0), pvDay(0))

	assert.Equal(t, 0.0, a.AnnualizedReturnPct)
	assert.Equal(t, 0.0, a.SortinoRatio)
	assert.Equal(t, 0.0, a.CalmarRatio)
	assert.Equal(t, 0, a.MaxConsecutiveLosses)
	assert.Equal(t, 0.0, a.AvgHoldingDays)
	assert.Empty(t, a.TradesByReason)
	assert.Nil(t, a.MonthlyReturns)
}

func TestAnalyzeAnnualizedReturn(t *testing.T) {
	// Exactly one year, 10% total: annualized equals total.
	start := pvDay(0)
	end := start.AddDate(1, 0, 0)
	values := []models.PortfolioValue{
		{Date: start, Value: 100000},
		{Date: end, Value: 110000},
	}

	a := Analyze(nil, values, 100000, start, end)
	assert.InDelta(t, 10.0, a.AnnualizedReturnPct, 0.1)
}

func TestAnalyzeTradesByReason(t *testing.T) {
	trades := []models.Trade{
		trade(0, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(1, "BOIL", models.SideSell, 10, 95, models.ReasonStopLoss),
		trade(2, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(3, "BOIL", models.SideSell, 10, 94, models.ReasonStopLoss),
		trade(4, "KOLD", models.SideBuy, 10, 50, models.ReasonSignal),
		trade(5, "KOLD", models.SideSell, 10, 60, models.ReasonTakeProfit),
	}

	a := Analyze(trades, nil, 100000, pvDay(0), pvDay(5))
	// Only SELL executions count; BUYs carry the SIGNAL reason by construction.
	assert.Equal(t, 2, a.TradesByReason[string(models.ReasonStopLoss)])
	assert.Equal(t, 1, a.TradesByReason[string(models.ReasonTakeProfit)])
	assert.Equal(t, 0, a.TradesByReason[string(models.ReasonSignal)])
}

func TestAnalyzeMaxConsecutiveLosses(t *testing.T) {
	trades := []models.Trade{
		trade(0, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(1, "BOIL", models.SideSell, 10, 95, models.ReasonStopLoss), // loss
		trade(2, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(3, "BOIL", models.SideSell, 10, 90, models.ReasonStopLoss), // loss
		trade(4, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(5, "BOIL", models.SideSell, 10, 110, models.ReasonTakeProfit), // win
		trade(6, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(7, "BOIL", models.SideSell, 10, 99, models.ReasonSignal), // loss
	}

	a := Analyze(trades, nil, 100000, pvDay(0), pvDay(7))
	assert.Equal(t, 2, a.MaxConsecutiveLosses)
}

func TestAnalyzeAvgHoldingDays(t *testing.T) {
	trades := []models.Trade{
		trade(0, "BOIL", models.SideBuy, 10, 100, models.ReasonSignal),
		trade(4, "BOIL", models.SideSell, 10, 105, models.ReasonSignal), // 4 days
		trade(5, "KOLD", models.SideBuy, 10, 50, models.ReasonSignal),
		trade(7, "KOLD", models.SideSell, 10, 52, models.ReasonSignal), // 2 days
	}

	a := Analyze(trades, nil, 100000, pvDay(0), pvDay(7))
	assert.InDelta(t, 3.0, a.AvgHoldingDays, 1e-9)
}

func TestAnalyzeMonthlyReturns(t *testing.T) {
	values := []models.PortfolioValue{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Value: 100000},
		{Date: time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), Value: 102000},
		{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: 102000},
		{Date: time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), Value: 99960},
	}

	a := Analyze(nil, values, 100000,
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC))

	require.Len(t, a.MonthlyReturns, 2)
	assert.Equal(t, "2024-01", a.MonthlyReturns[0].Month)
	assert.InDelta(t, 2.0, a.MonthlyReturns[0].ReturnPct, 1e-9)
	assert.Equal(t, "2024-02", a.MonthlyReturns[1].Month)
	assert.InDelta(t, -2.0, a.MonthlyReturns[1].ReturnPct, 1e-9)
}

func TestAnalyzeVolatilityAndSortino(t *testing.T) {
	values := pvSeries(100000, 101000, 99500, 100500, 100200)
	a := Analyze(nil, values, 100000, pvDay(0), pvDay(4))

	assert.Greater(t, a.VolatilityPct, 0.0)
	// Mixed up and down days produce a finite Sortino ratio.
	assert.NotEqual(t, 0.0, a.SortinoRatio)
}
