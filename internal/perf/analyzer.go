package perf

import (
	"math"
	"sort"
	"time"

	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/util"
)

// Analysis extends Summary with the risk and trade-quality metrics the
// reports use. Like Summary it degrades to zeros on degenerate input.
type Analysis struct {
	Summary

	AnnualizedReturnPct  float64            `json:"annualized_return_pct"`
	VolatilityPct        float64            `json:"volatility_pct"`
	SortinoRatio         float64            `json:"sortino_ratio"`
	CalmarRatio          float64            `json:"calmar_ratio"`
	MaxConsecutiveLosses int                `json:"max_consecutive_losses"`
	AvgHoldingDays       float64            `json:"avg_holding_days"`
	TradesByReason       map[string]int     `json:"trades_by_reason"`
	MonthlyReturns       []MonthlyReturn    `json:"monthly_returns"`
	DaysTraded           int                `json:"days_traded"`
}

// MonthlyReturn is the portfolio return over one calendar month.
type MonthlyReturn struct {
	Month     string  `json:"month"` // YYYY-MM
	ReturnPct float64 `json:"return_pct"`
}

// Analyze computes the extended metrics for a run.
func Analyze(trades []models.Trade, values []models.PortfolioValue, initialCapital float64, start, end time.Time) Analysis {
	a := Analysis{
		Summary:        Summarize(trades, values, initialCapital),
		TradesByReason: make(map[string]int),
	}
	a.DaysTraded = int(end.Sub(start).Hours() / 24)

	years := float64(a.DaysTraded) / 365.25
	if years > 0 && initialCapital > 0 && a.FinalCapital > 0 {
		a.AnnualizedReturnPct = (math.Pow(a.FinalCapital/initialCapital, 1/years) - 1) * 100
	}

	a.VolatilityPct = util.StdDev(a.DailyReturns) * math.Sqrt(tradingDaysPerYear) * 100
	a.SortinoRatio = sortino(a.DailyReturns)
	if a.MaxDrawdown > 0 {
		a.CalmarRatio = a.AnnualizedReturnPct / (a.MaxDrawdown * 100)
	}

	a.MaxConsecutiveLosses = maxConsecutiveLosses(a.RoundTrips)
	a.AvgHoldingDays = avgHoldingDays(a.RoundTrips)
	for _, t := range trades {
		if t.Side == models.SideSell {
			a.TradesByReason[string(t.Reason)]++
		}
	}
	a.MonthlyReturns = monthlyReturns(values)
	return a
}

func sortino(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	dd := util.StdDev(downside) * math.Sqrt(tradingDaysPerYear) * 100
	if dd == 0 {
		return 0
	}
	annualMean := util.Mean(returns) * tradingDaysPerYear * 100
	return annualMean / dd
}

func maxConsecutiveLosses(trips []RoundTrip) int {
	maxRun, run := 0, 0
	for _, rt := range trips {
		if rt.PnL < 0 {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 0
		}
	}
	return maxRun
}

func avgHoldingDays(trips []RoundTrip) float64 {
	if len(trips) == 0 {
		return 0
	}
	total := 0.0
	for _, rt := range trips {
		total += rt.ExitDate.Sub(rt.EntryDate).Hours() / 24
	}
	return total / float64(len(trips))
}

// monthlyReturns computes each calendar month's return from its first
// to its last recorded portfolio value.
func monthlyReturns(values []models.PortfolioValue) []MonthlyReturn {
	if len(values) < 2 {
		return nil
	}
	type span struct{ first, last float64 }
	byMonth := make(map[string]*span)
	for _, v := range values {
		key := v.Date.Format("2006-01")
		if s, ok := byMonth[key]; ok {
			s.last = v.Value
		} else {
			byMonth[key] = &span{first: v.Value, last: v.Value}
		}
	}
	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthlyReturn, 0, len(months))
	for _, m := range months {
		s := byMonth[m]
		if s.first == 0 {
			continue
		}
		out = append(out, MonthlyReturn{Month: m, ReturnPct: (s.last - s.first) / s.first * 100})
	}
	return out
}
