// Package perf derives performance statistics from a simulation run's
// trade ledger and daily portfolio values. Everything here is a pure
// function over engine outputs: degenerate input yields neutral zeros,
// never an error, so a sweep of thousands of runs cannot be aborted by
// one pathological result.
package perf

import (
	"math"
	"time"

	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/util"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// RoundTrip is a matched BUY-then-SELL pair for one instrument, the
// unit over which realized PnL and win/loss statistics are computed.
type RoundTrip struct {
	Symbol    string             `json:"symbol"`
	EntryDate time.Time          `json:"entry_date"`
	ExitDate  time.Time          `json:"exit_date"`
	PnL       float64            `json:"pnl"`
	Reason    models.CloseReason `json:"reason"`
}

// Summary holds the standard statistics for one run.
type Summary struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalReturn    float64 `json:"total_return"`
	TotalReturnPct float64 `json:"total_return_pct"`

	DailyReturns []float64 `json:"-"`
	MaxDrawdown  float64   `json:"max_drawdown"`
	SharpeRatio  float64   `json:"sharpe_ratio"`

	RoundTrips   []RoundTrip `json:"-"`
	TotalTrades  int         `json:"total_trades"`
	Wins         int         `json:"wins"`
	Losses       int         `json:"losses"`
	WinRate      float64     `json:"win_rate"`
	AvgWin       float64     `json:"avg_win"`
	AvgLoss      float64     `json:"avg_loss"`
	ProfitFactor float64     `json:"profit_factor"`
}

// Summarize computes the full summary for a run. It is idempotent:
// the same inputs always produce the same output.
func Summarize(trades []models.Trade, values []models.PortfolioValue, initialCapital float64) Summary {
	s := Summary{
		InitialCapital: initialCapital,
		FinalCapital:   initialCapital,
		TotalTrades:    len(trades),
	}
	if len(values) > 0 {
		s.FinalCapital = values[len(values)-1].Value
	}
	if initialCapital > 0 {
		s.TotalReturn = s.FinalCapital - initialCapital
		s.TotalReturnPct = s.TotalReturn / initialCapital * 100
	}

	s.DailyReturns = DailyReturns(values)
	s.MaxDrawdown = MaxDrawdown(values)
	s.SharpeRatio = SharpeRatio(s.DailyReturns)

	s.RoundTrips = PairRoundTrips(trades)
	s.Wins, s.Losses, s.WinRate, s.AvgWin, s.AvgLoss, s.ProfitFactor = tradeStats(s.RoundTrips)
	return s
}

// DailyReturns computes consecutive-day returns over the portfolio
// value series; empty when fewer than two values exist.
func DailyReturns(values []models.PortfolioValue) []float64 {
	if len(values) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (values[i].Value-prev)/prev)
	}
	return returns
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction
// of the peak, 0 for empty input.
func MaxDrawdown(values []models.PortfolioValue) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0].Value
	maxDD := 0.0
	for _, v := range values {
		if v.Value > peak {
			peak = v.Value
		}
		if peak > 0 {
			if dd := (peak - v.Value) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// SharpeRatio returns the annualized Sharpe ratio at a zero risk-free
// rate, 0 when returns are empty or have zero variance.
func SharpeRatio(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	std := util.StdDev(returns)
	if std == 0 {
		return 0
	}
	return util.Mean(returns) / std * math.Sqrt(tradingDaysPerYear)
}

// PairRoundTrips matches each BUY with the next SELL for the same
// instrument. Mutual exclusivity guarantees at most one open trade per
// instrument, so a single pending-buy slot per symbol suffices.
// Unmatched buys (a position still open at the end of the ledger) are
// dropped.
func PairRoundTrips(trades []models.Trade) []RoundTrip {
	open := make(map[string]models.Trade, 2)
	var trips []RoundTrip
	for _, t := range trades {
		switch t.Side {
		case models.SideBuy:
			open[t.Symbol] = t
		case models.SideSell:
			buy, ok := open[t.Symbol]
			if !ok {
				continue
			}
			trips = append(trips, RoundTrip{
				Symbol:    t.Symbol,
				EntryDate: buy.Timestamp,
				ExitDate:  t.Timestamp,
				PnL:       t.Value - buy.Value,
				Reason:    t.Reason,
			})
			delete(open, t.Symbol)
		}
	}
	return trips
}

func tradeStats(trips []RoundTrip) (wins, losses int, winRate, avgWin, avgLoss, profitFactor float64) {
	if len(trips) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	var winPnls, lossPnls []float64
	for _, rt := range trips {
		if rt.PnL > 0 {
			winPnls = append(winPnls, rt.PnL)
		} else if rt.PnL < 0 {
			lossPnls = append(lossPnls, rt.PnL)
		}
	}

	wins, losses = len(winPnls), len(lossPnls)
	winRate = float64(wins) / float64(len(trips))
	avgWin = util.Mean(winPnls)
	avgLoss = util.Mean(lossPnls)

	totalWins := 0.0
	for _, w := range winPnls {
		totalWins += w
	}
	totalLosses := 0.0
	for _, l := range lossPnls {
		totalLosses += math.Abs(l)
	}
	switch {
	case totalLosses > 0:
		profitFactor = totalWins / totalLosses
	case totalWins > 0:
		profitFactor = math.Inf(1)
	default:
		profitFactor = 0
	}
	return wins, losses, winRate, avgWin, avgLoss, profitFactor
}
