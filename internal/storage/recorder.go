// Package storage persists simulation runs so the dashboard and later
// analysis can read them back. A run is one engine invocation: its
// parameters and headline results, plus the trade ledger and daily
// equity curve it produced.
package storage

import (
	"time"

	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/perf"
)

// RunRecord is the persisted header of one simulation run.
type RunRecord struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Symbol         string    `json:"symbol"`
	InverseSymbol  string    `json:"inverse_symbol"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturnPct float64   `json:"total_return_pct"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	WinRatePct     float64   `json:"win_rate_pct"`
	TotalTrades    int       `json:"total_trades"`
}

// Recorder persists run results. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// RecordRun stores the run header, its trades, and its equity
	// curve, returning the run ID.
	RecordRun(params engine.Params, result *engine.Result, summary *perf.Summary) (string, error)

	// Runs lists stored run headers, newest first.
	Runs(limit int) ([]RunRecord, error)

	// Run fetches one run header by ID.
	Run(id string) (*RunRecord, error)

	// Trades fetches the trade ledger for a run in execution order.
	Trades(runID string) ([]models.Trade, error)

	// Equity fetches the daily portfolio values for a run.
	Equity(runID string) ([]models.PortfolioValue, error)

	Close() error
}

// NewRecorder builds a recorder for the configured backend: "sqlite"
// persists to path, anything else (including empty) records nothing.
func NewRecorder(backend, path string) (Recorder, error) {
	if backend == "sqlite" {
		return NewSQLiteRecorder(path)
	}
	return NewNoopRecorder(), nil
}
