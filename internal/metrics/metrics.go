package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "natgas_runs_total", Help: "Simulation runs completed"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "natgas_trades_total", Help: "Trades executed, by side and close reason"},
		[]string{"symbol", "side", "reason"},
	)
	SignalFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "natgas_signal_fetch_errors_total", Help: "Data source fetch failures"},
		[]string{"source"},
	)
	LastFinalCapital = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "natgas_last_final_capital", Help: "Final capital of the most recent run"},
	)
	LastTotalReturnPct = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "natgas_last_total_return_pct", Help: "Total return of the most recent run, percent"},
	)
)

func init() {
	prometheus.MustRegister(RunsTotal, TradesTotal, SignalFetchErrors,
		LastFinalCapital, LastTotalReturnPct)
}
