package storage

import (
	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/models"
	"github.com/msevon/NATGAS-trader/internal/perf"
)

// NoopRecorder discards everything; used when persistence is not
// configured.
type NoopRecorder struct{}

var _ Recorder = (*NoopRecorder)(nil)

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(engine.Params, *engine.Result, *perf.Summary) (string, error) {
	return "", nil
}
func (n *NoopRecorder) Runs(int) ([]RunRecord, error)             { return nil, nil }
func (n *NoopRecorder) Run(string) (*RunRecord, error)            { return nil, nil }
func (n *NoopRecorder) Trades(string) ([]models.Trade, error)     { return nil, nil }
func (n *NoopRecorder) Equity(string) ([]models.PortfolioValue, error) { return nil, nil }
func (n *NoopRecorder) Close() error                              { return nil }
