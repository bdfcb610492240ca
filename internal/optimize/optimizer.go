// Package optimize sweeps strategy parameter combinations over a fixed
// historical window, running one independent simulation per candidate
// and ranking the outcomes. Runs share no mutable state: each gets a
// freshly initialized engine, so the sweep is embarrassingly parallel.
package optimize

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/perf"
	"github.com/msevon/NATGAS-trader/internal/signals"
)

// Candidate is one parameter combination under test.
type Candidate struct {
	Params           engine.Params
	Weights          signals.Weights
	ConfirmationDays int
}

// Validate rejects combinations that are internally inconsistent, in
// addition to the engine's own parameter validation.
func (c Candidate) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	sum := c.Weights.Temperature + c.Weights.Inventory + c.Weights.Storm
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("candidate: weights must sum to 1.0 (got %.3f)", sum)
	}
	if c.Params.BasePositionSize > c.Params.MaxPositionSize {
		return fmt.Errorf("candidate: base position size exceeds max")
	}
	if c.ConfirmationDays < 1 {
		return fmt.Errorf("candidate: confirmation days must be >= 1")
	}
	return nil
}

// Result couples a candidate with its run outcome.
type Result struct {
	Candidate Candidate
	Summary   perf.Summary
	Err       error
}

// Grid enumerates the values each swept parameter may take. Fixed
// parameters are carried on the Base candidate.
type Grid struct {
	BuyThresholds      []float64
	SellThresholds     []float64
	TemperatureWeights []float64
	InventoryWeights   []float64
	StormWeights       []float64
	BasePositionSizes  []float64
	MaxPositionSizes   []float64
	StopLossPcts       []float64
	TakeProfitPcts     []float64
	TrailingStopPcts   []float64
	Commissions        []float64
	SlippagePcts       []float64
	ConfirmationDays   []int
}

// DefaultGrid returns the sweep ranges used by the strategy research
// runs.
func DefaultGrid() Grid {
	return Grid{
		BuyThresholds:      []float64{0.4, 0.5, 0.6, 0.7, 0.8},
		SellThresholds:     []float64{-0.8, -0.7, -0.6, -0.5, -0.4},
		TemperatureWeights: []float64{0.2, 0.3, 0.4, 0.5},
		InventoryWeights:   []float64{0.2, 0.3, 0.4, 0.5},
		StormWeights:       []float64{0.1, 0.2, 0.3},
		BasePositionSizes:  []float64{500, 1000, 1500, 2000, 2500},
		MaxPositionSizes:   []float64{3000, 4000, 5000, 6000},
		StopLossPcts:       []float64{0.08, 0.10, 0.12, 0.15, 0.20},
		TakeProfitPcts:     []float64{0.15, 0.20, 0.25, 0.30, 0.40},
		TrailingStopPcts:   []float64{0.05, 0.08, 0.10, 0.12},
		Commissions:        []float64{0.5, 1.0, 1.5},
		SlippagePcts:       []float64{0.0005, 0.001, 0.002},
		ConfirmationDays:   []int{1, 2, 3},
	}
}

// Optimizer drives the sweep over one fixed data window.
type Optimizer struct {
	inputs     signals.Inputs
	primary    *market.Series
	inverse    *market.Series
	start, end time.Time
	logger     *log.Logger

	// Workers bounds concurrent runs; 0 means unbounded.
	Workers int
}

// New creates an optimizer over materialized data.
func New(inputs signals.Inputs, primary, inverse *market.Series, start, end time.Time, logger *log.Logger) *Optimizer {
	if logger == nil {
		logger = log.Default()
	}
	return &Optimizer{
		inputs:  inputs,
		primary: primary,
		inverse: inverse,
		start:   start,
		end:     end,
		logger:  logger,
	}
}

// Expand builds the candidate list from the grid, skipping invalid
// combinations. When the cartesian product exceeds maxCandidates, a
// deterministic (seeded) sample of that size is taken.
func Expand(base Candidate, grid Grid, maxCandidates int, seed int64) []Candidate {
	var out []Candidate
	for _, buy := range grid.BuyThresholds {
		for _, sell := range grid.SellThresholds {
			for _, tw := range grid.TemperatureWeights {
				for _, iw := range grid.InventoryWeights {
					for _, sw := range grid.StormWeights {
						for _, bs := range grid.BasePositionSizes {
							for _, ms := range grid.MaxPositionSizes {
								for _, sl := range grid.StopLossPcts {
									for _, tp := range grid.TakeProfitPcts {
										for _, ts := range grid.TrailingStopPcts {
											for _, comm := range grid.Commissions {
												for _, slip := range grid.SlippagePcts {
													for _, conf := range grid.ConfirmationDays {
														c := base
														c.Params.BuyThreshold = buy
														c.Params.SellThreshold = sell
														c.Weights = signals.Weights{Temperature: tw, Inventory: iw, Storm: sw}
														c.Params.BasePositionSize = bs
														c.Params.MaxPositionSize = ms
														c.Params.StopLossPct = sl
														c.Params.TakeProfitPct = tp
														c.Params.TrailingStopPct = ts
														c.Params.CommissionPerTrade = comm
														c.Params.SlippagePct = slip
														c.ConfirmationDays = conf
														if c.Validate() == nil {
															out = append(out, c)
														}
													}
												}
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}

	if maxCandidates > 0 && len(out) > maxCandidates {
		rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- sampling, not cryptography
		rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		out = out[:maxCandidates]
	}
	return out
}

// Run executes every candidate across a bounded worker pool and returns
// per-candidate results in input order. Individual run failures are
// recorded in the Result, not propagated: one pathological combination
// must not abort the sweep.
func (o *Optimizer) Run(ctx context.Context, candidates []Candidate) ([]Result, error) {
	results := make([]Result, len(candidates))

	g, ctx := errgroup.WithContext(ctx)
	if o.Workers > 0 {
		g.SetLimit(o.Workers)
	}

	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			results[i] = o.runOne(cand)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.Printf("sweep complete: %d candidates evaluated", len(candidates))
	return results, nil
}

// runOne evaluates a single candidate with a fresh engine and a silent
// logger.
func (o *Optimizer) runOne(cand Candidate) Result {
	quiet := log.New(io.Discard, "", 0)

	gen, err := signals.NewGenerator(signals.Config{
		Weights:       cand.Weights,
		BuyThreshold:  cand.Params.BuyThreshold,
		SellThreshold: cand.Params.SellThreshold,
		Symbol:        cand.Params.Symbol,
		InverseSymbol: cand.Params.InverseSymbol,
	}, quiet)
	if err != nil {
		return Result{Candidate: cand, Err: err}
	}

	sigs := signals.Confirm(gen.Generate(o.inputs, o.start, o.end), cand.ConfirmationDays)

	eng, err := engine.New(cand.Params, quiet)
	if err != nil {
		return Result{Candidate: cand, Err: err}
	}
	res, err := eng.Run(market.NewSignalSeries(sigs), o.primary, o.inverse, o.start, o.end)
	if err != nil {
		return Result{Candidate: cand, Err: err}
	}

	return Result{
		Candidate: cand,
		Summary:   perf.Summarize(res.Trades, res.DailyValues, res.InitialCapital),
	}
}

// Rank orders results by total return, best first, pushing failed runs
// to the bottom. The input slice is not modified.
func Rank(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Err == nil) != (out[j].Err == nil) {
			return out[i].Err == nil
		}
		return out[i].Summary.TotalReturnPct > out[j].Summary.TotalReturnPct
	})
	return out
}
