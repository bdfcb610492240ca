package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/msevon/NATGAS-trader/internal/config"
	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/optimize"
	"github.com/msevon/NATGAS-trader/internal/signals"
)

func main() {
	var (
		configPath    string
		maxCandidates int
		workers       int
		seed          int64
		topN          int
	)
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.IntVar(&maxCandidates, "max-candidates", 2000, "Cap on grid combinations to evaluate (0 = all)")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "Concurrent simulation workers")
	flag.Int64Var(&seed, "seed", 42, "Sampling seed when the grid exceeds the cap")
	flag.IntVar(&topN, "top", 10, "Number of ranked results to print")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[OPTIMIZE] ", log.LstdFlags)

	start, end, err := cfg.BacktestRange()
	if err != nil {
		logger.Fatalf("Invalid backtest range: %v", err)
	}

	inputs, primary, inverse, err := loadData(cfg)
	if err != nil {
		logger.Fatalf("Failed to load data: %v", err)
	}

	base := optimize.Candidate{
		Params: cfg.EngineParams(),
		Weights: signals.Weights{
			Temperature: cfg.Signals.TemperatureWeight,
			Inventory:   cfg.Signals.InventoryWeight,
			Storm:       cfg.Signals.StormWeight,
		},
		ConfirmationDays: cfg.Signals.ConfirmationDays,
	}

	candidates := optimize.Expand(base, optimize.DefaultGrid(), maxCandidates, seed)
	logger.Printf("Sweeping %d parameter combinations across %d workers", len(candidates), workers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Interrupt received, stopping sweep...")
		cancel()
	}()

	opt := optimize.New(inputs, primary, inverse, start, end, logger)
	opt.Workers = workers

	results, err := opt.Run(ctx, candidates)
	if err != nil {
		logger.Fatalf("Sweep aborted: %v", err)
	}

	ranked := optimize.Rank(results)
	printRanked(ranked, topN)
}

// loadData reads the offline CSV series named in the config.
func loadData(cfg *config.Config) (signals.Inputs, *market.Series, *market.Series, error) {
	dir := cfg.Backtest.DataDir
	load := func(name string) (*market.Series, error) {
		if name == "" {
			return nil, fmt.Errorf("missing file name in backtest.files")
		}
		return market.LoadCSV(filepath.Join(dir, name))
	}

	primary, err := load(cfg.Backtest.Files.PrimaryPrices)
	if err != nil {
		return signals.Inputs{}, nil, nil, fmt.Errorf("primary prices: %w", err)
	}
	inverse, err := load(cfg.Backtest.Files.InversePrices)
	if err != nil {
		return signals.Inputs{}, nil, nil, fmt.Errorf("inverse prices: %w", err)
	}
	hdd, err := load(cfg.Backtest.Files.HDD)
	if err != nil {
		return signals.Inputs{}, nil, nil, fmt.Errorf("hdd: %w", err)
	}
	inventory, err := load(cfg.Backtest.Files.Inventory)
	if err != nil {
		return signals.Inputs{}, nil, nil, fmt.Errorf("inventory: %w", err)
	}
	storms, err := load(cfg.Backtest.Files.Storms)
	if err != nil {
		return signals.Inputs{}, nil, nil, fmt.Errorf("storms: %w", err)
	}

	return signals.Inputs{HDD: hdd, Inventory: inventory, Storms: storms}, primary, inverse, nil
}

func printRanked(ranked []optimize.Result, topN int) {
	fmt.Println()
	fmt.Println("=========================================================================================")
	fmt.Println(" RANK | RETURN% | SHARPE | MAXDD% | TRADES | BUY  | SELL  | SL%  | TP%  | TRAIL% | CONF")
	fmt.Println("-----------------------------------------------------------------------------------------")
	for i, r := range ranked {
		if i >= topN {
			break
		}
		if r.Err != nil {
			fmt.Printf(" %4d | run failed: %v\n", i+1, r.Err)
			continue
		}
		p := r.Candidate.Params
		fmt.Printf(" %4d | %+7.2f | %6.2f | %6.2f | %6d | %.2f | %.2f | %4.1f | %4.1f | %5.1f | %4d\n",
			i+1, r.Summary.TotalReturnPct, r.Summary.SharpeRatio,
			r.Summary.MaxDrawdown*100, r.Summary.TotalTrades,
			p.BuyThreshold, p.SellThreshold,
			p.StopLossPct*100, p.TakeProfitPct*100, p.TrailingStopPct*100,
			r.Candidate.ConfirmationDays)
	}
	fmt.Println("=========================================================================================")

	if len(ranked) > 0 && ranked[0].Err == nil {
		best := ranked[0].Candidate
		fmt.Println("\nBest candidate (YAML fragment):")
		fmt.Printf("signals:\n")
		fmt.Printf("  temperature_weight: %.2f\n", best.Weights.Temperature)
		fmt.Printf("  inventory_weight: %.2f\n", best.Weights.Inventory)
		fmt.Printf("  storm_weight: %.2f\n", best.Weights.Storm)
		fmt.Printf("  buy_threshold: %.2f\n", best.Params.BuyThreshold)
		fmt.Printf("  sell_threshold: %.2f\n", best.Params.SellThreshold)
		fmt.Printf("  confirmation_days: %d\n", best.ConfirmationDays)
		fmt.Printf("risk:\n")
		fmt.Printf("  stop_loss_pct: %.3f\n", best.Params.StopLossPct)
		fmt.Printf("  take_profit_pct: %.3f\n", best.Params.TakeProfitPct)
		fmt.Printf("  trailing_stop_pct: %.3f\n", best.Params.TrailingStopPct)
		fmt.Printf("sizing:\n")
		fmt.Printf("  base_position_size: %.0f\n", best.Params.BasePositionSize)
		fmt.Printf("  max_position_size: %.0f\n", best.Params.MaxPositionSize)
	}
}
