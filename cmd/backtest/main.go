package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"github.com/msevon/NATGAS-trader/internal/config"
	"github.com/msevon/NATGAS-trader/internal/engine"
	"github.com/msevon/NATGAS-trader/internal/market"
	"github.com/msevon/NATGAS-trader/internal/metrics"
	"github.com/msevon/NATGAS-trader/internal/perf"
	"github.com/msevon/NATGAS-trader/internal/signals"
	"github.com/msevon/NATGAS-trader/internal/storage"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[BACKTEST] ", log.LstdFlags)

	start, end, err := cfg.BacktestRange()
	if err != nil {
		logger.Fatalf("Invalid backtest range: %v", err)
	}
	logger.Printf("Simulating %s / %s from %s to %s",
		cfg.Instruments.Symbol, cfg.Instruments.InverseSymbol,
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	inputs, primary, inverse, err := loadData(cfg)
	if err != nil {
		logger.Fatalf("Failed to load data: %v", err)
	}

	generator, err := signals.NewGenerator(cfg.SignalConfig(), logger)
	if err != nil {
		logger.Fatalf("Failed to build signal generator: %v", err)
	}
	raw := generator.Generate(inputs, start, end)
	confirmed := signals.Confirm(raw, cfg.Signals.ConfirmationDays)
	signalSeries := market.NewSignalSeries(confirmed)

	params := cfg.EngineParams()
	eng, err := engine.New(params, logger)
	if err != nil {
		logger.Fatalf("Invalid engine parameters: %v", err)
	}
	result, err := eng.Run(signalSeries, primary, inverse, start, end)
	if err != nil {
		logger.Fatalf("Simulation failed: %v", err)
	}

	summary := perf.Summarize(result.Trades, result.DailyValues, params.InitialCapital)
	analysis := perf.Analyze(result.Trades, result.DailyValues, params.InitialCapital, start, end)

	metrics.RunsTotal.Inc()
	metrics.LastFinalCapital.Set(result.FinalCapital)
	metrics.LastTotalReturnPct.Set(result.TotalReturnPct)
	for _, t := range result.Trades {
		metrics.TradesTotal.WithLabelValues(t.Symbol, string(t.Side), string(t.Reason)).Inc()
	}

	recorder, err := storage.NewRecorder(storageBackend(cfg), cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer recorder.Close()

	runID, err := recorder.RecordRun(params, result, &summary)
	if err != nil {
		logger.Fatalf("Failed to record run: %v", err)
	}
	if runID != "" {
		logger.Printf("Recorded run %s", runID)
	}

	printReport(result, summary, analysis)
}

func storageBackend(cfg *config.Config) string {
	if cfg.Storage.Path != "" {
		return "sqlite"
	}
	return ""
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

func printReport(result *engine.Result, summary perf.Summary, analysis perf.Analysis) {
	fmt.Println()
	fmt.Println("============================================================")
	fmt.Println(" SIMULATION RESULTS")
	fmt.Println("============================================================")
	fmt.Printf(" Period:            %s .. %s\n",
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"))
	fmt.Printf(" Initial capital:   $%.2f\n", result.InitialCapital)
	fmt.Printf(" Final capital:     $%.2f\n", result.FinalCapital)
	fmt.Printf(" Total return:      $%.2f (%.2f%%)\n", result.TotalReturn, result.TotalReturnPct)
	fmt.Printf(" Annualized return: %.2f%%\n", analysis.AnnualizedReturnPct)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf(" Sharpe ratio:      %.2f\n", summary.SharpeRatio)
	fmt.Printf(" Sortino ratio:     %.2f\n", analysis.SortinoRatio)
	fmt.Printf(" Max drawdown:      %.2f%%\n", summary.MaxDrawdown*100)
	fmt.Printf(" Volatility:        %.2f%%\n", analysis.VolatilityPct)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf(" Trades:            %d round trips (%d executions)\n",
		summary.TotalTrades, len(result.Trades))
	fmt.Printf(" Win rate:          %.1f%% (%d W / %d L)\n",
		summary.WinRate*100, summary.Wins, summary.Losses)
	fmt.Printf(" Avg win / loss:    $%.2f / $%.2f\n", summary.AvgWin, summary.AvgLoss)
	fmt.Printf(" Profit factor:     %s\n", formatProfitFactor(summary.ProfitFactor))
	fmt.Printf(" Avg holding days:  %.1f\n", analysis.AvgHoldingDays)
	fmt.Println("------------------------------------------------------------")
	fmt.Println(" Exits by reason:")
	for reason, count := range analysis.TradesByReason {
		fmt.Printf("   %-20s %d\n", reason, count)
	}
	if len(result.Positions) > 0 {
		fmt.Println("------------------------------------------------------------")
		fmt.Println(" Open positions at end:")
		for _, p := range result.Positions {
			fmt.Printf("   %s x%d @ $%.2f (entered %s)\n",
				p.Symbol, p.Quantity, p.AvgPrice, p.EntryDate.Format("2006-01-02"))
		}
	}
	fmt.Println("============================================================")
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf (no losing trades)"
	}
	return fmt.Sprintf("%.2f", pf)
}
