package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/msevon/NATGAS-trader/internal/config"
	"github.com/msevon/NATGAS-trader/internal/dashboard"
	"github.com/msevon/NATGAS-trader/internal/datasource"
	"github.com/msevon/NATGAS-trader/internal/metrics"
	"github.com/msevon/NATGAS-trader/internal/signals"
	"github.com/msevon/NATGAS-trader/internal/storage"
)

// Bot runs the live signal loop: on each scheduled tick it pulls fresh
// observations from the external sources, computes the day's composite
// signal, and logs the resulting decision. Paper mode never places
// orders; it only reports what it would do.
type Bot struct {
	config    *config.Config
	logger    *log.Logger
	generator *signals.Generator
	eia       *datasource.EIAClient
	weather   *datasource.OpenMeteoClient
	noaa      *datasource.NOAAClient
	yahoo     *datasource.YahooClient
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[BOT] ", log.LstdFlags|log.Lshortfile)

	logger.Printf("Starting natural gas signal bot in %s mode", cfg.Environment.Mode)
	if cfg.IsPaperTrading() {
		logger.Println("PAPER MODE - no orders will be placed")
	} else {
		logger.Println("LIVE MODE requested - live order routing is not wired; running signal-only")
	}

	bot, err := newBot(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize bot: %v", err)
	}

	recorder, err := storage.NewRecorder(recorderBackend(cfg), cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}
	defer recorder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Shutdown signal received, stopping bot...")
		cancel()
	}()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Dashboard.Enabled {
		srvLogger := logrus.New()
		if level, err := logrus.ParseLevel(cfg.Environment.LogLevel); err == nil {
			srvLogger.SetLevel(level)
		}
		srv := dashboard.NewServer(dashboard.Config{
			Port:      cfg.Dashboard.Port,
			AuthToken: cfg.Dashboard.AuthToken,
		}, recorder, srvLogger)

		g.Go(func() error {
			return srv.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return bot.runSchedule(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatalf("Bot error: %v", err)
	}
	logger.Println("Bot stopped")
}

func recorderBackend(cfg *config.Config) string {
	if cfg.Storage.Path != "" {
		return "sqlite"
	}
	return ""
}

func newBot(cfg *config.Config, logger *log.Logger) (*Bot, error) {
	generator, err := signals.NewGenerator(cfg.SignalConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("building signal generator: %w", err)
	}

	opts := cfg.SourceOptions()
	regions, err := cfg.Regions()
	if err != nil {
		return nil, err
	}

	eia, err := datasource.NewEIAClient(cfg.Sources.EIAAPIKey, cfg.Sources.EIAURL, opts, logger)
	if err != nil {
		return nil, err
	}

	return &Bot{
		config:    cfg,
		logger:    logger,
		generator: generator,
		eia:       eia,
		weather:   datasource.NewOpenMeteoClient(cfg.Sources.WeatherURL, regions, opts, logger),
		noaa:      datasource.NewNOAAClient(cfg.Sources.NOAAURL, opts, logger),
		yahoo:     datasource.NewYahooClient(cfg.Sources.YahooURL, opts, logger),
	}, nil
}

// runSchedule blocks until ctx is canceled, firing evaluate on the
// configured cron expression.
func (b *Bot) runSchedule(ctx context.Context) error {
	loc := time.Local
	if tz := b.config.Schedule.Timezone; tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return fmt.Errorf("loading timezone: %w", err)
		}
	}

	expr := b.config.Schedule.Cron
	if expr == "" {
		expr = "0 7 * * 1-5" // weekdays, 07:00
	}

	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(expr, func() {
		tickCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if err := b.evaluate(tickCtx); err != nil {
			b.logger.Printf("Evaluation failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	b.logger.Printf("Scheduled signal evaluation: %q (%s)", expr, loc)
	c.Start()
	defer c.Stop()

	// One immediate evaluation on startup so the operator sees a
	// decision without waiting for the next tick.
	startCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	if err := b.evaluate(startCtx); err != nil {
		b.logger.Printf("Startup evaluation failed: %v", err)
	}
	cancel()

	<-ctx.Done()
	return ctx.Err()
}

// evaluate pulls fresh data and computes today's composite signal.
func (b *Bot) evaluate(ctx context.Context) error {
	now := time.Now().UTC()
	lookback := now.AddDate(-1, 0, 0)

	hdd, err := b.weather.HDDSeries(ctx, now.AddDate(0, -1, 0), now)
	if err != nil {
		metrics.SignalFetchErrors.WithLabelValues("open-meteo").Inc()
		return fmt.Errorf("temperature data: %w", err)
	}
	inventory, err := b.eia.StorageSeries(ctx, lookback, now)
	if err != nil {
		metrics.SignalFetchErrors.WithLabelValues("eia").Inc()
		return fmt.Errorf("inventory data: %w", err)
	}
	storms, err := b.noaa.StormFlag(ctx)
	if err != nil {
		metrics.SignalFetchErrors.WithLabelValues("noaa").Inc()
		return fmt.Errorf("storm data: %w", err)
	}

	sig := b.generator.ForDate(signals.Inputs{
		HDD:       hdd,
		Inventory: inventory,
		Storms:    storms,
	}, now)

	b.logger.Printf("Signal %s: total=%.3f (temp=%.3f inv=%.3f storm=%.3f) action=%s symbol=%s confidence=%.2f",
		now.Format("2006-01-02"), sig.Total,
		sig.Temperature, sig.Inventory, sig.Storm,
		sig.Action, sig.Symbol, sig.Confidence)

	if sig.IsBuy() {
		price, err := b.latestPrice(ctx, sig.Symbol)
		if err != nil {
			b.logger.Printf("Price lookup for %s failed: %v", sig.Symbol, err)
			return nil
		}
		b.logger.Printf("PAPER: would buy %s near $%.2f (confidence %.2f)",
			sig.Symbol, price, sig.Confidence)
	}
	return nil
}

func (b *Bot) latestPrice(ctx context.Context, symbol string) (float64, error) {
	series, err := b.yahoo.DailyCloses(ctx, symbol, time.Now().AddDate(0, 0, -14), time.Now())
	if err != nil {
		return 0, err
	}
	last, ok := series.Last()
	if !ok {
		return 0, fmt.Errorf("no recent closes for %s", symbol)
	}
	return last.Value, nil
}
