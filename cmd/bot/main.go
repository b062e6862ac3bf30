package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pgannon/spreadbot/internal/broker"
	"github.com/pgannon/spreadbot/internal/config"
	"github.com/pgannon/spreadbot/internal/dashboard"
	"github.com/pgannon/spreadbot/internal/marketdata"
	"github.com/pgannon/spreadbot/internal/mock"
	"github.com/pgannon/spreadbot/internal/models"
	"github.com/pgannon/spreadbot/internal/orders"
	"github.com/pgannon/spreadbot/internal/strategy"
)

// Bot wires the spread strategy components together for one underlying.
// The underlying instrument is shared: the session manager qualifies it on
// the first cycle and every component reuses the same resolved contract.
type Bot struct {
	config     *config.Config
	broker     broker.Broker
	underlying *models.Instrument
	sessions   *marketdata.SessionManager
	builder    *strategy.SpreadBuilder
	executor   *orders.Executor
	filters    []strategy.Evaluator
	status     *statusBoard
	logger     *logrus.Logger
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(cfg.Environment.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	logger.Infof("Starting spread bot in %s mode", cfg.Environment.Mode)
	if !cfg.IsPaperTrading() {
		logger.Warn("LIVE TRADING MODE - real money at risk")
	}

	bot, err := newBot(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		select {
		case <-sigChan:
			logger.Info("Shutdown signal received, stopping bot...")
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	if cfg.Dashboard.Enabled {
		server := dashboard.NewServer(dashboard.Config{
			Port:      cfg.Dashboard.Port,
			AuthToken: cfg.Dashboard.AuthToken,
		}, bot.status, logger)

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
		g.Go(func() error {
			return ignoreServerClosed(server.Start())
		})
	}

	g.Go(func() error {
		return bot.Run(ctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatalf("Bot error: %v", err)
	}

	logger.Info("Bot stopped successfully")
}

func newBot(cfg *config.Config, logger *logrus.Logger) (*Bot, error) {
	b, err := newBroker(cfg)
	if err != nil {
		return nil, err
	}
	// Shield the trading loop from venue flakiness.
	wrapped := broker.NewCircuitBreakerBroker(b)

	sessions := marketdata.NewSessionManager(wrapped, logger, cfg.Location())

	underlying := cfg.Underlying()
	builder, err := strategy.NewSpreadBuilder(wrapped, logger, underlying, cfg.OptionClass(),
		strategy.BuilderConfig{
			Spec:          cfg.VerticalSpec(),
			Right:         cfg.Right(),
			Kind:          cfg.Kind(),
			GreeksTimeout: cfg.GreeksTimeout(),
			GreeksPoll:    cfg.GreeksPoll(),
		})
	if err != nil {
		return nil, err
	}

	manager := orders.NewManager(wrapped, logger, orders.Config{Tick: cfg.Execution.Tick})
	executor := orders.NewExecutor(wrapped, builder, manager, logger, cfg.Strategy.Quantity)

	return &Bot{
		config:     cfg,
		broker:     wrapped,
		underlying: underlying,
		sessions:   sessions,
		builder:    builder,
		executor:   executor,
		filters:    buildFilters(cfg, wrapped, underlying, logger),
		status:     newStatusBoard(),
		logger:     logger,
	}, nil
}

// newBroker picks the venue connector for the configured mode. Live
// connectivity ships separately; this build trades against the synthetic
// venue only.
func newBroker(cfg *config.Config) (broker.Broker, error) {
	if cfg.IsPaperTrading() {
		return mock.NewBroker(mock.Config{
			Spot:        100,
			TimeZoneID:  cfg.Schedule.Timezone,
			LiquidHours: paperHours(cfg),
		}), nil
	}
	return nil, fmt.Errorf("live mode requires a venue connector; configure environment.mode: paper")
}

// paperHours synthesizes an always-open schedule for today so paper runs
// exercise the full pipeline.
func paperHours(cfg *config.Config) string {
	today := time.Now().In(cfg.Location()).Format("20060102")
	return fmt.Sprintf("%s:0000-2359", today)
}

func buildFilters(cfg *config.Config, b broker.Broker, underlying *models.Instrument,
	logger *logrus.Logger) []strategy.Evaluator {
	var filters []strategy.Evaluator

	if f := cfg.Strategy.Filters.MovingAverage; f.Enabled {
		filters = append(filters, strategy.NewCloseAboveMovingAverage(b, logger, underlying,
			strategy.HistorySpec{
				BarSize:    strategy.BarSize(f.BarSize),
				Length:     f.Length,
				WarmupBars: 50,
				WhatToShow: "TRADES",
				UseRTH:     true,
			}, strategy.MAType(f.Type)))
	}
	if f := cfg.Strategy.Filters.MoveUp; f.Enabled {
		filters = append(filters, strategy.NewMoveUpFromOpen(b, logger, underlying, f.Threshold,
			strategy.HistorySpec{
				BarSize:    strategy.BarSize(f.BarSize),
				Length:     1,
				WhatToShow: "TRADES",
				UseRTH:     true,
			}))
	}
	return filters
}

// ignoreServerClosed drops the error a cleanly stopped HTTP server reports.
func ignoreServerClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Run drives the periodic trading task until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Bot starting main loop...")

	ticker := time.NewTicker(b.config.CheckInterval())
	defer ticker.Stop()

	// Run immediately on start
	b.runTradingTask(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.runTradingTask(ctx)
		}
	}
}
