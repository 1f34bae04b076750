package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/pairtrader/config"
	"github.com/alejandrodnm/pairtrader/internal/adapters/binance"
	"github.com/alejandrodnm/pairtrader/internal/adapters/notify"
	"github.com/alejandrodnm/pairtrader/internal/adapters/storage"
	"github.com/alejandrodnm/pairtrader/internal/backtest"
	"github.com/alejandrodnm/pairtrader/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	stratName := flag.String("strategy", "", "strategy to backtest (overrides config)")
	days := flag.Int("days", 0, "history window in days (overrides config)")
	offline := flag.Bool("offline", false, "serve market data from the local cache only")
	strict := flag.Bool("strict", false, "validate the signal stream before simulating")
	trades := flag.Bool("trades", false, "print the trade log after the results")
	history := flag.Bool("history", false, "print past backtest runs and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *stratName != "" {
		cfg.Backtest.Strategy = *stratName
	}
	if *days > 0 {
		cfg.Backtest.Days = *days
	}
	setupLogger(cfg.Log)

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	presenter := notify.NewConsole(*trades)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *history {
		runs, err := store.ListRuns(ctx, 20)
		if err != nil {
			slog.Error("failed to list runs", "err", err)
			os.Exit(1)
		}
		if err := presenter.PresentHistory(ctx, runs); err != nil {
			slog.Error("presenter error", "err", err)
			os.Exit(1)
		}
		return
	}

	registry := strategy.NewRegistry()
	registry.Register(strategy.NewPairsReversion(strategy.PairsReversionConfig{}))
	registry.Register(strategy.NewCrossover(strategy.CrossoverConfig{}))
	registry.Register(strategy.NewRSIReversion(strategy.RSIReversionConfig{}))

	strat, ok := registry.Get(cfg.Backtest.Strategy)
	if !ok {
		slog.Error("unknown strategy",
			"strategy", cfg.Backtest.Strategy,
			"available", registry.Names(),
		)
		os.Exit(1)
	}

	from, to := cfg.Window()
	runCfg := backtest.Config{
		InitialCapital: cfg.Backtest.InitialCapital,
		FeeRate:        cfg.Backtest.FeeRate,
		From:           from,
		To:             to,
		Strict:         *strict,
	}

	slog.Info("pairtrader starting",
		"strategy", strat.Name(),
		"days", cfg.Backtest.Days,
		"capital", runCfg.InitialCapital,
		"fee_rate", runCfg.FeeRate,
		"offline", *offline,
		"strict", *strict,
	)

	provider := binance.NewClient(cfg.API.BinanceKey, cfg.API.BinanceSecret, store, *offline)
	runner := backtest.NewRunner(runCfg, provider, store, presenter)

	run, err := runner.Run(ctx, strat)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	if !run.Performance.Passed() {
		os.Exit(2) // distinguible en scripts: corrió bien pero no pasa cutoffs
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
