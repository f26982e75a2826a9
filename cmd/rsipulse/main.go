package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rsipulse/internal/api"
	"rsipulse/internal/collector"
	"rsipulse/internal/config"
	"rsipulse/internal/metrics"
	"rsipulse/internal/recorder"
	"rsipulse/internal/scheduler"
	"rsipulse/internal/store"
	"rsipulse/internal/stream"
	"rsipulse/internal/universe"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Info().Msg("rsipulse starting...")

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core state and instrumentation
	st := store.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// Data sources
	gecko := collector.NewCoinGeckoClient(cfg.Providers.CoinGeckoBaseURL)
	binance := collector.NewBinanceClient(cfg.Providers.BinanceBaseURL, cfg.Providers.BinanceRPS)
	col := collector.NewCollector(binance, cfg.RSI.Period, m)
	log.Info().Str("market", gecko.Name()).Str("exchange", binance.Name()).Msg("data sources ready")

	// Recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Initial universe selection. A failure here is fatal: without a
	// tracked universe there is nothing to stream or recompute.
	sel := universe.NewSelector()
	sel.MaxAssets = cfg.Universe.MaxAssets
	entries, err := gecko.Markets(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch initial market snapshot")
	}
	tradable, err := binance.TradableSymbols(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("fetch tradable symbols")
	}
	assets := sel.Select(entries, tradable)
	st.ReplaceUniverse(assets)
	m.AssetsTracked.Set(float64(len(assets)))
	log.Info().Int("candidates", len(entries)).Int("tracked", len(assets)).Msg("universe selected")

	// Scheduler
	sched := scheduler.NewScheduler(ctx, st, gecko, col, rec, m)
	if err := sched.RegisterAll(
		cfg.Refresh.RSIInterval.Std(),
		cfg.Refresh.StatsInterval.Std(),
		cfg.Refresh.MarketInterval.Std(),
	); err != nil {
		log.Fatal().Err(err).Msg("register refresh tasks")
	}

	// Seed the view before the timers take over, then compute the first
	// indicator cycle in the background so startup is not gated on ~600
	// candle fetches.
	sched.RefreshGlobalStats()
	go sched.RecomputeRSI()
	sched.Start()
	defer sched.Stop()

	// Live price stream
	rc := stream.NewReconciler(cfg.Providers.StreamURL, st, m)
	rc.OnStateChange = func(from, to stream.State) {
		log.Info().Str("from", from.String()).Str("to", to.String()).Msg("stream state change")
		if err := rec.RecordStreamEvent(&recorder.StreamEvent{From: from.String(), To: to.String()}); err != nil {
			log.Warn().Err(err).Msg("record stream event")
		}
	}
	go rc.Run(ctx)

	// View API
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.NewServer(st, reg, func() string { return rc.State().String() }).Router(),
	}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("api server")
		}
	}()

	log.Info().Msg("rsipulse is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("api shutdown")
	}
	log.Info().Msg("rsipulse stopped")
}
