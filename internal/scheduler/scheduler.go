// Package scheduler drives the recurring refresh work: indicator recompute,
// global-stats refresh, and the optional full market refresh. All timers
// start together after the initial universe is established and stop
// together on shutdown.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"rsipulse/internal/collector"
	"rsipulse/internal/metrics"
	"rsipulse/internal/model"
	"rsipulse/internal/recorder"
	"rsipulse/internal/store"
)

// Default cadences, mirroring the refresh intervals of the live view.
const (
	DefaultRSIInterval    = 5 * time.Minute
	DefaultStatsInterval  = 60 * time.Second
	DefaultMarketInterval = 10 * time.Minute
)

// DefaultAssetConcurrency bounds how many assets have their six-timeframe
// fan-out in flight at once.
const DefaultAssetConcurrency = 8

// Scheduler manages the recurring refresh tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Store     *store.Store
	Market    collector.MarketSource
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Metrics
	Ctx       context.Context

	AssetConcurrency int
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, st *store.Store, market collector.MarketSource, col *collector.Collector, rec recorder.Recorder, m *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Cron:             cron.New(),
		Store:            st,
		Market:           market,
		Collector:        col,
		Recorder:         rec,
		Metrics:          m,
		Ctx:              ctx,
		AssetConcurrency: DefaultAssetConcurrency,
	}
}

// RegisterAll registers the recompute and stats tasks, plus the market
// refresh when marketEvery is non-zero.
func (s *Scheduler) RegisterAll(rsiEvery, statsEvery, marketEvery time.Duration) error {
	if rsiEvery <= 0 {
		rsiEvery = DefaultRSIInterval
	}
	if statsEvery <= 0 {
		statsEvery = DefaultStatsInterval
	}

	if _, err := s.Cron.AddFunc(every(rsiEvery), s.RecomputeRSI); err != nil {
		return fmt.Errorf("register rsi recompute: %w", err)
	}
	if _, err := s.Cron.AddFunc(every(statsEvery), s.RefreshGlobalStats); err != nil {
		return fmt.Errorf("register stats refresh: %w", err)
	}
	if marketEvery > 0 {
		if _, err := s.Cron.AddFunc(every(marketEvery), s.RefreshMarkets); err != nil {
			return fmt.Errorf("register market refresh: %w", err)
		}
	}
	return nil
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}

// Start starts all timers. Call only once the initial universe and
// snapshot are in place.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop cancels all timers together.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info().Msg("scheduler stopped")
}

// RecomputeRSI runs one full indicator recompute cycle: for every tracked
// asset with a pair identifier, the six timeframe readings are fetched
// concurrently and applied to the store as one atomic batch per asset.
// Assets are processed concurrently and unordered; results from a slow
// fetch may land after a newer cycle has started, which is accepted
// (last write wins per asset, staleness is bounded by one cadence).
func (s *Scheduler) RecomputeRSI() {
	started := time.Now()
	ids := s.Store.AssetIDs()

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		computed    int
		unavailable int
	)
	sem := make(chan struct{}, s.AssetConcurrency)

	for _, id := range ids {
		asset, found := s.Store.Asset(id)
		if !found || asset.BinancePair == "" {
			// No pair on the exchange: existing (absent) readings stay as
			// they are.
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(id, pair string) {
			defer wg.Done()
			defer func() { <-sem }()

			batch := s.Collector.ComputeRSIBatch(s.Ctx, pair)
			s.Store.ApplyRSIBatch(id, batch)

			mu.Lock()
			for _, tf := range model.Timeframes {
				if batch.Get(tf).Valid {
					computed++
				} else {
					unavailable++
				}
			}
			mu.Unlock()
		}(id, asset.BinancePair)
	}
	wg.Wait()

	elapsed := time.Since(started)
	s.Metrics.RecomputeDur.Observe(elapsed.Seconds())
	log.Info().
		Int("assets", len(ids)).
		Int("computed", computed).
		Int("unavailable", unavailable).
		Dur("elapsed", elapsed).
		Msg("rsi recompute cycle done")

	if err := s.Recorder.RecordCycle(&recorder.CycleRecord{
		Assets:      len(ids),
		Computed:    computed,
		Unavailable: unavailable,
		Duration:    elapsed,
	}); err != nil {
		log.Error().Err(err).Msg("record rsi cycle")
	}
}

// RefreshGlobalStats replaces the dominance stats wholesale. A fetch
// failure keeps the previous value so the view never regresses to "no
// data" over a transient fault.
func (s *Scheduler) RefreshGlobalStats() {
	stats, err := s.Market.GlobalStats(s.Ctx)
	if err != nil {
		s.Metrics.FetchErrors.WithLabelValues(s.Market.Name(), "global").Inc()
		log.Warn().Err(err).Msg("global stats refresh failed, keeping previous value")
		return
	}

	s.Store.ReplaceGlobalStats(*stats)
	if err := s.Recorder.RecordGlobalStats(*stats); err != nil {
		log.Error().Err(err).Msg("record global stats")
	}
}

// RefreshMarkets updates base market fields from a fresh full-market
// snapshot. Universe membership and live prices are not touched.
func (s *Scheduler) RefreshMarkets() {
	entries, err := s.Market.Markets(s.Ctx)
	if err != nil {
		s.Metrics.FetchErrors.WithLabelValues(s.Market.Name(), "markets").Inc()
		log.Warn().Err(err).Msg("market refresh failed, keeping previous state")
		return
	}

	updated := s.Store.ApplyMarketRefresh(entries)
	log.Debug().Int("updated", updated).Msg("market base fields refreshed")
}
