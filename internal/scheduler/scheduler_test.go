package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsipulse/internal/collector"
	"rsipulse/internal/metrics"
	"rsipulse/internal/model"
	"rsipulse/internal/recorder"
	"rsipulse/internal/store"
)

// fakeMarket implements collector.MarketSource with scriptable results.
type fakeMarket struct {
	mu      sync.Mutex
	stats   *model.GlobalStats
	entries []model.MarketEntry
	err     error
}

func (f *fakeMarket) Name() string { return "fake-market" }

func (f *fakeMarket) Markets(context.Context) ([]model.MarketEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.entries, nil
}

func (f *fakeMarket) GlobalStats(context.Context) (*model.GlobalStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

// fakeCandles serves per-pair, per-timeframe candle sets to the collector.
type fakeCandles struct {
	candles map[string]map[model.Timeframe][]model.Candle
}

func (f *fakeCandles) Name() string { return "fake-exchange" }

func (f *fakeCandles) TradableSymbols(context.Context) (map[string]bool, error) {
	return nil, nil
}

func (f *fakeCandles) Klines(_ context.Context, pair string, tf model.Timeframe, _ int) ([]model.Candle, error) {
	return f.candles[pair][tf], nil
}

func rising(n int) []model.Candle {
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i].Close = 100 + float64(i)
	}
	return candles
}

func newScheduler(market collector.MarketSource, ex collector.ExchangeSource) (*Scheduler, *store.Store) {
	st := store.New()
	m := metrics.NewUnregistered()
	col := collector.NewCollector(ex, 14, m)
	return NewScheduler(context.Background(), st, market, col, recorder.NewNoopRecorder(), m), st
}

func TestRecomputeRSI_AppliesBatchesPerAsset(t *testing.T) {
	ex := &fakeCandles{candles: map[string]map[model.Timeframe][]model.Candle{
		"BTCUSDT": {
			model.Timeframe5m:  rising(40),
			model.Timeframe15m: rising(40),
			model.Timeframe1h:  rising(40),
			model.Timeframe4h:  rising(40),
			// 1d and 1w not listed
		},
	}}
	s, st := newScheduler(&fakeMarket{}, ex)
	st.ReplaceUniverse([]model.Asset{
		{ID: "bitcoin", Symbol: "btc", BinancePair: "BTCUSDT"},
		{ID: "unlisted", Symbol: "xyz"}, // no pair, must keep absent readings
	})

	s.RecomputeRSI()

	btc, _ := st.Asset("bitcoin")
	// 4 of 6 timeframes succeeded: all six fields are applied as one unit,
	// the missing two as unavailable.
	assert.True(t, btc.RSI.M5.Valid)
	assert.True(t, btc.RSI.M15.Valid)
	assert.True(t, btc.RSI.H1.Valid)
	assert.True(t, btc.RSI.H4.Valid)
	assert.False(t, btc.RSI.D1.Valid)
	assert.False(t, btc.RSI.W1.Valid)

	xyz, _ := st.Asset("unlisted")
	assert.Equal(t, model.RSIBatch{}, xyz.RSI, "pairless asset untouched")
}

func TestRefreshGlobalStats_FailureRetainsPrevious(t *testing.T) {
	market := &fakeMarket{stats: &model.GlobalStats{BTCDominance: 51.0, USDTDominance: 4.2}}
	s, st := newScheduler(market, &fakeCandles{})

	s.RefreshGlobalStats()
	stats, has := st.GlobalStats()
	require.True(t, has)
	assert.Equal(t, 51.0, stats.BTCDominance)

	market.mu.Lock()
	market.err = errors.New("coingecko down")
	market.mu.Unlock()

	s.RefreshGlobalStats()
	stats, has = st.GlobalStats()
	require.True(t, has, "previous stats must never be cleared")
	assert.Equal(t, 51.0, stats.BTCDominance)
}

func TestRefreshMarkets_FailureRetainsState(t *testing.T) {
	market := &fakeMarket{entries: []model.MarketEntry{
		{ID: "bitcoin", Name: "Bitcoin", MarketCap: 7},
	}}
	s, st := newScheduler(market, &fakeCandles{})
	st.ReplaceUniverse([]model.Asset{{ID: "bitcoin", Symbol: "btc", MarketCap: 5}})

	s.RefreshMarkets()
	a, _ := st.Asset("bitcoin")
	assert.Equal(t, 7.0, a.MarketCap)

	market.mu.Lock()
	market.err = errors.New("rate limited")
	market.mu.Unlock()

	s.RefreshMarkets()
	a, _ = st.Asset("bitcoin")
	assert.Equal(t, 7.0, a.MarketCap, "failed refresh leaves model unchanged")
}

func TestRegisterAll(t *testing.T) {
	s, _ := newScheduler(&fakeMarket{}, &fakeCandles{})
	require.NoError(t, s.RegisterAll(0, 0, 0))
	assert.Len(t, s.Cron.Entries(), 2, "market refresh off by default")

	s2, _ := newScheduler(&fakeMarket{}, &fakeCandles{})
	require.NoError(t, s2.RegisterAll(DefaultRSIInterval, DefaultStatsInterval, DefaultMarketInterval))
	assert.Len(t, s2.Cron.Entries(), 3)
}
