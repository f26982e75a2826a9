package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsipulse/internal/model"
)

func seeded() *Store {
	s := New()
	s.ReplaceUniverse([]model.Asset{
		{ID: "bitcoin", Symbol: "btc", BinancePair: "BTCUSDT", CurrentPrice: 50000, MarketCap: 2},
		{ID: "ethereum", Symbol: "eth", BinancePair: "ETHUSDT", CurrentPrice: 3000, MarketCap: 1},
		{ID: "unlisted", Symbol: "xyz"}, // tracked but with no exchange pair
	})
	return s
}

func TestApplyTick(t *testing.T) {
	s := seeded()

	assert.Equal(t, TickApplied, s.ApplyTick(model.Tick{Symbol: "BTCUSDT", Price: 50001}))
	a, _ := s.Asset("bitcoin")
	assert.Equal(t, 50001.0, a.CurrentPrice)

	// Same price again is a no-op write.
	assert.Equal(t, TickNoop, s.ApplyTick(model.Tick{Symbol: "BTCUSDT", Price: 50001}))

	// A symbol outside the universe is dropped without error.
	assert.Equal(t, TickUnknown, s.ApplyTick(model.Tick{Symbol: "DOGEUSDT", Price: 0.1}))
}

func TestApplyRSIBatch_Atomic(t *testing.T) {
	s := seeded()

	batch := model.RSIBatch{
		M5: model.Reading(61.2),
		H1: model.Reading(48.8),
		// remaining timeframes unavailable this cycle
	}
	require.True(t, s.ApplyRSIBatch("ethereum", batch))

	a, _ := s.Asset("ethereum")
	assert.Equal(t, batch, a.RSI, "all six fields replaced as one unit")
	assert.False(t, a.RSI.M15.Valid)
	assert.True(t, a.RSI.M5.Valid)

	assert.False(t, s.ApplyRSIBatch("gone", batch), "unknown id is ignored")
}

func TestApplyMarketRefresh_PriceOwnership(t *testing.T) {
	s := seeded()

	refresh := []model.MarketEntry{
		{ID: "bitcoin", Name: "Bitcoin", CurrentPrice: 49000, MarketCap: 3, TotalVolume: 9},
		{ID: "outsider", Name: "Not Tracked"},
	}

	// Before any tick arrives the snapshot still owns the price.
	assert.Equal(t, 1, s.ApplyMarketRefresh(refresh))
	a, _ := s.Asset("bitcoin")
	assert.Equal(t, 49000.0, a.CurrentPrice)
	assert.Equal(t, 3.0, a.MarketCap)

	// Once streaming has taken over, refreshes keep their hands off it.
	s.ApplyTick(model.Tick{Symbol: "BTCUSDT", Price: 50500})
	refresh[0].CurrentPrice = 48000
	s.ApplyMarketRefresh(refresh)
	a, _ = s.Asset("bitcoin")
	assert.Equal(t, 50500.0, a.CurrentPrice)

	// Refresh never adds entries.
	_, found := s.Asset("outsider")
	assert.False(t, found)
}

func TestReplaceGlobalStats(t *testing.T) {
	s := New()

	_, has := s.GlobalStats()
	assert.False(t, has)

	s.ReplaceGlobalStats(model.GlobalStats{BTCDominance: 52.3, USDTDominance: 5.1})
	stats, has := s.GlobalStats()
	require.True(t, has)
	assert.Equal(t, 52.3, stats.BTCDominance)
}

func TestPairsFollowUniverse(t *testing.T) {
	s := seeded()
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, s.Pairs(), "rank order, pairless assets skipped")

	s.ReplaceUniverse([]model.Asset{
		{ID: "solana", Symbol: "sol", BinancePair: "SOLUSDT"},
	})
	assert.Equal(t, []string{"SOLUSDT"}, s.Pairs(), "re-selection fully replaces the set")
	_, found := s.Asset("bitcoin")
	assert.False(t, found)
}

func TestSnapshotIsIsolated(t *testing.T) {
	s := seeded()
	view := s.Snapshot()
	require.True(t, view.Ready)

	// Mutating the model after the snapshot must not leak into the copy.
	s.ApplyTick(model.Tick{Symbol: "BTCUSDT", Price: 99999})
	assert.Equal(t, 50000.0, view.Assets["bitcoin"].CurrentPrice)

	view.Order[0] = "tampered"
	assert.Equal(t, "bitcoin", s.AssetIDs()[0])
}

func TestReadyFlag(t *testing.T) {
	s := New()
	assert.False(t, s.Ready())
	s.ReplaceUniverse([]model.Asset{{ID: "bitcoin"}})
	assert.True(t, s.Ready())
}
