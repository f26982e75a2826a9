// Package store owns the process's shared market data model: the asset map,
// the tracked universe ordering, and the global stats singleton. Every core
// component reads and writes through typed operations here; there is no
// package-level global.
//
// Each field group has exactly one designated writer: the stream reconciler
// writes current prices via ApplyTick, the refresh scheduler writes RSI
// batches via ApplyRSIBatch and stats via ReplaceGlobalStats, and the
// periodic market refresh writes base fields via ApplyMarketRefresh. Assets
// are stored and replaced as whole values under the lock, so readers never
// observe a torn entry.
package store

import (
	"sync"

	"rsipulse/internal/model"
)

// TickResult describes what ApplyTick did with an incoming trade update.
type TickResult int

const (
	// TickApplied means the price changed and was written.
	TickApplied TickResult = iota
	// TickNoop means the tick carried the already-stored price.
	TickNoop
	// TickUnknown means the symbol maps to no tracked asset; the tick is
	// dropped silently because it belongs outside the current universe.
	TickUnknown
)

// Store is the owned shared data model.
type Store struct {
	mu        sync.RWMutex
	assets    map[string]model.Asset // keyed by asset id
	order     []string               // universe rank: market cap desc at selection time
	byPair    map[string]string      // pair symbol -> asset id
	stats     model.GlobalStats
	hasStats  bool
	ready     bool
	streaming bool // true once the first tick landed; market refresh then leaves prices alone
}

// View is a consistent read-only snapshot for the view layer.
type View struct {
	Assets   map[string]model.Asset
	Order    []string
	Stats    model.GlobalStats
	HasStats bool
	Ready    bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		assets: make(map[string]model.Asset),
		byPair: make(map[string]string),
	}
}

// ReplaceUniverse swaps the tracked asset set wholesale. It is the only
// operation that adds or removes entries and requires exclusive access to
// the model; it runs at startup and on explicit re-selection, never
// incrementally.
func (s *Store) ReplaceUniverse(assets []model.Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assets = make(map[string]model.Asset, len(assets))
	s.order = make([]string, 0, len(assets))
	s.byPair = make(map[string]string, len(assets))
	for _, a := range assets {
		s.assets[a.ID] = a
		s.order = append(s.order, a.ID)
		if a.BinancePair != "" {
			s.byPair[a.BinancePair] = a.ID
		}
	}
	s.ready = len(assets) > 0
	s.streaming = false
}

// ApplyTick resolves the pair symbol and, if the price differs from the
// stored value, replaces current_price only. Equal prices are a no-op so
// downstream readers are not poked for nothing.
func (s *Store) ApplyTick(tick model.Tick) TickResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, found := s.byPair[tick.Symbol]
	if !found {
		return TickUnknown
	}
	a := s.assets[id]
	if a.CurrentPrice == tick.Price {
		return TickNoop
	}
	a.CurrentPrice = tick.Price
	s.assets[id] = a
	s.streaming = true
	return TickApplied
}

// ApplyRSIBatch writes one recompute cycle's six timeframe readings to the
// asset as a single atomic update. Unknown ids are ignored (the asset left
// the universe since the fetch was issued).
func (s *Store) ApplyRSIBatch(id string, batch model.RSIBatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, found := s.assets[id]
	if !found {
		return false
	}
	a.RSI = batch
	s.assets[id] = a
	return true
}

// ApplyMarketRefresh updates base market fields from a fresh snapshot for
// assets already in the universe. Membership and rank are untouched, the
// pair identifier is never re-derived, and once streaming has taken over
// the live price is left alone.
func (s *Store) ApplyMarketRefresh(entries []model.MarketEntry) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := 0
	for _, e := range entries {
		a, found := s.assets[e.ID]
		if !found {
			continue
		}
		a.Name = e.Name
		a.Image = e.Image
		a.MarketCap = e.MarketCap
		a.TotalVolume = e.TotalVolume
		a.PriceChange24h = e.PriceChange24h
		if !s.streaming {
			a.CurrentPrice = e.CurrentPrice
		}
		s.assets[e.ID] = a
		updated++
	}
	return updated
}

// ReplaceGlobalStats swaps the dominance stats wholesale.
func (s *Store) ReplaceGlobalStats(stats model.GlobalStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.hasStats = true
}

// GlobalStats returns the current stats and whether any have been stored.
func (s *Store) GlobalStats() (model.GlobalStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, s.hasStats
}

// Pairs returns the pair identifiers of the current universe in rank order.
// The stream reconciler derives every subscription list from this, so a
// reconnect can never use a stale universe.
func (s *Store) Pairs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pairs := make([]string, 0, len(s.order))
	for _, id := range s.order {
		if p := s.assets[id].BinancePair; p != "" {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// Asset returns a copy of one asset by id.
func (s *Store) Asset(id string) (model.Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, found := s.assets[id]
	return a, found
}

// AssetIDs returns the universe's asset ids in rank order.
func (s *Store) AssetIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Ready reports whether the initial universe selection has completed.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Snapshot returns a consistent copy of the whole model for the view layer.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make(map[string]model.Asset, len(s.assets))
	for id, a := range s.assets {
		assets[id] = a
	}
	order := make([]string, len(s.order))
	copy(order, s.order)

	return View{
		Assets:   assets,
		Order:    order,
		Stats:    s.stats,
		HasStats: s.hasStats,
		Ready:    s.ready,
	}
}
