package collector

import (
	"context"

	"rsipulse/internal/model"
)

// MarketSource fetches full-market and global-statistics snapshots. Both
// calls are independent, retryable and side-effect free; a failure is
// reported as an error and the caller keeps its previous state.
type MarketSource interface {
	Markets(ctx context.Context) ([]model.MarketEntry, error)
	GlobalStats(ctx context.Context) (*model.GlobalStats, error)
	Name() string
}

// ExchangeSource exposes the stream exchange's metadata and candle history.
// Klines returns (nil, nil) when the pair is simply not listed for the
// interval, an expected outcome for many candidates. It returns an error
// only for network or service faults, which matter for logging but not
// for control flow.
type ExchangeSource interface {
	TradableSymbols(ctx context.Context) (map[string]bool, error)
	Klines(ctx context.Context, pair string, tf model.Timeframe, limit int) ([]model.Candle, error)
	Name() string
}
