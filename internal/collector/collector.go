package collector

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"rsipulse/internal/calculator"
	"rsipulse/internal/metrics"
	"rsipulse/internal/model"
)

// Collector turns candle history into per-asset RSI batches. One batch is
// six independent kline fetches issued concurrently, one per timeframe;
// timeframes whose history is missing or too short simply stay unavailable
// in the result. The batch itself never fails as a whole.
type Collector struct {
	exchange ExchangeSource
	period   int
	metrics  *metrics.Metrics
}

// NewCollector creates a Collector computing RSI over the given period.
func NewCollector(exchange ExchangeSource, period int, m *metrics.Metrics) *Collector {
	if period <= 0 {
		period = calculator.DefaultRSIPeriod
	}
	return &Collector{exchange: exchange, period: period, metrics: m}
}

// ComputeRSIBatch fetches candles for every timeframe of one pair and
// computes the RSI readings for a single atomic store update.
func (c *Collector) ComputeRSIBatch(ctx context.Context, pair string) model.RSIBatch {
	var (
		mu    sync.Mutex
		batch model.RSIBatch
		wg    sync.WaitGroup
	)

	for _, tf := range model.Timeframes {
		wg.Add(1)
		go func(tf model.Timeframe) {
			defer wg.Done()

			reading := c.computeOne(ctx, pair, tf)
			mu.Lock()
			batch.Set(tf, reading)
			mu.Unlock()
		}(tf)
	}
	wg.Wait()
	return batch
}

func (c *Collector) computeOne(ctx context.Context, pair string, tf model.Timeframe) model.RSIReading {
	candles, err := c.exchange.Klines(ctx, pair, tf, KlineLimit)
	if err != nil {
		// Transient fault: the slot stays unavailable and the next cycle
		// retries naturally.
		c.metrics.FetchErrors.WithLabelValues(c.exchange.Name(), "klines").Inc()
		log.Debug().Err(err).Str("pair", pair).Str("tf", string(tf)).Msg("kline fetch failed")
		c.metrics.RSIUnavailable.Inc()
		return model.RSIReading{}
	}
	if len(candles) == 0 {
		// Pair not listed for this interval; expected and silent.
		c.metrics.RSIUnavailable.Inc()
		return model.RSIReading{}
	}

	rsi, ok := calculator.RSI(model.Closes(candles), c.period)
	if !ok {
		c.metrics.RSIUnavailable.Inc()
		return model.RSIReading{}
	}
	c.metrics.RSIComputed.Inc()
	return model.Reading(rsi)
}
