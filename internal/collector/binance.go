package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"rsipulse/internal/model"
)

// DefaultBinanceBaseURL is the public REST endpoint of the stream exchange.
const DefaultBinanceBaseURL = "https://api.binance.com/api/v3"

// KlineLimit is the fixed maximum number of most recent candles requested
// per (pair, timeframe) fetch.
const KlineLimit = 300

// tradingStatus marks a pair as actively tradable in /exchangeInfo.
const tradingStatus = "TRADING"

// BinanceClient implements ExchangeSource against the Binance REST API.
// A token-bucket limiter paces the kline fan-out; a full recompute cycle
// issues six requests per tracked asset.
type BinanceClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewBinanceClient creates a client for the given base URL (empty means the
// public endpoint) with the given request rate, in requests per second.
func NewBinanceClient(baseURL string, rps float64) *BinanceClient {
	if baseURL == "" {
		baseURL = DefaultBinanceBaseURL
	}
	if rps <= 0 {
		rps = 15
	}
	return &BinanceClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

func (c *BinanceClient) Name() string { return "binance" }

// exchangeInfo is the subset of GET /exchangeInfo we consume.
type exchangeInfo struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"symbols"`
}

// TradableSymbols returns the set of pair symbols currently in TRADING
// status.
func (c *BinanceClient) TradableSymbols(ctx context.Context) (map[string]bool, error) {
	body, status, err := c.get(ctx, c.baseURL+"/exchangeInfo")
	if err != nil {
		return nil, fmt.Errorf("binance exchangeInfo: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("binance exchangeInfo: status %d", status)
	}

	var info exchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("binance exchangeInfo decode: %w", err)
	}

	symbols := make(map[string]bool, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == tradingStatus {
			symbols[s.Symbol] = true
		}
	}
	return symbols, nil
}

// Klines fetches up to limit most recent candles for a pair and interval.
// A 4xx response means the pair is not listed for that interval, which is
// expected for many candidates and returned as (nil, nil); only network
// and service faults produce an error.
func (c *BinanceClient) Klines(ctx context.Context, pair string, tf model.Timeframe, limit int) ([]model.Candle, error) {
	if limit <= 0 {
		limit = KlineLimit
	}
	u := fmt.Sprintf("%s/klines?symbol=%s&interval=%s&limit=%d", c.baseURL, pair, tf, limit)

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("binance klines %s %s: %w", pair, tf, err)
	}
	switch {
	case status == http.StatusOK:
	case status >= 400 && status < 500:
		// Pair not listed on the exchange for this interval.
		return nil, nil
	default:
		return nil, fmt.Errorf("binance klines %s %s: status %d", pair, tf, status)
	}

	// Each kline record is a mixed-type array; the closing price is the
	// 5th field, encoded as a string.
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("binance klines %s %s decode: %w", pair, tf, err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		candle := model.Candle{OpenTime: time.UnixMilli(openTime)}
		for i, dst := range []*float64{&candle.Open, &candle.High, &candle.Low, &candle.Close, &candle.Volume} {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				continue
			}
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				*dst = v
			}
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func (c *BinanceClient) get(ctx context.Context, url string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}
