package model

import "time"

// Timeframe is a candle interval understood by the kline provider.
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// Timeframes lists every tracked interval in display order.
var Timeframes = []Timeframe{
	Timeframe5m, Timeframe15m, Timeframe1h, Timeframe4h, Timeframe1d, Timeframe1w,
}

// Candle represents a single candlestick bar.
type Candle struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Closes extracts the closing prices from an ordered candle series.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
