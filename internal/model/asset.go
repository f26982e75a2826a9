package model

import "encoding/json"

// Asset is one tracked cryptocurrency and everything the view needs to
// render it. ID is the upstream (CoinGecko) identifier and is stable for
// the lifetime of the tracked set.
type Asset struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	TotalVolume    float64 `json:"total_volume"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`

	// BinancePair is set only when the asset trades against USDT on the
	// stream exchange. It is derived once during universe selection and
	// never patched by partial updates.
	BinancePair string `json:"binance_pair,omitempty"`

	RSI RSIBatch `json:"rsi"`
}

// RSIReading is a single RSI value in [0,100], or "unavailable" when there
// is not enough candle history (Valid == false). Unavailable is an expected
// steady-state outcome, not an error.
type RSIReading struct {
	Value float64
	Valid bool
}

// Reading builds a valid RSIReading.
func Reading(v float64) RSIReading { return RSIReading{Value: v, Valid: true} }

// MarshalJSON renders an unavailable reading as null, matching what the
// view layer expects for missing cells.
func (r RSIReading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts null as unavailable.
func (r *RSIReading) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = RSIReading{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = RSIReading{Value: v, Valid: true}
	return nil
}

// RSIBatch holds one recompute cycle's readings across all six timeframes.
// It is a plain value so a batch is always applied and copied wholesale;
// readers never see a mix of two cycles for the same asset.
type RSIBatch struct {
	M5  RSIReading `json:"5m"`
	M15 RSIReading `json:"15m"`
	H1  RSIReading `json:"1h"`
	H4  RSIReading `json:"4h"`
	D1  RSIReading `json:"1d"`
	W1  RSIReading `json:"1w"`
}

// Get returns the reading for the given timeframe.
func (b RSIBatch) Get(tf Timeframe) RSIReading {
	switch tf {
	case Timeframe5m:
		return b.M5
	case Timeframe15m:
		return b.M15
	case Timeframe1h:
		return b.H1
	case Timeframe4h:
		return b.H4
	case Timeframe1d:
		return b.D1
	case Timeframe1w:
		return b.W1
	}
	return RSIReading{}
}

// Set stores the reading for the given timeframe.
func (b *RSIBatch) Set(tf Timeframe, r RSIReading) {
	switch tf {
	case Timeframe5m:
		b.M5 = r
	case Timeframe15m:
		b.M15 = r
	case Timeframe1h:
		b.H1 = r
	case Timeframe4h:
		b.H4 = r
	case Timeframe1d:
		b.D1 = r
	case Timeframe1w:
		b.W1 = r
	}
}
