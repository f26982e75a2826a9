package model

// MarketEntry is one row of the full-market snapshot, ordered by market cap
// descending upstream. It is the raw input to universe selection and to
// periodic base-field refreshes.
type MarketEntry struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	Image          string  `json:"image"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	TotalVolume    float64 `json:"total_volume"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`
}

// GlobalStats holds market-cap dominance percentages for the two reference
// assets. Replaced wholesale on each refresh, never merged field by field.
type GlobalStats struct {
	BTCDominance  float64 `json:"btc"`
	USDTDominance float64 `json:"usdt"`
}

// Tick is one inbound live trade update from the stream exchange.
type Tick struct {
	Symbol string
	Price  float64
}

// SortSpec is a view-projection order request: a sortable field plus
// direction. It has no bearing on the correctness of the underlying data.
type SortSpec struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}
