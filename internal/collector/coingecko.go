package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"rsipulse/internal/model"
)

// DefaultCoinGeckoBaseURL is the public unauthenticated API endpoint.
const DefaultCoinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// marketPageSize is the upstream maximum page size for /coins/markets.
const marketPageSize = 250

// CoinGeckoClient implements MarketSource against the CoinGecko REST API.
// Calls pass through a circuit breaker so a flapping upstream is backed off
// instead of hammered on every refresh tick.
type CoinGeckoClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewCoinGeckoClient creates a client for the given base URL (empty means
// the public endpoint).
func NewCoinGeckoClient(baseURL string) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoBaseURL
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "coingecko",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	})
	return &CoinGeckoClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		breaker: breaker,
	}
}

func (c *CoinGeckoClient) Name() string { return "coingecko" }

// Markets fetches one page of the full-market snapshot, market-cap
// descending.
func (c *CoinGeckoClient) Markets(ctx context.Context) ([]model.MarketEntry, error) {
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=false",
		c.baseURL, marketPageSize)

	var entries []model.MarketEntry
	err := c.get(ctx, u, &entries)
	if err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	return entries, nil
}

// globalResponse is the envelope of GET /global.
type globalResponse struct {
	Data struct {
		MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
	} `json:"data"`
}

// GlobalStats fetches the dominance percentages for BTC and USDT.
func (c *CoinGeckoClient) GlobalStats(ctx context.Context) (*model.GlobalStats, error) {
	var resp globalResponse
	if err := c.get(ctx, c.baseURL+"/global", &resp); err != nil {
		return nil, fmt.Errorf("coingecko global: %w", err)
	}
	return &model.GlobalStats{
		BTCDominance:  resp.Data.MarketCapPercentage["btc"],
		USDTDominance: resp.Data.MarketCapPercentage["usdt"],
	}, nil
}

func (c *CoinGeckoClient) get(ctx context.Context, url string, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		return nil, nil
	})
	return err
}
