package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkets_ParsesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"btc.png",
			 "current_price":50000,"market_cap":1000000,"total_volume":5000,
			 "price_change_percentage_24h":1.5},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"eth.png",
			 "current_price":3000,"market_cap":400000,"total_volume":2500,
			 "price_change_percentage_24h":-2.25}
		]`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL)
	entries, err := c.Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bitcoin", entries[0].ID)
	assert.Equal(t, 50000.0, entries[0].CurrentPrice)
	assert.Equal(t, -2.25, entries[1].PriceChange24h)
}

func TestGlobalStats_ParsesDominance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/global", r.URL.Path)
		w.Write([]byte(`{"data":{"market_cap_percentage":{"btc":52.3,"eth":17.1,"usdt":4.9}}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL)
	stats, err := c.GlobalStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 52.3, stats.BTCDominance)
	assert.Equal(t, 4.9, stats.USDTDominance)
}

func TestMarkets_FaultReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL)
	entries, err := c.Markets(context.Background())
	assert.Error(t, err)
	assert.Nil(t, entries)
}

func TestCoinGecko_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL)
	for i := 0; i < 8; i++ {
		_, err := c.GlobalStats(context.Background())
		assert.Error(t, err)
	}
	assert.LessOrEqual(t, calls, 5, "breaker should stop forwarding after the trip threshold")
}
