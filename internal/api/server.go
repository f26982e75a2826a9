// Package api serves the read-only view of the data model plus the sort
// request. Nothing here mutates core data; the sort spec only shapes the
// projection order of responses.
package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"rsipulse/internal/model"
	"rsipulse/internal/store"
)

// DefaultSort matches the initial view: market cap, descending.
var DefaultSort = model.SortSpec{Field: "market_cap", Descending: true}

// sortableFields is the set of accepted sort selectors.
var sortableFields = map[string]bool{
	"asset":                       true,
	"current_price":               true,
	"price_change_percentage_24h": true,
	"market_cap":                  true,
	"total_volume":                true,
	"rsi_5m":                      true,
	"rsi_15m":                     true,
	"rsi_1h":                      true,
	"rsi_4h":                      true,
	"rsi_1d":                      true,
	"rsi_1w":                      true,
}

// Server exposes the view endpoints.
type Server struct {
	store       *store.Store
	gatherer    prometheus.Gatherer
	streamState func() string

	mu   sync.Mutex
	sort model.SortSpec
}

// NewServer creates a Server over the given store. streamState reports the
// live-connection state for the health endpoint.
func NewServer(st *store.Store, gatherer prometheus.Gatherer, streamState func() string) *Server {
	return &Server{
		store:       st,
		gatherer:    gatherer,
		streamState: streamState,
		sort:        DefaultSort,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/assets", s.handleAssets).Methods(http.MethodGet)
	r.HandleFunc("/api/global", s.handleGlobal).Methods(http.MethodGet)
	r.HandleFunc("/api/sort", s.handleSort).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

type assetsResponse struct {
	Loading bool               `json:"loading"`
	Sort    model.SortSpec     `json:"sort"`
	Global  *model.GlobalStats `json:"global"`
	Assets  []model.Asset      `json:"assets"`
}

func (s *Server) handleAssets(w http.ResponseWriter, _ *http.Request) {
	view := s.store.Snapshot()

	s.mu.Lock()
	spec := s.sort
	s.mu.Unlock()

	assets := make([]model.Asset, 0, len(view.Order))
	for _, id := range view.Order {
		if a, found := view.Assets[id]; found {
			assets = append(assets, a)
		}
	}
	sortAssets(assets, spec)

	resp := assetsResponse{
		Loading: !view.Ready,
		Sort:    spec,
		Assets:  assets,
	}
	if view.HasStats {
		stats := view.Stats
		resp.Global = &stats
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGlobal(w http.ResponseWriter, _ *http.Request) {
	stats, has := s.store.GlobalStats()
	if !has {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleSort toggles direction when the same field is requested again,
// otherwise switches to the new field (descending, except the asset name
// column which starts ascending).
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !sortableFields[req.Field] {
		http.Error(w, "unknown sort field", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if s.sort.Field == req.Field {
		s.sort.Descending = !s.sort.Descending
	} else {
		s.sort = model.SortSpec{Field: req.Field, Descending: req.Field != "asset"}
	}
	spec := s.sort
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ready":  s.store.Ready(),
		"stream": s.streamState(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("api: encode response")
	}
}

// sortAssets orders the projection in place. Assets with an unavailable
// value for the selected field always sort last, whatever the direction.
func sortAssets(assets []model.Asset, spec model.SortSpec) {
	sort.SliceStable(assets, func(i, j int) bool {
		av, aok := sortValue(assets[i], spec.Field)
		bv, bok := sortValue(assets[j], spec.Field)
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		if spec.Field == "asset" {
			as, bs := assets[i].Symbol, assets[j].Symbol
			if spec.Descending {
				return as > bs
			}
			return as < bs
		}
		if spec.Descending {
			return av > bv
		}
		return av < bv
	})
}

func sortValue(a model.Asset, field string) (float64, bool) {
	switch field {
	case "asset":
		return 0, true // compared by symbol in sortAssets
	case "current_price":
		return a.CurrentPrice, true
	case "price_change_percentage_24h":
		return a.PriceChange24h, true
	case "market_cap":
		return a.MarketCap, true
	case "total_volume":
		return a.TotalVolume, true
	}
	if tf, found := strings.CutPrefix(field, "rsi_"); found {
		r := a.RSI.Get(model.Timeframe(tf))
		return r.Value, r.Valid
	}
	return 0, false
}
