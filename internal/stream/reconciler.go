// Package stream maintains the single live trade connection to the stream
// exchange and merges incoming ticks into the data model.
package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"rsipulse/internal/metrics"
	"rsipulse/internal/model"
	"rsipulse/internal/store"
)

// DefaultStreamURL is the combined-stream endpoint of the exchange.
const DefaultStreamURL = "wss://stream.binance.com:9443/stream"

// DefaultReconnectDelay is the fixed pause between a connection loss and
// the next connect attempt.
const DefaultReconnectDelay = 5 * time.Second

// State is the connection lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Reconciler supervises exactly one live connection scoped to the current
// universe. Its Run loop is the owner of connection lifetime: every
// iteration re-derives the subscription list from the store, so a reconnect
// can never carry a stale universe, and a new connection always supersedes
// the previous one. Reconnects are unbounded; a lost stream is treated as
// always recoverable.
type Reconciler struct {
	url     string
	store   *store.Store
	metrics *metrics.Metrics

	// ReconnectDelay defaults to DefaultReconnectDelay; tests shrink it.
	ReconnectDelay time.Duration

	// OnStateChange, when set, observes every lifecycle transition.
	OnStateChange func(from, to State)

	mu    sync.Mutex
	conn  *websocket.Conn
	state State
}

// NewReconciler creates a Reconciler for the given combined-stream URL
// (empty means the public endpoint).
func NewReconciler(url string, st *store.Store, m *metrics.Metrics) *Reconciler {
	if url == "" {
		url = DefaultStreamURL
	}
	return &Reconciler{
		url:            url,
		store:          st,
		metrics:        m,
		ReconnectDelay: DefaultReconnectDelay,
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Refresh closes the active connection, if any. The supervising loop then
// redials with a subscription list freshly derived from the store; callers
// use this after an explicit universe re-selection.
func (r *Reconciler) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
	}
}

// Run drives the connection state machine until ctx is done. It blocks and
// is meant to be started as its own goroutine after the initial universe
// selection.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		pairs := r.store.Pairs()
		if len(pairs) == 0 {
			log.Warn().Msg("stream: no pairs to subscribe, retrying later")
		} else if err := r.connectAndRead(ctx, pairs); err != nil {
			log.Warn().Err(err).Msg("stream: connection lost")
		}

		r.setState(Disconnected)
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.ReconnectDelay):
			r.metrics.StreamReconnects.Inc()
		}
	}
}

// streamEnvelope is the combined-stream message: the payload carries the
// pair symbol and the trade price as a decimal string.
type streamEnvelope struct {
	Data struct {
		Symbol string `json:"s"`
		Price  string `json:"p"`
	} `json:"data"`
}

func (r *Reconciler) connectAndRead(ctx context.Context, pairs []string) error {
	r.setState(Connecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, subscribeURL(r.url, pairs), nil)
	if err != nil {
		return err
	}
	r.adopt(conn)
	defer conn.Close()

	r.setState(Connected)
	log.Info().Int("pairs", len(pairs)).Msg("stream: connected")

	// Unblock ReadMessage when ctx is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		r.handleMessage(data)
	}
}

func (r *Reconciler) handleMessage(data []byte) {
	var env streamEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Msg("stream: unparseable message")
		return
	}
	if env.Data.Symbol == "" {
		return // subscription ack or other non-trade frame
	}
	price, err := strconv.ParseFloat(env.Data.Price, 64)
	if err != nil {
		log.Debug().Str("price", env.Data.Price).Msg("stream: unparseable price")
		return
	}

	switch r.store.ApplyTick(model.Tick{Symbol: env.Data.Symbol, Price: price}) {
	case store.TickApplied:
		r.metrics.TicksApplied.Inc()
	case store.TickNoop:
		r.metrics.TicksNoop.Inc()
	case store.TickUnknown:
		// Belongs to an asset outside the universe; not an error.
		r.metrics.TicksDropped.Inc()
	}
}

// adopt installs the new connection, closing any prior one outright so at
// most one connection is ever live.
func (r *Reconciler) adopt(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != nil {
		r.conn.Close()
	}
	r.conn = conn
}

func (r *Reconciler) setState(to State) {
	r.mu.Lock()
	from := r.state
	r.state = to
	r.mu.Unlock()

	if from != to {
		log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("stream: state change")
		if r.OnStateChange != nil {
			r.OnStateChange(from, to)
		}
	}
}

// subscribeURL embeds the subscription list in the connection URL as
// lowercase <pair>@trade tokens joined by '/'.
func subscribeURL(base string, pairs []string) string {
	tokens := make([]string, len(pairs))
	for i, p := range pairs {
		tokens[i] = strings.ToLower(p) + "@trade"
	}
	return base + "?streams=" + strings.Join(tokens, "/")
}
