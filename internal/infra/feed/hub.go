// Package feed broadcasts marketplace domain events to websocket observers.
// The feed is strictly an observability surface: it consumes the same event
// stream as the journal and never participates in state transitions.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"market_go/internal/event"
	"market_go/internal/infra"
)

const writeTimeout = 5 * time.Second

// AmountFormatter renders smallest-unit amounts in decimal notation.
// The marketplace currency registry satisfies it.
type AmountFormatter interface {
	FormatAmount(symbol string, units int64) string
}

// envelope is the wire form of one event on the feed. Display carries the
// event's amount in decimal notation, e.g. "1.5 NATIVE"; raw units stay
// inside Data.
type envelope struct {
	Kind    string      `json:"kind"`
	Ts      int64       `json:"ts"`
	Display string      `json:"display,omitempty"`
	Data    event.Event `json:"data"`
}

// Hub fans domain events out to all connected websocket clients. Slow or
// broken clients are dropped, never waited on.
type Hub struct {
	upgrader websocket.Upgrader
	metrics  *infra.Metrics
	format   AmountFormatter

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub rendering amounts through format.
func NewHub(metrics *infra.Metrics, format AmountFormatter) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		metrics: metrics,
		format:  format,
		conns:   make(map[*websocket.Conn]struct{}),
	}
}

// encode wraps ev in its wire envelope.
func (h *Hub) encode(ev event.Event) ([]byte, error) {
	env := envelope{
		Kind: ev.GetKind().String(),
		Ts:   ev.GetTs(),
		Data: ev,
	}
	if p, ok := ev.(event.Priced); ok && h.format != nil {
		currency, units := p.Amount()
		env.Display = h.format.FormatAmount(currency, units) + " " + currency
	}
	return json.Marshal(env)
}

// Emit broadcasts ev to every connected client. Hub satisfies event.Sink.
func (h *Hub) Emit(ev event.Event) {
	payload, err := h.encode(ev)
	if err != nil {
		slog.Error("FEED_MARSHAL_FAILED", slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
		}
	}
}

// Handler upgrades HTTP requests to websocket subscriptions.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("FEED_UPGRADE_FAILED", slog.Any("error", err))
			return
		}

		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()
		h.metrics.IncrementFeedConnections()

		// Observers only listen; the read loop exists to detect closes.
		go func() {
			defer func() {
				h.mu.Lock()
				h.drop(conn)
				h.mu.Unlock()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		h.drop(conn)
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(conn *websocket.Conn) {
	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	conn.Close()
	h.metrics.DecrementFeedConnections()
}
