// Package monitor streams purchase flow transitions to operator dashboards
// over WebSocket.
package monitor

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/proliferam/teste-mercado-pago/internal/domain"
	"github.com/proliferam/teste-mercado-pago/internal/purchase"
)

const recentEventsKept = 64

// TransitionEvent is the wire shape pushed to connected dashboards.
type TransitionEvent struct {
	UserID string    `json:"user_id"`
	From   string    `json:"from"`
	To     string    `json:"to"`
	Event  string    `json:"event"`
	At     time.Time `json:"at"`
}

// Hub fans purchase transitions out to every connected observer. It keeps a
// short replay buffer so a dashboard that connects mid-flow sees recent
// history.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*websocket.Conn]struct{}
	recent []TransitionEvent
	isDev  bool
}

func NewHub(isDev bool) *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
		isDev: isDev,
	}
}

// Transition implements the purchase flow's sink. Never blocks the caller on
// slow observers; writes run with a short deadline and dead connections are
// dropped on their own read loop.
func (h *Hub) Transition(userID string, from, to domain.State, event purchase.EventKind) {
	ev := TransitionEvent{
		UserID: userID,
		From:   string(from),
		To:     string(to),
		Event:  string(event),
		At:     time.Now(),
	}

	h.mu.Lock()
	h.recent = append(h.recent, ev)
	if len(h.recent) > recentEventsKept {
		h.recent = h.recent[len(h.recent)-recentEventsKept:]
	}
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	if len(conns) == 0 {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	for _, c := range conns {
		go func(c *websocket.Conn) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := c.Write(ctx, websocket.MessageText, data); err != nil {
				slog.Debug("monitor write failed", "error", err)
			}
		}(c)
	}
}

// Recent returns a copy of the replay buffer.
func (h *Hub) Recent() []TransitionEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]TransitionEvent, len(h.recent))
	copy(out, h.recent)
	return out
}

// ServeHTTP upgrades the connection and streams transitions until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if h.isDev {
		opts.OriginPatterns = []string{"*"}
	}
	ws, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("failed to accept monitor websocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "monitor closed"); closeErr != nil {
			slog.Debug("failed to close monitor websocket", "error", closeErr)
		}
	}()

	slog.Info("monitor connected", "ip", r.RemoteAddr)

	// Replay before registering so history arrives in order.
	for _, ev := range h.Recent() {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := ws.Write(r.Context(), websocket.MessageText, data); err != nil {
			slog.Debug("monitor replay write failed", "error", err)
			return
		}
	}

	h.mu.Lock()
	h.conns[ws] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, ws)
		h.mu.Unlock()
	}()

	// Read loop only exists to notice disconnects.
	for {
		if _, _, err := ws.Read(r.Context()); err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("monitor closed by client", "ip", r.RemoteAddr)
			}
			return
		}
	}
}
