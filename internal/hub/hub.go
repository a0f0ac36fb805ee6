// Package hub pushes delisting progress to connected UIs over websocket.
// It is a plain fan-out: every frame goes to every connected client, and
// slow clients drop frames rather than stall the batch.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"nhooyr.io/websocket"
)

type Hub struct {
	token      string
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func New(token string) *Hub {
	return &Hub{
		token:      token,
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		broadcast:  make(chan []byte, 256),
		clients:    make(map[*client]struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[*client]struct{})
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			go c.writePump(ctx)
			go c.readPump(ctx)
			slog.Info("hub client connected", "total", h.ClientCount())

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			slog.Info("hub client disconnected", "total", h.ClientCount())

		case data := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					slog.Debug("hub client send buffer full, dropping frame")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast marshals v and queues it for every connected client. Frames
// are dropped when the hub itself is backed up; progress is advisory.
func (h *Hub) Broadcast(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("hub broadcast marshal failed", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Debug("hub broadcast buffer full, dropping frame")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.token != "" && r.URL.Query().Get("token") != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
	}
	select {
	case h.register <- c:
	default:
		conn.Close(websocket.StatusTryAgainLater, "hub busy")
	}
}
