package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samijaber1/tiergate/internal/report"
	"github.com/samijaber1/tiergate/internal/scheduler"
)

const wsWriteTimeout = 10 * time.Second

// WSMessage is the envelope pushed to report subscribers
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// WSHub pushes a summary of every published report to connected clients
type WSHub struct {
	upgrader websocket.Upgrader
	cache    *scheduler.ReportCache

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewWSHub creates a hub fed by the given report cache
func NewWSHub(cache *scheduler.ReportCache) *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		cache: cache,
		conns: map[*websocket.Conn]struct{}{},
	}
}

// HandleWS upgrades the connection and streams report summaries until the
// client goes away. The current report, if any, is sent first.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	updates, cancel := h.cache.Subscribe(4)

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("ws subscriber connected: %s", r.RemoteAddr)

	closed := make(chan struct{})
	go h.readLoop(c, closed)

	defer func() {
		cancel()
		c.Close()
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		log.Printf("ws subscriber disconnected: %s", r.RemoteAddr)
	}()

	if current := h.cache.Report(); current != nil {
		if err := h.send(c, current); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case rep, ok := <-updates:
			if !ok {
				return
			}
			if err := h.send(c, rep); err != nil {
				log.Printf("ws send failed: %v", err)
				return
			}
		}
	}
}

// Connections returns the number of connected clients
func (h *WSHub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *WSHub) send(c *websocket.Conn, r *report.ComplianceReport) error {
	_ = c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.WriteJSON(WSMessage{Type: "report", Payload: r.Summary()})
}

// readLoop drains client frames so close frames and pings are processed
func (h *WSHub) readLoop(c *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	for {
		if _, _, err := c.NextReader(); err != nil {
			return
		}
	}
}
