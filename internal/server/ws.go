package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ayusman/handsign/internal/app"
	"github.com/ayusman/handsign/internal/overlay"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ClassificationMessage is sent to websocket clients for every frame that
// passed the confidence gate.
type ClassificationMessage struct {
	Session     string  `json:"session"`
	Class       int     `json:"class"`
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
	Sequence    uint64  `json:"sequence"`
	Timestamp   int64   `json:"timestamp"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// EventHub broadcasts classifications to websocket clients. It is an
// app.Sink and an http.Handler. Slow clients miss messages rather than
// stall the pipeline.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	logger  *zap.SugaredLogger
}

// NewEventHub creates an EventHub with no clients.
func NewEventHub(logger *zap.SugaredLogger) *EventHub {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &EventHub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

// Frame broadcasts ev if it carries a classification.
func (h *EventHub) Frame(ev app.Event, _ overlay.Canvas) {
	if ev.Classification == nil {
		return
	}

	msg, err := json.Marshal(ClassificationMessage{
		Session:     ev.SessionID,
		Class:       ev.Classification.ClassIndex,
		Label:       ev.Classification.Label(),
		Probability: ev.Classification.Probability,
		Sequence:    ev.Sequence,
		Timestamp:   ev.CapturedAt.UnixMilli(),
	})
	if err != nil {
		h.logger.Warnw("failed to encode classification", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Debugw("dropping message for slow client", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("websocket upgrade error", "error", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.write(c)

	// Reads only detect the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *EventHub) write(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

func (h *EventHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close disconnects every client.
func (h *EventHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
