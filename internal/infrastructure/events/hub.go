package events

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"camwall/internal/core/domain"
	"camwall/pkg/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub broadcasts wall and feed state changes to connected WebSocket clients.
// It is one-way: inbound frames beyond pong are drained and ignored, the
// clients only listen.
type Hub struct {
	pingInterval time.Duration
	pongTimeout  time.Duration
	writeTimeout time.Duration
	sendBuffer   int

	snapshot func() []interface{}

	clients map[string]*client
	mu      sync.RWMutex

	collector ClientCounter
	logger    *zap.SugaredLogger
}

// ClientCounter tracks the connected client gauge.
type ClientCounter interface {
	ClientConnected()
	ClientDisconnected()
}

type client struct {
	conn *websocket.Conn
	send chan interface{}
}

func NewHub(pingInterval, pongTimeout, writeTimeout time.Duration, sendBuffer int, collector ClientCounter, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		pingInterval: pingInterval,
		pongTimeout:  pongTimeout,
		writeTimeout: writeTimeout,
		sendBuffer:   sendBuffer,
		clients:      make(map[string]*client),
		collector:    collector,
		logger:       logger,
	}
}

// SetSnapshot registers a function producing the events a fresh client
// receives immediately after connecting, so it never renders a stale wall.
func (h *Hub) SetSnapshot(fn func() []interface{}) {
	h.snapshot = fn
}

// PublishFeed broadcasts a feed state change.
func (h *Hub) PublishFeed(event domain.FeedEvent) {
	h.broadcast(event)
}

// PublishWall broadcasts a wall state change.
func (h *Hub) PublishWall(event domain.WallEvent) {
	h.broadcast(event)
}

func (h *Hub) broadcast(event interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		select {
		case c.send <- event:
		default:
			// Slow client: drop the event rather than stall the publisher.
			h.logger.Warnw("dropping event for slow client", "client_id", id)
		}
	}
}

// HandleWebSocket upgrades the request and serves events until the client
// disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	clientID := utils.GenerateClientID()
	c := &client{conn: conn, send: make(chan interface{}, h.sendBuffer)}

	h.mu.Lock()
	h.clients[clientID] = c
	h.mu.Unlock()
	if h.collector != nil {
		h.collector.ClientConnected()
	}
	h.logger.Infow("event client connected", "client_id", clientID)

	defer func() {
		h.mu.Lock()
		delete(h.clients, clientID)
		h.mu.Unlock()
		if h.collector != nil {
			h.collector.ClientDisconnected()
		}
		h.logger.Infow("event client disconnected", "client_id", clientID)
	}()

	conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongTimeout))
		return nil
	})

	// Drain inbound frames so pongs and close frames are processed.
	readErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				readErr <- err
				return
			}
		}
	}()

	// Initial snapshot so the client starts from current state.
	if h.snapshot != nil {
		for _, event := range h.snapshot() {
			if err := h.write(conn, event); err != nil {
				return
			}
		}
	}

	pingTicker := time.NewTicker(h.pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case event := <-c.send:
			if err := h.write(conn, event); err != nil {
				h.logger.Debugw("write failed", "client_id", clientID, "error", err)
				return
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case err := <-readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Infow("event client read error", "client_id", clientID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, event interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	return conn.WriteJSON(event)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
