package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/annel0/chunkstream/internal/logging"
	"github.com/annel0/chunkstream/internal/world"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeTimeout = 10 * time.Second
	sendBuffer   = 64
)

// Типы сообщений ленты
const (
	MessageSnapshot = "snapshot"
	MessageDelta    = "delta"
)

// StreamMessage сообщение ленты /ws/chunks
type StreamMessage struct {
	Type      string             `json:"type"`
	Reference *world.ChunkCoord  `json:"reference,omitempty"`
	Active    []world.ChunkCoord `json:"active,omitempty"`
	Delta     *world.ChunkDelta  `json:"delta,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// DeltaHub рассылает изменения активного множества подключённым клиентам.
// Реализует world.Observer; медленные клиенты отключаются.
type DeltaHub struct {
	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	upgrader websocket.Upgrader
	logger   *logging.Logger
	dropped  uint64
}

// NewDeltaHub создаёт хаб
func NewDeltaHub(logger *logging.Logger) *DeltaHub {
	return &DeltaHub{
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Отладочная лента, открыта для любого origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// OnChunkDelta реализует world.Observer
func (h *DeltaHub) OnChunkDelta(d world.ChunkDelta) {
	if d.Skipped || !d.Changed() {
		return
	}
	ref := d.Reference
	data, err := json.Marshal(StreamMessage{Type: MessageDelta, Reference: &ref, Delta: &d})
	if err != nil {
		h.logger.Error("Failed to marshal delta: %v", err)
		return
	}
	h.Broadcast(data)
}

// Broadcast отправляет сообщение всем клиентам без блокировки
func (h *DeltaHub) Broadcast(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			h.dropped++
			h.removeLocked(c)
		}
	}
}

// Clients количество подключённых клиентов
func (h *DeltaHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close отключает всех клиентов
func (h *DeltaHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *DeltaHub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *DeltaHub) unregister(c *wsClient) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

// Serve апгрейдит соединение, отправляет снимок и подписывает на дельты
func (h *DeltaHub) Serve(w http.ResponseWriter, r *http.Request, snapshot StreamMessage) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed: %v", err)
		return
	}

	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if data, err := json.Marshal(snapshot); err == nil {
		c.send <- data
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("🔌 WebSocket client connected: %s", r.RemoteAddr)

	go c.writePump()
	go c.readPump(h)
}

// readPump только обслуживает pong и закрытие; входящие сообщения игнорируются
func (c *wsClient) readPump(h *DeltaHub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket error: %v", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
