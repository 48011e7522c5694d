package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"go.uber.org/zap"
)

const (
	clientBuffer = 256
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins
	},
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// ProgressHub fans progress events out to WebSocket subscribers
type ProgressHub struct {
	logger  *zap.Logger
	clients map[*hubClient]struct{}
	mu      sync.RWMutex
}

// NewProgressHub creates a new hub
func NewProgressHub(log *zap.Logger) *ProgressHub {
	return &ProgressHub{
		logger:  log,
		clients: make(map[*hubClient]struct{}),
	}
}

// Publish broadcasts an event. Slow clients drop events instead of
// blocking the download.
func (h *ProgressHub) Publish(event domain.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal progress event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.logger.Debug("Dropping progress event for slow client",
				zap.String("remote_addr", client.conn.RemoteAddr().String()))
		}
	}
}

// ClientCount returns the number of connected subscribers
func (h *ProgressHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket handles GET /api/v1/progress
func (h *ProgressHub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}

	client := &hubClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.register(client)
	defer h.unregister(client)

	h.logger.Info("Progress client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	go h.writePump(client)

	// Reads only detect the close; clients never send anything meaningful.
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Close disconnects every subscriber
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *ProgressHub) register(client *hubClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *ProgressHub) unregister(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

func (h *ProgressHub) writePump(client *hubClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("Failed to send progress event", zap.Error(err))
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
