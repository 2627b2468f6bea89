package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pruthvir7/ParkingManagement/internal/alert"
	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 5 * time.Second

// WebSocketManager fans track events and alerts out to every connected dashboard.
// Publishing never blocks; messages are dropped when the hub falls behind.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *zap.SugaredLogger
}

func NewWebSocketManager(logger *zap.SugaredLogger) *WebSocketManager {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Start runs the hub until ctx is cancelled, then closes every client.
func (wsm *WebSocketManager) Start(ctx context.Context) {
	defer close(wsm.done)
	for {
		select {
		case <-ctx.Done():
			wsm.mutex.Lock()
			for client := range wsm.clients {
				client.Close()
				delete(wsm.clients, client)
			}
			wsm.mutex.Unlock()
			return

		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			n := len(wsm.clients)
			wsm.mutex.Unlock()
			wsm.logger.Infof("WebSocket client connected. Total: %d", n)

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			n := len(wsm.clients)
			wsm.mutex.Unlock()
			wsm.logger.Infof("WebSocket client disconnected. Total: %d", n)

		case message := <-wsm.broadcast:
			wsm.mutex.Lock()
			for client := range wsm.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					wsm.logger.Warnf("Error writing to WebSocket client: %v", err)
					client.Close()
					delete(wsm.clients, client)
				}
			}
			wsm.mutex.Unlock()
		}
	}
}

func (wsm *WebSocketManager) Clients() int {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()
	return len(wsm.clients)
}

// PublishTrackEvent satisfies tracker.EventSink and service.EventPublisher.
func (wsm *WebSocketManager) PublishTrackEvent(event domain.TrackEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		wsm.logger.Errorf("Error marshaling track event: %v", err)
		return
	}
	wsm.send(message)
}

// Notify satisfies alert.Notifier so mismatch alerts reach the dashboards too.
func (wsm *WebSocketManager) Notify(_ context.Context, recipient, message string) error {
	payload, err := json.Marshal(alert.Message{
		Type:      alert.MessageTypePlateMismatch,
		Recipient: recipient,
		Message:   message,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	wsm.send(payload)
	return nil
}

func (wsm *WebSocketManager) send(message []byte) {
	select {
	case wsm.broadcast <- message:
	default:
		wsm.logger.Warn("Broadcast channel is full, dropping message")
	}
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
}

func NewWebSocketHandler(wsManager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.wsManager.logger.Warnf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	select {
	case h.wsManager.register <- conn:
	case <-h.wsManager.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.wsManager.unregister <- conn:
			case <-h.wsManager.done:
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.wsManager.logger.Warnf("WebSocket error: %v", err)
				}
				return
			}
		}
	}()
}
