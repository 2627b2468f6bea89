package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pruthvir7/ParkingManagement/internal/alert"
	"github.com/pruthvir7/ParkingManagement/internal/domain"
)

func dialHub(t *testing.T) (*WebSocketManager, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	wsm := NewWebSocketManager(zaptest.NewLogger(t).Sugar())
	go wsm.Start(ctx)

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(wsm).HandleWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return wsm.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	return wsm, conn
}

func TestWebSocketBroadcastsTrackEvents(t *testing.T) {
	wsm, conn := dialHub(t)

	wsm.PublishTrackEvent(domain.TrackEvent{EventID: "e1", Type: domain.TrackEntered, Plate: "KA 18 EQ 0001"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got domain.TrackEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "e1", got.EventID)
	assert.Equal(t, domain.TrackEntered, got.Type)
	assert.Equal(t, "KA 18 EQ 0001", got.Plate)
}

func TestWebSocketNotify(t *testing.T) {
	wsm, conn := dialHub(t)

	require.NoError(t, wsm.Notify(context.Background(), "operator", "Alert! License plate mismatch detected."))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg alert.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, alert.MessageTypePlateMismatch, msg.Type)
	assert.Equal(t, "operator", msg.Recipient)
}

func TestWebSocketDisconnectUnregisters(t *testing.T) {
	wsm, conn := dialHub(t)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return wsm.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishNeverBlocks(t *testing.T) {
	wsm := NewWebSocketManager(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			wsm.PublishTrackEvent(domain.TrackEvent{EventID: "e"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publishing blocked without a running hub")
	}
}
