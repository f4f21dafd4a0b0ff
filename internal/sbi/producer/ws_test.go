package producer

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWebSocketHandlerClientDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", WebSocketHandler(testService(emptyStore{})))

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	var greeting map[string]any
	require.NoError(t, conn.ReadJSON(&greeting))
	require.Equal(t, "connected", greeting["type"])

	// Send more messages than the handler buffers, then drop the
	// connection without waiting for any of them to be consumed. The
	// handler's reader must still wind down; srv.Close waits for the
	// handler and the goleak check catches a stuck reader.
	for i := 0; i < 50; i++ {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("subscribe")))
	}
	require.NoError(t, conn.Close())
}
