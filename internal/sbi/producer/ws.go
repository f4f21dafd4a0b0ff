package producer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/skylinknet/pppmon/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development, restrict in production
		return true
	},
}

// WebSocketHandler handles WebSocket connections for real-time updates
func WebSocketHandler(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.SBILog.Errorf("WebSocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		// Send initial connection message
		conn.WriteJSON(gin.H{
			"type":    "connected",
			"message": "WebSocket connection established",
		})

		// Create a ticker for periodic updates
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		// Channel for client messages
		clientMsg := make(chan []byte, 10)
		go func() {
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						logger.SBILog.Errorf("WebSocket read error: %v", err)
					}
					close(clientMsg)
					return
				}
				// Client messages are advisory; drop instead of blocking
				// when the write loop is behind, so this goroutine always
				// exits with the connection.
				select {
				case clientMsg <- msg:
				default:
				}
			}
		}()

		for {
			select {
			case <-ticker.C:
				stats, err := svc.Store.GetOverviewStats(c.Request.Context())
				if err != nil {
					logger.SBILog.Errorf("WebSocket stats query failed: %v", err)
					continue
				}

				update := gin.H{
					"type": "stats_update",
					"data": gin.H{
						"totalRouters":      stats.TotalRouters,
						"onlineRouters":     stats.OnlineRouters,
						"activeSessions":    stats.ActiveSessions,
						"totalBandwidthBps": stats.TotalBandwidthBps,
						"timestamp":         time.Now().UTC().Format(time.RFC3339),
					},
				}
				if report := svc.LastReport(); report != nil {
					update["lastRun"] = gin.H{
						"success":   report.Success,
						"polled":    report.Polled,
						"startedAt": report.StartedAt.Format(time.RFC3339),
					}
				}

				if err := conn.WriteJSON(update); err != nil {
					logger.SBILog.Errorf("WebSocket write error: %v", err)
					return
				}

			case msg, ok := <-clientMsg:
				if !ok {
					return
				}
				// Handle client messages (e.g., subscription requests)
				logger.SBILog.Debugf("Received WebSocket message: %s", string(msg))
			}
		}
	}
}
