package sbi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/sbi/producer"
)

// InitRouter initializes the SBI router with all routes
func InitRouter(router *gin.Engine, svc *producer.Service) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", healthCheck(svc))

		// Poll trigger
		v1.POST("/poll", producer.RunPoll(svc))
		v1.GET("/poll/last", producer.GetLastReport(svc))

		// Statistics routes
		stats := v1.Group("/stats")
		{
			stats.GET("/overview", producer.GetOverviewStats(svc))
			stats.GET("/resellers", producer.GetResellerStats(svc))
			stats.GET("/routers", producer.GetRouterStats(svc))
		}
	}

	// WebSocket endpoint for real-time updates
	router.GET("/ws", producer.WebSocketHandler(svc))
}

// LoggerMiddleware creates a logger middleware for Gin
func LoggerMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		// Custom log format
		var statusColor, methodColor, resetColor string
		if param.IsOutputColor() {
			statusColor = param.StatusCodeColor()
			methodColor = param.MethodColor()
			resetColor = param.ResetColor()
		}

		if param.Latency > time.Minute {
			param.Latency = param.Latency - param.Latency%time.Second
		}

		logger.HTTPLog.Infof("%s %3d %s| %13v | %15s |%s %-7s %s %#v",
			statusColor, param.StatusCode, resetColor,
			param.Latency,
			param.ClientIP,
			methodColor, param.Method, resetColor,
			param.Path,
		)

		return ""
	})
}

// CORSMiddleware creates a CORS middleware
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		// Allow all origins in development, restrict in production
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck returns a health check handler
func healthCheck(svc *producer.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		healthy := true
		if err := svc.Store.Ping(c.Request.Context()); err != nil {
			logger.SBILog.Errorf("Health check database ping failed: %v", err)
			healthy = false
		}

		response := gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services": gin.H{
				"database": healthy,
			},
		}

		statusCode := http.StatusOK
		if !healthy {
			response["status"] = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, response)
	}
}
