package producer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skylinknet/pppmon/internal/logger"
)

// GetOverviewStats returns fleet-wide totals: router reachability,
// active session count, and aggregate bandwidth.
func GetOverviewStats(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Store.GetOverviewStats(c.Request.Context())
		if err != nil {
			logger.SBILog.Errorf("Failed to get overview stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve statistics",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"routers": gin.H{
				"total":  stats.TotalRouters,
				"online": stats.OnlineRouters,
			},
			"sessions": gin.H{
				"active": stats.ActiveSessions,
			},
			"bandwidth": gin.H{
				"totalBps":   stats.TotalBandwidthBps,
				"totalBytes": stats.TotalBytes,
			},
		})
	}
}

// GetResellerStats returns the per-reseller rollup, heaviest bandwidth
// first. Unattributed sessions appear only in the overview totals.
func GetResellerStats(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Store.GetResellerStats(c.Request.Context())
		if err != nil {
			logger.SBILog.Errorf("Failed to get reseller stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve statistics",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"resellers": stats,
			"total":     len(stats),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// GetRouterStats returns the per-router rollup with session counts.
func GetRouterStats(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := svc.Store.GetRouterStats(c.Request.Context())
		if err != nil {
			logger.SBILog.Errorf("Failed to get router stats: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to retrieve statistics",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"routers":   stats,
			"total":     len(stats),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
