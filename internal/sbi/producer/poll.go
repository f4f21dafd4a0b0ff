package producer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skylinknet/pppmon/internal/logger"
	"github.com/skylinknet/pppmon/internal/models"
)

// RunPoll triggers a reconciliation run, optionally scoped to a single
// router. The run executes synchronously and the report is the
// response body; a non-2xx status signals run-level setup failure only.
func RunPoll(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RouterID string `json:"router_id"`
		}
		// No body or an empty body means poll all routers.
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		var routerID *uuid.UUID
		if req.RouterID != "" {
			id, err := uuid.Parse(req.RouterID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error": "Invalid router_id",
				})
				return
			}
			routerID = &id
		}

		if !svc.tryBegin() {
			c.JSON(http.StatusConflict, gin.H{
				"error": models.ErrRunInProgress.Error(),
			})
			return
		}

		report := svc.Engine.Run(c.Request.Context(), routerID)
		svc.end(report)

		if !report.Success {
			logger.SBILog.Errorf("Poll run failed: %s", report.Error)
			c.JSON(http.StatusInternalServerError, report)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// GetLastReport returns the report of the most recent run.
func GetLastReport(svc *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := svc.LastReport()
		if report == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "No poll run has completed yet",
			})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
