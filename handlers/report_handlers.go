// api/handlers/report_handlers.go
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"sitepulse/api/logger"
	"sitepulse/api/models"
)

// reportRunTimeout bounds one background report round end to end.
const reportRunTimeout = 30 * time.Second

// ReportRunner starts report rounds. Implemented by reporter.Reporter.
type ReportRunner interface {
	Run(ctx context.Context, payload models.MonitorPayload)
}

// ReportLog reads back audited report outcomes.
type ReportLog interface {
	RecentReports(ctx context.Context, limit int) ([]models.ReportEntry, error)
}

type ReportHandlers struct {
	runner  ReportRunner
	reports ReportLog
	log     logger.Logger
}

func NewReportHandlers(runner ReportRunner, reports ReportLog, log logger.Logger) *ReportHandlers {
	return &ReportHandlers{
		runner:  runner,
		reports: reports,
		log:     log,
	}
}

// Tick accepts a scheduler tick and starts the report round in the
// background. The scheduler gets its 202 before any site is contacted; the
// round runs on a detached context so it survives the request.
func (h *ReportHandlers) Tick(c *gin.Context) {
	var payload models.MonitorPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tick payload"})
		return
	}

	h.log.Info("tick received", logger.String("channel_id", payload.ChannelID))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reportRunTimeout)
		defer cancel()
		h.runner.Run(ctx, payload)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// IntegrationJSON serves the manifest the channel platform uses to discover
// this integration. URLs are derived from the incoming request so the
// manifest always points at the serving deployment.
func (h *ReportHandlers) IntegrationJSON(c *gin.Context) {
	c.JSON(http.StatusOK, models.NewIntegration(requestBaseURL(c)))
}

// RecentReports lists the latest audited report outcomes, newest first.
func (h *ReportHandlers) RecentReports(c *gin.Context) {
	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'limit' parameter. Must be a positive integer."})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	entries, err := h.reports.RecentReports(ctx, limit)
	if err != nil {
		h.log.Error("failed to list report log", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report history"})
		return
	}

	if entries == nil {
		entries = []models.ReportEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"reports": entries,
		"count":   len(entries),
	})
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
