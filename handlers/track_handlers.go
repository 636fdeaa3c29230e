// api/handlers/track_handlers.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitepulse/api/logger"
	"sitepulse/api/middleware"
	"sitepulse/api/models"
	"sitepulse/api/monitoring"
	"sitepulse/api/utils"
)

const (
	insertTimeout = 15 * time.Second
	queryTimeout  = 10 * time.Second
)

// VisitStore is the slice of the visit storage layer the handlers need.
type VisitStore interface {
	InsertVisit(ctx context.Context, visit *models.VisitRecord) error
	CountUniqueVisitors(ctx context.Context, window models.DailyWindow) (uint64, error)
}

type AnalyticsHandlers struct {
	visits  VisitStore
	hasher  *utils.VisitorHasher
	log     logger.Logger
	metrics *monitoring.Metrics
}

func NewAnalyticsHandlers(visits VisitStore, hasher *utils.VisitorHasher, log logger.Logger, metrics *monitoring.Metrics) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		visits:  visits,
		hasher:  hasher,
		log:     log,
		metrics: metrics,
	}
}

// TrackVisit records a single page visit. The visitor identity is reduced
// to a salted hash of IP and User-Agent before anything is stored; the raw
// values never leave the request.
func (h *AnalyticsHandlers) TrackVisit(c *gin.Context) {
	if c.GetBool(middleware.BotFlagKey) {
		h.metrics.VisitsSkipped.WithLabelValues("bot").Inc()
		c.Status(http.StatusOK)
		return
	}

	// An empty body is fine; the page path then comes from the Referer.
	var req models.TrackVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	pagePath := utils.NormalizePagePath(req.PagePath)
	if pagePath == "" {
		pagePath = utils.PathFromReferer(c.GetHeader("Referer"))
	}
	if pagePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page_path is required"})
		return
	}

	visit := models.VisitRecord{
		VisitorHash: h.hasher.Hash(c.ClientIP(), c.Request.UserAgent()),
		PagePath:    pagePath,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), insertTimeout)
	defer cancel()

	if err := h.visits.InsertVisit(ctx, &visit); err != nil {
		h.log.Error("failed to record visit",
			logger.Error(err),
			logger.String("page_path", pagePath))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record visit"})
		return
	}

	h.metrics.VisitsRecorded.Inc()
	c.Status(http.StatusOK)
}

// GetDailyAnalytics reports the unique-visitor count for the trailing
// 24-hour window, or for a full calendar day when ?date=YYYY-MM-DD is given.
func (h *AnalyticsHandlers) GetDailyAnalytics(c *gin.Context) {
	window := models.TrailingDay(time.Now())
	if dateParam := c.Query("date"); dateParam != "" {
		day, err := time.Parse(models.DateLayout, dateParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'date' format. Use YYYY-MM-DD (e.g., 2025-03-08)"})
			return
		}
		window = models.CalendarDay(day)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	count, err := h.visits.CountUniqueVisitors(ctx, window)
	if err != nil {
		h.log.Error("failed to count unique visitors",
			logger.Error(err),
			logger.String("date", window.Date))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve daily analytics"})
		return
	}

	c.JSON(http.StatusOK, models.DailyVisitorCount{
		Date:           window.Date,
		UniqueVisitors: count,
	})
}
