package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/domain/models"
	"github.com/erp-tools/subvariance/internal/observability/metrics"
	"github.com/erp-tools/subvariance/internal/service/dashboard"
	"github.com/erp-tools/subvariance/internal/service/reporting"
)

// ErrUploadNotSupported is returned by the upload endpoint; ledger import is not offered.
var ErrUploadNotSupported = errors.New("ledger upload is not supported")

const defaultSnapshotLimit = 30

// Dashboard is the view state the handlers drive.
type Dashboard interface {
	SetActiveFilter(status models.Status)
	SetSearchText(text string)
	VisibleRecords() []models.Record
	Statistics() models.Statistics
	View() dashboard.View
	ToggleStatus(id string) (models.Record, error)
}

// Exposures reports outstanding amounts per customer.
type Exposures interface {
	OutstandingByCustomer() []reporting.CustomerExposure
}

// SnapshotReader lists stored statistics snapshots.
type SnapshotReader interface {
	LatestSnapshots(ctx context.Context, limit int64) ([]models.StatisticsSnapshot, error)
}

// DashboardHandler exposes the dashboard state as a JSON API.
type DashboardHandler struct {
	dashboard Dashboard
	exposures Exposures
	snapshots SnapshotReader
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewDashboardHandler constructs the HTTP handler adapter. snapshots and m may be nil.
func NewDashboardHandler(d Dashboard, exposures Exposures, snapshots SnapshotReader, m *metrics.Metrics, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{dashboard: d, exposures: exposures, snapshots: snapshots, metrics: m, logger: logger}
}

type filterRequest struct {
	Status *models.Status `json:"status"`
}

type searchRequest struct {
	Text *string `json:"text"`
}

// View returns filter, search text, visible records and statistics.
func (h *DashboardHandler) View(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.View())
}

// Records returns the visible records.
func (h *DashboardHandler) Records(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"records": h.dashboard.VisibleRecords()})
}

// Statistics returns the aggregates over the full collection.
func (h *DashboardHandler) Statistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.dashboard.Statistics())
}

// SetFilter replaces the active status filter.
func (h *DashboardHandler) SetFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == nil {
		h.logger.Warn("invalid filter payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be INCOMPLETE or COMPLETED"})
		return
	}

	h.dashboard.SetActiveFilter(*req.Status)
	c.JSON(http.StatusOK, h.dashboard.View())
}

// SetSearch replaces the search text verbatim.
func (h *DashboardHandler) SetSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		h.logger.Warn("invalid search payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "text must be provided"})
		return
	}

	h.dashboard.SetSearchText(*req.Text)
	c.JSON(http.StatusOK, h.dashboard.View())
}

// Toggle flips the status of one record.
func (h *DashboardHandler) Toggle(c *gin.Context) {
	id := c.Param("id")

	record, err := h.dashboard.ToggleStatus(id)
	if errors.Is(err, dashboard.ErrRecordNotFound) {
		h.metrics.ToggleResult(metrics.ResultNotFound)
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found", "id": id})
		return
	}
	if err != nil {
		h.logger.Error("failed toggling record", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to toggle record"})
		return
	}

	h.metrics.ToggleResult(metrics.ResultToggled)
	c.JSON(http.StatusOK, gin.H{"record": record, "statistics": h.dashboard.Statistics()})
}

// Exposures returns outstanding amounts grouped by customer.
func (h *DashboardHandler) Exposures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"customers": h.exposures.OutstandingByCustomer()})
}

// Snapshots lists the latest stored statistics snapshots.
func (h *DashboardHandler) Snapshots(c *gin.Context) {
	if h.snapshots == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot store not configured"})
		return
	}

	limit := int64(defaultSnapshotLimit)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	snapshots, err := h.snapshots.LatestSnapshots(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed loading snapshots", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to load snapshots"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots})
}

// Upload is the ledger upload affordance. It accepts nothing and changes nothing.
func (h *DashboardHandler) Upload(c *gin.Context) {
	h.logger.Info("upload requested but not supported")
	c.JSON(http.StatusNotImplemented, gin.H{"error": ErrUploadNotSupported.Error()})
}
