package handlers

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/domain/models"
	"github.com/erp-tools/subvariance/internal/observability/metrics"
	"github.com/erp-tools/subvariance/internal/service/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

// Formatter renders money for display.
type Formatter interface {
	FormatWon(amount decimal.Decimal) string
}

// PageHandler serves the server-rendered dashboard page and its form posts.
type PageHandler struct {
	dashboard Dashboard
	formatter Formatter
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewPageHandler constructs the page handler.
func NewPageHandler(d Dashboard, formatter Formatter, m *metrics.Metrics, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{dashboard: d, formatter: formatter, metrics: m, logger: logger}
}

// Templates parses the embedded page templates.
func (h *PageHandler) Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"won":        h.formatter.FormatWon,
		"pathEscape": escapePathSegment,
	}).ParseFS(templateFS, "templates/*.html")
}

// escapePathSegment escapes an id for use as one path segment. gin unescapes
// raw path values with query rules, so '+' is escaped as well.
func escapePathSegment(id string) string {
	return strings.ReplaceAll(url.PathEscape(id), "+", "%2B")
}

type pageData struct {
	View       dashboard.View
	Incomplete models.Status
	Completed  models.Status
	Notice     string
}

// Index renders the dashboard.
func (h *PageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", pageData{
		View:       h.dashboard.View(),
		Incomplete: models.StatusIncomplete,
		Completed:  models.StatusCompleted,
		Notice:     c.Query("notice"),
	})
}

// SetFilter handles the tab buttons.
func (h *PageHandler) SetFilter(c *gin.Context) {
	status, err := models.ParseStatus(c.PostForm("status"))
	if err != nil {
		c.String(http.StatusBadRequest, "unknown status")
		return
	}
	h.dashboard.SetActiveFilter(status)
	c.Redirect(http.StatusSeeOther, "/")
}

// SetSearch handles the search box. The value is stored verbatim.
func (h *PageHandler) SetSearch(c *gin.Context) {
	h.dashboard.SetSearchText(c.PostForm("q"))
	c.Redirect(http.StatusSeeOther, "/")
}

// Toggle handles the per-row action button.
func (h *PageHandler) Toggle(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.dashboard.ToggleStatus(id); err != nil {
		if errors.Is(err, dashboard.ErrRecordNotFound) {
			h.metrics.ToggleResult(metrics.ResultNotFound)
			c.Redirect(http.StatusSeeOther, "/?notice=not-found")
			return
		}
		h.logger.Error("failed toggling record", zap.String("id", id), zap.Error(err))
		c.String(http.StatusInternalServerError, "failed to toggle record")
		return
	}
	h.metrics.ToggleResult(metrics.ResultToggled)
	c.Redirect(http.StatusSeeOther, "/")
}

// Upload renders the same 501 as the API for the header button.
func (h *PageHandler) Upload(c *gin.Context) {
	c.String(http.StatusNotImplemented, ErrUploadNotSupported.Error())
}
