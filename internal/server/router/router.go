package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/erp-tools/subvariance/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(api *handlers.DashboardHandler, page *handlers.PageHandler, gatherer prometheus.Gatherer, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	// Record ids are opaque and may contain '/', sent escaped as %2F.
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	tmpl, err := page.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/", page.Index)
	ui := r.Group("/ui")
	{
		ui.POST("/filter", page.SetFilter)
		ui.POST("/search", page.SetSearch)
		ui.POST("/records/:id/toggle", page.Toggle)
		ui.POST("/upload", page.Upload)
	}

	v := r.Group("/api")
	{
		v.GET("/view", api.View)
		v.PUT("/view/filter", api.SetFilter)
		v.PUT("/view/search", api.SetSearch)
		v.GET("/records", api.Records)
		v.POST("/records/:id/toggle", api.Toggle)
		v.GET("/statistics", api.Statistics)
		v.GET("/exposures", api.Exposures)
		v.GET("/snapshots", api.Snapshots)
		v.POST("/upload", api.Upload)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r, nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
