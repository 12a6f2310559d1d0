package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wb-go/wbf/ginext"
)

// RegisterSystemRoutes adds the health probe and the Prometheus endpoint.
func RegisterSystemRoutes(engine *ginext.Engine) {
	metricsHandler := promhttp.Handler()

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})
	engine.GET("/metrics", func(c *ginext.Context) {
		metricsHandler.ServeHTTP(c.Writer, c.Request)
	})
}
