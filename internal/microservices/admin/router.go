// Package admin serves the operational HTTP endpoints next to the TCP server:
// a health check and the Prometheus scrape endpoint. It never exposes commands.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource is the view of the command server the health check reports on.
type StatusSource interface {
	ConnectionCount() int
	Commands() []string
}

// NewRouter builds the admin engine. gatherer is usually the registry the
// server metrics were registered on.
func NewRouter(status StatusSource, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": status.ConnectionCount(),
			"commands":    status.Commands(),
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return r
}
