package http

import (
	"github.com/amplerun/zain-crafter/internal/adapter/http/middleware"
	"github.com/amplerun/zain-crafter/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *OrderHandler, th *TokenHandler, authz *middleware.Authz) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())

	l := logging.New("http")
	r.Use(middleware.Logging(l))

	r.GET("/healthz", func(c *gin.Context) {
		logging.From(c).Info("health check")
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/v1/token", th.IssueToken)

	v1 := r.Group("/v1", authz.Authenticate())
	{
		v1.POST("/orders", h.PlaceOrder)
		v1.GET("/orders", h.ListOrders)
		v1.GET("/orders/mine", h.ListMyOrders)
		v1.GET("/orders/:id", h.GetOrderByID)
		v1.GET("/orders/:id/status", h.GetOrderStatus)
		v1.PUT("/orders/:id/pay", h.MarkPaid)
		v1.PUT("/orders/:id/status", h.UpdateStatus)
	}

	return r
}
