package middleware

import (
	"strconv"
	"time"

	"recipe-assistant/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄 HTTP 請求次數與延遲
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 以路由樣板作為標籤，避免路徑參數造成標籤爆量
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
