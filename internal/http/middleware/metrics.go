package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/clipfinder/internal/observability"
)

// Metrics instruments HTTP request counts/latency when metrics are enabled.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()

		c.Next()

		m.ObserveAPI(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
