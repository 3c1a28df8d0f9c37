package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campus-engage/internal/common/logger"
	"campus-engage/internal/common/metrics"
)

// accessLog writes one structured line per request.
func accessLog(log logger.Logger) gin.HandlerFunc {
	log = log.WithFields(map[string]interface{}{"component": "http"})
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"route":     c.FullPath(),
			"status":    c.Writer.Status(),
			"bytes":     c.Writer.Size(),
			"duration":  time.Since(start).String(),
			"clientIp":  c.ClientIP(),
			"userAgent": c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request served", fields)
		case status >= 400:
			log.Warn("request served", fields)
		default:
			log.Info("request served", fields)
		}
	}
}

// instrument records request counts and latency by matched route. Unmatched
// paths share one label.
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}
