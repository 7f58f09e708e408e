package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/greenmart/checkout-service/metrics"
)

// MetricsMiddleware records request counts, latencies and error counts to
// CloudWatch. Recording happens off the request path.
func MetricsMiddleware(client *metrics.Client, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !client.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		path := c.FullPath()
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  method,
			"Path":    path,
			"Status":  statusCodeToRange(statusCode),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = client.RecordCount(ctx, metrics.MetricHTTPRequests, dimensions)
			_ = client.RecordLatency(ctx, metrics.MetricHTTPLatency, duration, dimensions)
			if statusCode >= 400 {
				_ = client.RecordCount(ctx, metrics.MetricHTTPErrors, dimensions)
			}
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
