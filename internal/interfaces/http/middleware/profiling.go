package middleware

import (
	"context"

	"github.com/gateway/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// ProfilingLabels tags the CPU time of each request with its route pattern
// and method, so Pyroscope can break profiles down per endpoint.
func ProfilingLabels(enabled bool) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		telemetry.WithProfilingLabels(c.Request.Context(), map[string]string{
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelMethod: c.Request.Method,
		}, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
