package middleware

import (
	"net/http"

	"github.com/gateway/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// TracerProvider overrides the global provider when set
	TracerProvider trace.TracerProvider
}

// Tracing returns OpenTelemetry tracing middleware. otelgin opens the server
// span named after the matched route.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	return otelgin.Middleware(cfg.ServiceName, opts...)
}

// SpanEnricher tags the active server span with the request ID and, once
// the handler chain has run, the authenticated user. 4xx and 5xx responses
// mark the span as failed. Place it after Tracing and RequestID.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := requestIDFrom(c); id != "" {
			telemetry.SetAttribute(span, telemetry.SpanAttrRequestID, id)
		}

		c.Next()

		if userID := GetJWTUserID(c); userID != 0 {
			telemetry.SetAttribute(span, telemetry.SpanAttrUserID, userID)
		}

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			telemetry.SetAttribute(span, "http.status_code", status)
		}
	}
}
