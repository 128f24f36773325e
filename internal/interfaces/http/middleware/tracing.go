// Package middleware provides the gin middleware chain of the print service.
package middleware

import (
	"net/http"

	"github.com/erp/orderprint/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "order-print",
		Enabled:     true,
	}
}

// Tracing returns the otelgin middleware followed by a span decorator.
//
// The decorator runs inside the otelgin span. It adds request_id and, on
// download requests, the artifact identity from the query string. Responses
// with status >= 400 are marked with codes.Error.
func Tracing(cfg TracingConfig) gin.HandlersChain {
	if !cfg.Enabled {
		return gin.HandlersChain{func(c *gin.Context) { c.Next() }}
	}
	return gin.HandlersChain{otelgin.Middleware(cfg.ServiceName), decorateSpan}
}

// identityQueryAttrs maps download query params to span attributes
var identityQueryAttrs = map[string]string{
	"holding_client_id":    telemetry.SpanAttrHoldingKey,
	"enterprise_client_id": telemetry.SpanAttrEnterpriseKey,
	"order_number":         telemetry.SpanAttrOrderNumber,
}

func decorateSpan(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	for param, key := range identityQueryAttrs {
		if v := c.Query(param); v != "" && len(v) <= MaxRequestIDLength {
			span.SetAttributes(attribute.String(key, v))
		}
	}

	c.Next()

	status := c.Writer.Status()
	if status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
