package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// Logger gives every request a trace id, taken from X-Trace-Id when the caller sent one,
// and logs when the request starts and finishes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceId := c.GetHeader(ctxmanage.TraceIdHeader)
		if traceId == "" {
			traceId = uuid.NewString()
		}
		ctx := ctxmanage.WithTraceId(c.Request.Context(), traceId)
		c.Request = c.Request.WithContext(ctx)
		c.Header(ctxmanage.TraceIdHeader, traceId)

		start := time.Now()
		slog.Info("started", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path))

		c.Next()

		slog.Info("completed", slog.String(logkey.TraceID, traceId),
			slog.String("Method", c.Request.Method), slog.String("URL Path", c.Request.URL.Path),
			slog.Int("Status Code", c.Writer.Status()), slog.Int64("duration_μs", time.Since(start).Microseconds()))
	}
}
