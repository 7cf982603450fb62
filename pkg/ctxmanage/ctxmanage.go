package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
)

type ctxKey int

const TraceIdKey ctxKey = 1

// TraceIdHeader lets an upstream caller (the browser app or a gateway) pin the trace id.
const TraceIdHeader = "X-Trace-Id"

func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}

// GetTraceId returns the trace id stored in ctx or "Unknown" when none was set.
func GetTraceId(ctx context.Context) string {
	traceId, ok := ctx.Value(TraceIdKey).(string)
	if !ok || traceId == "" {
		return "Unknown"
	}
	return traceId
}

func GetTraceIdOfRequest(c *gin.Context) string {
	return GetTraceId(c.Request.Context())
}
