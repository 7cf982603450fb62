package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/orders"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const maxWebhookBytes = int64(65536)

// Webhook receives Stripe events. A settled payment moves its order to confirmed.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	if h.webhook == nil || !h.serviceSession.IsAdmin() {
		slog.Error("payment webhook is not configured", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Payments are not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.Error("failed to read webhook body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}

	payment, ok, err := h.webhook.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		slog.Error("failed to parse webhook", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook event"})
		return
	}
	if !ok {
		slog.Info("Unhandled event type", slog.String(logkey.TraceID, traceId), slog.String("event_type", payment.EventType))
		c.JSON(http.StatusOK, gin.H{"message": "Event type not handled", "event": payment.EventType})
		return
	}

	slog.Info("payment succeeded", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, payment.OrderID),
		slog.String(logkey.UserID, payment.UserID), slog.String("Reference", payment.Reference))
	err = h.orders.SetStatus(c.Request.Context(), h.serviceSession, payment.OrderID, orders.StatusConfirmed)
	if err != nil {
		abort(c, "failed to confirm paid order", err)
		return
	}
	c.Status(http.StatusOK)
}
