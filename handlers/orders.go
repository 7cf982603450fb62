package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/middleware"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type orderResponse struct {
	orders.Order
	Meta           orders.Meta `json:"meta"`
	Actions        []string    `json:"actions"`
	FormattedTotal string      `json:"total_formatted"`
}

func toOrderResponse(o orders.Order) orderResponse {
	return orderResponse{
		Order:          o,
		Meta:           o.Status.Meta(),
		Actions:        o.Status.Actions().Strings(),
		FormattedTotal: pricing.Format(o.TotalPrice),
	}
}

func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	p := orders.Page{Page: page, Limit: limit}.Normalize()

	list, err := h.orders.ListOrders(c.Request.Context(), middleware.SessionFrom(c), p)
	if err != nil {
		abort(c, "error fetching orders", err)
		return
	}
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out, "page": p.Page, "limit": p.Limit})
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"))
	if err != nil {
		abort(c, "error fetching order", err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*order))
}

// DescribeStatus exposes the status catalogue so the UI can render badges for any raw
// status string.
func (h *Handler) DescribeStatus(c *gin.Context) {
	raw := c.Param("status")
	status := orders.ParseStatus(raw)
	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"meta":    orders.StatusMeta(raw),
		"actions": orders.PermittedActions(raw).Strings(),
	})
}

func (h *Handler) CancelOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")
	if err := h.orders.Cancel(c.Request.Context(), middleware.SessionFrom(c), orderID); err != nil {
		abort(c, "error cancelling order", err)
		return
	}
	slog.Info("order cancelled", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, orderID))
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled"})
}

func (h *Handler) ConfirmReceipt(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	orderID := c.Param("id")
	if err := h.orders.ConfirmReceipt(c.Request.Context(), middleware.SessionFrom(c), orderID); err != nil {
		abort(c, "error confirming receipt", err)
		return
	}
	slog.Info("order receipt confirmed", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, orderID))
	c.JSON(http.StatusOK, gin.H{"message": "Thank you for confirming your order"})
}

func (h *Handler) SubmitReviews(c *gin.Context) {
	var request struct {
		Reviews []orders.Review `json:"reviews"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	err := h.orders.SubmitReviews(c.Request.Context(), middleware.SessionFrom(c), c.Param("id"), request.Reviews)
	if err != nil {
		abort(c, "error submitting reviews", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Thank you for your reviews"})
}

func (h *Handler) SetOrderStatus(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	var request struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	orderID := c.Param("id")
	status := orders.ParseStatus(request.Status)
	if err := h.orders.SetStatus(c.Request.Context(), middleware.SessionFrom(c), orderID, status); err != nil {
		abort(c, "error setting order status", err)
		return
	}
	slog.Info("order status set", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, orderID),
		slog.String("Status", status.String()))
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": status})
}
