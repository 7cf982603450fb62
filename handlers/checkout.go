package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/middleware"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// Checkout places an order for the selected cart items. Without explicit ids in the
// body the caller's current selection is used.
func (h *Handler) Checkout(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	var request checkout.Request
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	if len(request.SelectedIDs) == 0 {
		view, err := h.cart.FetchCart(c.Request.Context(), sess)
		if err != nil {
			abort(c, "error fetching cart", err)
			return
		}
		request.SelectedIDs = h.selectedIDs(sess, view)
	}

	result, err := h.checkout.Place(c.Request.Context(), sess, request)
	if err != nil && result.OrderID == "" {
		abort(c, "error placing order", err)
		return
	}
	h.selections.with(sess.UserID(), func() *cart.Selection { return cart.NewSelection(nil) }, func(sel *cart.Selection) {
		sel.Clear()
	})
	if err != nil {
		// the order exists even though no payment page could be opened
		slog.Error("order placed without payment page", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
			slog.String(logkey.OrderID, result.OrderID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{"error": apperr.UserMessage(err), "order_id": result.OrderID})
		return
	}

	if result.PaymentURL != "" {
		c.JSON(http.StatusOK, gin.H{"order_id": result.OrderID, "totals": result.Totals, "checkout_session_url": result.PaymentURL})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order_id": result.OrderID, "totals": result.Totals})
}
