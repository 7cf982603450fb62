package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/cart"
	"storefront-service/internal/pricing"
	"storefront-service/middleware"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

type cartItemResponse struct {
	cart.LineItem
	Price     pricing.PriceInfo `json:"price"`
	LineTotal pricing.Money     `json:"line_total"`
	Formatted string            `json:"line_total_formatted"`
}

type cartResponse struct {
	Items          []cartItemResponse `json:"items"`
	Totals         cart.Totals        `json:"totals"`
	FormattedTotal string             `json:"total_formatted"`
	Version        uint64             `json:"version"`
}

func toCartResponse(view *cart.View) cartResponse {
	items := make([]cartItemResponse, 0, len(view.Items))
	for _, item := range view.Items {
		total := cart.LineTotal(item)
		items = append(items, cartItemResponse{
			LineItem:  item,
			Price:     item.PriceInfo(),
			LineTotal: total,
			Formatted: pricing.Format(total),
		})
	}
	return cartResponse{
		Items:          items,
		Totals:         view.Totals,
		FormattedTotal: pricing.Format(view.Totals.TotalPrice),
		Version:        view.Version,
	}
}

func (h *Handler) GetCart(c *gin.Context) {
	sess := middleware.SessionFrom(c)
	view, err := h.cart.FetchCart(c.Request.Context(), sess)
	if err != nil {
		abort(c, "error fetching cart", err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(view))
}

func (h *Handler) CartStats(c *gin.Context) {
	totals, err := h.cart.Stats(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		abort(c, "error fetching cart stats", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) AddToCart(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	sess := middleware.SessionFrom(c)

	var request struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}

	err := h.cart.AddToCart(c.Request.Context(), sess, request.ProductID, request.Quantity)
	if err != nil {
		abort(c, "error adding product to cart", err)
		return
	}
	slog.Info("product added to cart", slog.String(logkey.TraceID, traceId),
		slog.String("ProductID", request.ProductID), slog.Int("Quantity", request.Quantity), slog.String(logkey.UserID, sess.UserID()))
	c.JSON(http.StatusOK, gin.H{"message": "Product added to cart successfully"})
}

func (h *Handler) UpdateQuantity(c *gin.Context) {
	var request struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	err := h.cart.UpdateQuantity(c.Request.Context(), middleware.SessionFrom(c), c.Param("productId"), request.Quantity)
	if err != nil {
		abort(c, "error updating quantity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated"})
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	err := h.cart.RemoveItem(c.Request.Context(), middleware.SessionFrom(c), c.Param("productId"))
	if err != nil {
		abort(c, "error removing product from cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
}

func (h *Handler) ClearCart(c *gin.Context) {
	err := h.cart.ClearCart(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		abort(c, "error clearing cart", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
