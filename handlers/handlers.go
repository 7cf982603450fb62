package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/checkout"
	"storefront-service/internal/orders"
	"storefront-service/internal/payments"
	"storefront-service/internal/search"
	"storefront-service/middleware"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

// WebhookParser verifies and decodes payment webhooks; *payments.Conf satisfies it.
type WebhookParser interface {
	ParseWebhook(payload []byte, signature string) (payments.Payment, bool, error)
}

type Conf struct {
	Cart     *cart.Conf
	Orders   *orders.Workflow
	Checkout *checkout.Conf
	Search   search.Service
	// Webhook may be nil when Stripe is not configured.
	Webhook WebhookParser
	// ServiceSession acts for the storefront itself when a payment webhook confirms an
	// order. It needs the admin role.
	ServiceSession *auth.Session
	SuggestLimit   int
	RegistrySize   int
}

type Handler struct {
	cart           *cart.Conf
	orders         *orders.Workflow
	checkout       *checkout.Conf
	webhook        WebhookParser
	serviceSession *auth.Session
	selections     *registry[*cart.Selection]
	suggesters     *registry[*search.Suggester]
}

func NewHandler(conf Conf) (*Handler, error) {
	if conf.Cart == nil || conf.Orders == nil || conf.Checkout == nil || conf.Search == nil {
		return nil, errors.New("handler needs cart, orders, checkout and search")
	}
	size := conf.RegistrySize
	if size < 1 {
		size = 1024
	}
	selections, err := newRegistry[*cart.Selection](size, nil)
	if err != nil {
		return nil, err
	}
	suggesters, err := newRegistry(size, func(s *search.Suggester) { s.Cancel() })
	if err != nil {
		return nil, err
	}
	limit := conf.SuggestLimit
	service := conf.Search
	suggesters.create = func() *search.Suggester { return search.NewSuggester(service, limit) }

	return &Handler{
		cart:           conf.Cart,
		orders:         conf.Orders,
		checkout:       conf.Checkout,
		webhook:        conf.Webhook,
		serviceSession: conf.ServiceSession,
		selections:     selections,
		suggesters:     suggesters,
	}, nil
}

func API(endpointPrefix string, ginMode string, m *middleware.Mid, h *Handler) *gin.Engine {
	if ginMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())
	r.GET("/ping", HealthCheck)

	v1 := r.Group(endpointPrefix)
	{
		v1.POST("/webhook", h.Webhook)
		v1.GET("/order-statuses/:status", h.DescribeStatus)

		v1.Use(m.Authentication())
		v1.GET("/search/suggestions", h.Suggest)

		v1.GET("/cart", h.GetCart)
		v1.GET("/cart/stats", h.CartStats)
		v1.POST("/cart/items", h.AddToCart)
		v1.PATCH("/cart/items/:productId", h.UpdateQuantity)
		v1.DELETE("/cart/items/:productId", h.RemoveFromCart)
		v1.DELETE("/cart", h.ClearCart)

		v1.GET("/cart/selection", h.GetSelection)
		v1.PUT("/cart/selection", h.SetSelection)
		v1.POST("/cart/selection/toggle/:itemId", h.ToggleSelection)
		v1.POST("/cart/selection/all", h.SelectAll)
		v1.DELETE("/cart/selection", h.ClearSelection)

		v1.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser, auth.RoleAdmin))

		v1.GET("/orders", m.Authorize(h.ListOrders, auth.RoleUser, auth.RoleAdmin))
		v1.GET("/orders/:id", m.Authorize(h.GetOrder, auth.RoleUser, auth.RoleAdmin))
		v1.POST("/orders/:id/cancel", m.Authorize(h.CancelOrder, auth.RoleUser, auth.RoleAdmin))
		v1.POST("/orders/:id/receipt", m.Authorize(h.ConfirmReceipt, auth.RoleUser, auth.RoleAdmin))
		v1.POST("/orders/:id/reviews", m.Authorize(h.SubmitReviews, auth.RoleUser, auth.RoleAdmin))
		v1.PATCH("/orders/:id/status", m.Authorize(h.SetOrderStatus, auth.RoleAdmin))
	}
	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// abort logs err and answers with the status and shopper-facing message of its kind.
func abort(c *gin.Context, msg string, err error) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	status := apperr.HTTPStatus(err)
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelInfo
	}
	slog.Log(c.Request.Context(), level, msg, slog.String(logkey.TraceID, traceId),
		slog.String("Kind", apperr.KindOf(err).String()), slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.UserMessage(err)})
}

func badRequest(c *gin.Context, err error) {
	slog.Error("invalid request body", slog.String(logkey.TraceID, ctxmanage.GetTraceIdOfRequest(c)),
		slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
}
