package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/search"
	"storefront-service/middleware"
)

// visitorKey identifies whose suggestion stream a request belongs to.
func visitorKey(c *gin.Context) string {
	if sess := middleware.SessionFrom(c); sess.Authenticated() {
		return "user:" + sess.UserID()
	}
	return "ip:" + c.ClientIP()
}

// Suggest answers type-ahead queries. A request overtaken by a newer one from the same
// visitor gets 409 and must be ignored by the caller.
func (h *Handler) Suggest(c *gin.Context) {
	suggester := h.suggesters.get(visitorKey(c), nil)
	suggestions, err := suggester.Suggest(c.Request.Context(), c.Query("q"))
	if errors.Is(err, search.ErrSuperseded) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "superseded"})
		return
	}
	if err != nil {
		abort(c, "error fetching suggestions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
