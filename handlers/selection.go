package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/pricing"
	"storefront-service/middleware"
)

const (
	errMsgSelectionLogin = "Please log in to select items"
	errMsgSelectionOff   = "Selection mode is off"
	errMsgItemGone       = "This item is no longer in your cart"
)

type selectionResponse struct {
	Enabled        bool                `json:"enabled"`
	SelectedIDs    []string            `json:"selected_ids"`
	Totals         cart.SelectedTotals `json:"totals"`
	FormattedTotal string              `json:"total_formatted"`
	Version        uint64              `json:"version"`
}

// withSelection loads the current cart and runs fn on the caller's selection after it
// was reconciled with that cart.
func (h *Handler) withSelection(c *gin.Context, fn func(sel *cart.Selection, view *cart.View) error) {
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() {
		abort(c, "selection without session", apperr.Unauthenticated(errMsgSelectionLogin))
		return
	}
	view, err := h.cart.FetchCart(c.Request.Context(), sess)
	if err != nil {
		abort(c, "error fetching cart", err)
		return
	}

	var resp selectionResponse
	h.selections.with(sess.UserID(), func() *cart.Selection { return cart.NewSelection(view) }, func(sel *cart.Selection) {
		sel.Reconcile(view)
		if err = fn(sel, view); err != nil {
			return
		}
		totals := sel.Totals(view)
		resp = selectionResponse{
			Enabled:        sel.Enabled(),
			SelectedIDs:    sel.IDs(),
			Totals:         totals,
			FormattedTotal: pricing.Format(totals.SelectedTotalPrice),
			Version:        view.Version,
		}
	})
	if err != nil {
		abort(c, "error updating selection", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// selectedIDs returns the ids the session currently has selected in view.
func (h *Handler) selectedIDs(sess *auth.Session, view *cart.View) []string {
	var ids []string
	h.selections.with(sess.UserID(), func() *cart.Selection { return cart.NewSelection(view) }, func(sel *cart.Selection) {
		sel.Reconcile(view)
		ids = sel.IDs()
	})
	return ids
}

func (h *Handler) GetSelection(c *gin.Context) {
	h.withSelection(c, func(*cart.Selection, *cart.View) error { return nil })
}

func (h *Handler) SetSelection(c *gin.Context) {
	var request struct {
		Enabled     *bool    `json:"enabled"`
		SelectedIDs []string `json:"selected_ids"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		badRequest(c, err)
		return
	}
	h.withSelection(c, func(sel *cart.Selection, view *cart.View) error {
		if request.Enabled != nil {
			sel.SetMode(*request.Enabled)
		}
		if request.SelectedIDs == nil {
			return nil
		}
		if !sel.Enabled() {
			return apperr.Precondition(errMsgSelectionOff)
		}
		sel.Clear()
		for _, id := range request.SelectedIDs {
			if _, ok := view.Find(id); ok {
				sel.Select(id)
			}
		}
		return nil
	})
}

func (h *Handler) ToggleSelection(c *gin.Context) {
	id := c.Param("itemId")
	h.withSelection(c, func(sel *cart.Selection, view *cart.View) error {
		if !sel.Enabled() {
			return apperr.Precondition(errMsgSelectionOff)
		}
		if _, ok := view.Find(id); !ok {
			return apperr.NotFound(errMsgItemGone)
		}
		sel.Toggle(id)
		return nil
	})
}

func (h *Handler) SelectAll(c *gin.Context) {
	h.withSelection(c, func(sel *cart.Selection, view *cart.View) error {
		if !sel.Enabled() {
			return apperr.Precondition(errMsgSelectionOff)
		}
		sel.SelectAll(view)
		return nil
	})
}

func (h *Handler) ClearSelection(c *gin.Context) {
	h.withSelection(c, func(sel *cart.Selection, _ *cart.View) error {
		sel.Clear()
		return nil
	})
}
