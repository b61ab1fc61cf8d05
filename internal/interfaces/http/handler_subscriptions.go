package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.svc.Subscriptions.ListPlans(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) CurrentSubscription(c *gin.Context) {
	sub, err := h.svc.Subscriptions.Current(c.Request.Context(), getUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) SelectPlan(c *gin.Context) {
	var req struct {
		Plan string `json:"plan"`
	}
	if !bindJSON(c, &req) {
		return
	}
	sub, err := h.svc.Subscriptions.SelectPlan(c.Request.Context(), getUserID(c), req.Plan)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
