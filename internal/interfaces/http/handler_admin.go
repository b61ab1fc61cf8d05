package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

type AdminHandler struct {
	admin *usecases.AdminUsecase
}

func NewAdminHandler(admin *usecases.AdminUsecase) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// GetStats returns platform statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetAllUsers returns a page of users, newest first
func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		c.Error(err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		c.Error(err)
		return
	}

	page, err := h.admin.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}
