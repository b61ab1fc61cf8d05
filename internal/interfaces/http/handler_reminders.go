package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

// ProcessReminders runs one reminder pass for an external scheduler. The pass
// outlives a dropped client connection.
func (h *Handler) ProcessReminders(c *gin.Context) {
	result := h.svc.Reminders.RunPass(context.WithoutCancel(c.Request.Context()))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) SendReminder(c *gin.Context) {
	var in usecases.ManualReminderInput
	if !bindJSON(c, &in) {
		return
	}

	result, err := h.svc.Reminders.SendManual(c.Request.Context(), getUserID(c), in)
	if err != nil {
		if appErr, ok := usecases.AsAppError(err); ok && result != nil {
			c.JSON(appErr.Status, gin.H{"error": appErr.Message, "code": appErr.Code, "result": result})
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetReminderSettings(c *gin.Context) {
	s, err := h.svc.Reminders.GetSettings(c.Request.Context(), getUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) UpdateReminderSettings(c *gin.Context) {
	var in usecases.ReminderSettingsInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.svc.Reminders.UpdateSettings(c.Request.Context(), getUserID(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) ReminderHistory(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	reminders, err := h.svc.Reminders.History(c.Request.Context(), getUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, reminders)
}
