package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

func bindContact(c *gin.Context) (usecases.ContactInput, bool) {
	var in usecases.ContactInput
	if !bindJSON(c, &in) {
		return in, false
	}
	in.Name = SanitizeString(in.Name)
	in.Company = SanitizeString(in.Company)
	in.Address = SanitizeString(in.Address)
	in.Notes = TruncateString(SanitizeString(in.Notes), MaxNotesLength)
	return in, true
}

func (h *Handler) ListContacts(c *gin.Context) {
	q := TruncateString(SanitizeString(c.Query("q")), MaxSearchLength)
	contacts, err := h.svc.Contacts.List(c.Request.Context(), getUserID(c), q)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handler) CreateContact(c *gin.Context) {
	in, ok := bindContact(c)
	if !ok {
		return
	}
	contact, err := h.svc.Contacts.Create(c.Request.Context(), getUserID(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, contact)
}

func (h *Handler) GetContact(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	contact, err := h.svc.Contacts.Get(c.Request.Context(), getUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) UpdateContact(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	in, ok := bindContact(c)
	if !ok {
		return
	}
	contact, err := h.svc.Contacts.Update(c.Request.Context(), getUserID(c), id, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *Handler) DeleteContact(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.svc.Contacts.Delete(c.Request.Context(), getUserID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
