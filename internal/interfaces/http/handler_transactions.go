package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

func bindTransaction(c *gin.Context) (usecases.TransactionInput, bool) {
	var in usecases.TransactionInput
	if !bindJSON(c, &in) {
		return in, false
	}
	in.Description = TruncateString(SanitizeString(in.Description), MaxDescriptionLength)
	return in, true
}

func (h *Handler) ListTransactions(c *gin.Context) {
	contactID, err := queryInt64(c, "contact_id")
	if err != nil {
		c.Error(err)
		return
	}
	filter, err := usecases.ParseTransactionFilter(c.Query("type"), c.Query("status"), contactID)
	if err != nil {
		c.Error(err)
		return
	}

	txs, err := h.svc.Transactions.List(c.Request.Context(), getUserID(c), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	in, ok := bindTransaction(c)
	if !ok {
		return
	}
	t, err := h.svc.Transactions.Create(c.Request.Context(), getUserID(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	t, err := h.svc.Transactions.Get(c.Request.Context(), getUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	in, ok := bindTransaction(c)
	if !ok {
		return
	}
	t, err := h.svc.Transactions.Update(c.Request.Context(), getUserID(c), id, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	if err := h.svc.Transactions.Delete(c.Request.Context(), getUserID(c), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListPayments(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	payments, err := h.svc.Payments.ListByTransaction(c.Request.Context(), getUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

func (h *Handler) CreatePayment(c *gin.Context) {
	var in usecases.PaymentInput
	if !bindJSON(c, &in) {
		return
	}
	in.Note = SanitizeString(in.Note)

	result, err := h.svc.Payments.Create(c.Request.Context(), getUserID(c), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) DeletePayment(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		c.Error(err)
		return
	}
	t, err := h.svc.Payments.Delete(c.Request.Context(), getUserID(c), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": t})
}
