package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tolgabayrakdev/fabildirim/internal/repository"
	"github.com/tolgabayrakdev/fabildirim/internal/usecases"
)

func (h *Handler) DashboardSummary(c *gin.Context) {
	summary, err := h.svc.Dashboard.Summary(c.Request.Context(), getUserID(c))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ListActivity(c *gin.Context) {
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

	page, err := h.svc.Activity.List(c.Request.Context(), getUserID(c), c.Query("entity_type"), limit, offset)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func exportFilter(c *gin.Context) (repository.TransactionFilter, error) {
	return usecases.ParseTransactionFilter(c.Query("type"), c.Query("status"), 0)
}

// ExportCSV renders into a buffer first so a failure still gets a JSON error.
func (h *Handler) ExportCSV(c *gin.Context) {
	filter, err := exportFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export.WriteCSV(c.Request.Context(), getUserID(c), filter, &buf); err != nil {
		c.Error(err)
		return
	}
	name := fmt.Sprintf("transactions-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) ExportReport(c *gin.Context) {
	filter, err := exportFilter(c)
	if err != nil {
		c.Error(err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.Export.WriteReport(c.Request.Context(), getUserID(c), filter, &buf); err != nil {
		c.Error(err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
