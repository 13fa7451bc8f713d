package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/hotspotkeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

type archiveResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// downloadReport renders the whole CSV before writing headers so a failing
// query still yields a proper error status.
func (h *handler) downloadReport(c *gin.Context) {
	kind := c.Param("kind")

	var buf bytes.Buffer
	if err := h.deps.Reports.WriteReport(c.Request.Context(), kind, &buf); err != nil {
		h.writeError(c, "render report", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ReportFilename(kind)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *handler) archiveReport(c *gin.Context) {
	key, url, err := h.deps.Reports.ArchiveReport(c.Request.Context(), c.Param("kind"))
	if err != nil {
		h.writeError(c, "archive report", err)
		return
	}
	c.JSON(http.StatusOK, archiveResponse{Key: key, URL: url})
}
