package handler

import (
	"bytes"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"billscan/internal/export"
	"billscan/internal/service"
)

// ExtractHandler handles line-item extraction endpoints.
type ExtractHandler struct {
	extraction *service.ExtractionService
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(extraction *service.ExtractionService) *ExtractHandler {
	return &ExtractHandler{extraction: extraction}
}

type extractRequest struct {
	Document      string   `json:"document" binding:"required"`
	ReportedTotal *float64 `json:"reported_total"`
}

// Extract handles POST /api/v1/extract
func (h *ExtractHandler) Extract(c *gin.Context) {
	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	result, err := h.extraction.Extract(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, result)
}

// validFormats defines the allowed export format values.
var validFormats = map[string]bool{
	"csv":  true,
	"xlsx": true,
}

// Export handles POST /api/v1/extract/export?format=csv|xlsx
func (h *ExtractHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if !validFormats[format] {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "invalid 'format': must be csv or xlsx")
		return
	}

	req, ok := h.bindRequest(c)
	if !ok {
		return
	}

	result, err := h.extraction.Extract(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(documentName(req.DocumentURL), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if format == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteXLSX(&buf, result); err != nil {
			HandleError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
		return
	}

	var buf bytes.Buffer
	buf.Write(export.BOM)
	w := export.NewCSVWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		HandleError(c, err)
		return
	}
	if err := w.WriteResult(result); err != nil {
		HandleError(c, err)
		return
	}
	w.Flush()
	if err := w.Error(); err != nil {
		HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ExtractHandler) bindRequest(c *gin.Context) (service.ExtractRequest, bool) {
	var body extractRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "body must include a 'document' URL")
		return service.ExtractRequest{}, false
	}
	if body.ReportedTotal != nil && *body.ReportedTotal <= 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "'reported_total' must be positive")
		return service.ExtractRequest{}, false
	}
	return service.ExtractRequest{
		DocumentURL:   body.Document,
		ReportedTotal: body.ReportedTotal,
	}, true
}

// documentName extracts the last path segment of the document URL for use
// in attachment filenames.
func documentName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := u.Path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
