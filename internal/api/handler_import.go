package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// importFile extracts the uploaded CSV from a multipart form, falling
// back to the raw request body for clients that POST the file directly.
func importFile(c *gin.Context) (interface{ Read([]byte) (int, error) }, func(), bool) {
	file, _, err := c.Request.FormFile("file")
	if err == nil {
		return file, func() { file.Close() }, true
	}
	if c.Request.Body != nil {
		return c.Request.Body, func() {}, true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "missing csv file"})
	return nil, nil, false
}

// ImportWorkers handles POST /api/colaboradores/import.
func (h *Handler) ImportWorkers(c *gin.Context) {
	src, closeFn, ok := importFile(c)
	if !ok {
		return
	}
	defer closeFn()

	result, err := h.importer.Workers(c.Request.Context(), src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportUsage handles POST /api/historico-utilizacao/import.
func (h *Handler) ImportUsage(c *gin.Context) {
	src, closeFn, ok := importFile(c)
	if !ok {
		return
	}
	defer closeFn()

	result, err := h.importer.Usage(c.Request.Context(), src)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
