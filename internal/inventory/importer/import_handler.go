package importer

import (
	"net/http"

	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type ImportHandler struct {
	importer *Importer
}

func NewHandler(importer *Importer) *ImportHandler {
	return &ImportHandler{importer: importer}
}

func (h *ImportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/assets/import", security.Authorize(roles.Manager), h.ImportAssets)
}

// ImportAssets takes a multipart upload in the "file" field.
func (h *ImportHandler) ImportAssets(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file", "details": err.Error()})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read file", "details": err.Error()})
		return
	}
	defer file.Close()

	report, err := h.importer.Import(c.Request.Context(), file, actor.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
