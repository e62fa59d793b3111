package hris

import (
	"net/http"

	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type HRISHandler struct {
	SyncService *SyncService
}

func NewHRISHandler(service *SyncService) *HRISHandler {
	return &HRISHandler{SyncService: service}
}

func (h *HRISHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/integrations/hris/sync", security.Authorize(roles.Admin), h.sync)
}

func (h *HRISHandler) sync(c *gin.Context) {
	report, err := h.SyncService.Run(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Directory sync failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
