package maintenance

import (
	"context"
	"net/http"
	"time"

	"siap/internal/core/response"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type MaintenanceService interface {
	Record(ctx context.Context, actor models.Actor, assetID int, input RecordInput) (*models.MaintenanceLog, error)
	History(ctx context.Context, assetID int) ([]models.MaintenanceLog, error)
	Due(ctx context.Context, before time.Time) ([]models.MaintenanceLog, error)
}

type MaintenanceHandler struct {
	service MaintenanceService
}

func NewHandler(service MaintenanceService) *MaintenanceHandler {
	return &MaintenanceHandler{service: service}
}

func (h *MaintenanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/assets/:id/maintenance", h.GetHistory)

	technicians := router.Group("")
	technicians.Use(security.Authorize(roles.Manager))
	{
		technicians.POST("/assets/:id/maintenance", h.RecordMaintenance)
		technicians.GET("/maintenance/due", h.GetDue)
	}
}

func (h *MaintenanceHandler) RecordMaintenance(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}
	assetID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	var input RecordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	record, err := h.service.Record(c.Request.Context(), actor, assetID, input)
	if err != nil {
		response.Error(c, "Failed to record maintenance", err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *MaintenanceHandler) GetHistory(c *gin.Context) {
	assetID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	records, err := h.service.History(c.Request.Context(), assetID)
	if err != nil {
		response.Error(c, "Unable to get maintenance history", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetDue accepts ?before=YYYY-MM-DD and defaults to now.
func (h *MaintenanceHandler) GetDue(c *gin.Context) {
	var before time.Time
	if raw := c.Query("before"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid before date", "details": err.Error()})
			return
		}
		before = parsed
	}

	records, err := h.service.Due(c.Request.Context(), before)
	if err != nil {
		response.Error(c, "Unable to list maintenance due", err)
		return
	}

	c.JSON(http.StatusOK, records)
}
