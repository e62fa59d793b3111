package opname

import (
	"context"
	"net/http"

	"siap/internal/core/response"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type OpnameService interface {
	Create(ctx context.Context, actor models.Actor, locationID int, notes *string) (*models.StockOpname, error)
	Start(ctx context.Context, actor models.Actor, opnameID int) (*models.StockOpname, error)
	Scan(ctx context.Context, actor models.Actor, opnameID int, tag string) (*models.StockOpnameDetail, error)
	Finalize(ctx context.Context, actor models.Actor, opnameID int) (*models.StockOpname, error)
	Cancel(ctx context.Context, actor models.Actor, opnameID int) (*models.StockOpname, error)
	Get(ctx context.Context, opnameID int) (*models.StockOpname, error)
	List(ctx context.Context, locationID *int, limit int, offset int) ([]models.StockOpname, error)
	Summary(ctx context.Context, opnameID int) (models.OpnameSummary, error)
}

type OpnameHandler struct {
	service OpnameService
}

func NewHandler(service OpnameService) *OpnameHandler {
	return &OpnameHandler{service: service}
}

type createOpnameRequest struct {
	LocationID int     `json:"location_id" binding:"required"`
	Notes      *string `json:"notes"`
}

type scanRequest struct {
	Tag string `json:"tag" binding:"required"`
}

func (h *OpnameHandler) RegisterRoutes(router *gin.RouterGroup) {
	auditors := router.Group("/opnames")
	auditors.Use(security.Authorize(roles.Manager))
	{
		auditors.GET("", h.ListOpnames)
		auditors.POST("", h.CreateOpname)
		auditors.GET("/:id", h.GetOpname)
		auditors.GET("/:id/summary", h.GetSummary)
		auditors.POST("/:id/scan", h.Scan)
		auditors.POST("/:id/start", h.transition(OpnameService.Start))
		auditors.POST("/:id/finalize", h.transition(OpnameService.Finalize))
		auditors.POST("/:id/cancel", h.transition(OpnameService.Cancel))
	}
}

func (h *OpnameHandler) CreateOpname(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}

	var req createOpnameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	opname, err := h.service.Create(c.Request.Context(), actor, req.LocationID, req.Notes)
	if err != nil {
		response.Error(c, "Failed to create stock opname", err)
		return
	}

	c.JSON(http.StatusCreated, opname)
}

func (h *OpnameHandler) transition(op func(OpnameService, context.Context, models.Actor, int) (*models.StockOpname, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := security.ActorFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
			return
		}
		id, ok := response.ParamID(c, "id")
		if !ok {
			return
		}

		opname, err := op(h.service, c.Request.Context(), actor, id)
		if err != nil {
			response.Error(c, "Unable to update stock opname", err)
			return
		}

		c.JSON(http.StatusOK, opname)
	}
}

func (h *OpnameHandler) Scan(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	detail, err := h.service.Scan(c.Request.Context(), actor, id, req.Tag)
	if err != nil {
		response.Error(c, "Failed to record scan", err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

func (h *OpnameHandler) GetOpname(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	opname, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, "Unable to get stock opname", err)
		return
	}

	c.JSON(http.StatusOK, opname)
}

func (h *OpnameHandler) GetSummary(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), id)
	if err != nil {
		response.Error(c, "Unable to summarise stock opname", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *OpnameHandler) ListOpnames(c *gin.Context) {
	opnames, err := h.service.List(c.Request.Context(),
		response.QueryIntPtr(c, "location_id"),
		response.QueryInt(c, "limit", 0),
		response.QueryInt(c, "offset", 0))
	if err != nil {
		response.Error(c, "Unable to list stock opnames", err)
		return
	}

	c.JSON(http.StatusOK, opnames)
}
