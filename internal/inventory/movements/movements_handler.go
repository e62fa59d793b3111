package movements

import (
	"context"
	"net/http"

	"siap/internal/core/response"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type MovementService interface {
	Create(ctx context.Context, asset models.Asset, performedBy int) (*Result, error)
	Assign(ctx context.Context, cmd Command) (*Result, error)
	Return(ctx context.Context, cmd Command) (*Result, error)
	Transfer(ctx context.Context, cmd Command) (*Result, error)
	SendForRepair(ctx context.Context, cmd Command) (*Result, error)
	ReturnFromRepair(ctx context.Context, cmd Command) (*Result, error)
	Retire(ctx context.Context, cmd Command) (*Result, error)
	MarkLost(ctx context.Context, cmd Command) (*Result, error)
	MarkFound(ctx context.Context, cmd Command) (*Result, error)
	Dispose(ctx context.Context, cmd Command) (*Result, error)
	Relocate(ctx context.Context, cmd Command) (*Result, error)
	UpdateDetails(ctx context.Context, assetID int, details models.AssetDetails, performedBy int) (*Result, error)
	Archive(ctx context.Context, assetID int, performedBy int) (*models.Asset, error)
	History(ctx context.Context, assetID int) ([]models.Movement, error)
}

type MovementsHandler struct {
	service MovementService
}

func NewHandler(service MovementService) *MovementsHandler {
	return &MovementsHandler{service: service}
}

type createAssetRequest struct {
	Tag        string `json:"tag" binding:"required"`
	LocationID *int   `json:"location_id"`
	models.AssetDetails
}

type movementRequest struct {
	UserID     *int                   `json:"user_id"`
	LocationID *int                   `json:"location_id"`
	Notes      *string                `json:"notes"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func (h *MovementsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/assets/:id/movements", h.GetHistory)

	custodian := router.Group("")
	custodian.Use(security.Authorize(roles.Manager))
	{
		custodian.POST("/assets", h.CreateAsset)
		custodian.PATCH("/assets/:id", h.UpdateAsset)
		custodian.POST("/assets/:id/assign", h.move(MovementService.Assign))
		custodian.POST("/assets/:id/return", h.move(MovementService.Return))
		custodian.POST("/assets/:id/transfer", h.move(MovementService.Transfer))
		custodian.POST("/assets/:id/repair", h.move(MovementService.SendForRepair))
		custodian.POST("/assets/:id/repair-return", h.move(MovementService.ReturnFromRepair))
		custodian.POST("/assets/:id/retire", h.move(MovementService.Retire))
		custodian.POST("/assets/:id/lost", h.move(MovementService.MarkLost))
		custodian.POST("/assets/:id/found", h.move(MovementService.MarkFound))
		custodian.POST("/assets/:id/dispose", h.move(MovementService.Dispose))
		custodian.POST("/assets/:id/relocate", h.move(MovementService.Relocate))
	}

	router.DELETE("/assets/:id", security.Authorize(roles.Admin), h.ArchiveAsset)
}

func (h *MovementsHandler) CreateAsset(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}

	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	asset := models.Asset{Tag: req.Tag, LocationID: req.LocationID}
	req.AssetDetails.Apply(&asset)

	result, err := h.service.Create(c.Request.Context(), asset, actor.UserID)
	if err != nil {
		response.Error(c, "Failed to create asset", err)
		return
	}

	c.JSON(http.StatusCreated, result.Asset)
}

func (h *MovementsHandler) UpdateAsset(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}
	assetID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	var details models.AssetDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.service.UpdateDetails(c.Request.Context(), assetID, details, actor.UserID)
	if err != nil {
		response.Error(c, "Failed to update asset", err)
		return
	}

	c.JSON(http.StatusOK, result.Asset)
}

// move binds the common movement payload and runs op for the asset in the path.
func (h *MovementsHandler) move(op func(MovementService, context.Context, Command) (*Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := security.ActorFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
			return
		}
		assetID, ok := response.ParamID(c, "id")
		if !ok {
			return
		}

		var req movementRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
				return
			}
		}

		result, err := op(h.service, c.Request.Context(), Command{
			AssetID:      assetID,
			PerformedBy:  actor.UserID,
			ToUserID:     req.UserID,
			ToLocationID: req.LocationID,
			Notes:        req.Notes,
			Metadata:     req.Metadata,
		})
		if err != nil {
			response.Error(c, "Failed to move asset", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"asset":    result.Asset,
			"movement": result.Movement,
		})
	}
}

func (h *MovementsHandler) ArchiveAsset(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}
	assetID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	asset, err := h.service.Archive(c.Request.Context(), assetID, actor.UserID)
	if err != nil {
		response.Error(c, "Failed to archive asset", err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *MovementsHandler) GetHistory(c *gin.Context) {
	assetID, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	movements, err := h.service.History(c.Request.Context(), assetID)
	if err != nil {
		response.Error(c, "Unable to get asset history", err)
		return
	}

	c.JSON(http.StatusOK, movements)
}
