package assets

import (
	"context"
	"net/http"

	"siap/internal/core/response"
	"siap/internal/repository"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrCodeSize = 256

type AssetReader interface {
	GetAsset(ctx context.Context, assetID int) (*models.Asset, error)
	GetAssetByTag(ctx context.Context, tag string) (*models.Asset, error)
	ListAssets(ctx context.Context, filter AssetFilter) ([]models.Asset, error)
}

type AuditTrail interface {
	GetResourceLogs(ctx context.Context, resourceType string, resourceID int) ([]models.AuditLog, error)
}

type AssetHandler struct {
	r     AssetReader
	audit AuditTrail
}

func NewAssetHandler(r AssetReader, audit AuditTrail) *AssetHandler {
	return &AssetHandler{r: r, audit: audit}
}

func (h *AssetHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/assets", h.GetAssets)
	router.GET("/assets/:id", h.GetAsset)
	router.GET("/assets/tag/:tag", h.GetAssetByTag)
	router.GET("/assets/tag/:tag/qrcode", h.GetAssetQRCode)
	router.GET("/assets/:id/audit", security.Authorize(roles.Manager), h.GetAssetAuditLog)
}

func (h *AssetHandler) GetAssets(c *gin.Context) {
	filter := AssetFilter{
		Status:          c.Query("status"),
		CategoryID:      response.QueryIntPtr(c, "category_id"),
		LocationID:      response.QueryIntPtr(c, "location_id"),
		HolderID:        response.QueryIntPtr(c, "user_id"),
		Search:          c.Query("q"),
		IncludeArchived: c.Query("archived") == "true",
		Page:            repository.NewPage(response.QueryInt(c, "limit", 0), response.QueryInt(c, "offset", 0)),
	}

	if filter.Status != "" {
		if _, err := metadata.NewAssetStatus(filter.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter", "details": err.Error()})
			return
		}
	}

	assets, err := h.r.ListAssets(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, "Unable to list assets", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   assets,
		"limit":  filter.Page.Limit,
		"offset": filter.Page.Offset,
	})
}

func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	asset, err := h.r.GetAsset(c.Request.Context(), id)
	if err != nil {
		response.Error(c, "Unable to get asset", err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *AssetHandler) GetAssetByTag(c *gin.Context) {
	asset, err := h.r.GetAssetByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		response.Error(c, "Unable to locate asset with given tag", err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

// GetAssetQRCode renders the tag as a PNG label for printing.
func (h *AssetHandler) GetAssetQRCode(c *gin.Context) {
	asset, err := h.r.GetAssetByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		response.Error(c, "Unable to locate asset with given tag", err)
		return
	}

	png, err := qrcode.Encode(asset.Tag, qrcode.Medium, qrCodeSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to render QR code", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", "inline; filename=\""+asset.Tag+".png\"")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *AssetHandler) GetAssetAuditLog(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}
	if _, err := h.r.GetAsset(c.Request.Context(), id); err != nil {
		response.Error(c, "Unable to get asset", err)
		return
	}

	logs, err := h.audit.GetResourceLogs(c.Request.Context(), "asset", id)
	if err != nil {
		response.Error(c, "Unable to get audit log", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}
