package locations

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"siap/internal/core/response"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type LocationStore interface {
	GetLocations(ctx context.Context) ([]models.Location, error)
	GetLocation(ctx context.Context, locationID int) (*models.Location, error)
	PersistLocation(ctx context.Context, location *models.Location) error
	UpdateLocation(ctx context.Context, locationID int, req UpdateLocationRequest) (*models.Location, error)
	RemoveLocation(ctx context.Context, locationID int) error
	GetCategories(ctx context.Context) ([]models.AssetCategory, error)
	PersistCategory(ctx context.Context, category *models.AssetCategory) error
}

type UpdateLocationRequest struct {
	Name     *string `json:"name"`
	Building *string `json:"building"`
	Details  *string `json:"details"`
}

type CreateCategoryRequest struct {
	Label string `json:"label" binding:"required"`
	Code  string `json:"code"`
}

type LocationHandler struct {
	Repository LocationStore
}

func NewLocationHandler(r LocationStore) *LocationHandler {
	return &LocationHandler{Repository: r}
}

func (h *LocationHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/locations", h.GetLocations)
	router.GET("/locations/:id", h.GetLocation)
	router.GET("/categories", h.GetCategories)

	admin := router.Group("")
	admin.Use(security.Authorize(roles.Admin))
	{
		admin.POST("/locations", h.CreateLocation)
		admin.PATCH("/locations/:id", h.UpdateLocation)
		admin.DELETE("/locations/:id", h.RemoveLocation)
		admin.POST("/categories", h.CreateCategory)
	}
}

func (h *LocationHandler) GetLocations(c *gin.Context) {
	locations, err := h.Repository.GetLocations(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not list locations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, locations)
}

func (h *LocationHandler) GetLocation(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	location, err := h.Repository.GetLocation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, "Could not get location", err)
		return
	}

	c.JSON(http.StatusOK, location)
}

func (h *LocationHandler) CreateLocation(c *gin.Context) {
	var location models.Location
	if err := c.ShouldBindJSON(&location); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	location.Name = strings.TrimSpace(location.Name)
	if location.Name == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "name is required"})
		return
	}

	if err := h.Repository.PersistLocation(c.Request.Context(), &location); err != nil {
		response.Error(c, "Could not insert location", err)
		return
	}

	c.JSON(http.StatusCreated, location)
}

func (h *LocationHandler) UpdateLocation(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	location, err := h.Repository.UpdateLocation(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, "Could not update location", err)
		return
	}

	c.JSON(http.StatusOK, location)
}

func (h *LocationHandler) RemoveLocation(c *gin.Context) {
	id, ok := response.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.Repository.RemoveLocation(c.Request.Context(), id); err != nil {
		response.Error(c, "Could not delete location", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location deleted successfully"})
}

func (h *LocationHandler) GetCategories(c *gin.Context) {
	categories, err := h.Repository.GetCategories(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not list categories", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *LocationHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	category := models.AssetCategory{Label: strings.TrimSpace(req.Label), Code: req.Code}
	if category.Code == "" {
		category.Code = CodeFromLabel(category.Label)
	}
	if category.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": "label has no usable characters"})
		return
	}

	if err := h.Repository.PersistCategory(c.Request.Context(), &category); err != nil {
		response.Error(c, "Could not insert category", err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// CodeFromLabel turns "Laptop / Notebook" into "laptop_notebook".
func CodeFromLabel(label string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
