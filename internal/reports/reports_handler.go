package reports

import (
	"context"
	"net/http"
	"time"

	"siap/internal/core/response"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type ReportService interface {
	Summary(ctx context.Context, locationID *int) (*InventorySummary, error)
	BookValues(ctx context.Context, categoryID *int, asOf time.Time) (*BookValueReport, error)
}

type ReportsHandler struct {
	service ReportService
}

func NewHandler(service ReportService) *ReportsHandler {
	return &ReportsHandler{service: service}
}

func (h *ReportsHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	reports.Use(security.Authorize(roles.Manager))
	{
		reports.GET("/summary", h.GetSummary)
		reports.GET("/book-values", h.GetBookValues)
	}
}

func (h *ReportsHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), response.QueryIntPtr(c, "location_id"))
	if err != nil {
		response.Error(c, "Unable to build inventory summary", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReportsHandler) GetBookValues(c *gin.Context) {
	var asOf time.Time
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid as_of date", "details": err.Error()})
			return
		}
		asOf = parsed
	}

	report, err := h.service.BookValues(c.Request.Context(), response.QueryIntPtr(c, "category_id"), asOf)
	if err != nil {
		response.Error(c, "Unable to compute book values", err)
		return
	}

	c.JSON(http.StatusOK, report)
}
