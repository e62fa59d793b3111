package requests

import (
	"context"
	"net/http"

	"siap/internal/core/response"
	"siap/pkg/models"
	"siap/pkg/roles"
	"siap/pkg/security"

	"github.com/gin-gonic/gin"
)

type RequestService interface {
	Create(ctx context.Context, actor models.Actor, input CreateInput) (*models.AssetRequest, error)
	AddItem(ctx context.Context, actor models.Actor, requestID int, input ItemInput) (*models.RequestItem, error)
	RemoveItem(ctx context.Context, actor models.Actor, requestID int, itemID int) error
	DeleteDraft(ctx context.Context, actor models.Actor, requestID int) error
	Submit(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error)
	Approve(ctx context.Context, actor models.Actor, requestID int, remarks *string) (*models.AssetRequest, error)
	Reject(ctx context.Context, actor models.Actor, requestID int, reason string) (*models.AssetRequest, error)
	FulfillAny(ctx context.Context, actor models.Actor, requestID int, input FulfillInput) (*models.AssetRequest, error)
	Cancel(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error)
	Close(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error)
	Get(ctx context.Context, actor models.Actor, requestID int) (*models.AssetRequest, error)
	List(ctx context.Context, actor models.Actor, filter models.RequestFilter) ([]models.AssetRequest, error)
	PendingApprovals(ctx context.Context, actor models.Actor) ([]models.AssetRequest, error)
}

type RequestsHandler struct {
	service RequestService
}

func NewHandler(service RequestService) *RequestsHandler {
	return &RequestsHandler{service: service}
}

type decisionRequest struct {
	Remarks *string `json:"remarks"`
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (h *RequestsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/requests", h.ListRequests)
	router.POST("/requests", h.CreateRequest)
	router.GET("/requests/:id", h.GetRequest)
	router.DELETE("/requests/:id", h.DeleteRequest)
	router.POST("/requests/:id/items", h.AddItem)
	router.DELETE("/requests/:id/items/:itemId", h.RemoveItem)
	router.POST("/requests/:id/submit", h.transition(RequestService.Submit))
	router.POST("/requests/:id/cancel", h.transition(RequestService.Cancel))
	router.POST("/requests/:id/close", h.transition(RequestService.Close))

	approver := router.Group("")
	approver.Use(security.Authorize(roles.Manager))
	{
		approver.GET("/approvals/pending", h.PendingApprovals)
		approver.POST("/requests/:id/approve", h.Approve)
		approver.POST("/requests/:id/reject", h.Reject)
		approver.POST("/requests/:id/fulfill", h.Fulfill)
	}
}

func actorAndID(c *gin.Context) (models.Actor, int, bool) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return actor, 0, false
	}
	id, ok := response.ParamID(c, "id")
	return actor, id, ok
}

// transition runs a body-less workflow step on the request in the path.
func (h *RequestsHandler) transition(op func(RequestService, context.Context, models.Actor, int) (*models.AssetRequest, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, id, ok := actorAndID(c)
		if !ok {
			return
		}

		request, err := op(h.service, c.Request.Context(), actor, id)
		if err != nil {
			response.Error(c, "Unable to update request", err)
			return
		}

		c.JSON(http.StatusOK, request)
	}
}

func (h *RequestsHandler) CreateRequest(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}

	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	request, err := h.service.Create(c.Request.Context(), actor, input)
	if err != nil {
		response.Error(c, "Failed to create request", err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (h *RequestsHandler) GetRequest(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	request, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, "Unable to get request", err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *RequestsHandler) ListRequests(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}

	filter := models.RequestFilter{
		Status:      c.Query("status"),
		Type:        c.Query("type"),
		RequesterID: response.QueryIntPtr(c, "requester_id"),
		Limit:       response.QueryInt(c, "limit", 0),
		Offset:      response.QueryInt(c, "offset", 0),
	}

	requests, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, "Unable to list requests", err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *RequestsHandler) DeleteRequest(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteDraft(c.Request.Context(), actor, id); err != nil {
		response.Error(c, "Failed to delete request", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RequestsHandler) AddItem(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var input ItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	item, err := h.service.AddItem(c.Request.Context(), actor, id, input)
	if err != nil {
		response.Error(c, "Failed to add item", err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *RequestsHandler) RemoveItem(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}
	itemID, ok := response.ParamID(c, "itemId")
	if !ok {
		return
	}

	if err := h.service.RemoveItem(c.Request.Context(), actor, id, itemID); err != nil {
		response.Error(c, "Failed to remove item", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RequestsHandler) Approve(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var body decisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
			return
		}
	}

	request, err := h.service.Approve(c.Request.Context(), actor, id, body.Remarks)
	if err != nil {
		response.Error(c, "Failed to approve request", err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *RequestsHandler) Reject(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var body rejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A rejection reason is required", "details": err.Error()})
		return
	}

	request, err := h.service.Reject(c.Request.Context(), actor, id, body.Reason)
	if err != nil {
		response.Error(c, "Failed to reject request", err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *RequestsHandler) Fulfill(c *gin.Context) {
	actor, id, ok := actorAndID(c)
	if !ok {
		return
	}

	var input FulfillInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
			return
		}
	}

	request, err := h.service.FulfillAny(c.Request.Context(), actor, id, input)
	if err != nil {
		response.Error(c, "Failed to fulfill request", err)
		return
	}

	c.JSON(http.StatusOK, request)
}

func (h *RequestsHandler) PendingApprovals(c *gin.Context) {
	actor, err := security.ActorFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "details": err.Error()})
		return
	}

	requests, err := h.service.PendingApprovals(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, "Unable to list pending approvals", err)
		return
	}

	c.JSON(http.StatusOK, requests)
}
