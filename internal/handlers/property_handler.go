package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/middleware"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// PropertyHandler serves owner property reads and admin moderation.
type PropertyHandler struct {
	service services.PropertyService
}

// NewPropertyHandler creates a new PropertyHandler instance.
func NewPropertyHandler(service services.PropertyService) *PropertyHandler {
	return &PropertyHandler{service: service}
}

// PropertyListRequest holds the list query parameters.
type PropertyListRequest struct {
	Status   models.PropertyStatus `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Search   string                `form:"search" binding:"max=200"`
	Sort     string                `form:"sort" binding:"omitempty,oneof=newest oldest title price_asc price_desc updated"`
	Page     int                   `form:"page" binding:"omitempty,min=1"`
	PageSize int                   `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

func (r PropertyListRequest) filter() models.PropertyFilter {
	return models.PropertyFilter{
		Status:   r.Status,
		Search:   r.Search,
		Sort:     r.Sort,
		Page:     r.Page,
		PageSize: r.PageSize,
	}
}

// RejectRequest carries the reason shown to the owner.
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// BulkRequest names the listings a bulk moderation applies to.
type BulkRequest struct {
	Reason string      `json:"reason" binding:"max=1000"`
	IDs    []uuid.UUID `json:"ids" binding:"required,min=1,max=100"`
}

// BulkResponse reports how many listings a bulk action changed.
type BulkResponse struct {
	Updated int64 `json:"updated"`
}

// ToggleRequest sets a boolean flag such as published or featured.
type ToggleRequest struct {
	Value *bool `json:"value" binding:"required"`
}

// GetOwned handles GET /api/owner/properties/:id.
func (h *PropertyHandler) GetOwned(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	property, err := h.service.GetForOwner(c.Request.Context(), user.ID, id)
	if err != nil {
		serviceFailed(c, err, "Failed to load property")
		return
	}
	c.JSON(http.StatusOK, property)
}

// ListOwned handles GET /api/owner/properties.
func (h *PropertyHandler) ListOwned(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req PropertyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err, "request.invalid_query")
		return
	}

	page, err := h.service.ListForOwner(c.Request.Context(), user.ID, req.filter())
	if err != nil {
		serviceFailed(c, err, "Failed to list properties")
		return
	}
	c.JSON(http.StatusOK, page)
}

// List handles GET /api/admin/properties.
func (h *PropertyHandler) List(c *gin.Context) {
	var req PropertyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err, "request.invalid_query")
		return
	}

	page, err := h.service.List(c.Request.Context(), req.filter())
	if err != nil {
		serviceFailed(c, err, "Failed to list properties")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Approve handles PATCH /api/admin/properties/:id/approve.
func (h *PropertyHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Approve(c.Request.Context(), id); err != nil {
		serviceFailed(c, err, "Failed to approve property")
		return
	}
	h.logModeration(c, "approved", id)
	c.Status(http.StatusNoContent)
}

// Reject handles PATCH /api/admin/properties/:id/reject.
func (h *PropertyHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}
	if err := h.service.Reject(c.Request.Context(), id, req.Reason); err != nil {
		serviceFailed(c, err, "Failed to reject property")
		return
	}
	h.logModeration(c, "rejected", id)
	c.Status(http.StatusNoContent)
}

// BulkApprove handles PATCH /api/admin/properties/bulk-approve.
func (h *PropertyHandler) BulkApprove(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}
	n, err := h.service.BulkApprove(c.Request.Context(), req.IDs)
	if err != nil {
		serviceFailed(c, err, "Failed to approve properties")
		return
	}
	c.JSON(http.StatusOK, BulkResponse{Updated: n})
}

// BulkReject handles PATCH /api/admin/properties/bulk-reject.
func (h *PropertyHandler) BulkReject(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}
	n, err := h.service.BulkReject(c.Request.Context(), req.IDs, req.Reason)
	if err != nil {
		serviceFailed(c, err, "Failed to reject properties")
		return
	}
	c.JSON(http.StatusOK, BulkResponse{Updated: n})
}

// SetPublished handles PATCH /api/admin/properties/:id/publish.
func (h *PropertyHandler) SetPublished(c *gin.Context) {
	h.toggle(c, h.service.SetPublished, "Failed to change published flag")
}

// SetFeatured handles PATCH /api/admin/properties/:id/featured.
func (h *PropertyHandler) SetFeatured(c *gin.Context) {
	h.toggle(c, h.service.SetFeatured, "Failed to change featured flag")
}

func (h *PropertyHandler) toggle(c *gin.Context, set func(ctx context.Context, id uuid.UUID, v bool) error, action string) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}
	if err := set(c.Request.Context(), id, *req.Value); err != nil {
		serviceFailed(c, err, action)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/properties/:id.
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		serviceFailed(c, err, "Failed to delete property")
		return
	}
	h.logModeration(c, "deleted", id)
	c.Status(http.StatusNoContent)
}

func (h *PropertyHandler) logModeration(c *gin.Context, action string, id uuid.UUID) {
	log := middleware.GetLogger(c)
	if log == nil {
		return
	}
	fields := map[string]interface{}{
		"action":      action,
		"property_id": id.String(),
	}
	if user, ok := middleware.GetUser(c); ok {
		fields["admin_id"] = user.ID.String()
	}
	log.Info("Property moderated", fields)
}
