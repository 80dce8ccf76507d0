package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// ChangeRequestHandler serves owner edit submissions and the admin review
// queue.
type ChangeRequestHandler struct {
	service services.ChangeRequestService
}

// NewChangeRequestHandler creates a new ChangeRequestHandler instance.
func NewChangeRequestHandler(service services.ChangeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{service: service}
}

// SubmitChangeRequestRequest is an owner's finished edit of one property.
type SubmitChangeRequestRequest struct {
	State      models.EditState `json:"state"`
	PropertyID uuid.UUID        `json:"propertyId" binding:"required"`
}

// DiffResponse is the preview of an edit.
type DiffResponse struct {
	ChangedFields models.ChangedFields `json:"changedFields"`
	HasChanges    bool                 `json:"hasChanges"`
}

// ChangeRequestListResponse wraps a list of change requests.
type ChangeRequestListResponse struct {
	ChangeRequests []models.ChangeRequest `json:"changeRequests"`
	Count          int                    `json:"count"`
}

// Preview handles POST /api/owner/properties/:id/diff.
// It returns what submitting the edit would request without storing it.
func (h *ChangeRequestHandler) Preview(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var state models.EditState
	if err := c.ShouldBindJSON(&state); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	changed, err := h.service.Preview(c.Request.Context(), user.ID, id, &state)
	if err != nil {
		serviceFailed(c, err, "Failed to compute changes")
		return
	}
	c.JSON(http.StatusOK, DiffResponse{ChangedFields: changed, HasChanges: len(changed) > 0})
}

// Submit handles POST /api/owner/change-requests.
func (h *ChangeRequestHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req SubmitChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	cr, err := h.service.Submit(c.Request.Context(), user.ID, req.PropertyID, &req.State)
	if err != nil {
		serviceFailed(c, err, "Failed to submit change request")
		return
	}

	c.JSON(http.StatusCreated, cr)
}

// ListOwned handles GET /api/owner/change-requests.
func (h *ChangeRequestHandler) ListOwned(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.service.ListForOwner(c.Request.Context(), user.ID)
	if err != nil {
		serviceFailed(c, err, "Failed to list change requests")
		return
	}
	c.JSON(http.StatusOK, ChangeRequestListResponse{ChangeRequests: list, Count: len(list)})
}

// ListPending handles GET /api/admin/change-requests.
func (h *ChangeRequestHandler) ListPending(c *gin.Context) {
	list, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		serviceFailed(c, err, "Failed to list change requests")
		return
	}
	c.JSON(http.StatusOK, ChangeRequestListResponse{ChangeRequests: list, Count: len(list)})
}

// Approve handles PATCH /api/admin/change-requests/:id/approve and returns
// the updated property.
func (h *ChangeRequestHandler) Approve(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	property, err := h.service.Approve(c.Request.Context(), id, user.ID)
	if err != nil {
		serviceFailed(c, err, "Failed to approve change request")
		return
	}
	c.JSON(http.StatusOK, property)
}

// Reject handles PATCH /api/admin/change-requests/:id/reject.
func (h *ChangeRequestHandler) Reject(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	if err := h.service.Reject(c.Request.Context(), id, user.ID, req.Reason); err != nil {
		serviceFailed(c, err, "Failed to reject change request")
		return
	}
	c.Status(http.StatusNoContent)
}
