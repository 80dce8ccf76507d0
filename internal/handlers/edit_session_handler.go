package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/photos"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// EditSessionHandler serves the server-held property edit.
// Every route is scoped to /api/owner/properties/:id/edit-session.
type EditSessionHandler struct {
	service services.EditSessionService
}

// NewEditSessionHandler creates a new EditSessionHandler instance.
func NewEditSessionHandler(service services.EditSessionService) *EditSessionHandler {
	return &EditSessionHandler{service: service}
}

// UpdateFormRequest replaces the form of an open edit.
type UpdateFormRequest struct {
	AdditionalServices []models.AdditionalService `json:"additionalServices" binding:"dive"`
	Form               models.EditForm            `json:"form"`
}

// Start opens the edit, or returns the one already open with 200.
func (h *EditSessionHandler) Start(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sess, created, err := h.service.Start(c.Request.Context(), user.ID, id)
	if err != nil {
		serviceFailed(c, err, "Failed to start edit session")
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, sess)
}

// Get returns the open edit.
func (h *EditSessionHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	sess, err := h.service.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		serviceFailed(c, err, "Failed to load edit session")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// UpdateForm handles PUT .../edit-session/form.
func (h *EditSessionHandler) UpdateForm(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	sess, err := h.service.UpdateForm(c.Request.Context(), user.ID, id, req.Form, req.AdditionalServices)
	if err != nil {
		serviceFailed(c, err, "Failed to update edit session")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// ApplyPhotoOp handles PATCH .../edit-session/photos.
func (h *EditSessionHandler) ApplyPhotoOp(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var op photos.Op
	if err := c.ShouldBindJSON(&op); err != nil {
		bindFailed(c, err, "photo.invalid_op")
		return
	}

	sess, err := h.service.ApplyPhotoOp(c.Request.Context(), user.ID, id, op)
	if err != nil {
		serviceFailed(c, err, "Failed to update photos")
		return
	}
	c.JSON(http.StatusOK, sess)
}

// Submit handles POST .../edit-session/submit. The session survives a
// failed submission so the owner can fix it.
func (h *EditSessionHandler) Submit(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	cr, err := h.service.Submit(c.Request.Context(), user.ID, id)
	if err != nil {
		serviceFailed(c, err, "Failed to submit edit session")
		return
	}
	c.JSON(http.StatusCreated, cr)
}

// Discard handles DELETE .../edit-session.
func (h *EditSessionHandler) Discard(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Discard(c.Request.Context(), user.ID, id); err != nil {
		serviceFailed(c, err, "Failed to discard edit session")
		return
	}
	c.Status(http.StatusNoContent)
}
