package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/stwalsh4118/brokerage/internal/errors"
	"github.com/stwalsh4118/brokerage/internal/middleware"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// PhotoFormField is the multipart field holding the uploaded photo.
const PhotoFormField = "photo"

// UploadHandler accepts property photo uploads.
type UploadHandler struct {
	service services.PhotoService
}

// NewUploadHandler creates a new UploadHandler instance.
func NewUploadHandler(service services.PhotoService) *UploadHandler {
	return &UploadHandler{service: service}
}

// UploadResponse carries the public URL of a stored photo.
type UploadResponse struct {
	URL string `json:"url"`
}

// PropertyPhoto handles POST /api/upload/property-photo.
func (h *UploadHandler) PropertyPhoto(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile(PhotoFormField)
	if err != nil {
		apierrors.BadRequest(c, "request.invalid_body", map[string]interface{}{
			"field": PhotoFormField,
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		apierrors.InternalServerError(c, "Failed to read upload", err)
		return
	}
	defer file.Close()

	url, err := h.service.Upload(c.Request.Context(), user.ID, file, header.Size)
	if err != nil {
		serviceFailed(c, err, "Failed to store photo")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		log.Info("Photo uploaded", map[string]interface{}{
			"user_id": user.ID.String(),
			"size":    header.Size,
		})
	}
	c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
