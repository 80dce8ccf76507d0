package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// ReferenceHandler serves the approved colony and condominium lists.
type ReferenceHandler struct {
	service services.ReferenceService
}

// NewReferenceHandler creates a new ReferenceHandler instance.
func NewReferenceHandler(service services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

// ColoniesResponse wraps the approved colonies.
type ColoniesResponse struct {
	Colonies []models.Colony `json:"colonies"`
}

// CondominiumsResponse wraps the approved condominiums.
type CondominiumsResponse struct {
	Condominiums []models.Condominium `json:"condominiums"`
}

// Colonies handles GET /api/colonies/approved.
func (h *ReferenceHandler) Colonies(c *gin.Context) {
	colonies, err := h.service.Colonies(c.Request.Context())
	if err != nil {
		serviceFailed(c, err, "Failed to list colonies")
		return
	}
	c.JSON(http.StatusOK, ColoniesResponse{Colonies: colonies})
}

// Condominiums handles GET /api/condominiums/approved.
func (h *ReferenceHandler) Condominiums(c *gin.Context) {
	condominiums, err := h.service.Condominiums(c.Request.Context())
	if err != nil {
		serviceFailed(c, err, "Failed to list condominiums")
		return
	}
	c.JSON(http.StatusOK, CondominiumsResponse{Condominiums: condominiums})
}
