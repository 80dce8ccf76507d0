package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// TokenHandler issues shareable form links and serves the public forms
// behind them.
type TokenHandler struct {
	service services.TokenService
}

// NewTokenHandler creates a new TokenHandler instance.
func NewTokenHandler(service services.TokenService) *TokenHandler {
	return &TokenHandler{service: service}
}

// GenerateTokenRequest names the property a link is for.
type GenerateTokenRequest struct {
	LeadID     *uuid.UUID `json:"leadId"`
	PropertyID uuid.UUID  `json:"propertyId" binding:"required"`
}

// TokenListResponse wraps a list of issued links.
type TokenListResponse struct {
	Tokens []models.AccessToken `json:"tokens"`
	Count  int                  `json:"count"`
}

// GenerateOffer handles POST /api/offer-tokens.
func (h *TokenHandler) GenerateOffer(c *gin.Context) {
	h.generate(c, models.TokenKindOffer)
}

// GenerateRentalForm handles POST /api/rental-form-tokens.
func (h *TokenHandler) GenerateRentalForm(c *gin.Context) {
	h.generate(c, models.TokenKindRentalForm)
}

func (h *TokenHandler) generate(c *gin.Context, kind models.TokenKind) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req GenerateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	token, err := h.service.Generate(c.Request.Context(), kind, user.ID, req.PropertyID, req.LeadID)
	if err != nil {
		serviceFailed(c, err, "Failed to generate link")
		return
	}
	c.JSON(http.StatusCreated, token)
}

// ListOfferTokens handles GET /api/external/offer-tokens.
func (h *TokenHandler) ListOfferTokens(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	tokens, err := h.service.ListForCreator(c.Request.Context(), user.ID, models.TokenKindOffer)
	if err != nil {
		serviceFailed(c, err, "Failed to list links")
		return
	}
	c.JSON(http.StatusOK, TokenListResponse{Tokens: tokens, Count: len(tokens)})
}

// ValidateOffer handles GET /api/offer-tokens/:token/validate.
func (h *TokenHandler) ValidateOffer(c *gin.Context) {
	h.validate(c, models.TokenKindOffer)
}

// ValidateRentalForm handles GET /api/rental-form-tokens/:token/validate.
func (h *TokenHandler) ValidateRentalForm(c *gin.Context) {
	h.validate(c, models.TokenKindRentalForm)
}

func (h *TokenHandler) validate(c *gin.Context, kind models.TokenKind) {
	v, err := h.service.Validate(c.Request.Context(), kind, c.Param("token"))
	if err != nil {
		serviceFailed(c, err, "Failed to validate link")
		return
	}
	c.JSON(http.StatusOK, v)
}

// SubmitOffer handles POST /api/offer-tokens/:token/submit.
func (h *TokenHandler) SubmitOffer(c *gin.Context) {
	var input models.OfferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	offer, err := h.service.SubmitOffer(c.Request.Context(), c.Param("token"), input)
	if err != nil {
		serviceFailed(c, err, "Failed to submit offer")
		return
	}
	c.JSON(http.StatusCreated, offer)
}

// SubmitRentalForm handles POST /api/rental-form-tokens/:token/submit.
func (h *TokenHandler) SubmitRentalForm(c *gin.Context) {
	var app models.RentalApplication
	if err := c.ShouldBindJSON(&app); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	stored, err := h.service.SubmitRental(c.Request.Context(), c.Param("token"), app)
	if err != nil {
		serviceFailed(c, err, "Failed to submit rental application")
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// UpdateOffer handles PATCH /api/external/offers/:id.
func (h *TokenHandler) UpdateOffer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.OfferPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	offer, err := h.service.UpdateOffer(c.Request.Context(), id, *user, patch)
	if err != nil {
		serviceFailed(c, err, "Failed to update offer")
		return
	}
	c.JSON(http.StatusOK, offer)
}
