package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/middleware"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/services"
)

// LeadHandler serves the CRM kanban.
type LeadHandler struct {
	service services.LeadService
}

// NewLeadHandler creates a new LeadHandler instance.
func NewLeadHandler(service services.LeadService) *LeadHandler {
	return &LeadHandler{service: service}
}

// LeadListRequest holds the lead list query parameters.
type LeadListRequest struct {
	AgentID  string            `form:"agentId" binding:"omitempty,uuid"`
	Status   models.LeadStatus `form:"status"`
	Search   string            `form:"search" binding:"max=200"`
	Sort     string            `form:"sort" binding:"omitempty,oneof=updated newest oldest name budget"`
	Page     int               `form:"page" binding:"omitempty,min=1"`
	PageSize int               `form:"pageSize" binding:"omitempty,min=1,max=100"`
}

// LeadStatusRequest moves a lead to another kanban column.
type LeadStatusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required"`
}

// ReassignRequest hands a lead to another agent. A missing agentId
// unassigns it.
type ReassignRequest struct {
	AgentID *uuid.UUID `json:"agentId"`
}

// List handles GET /api/leads.
func (h *LeadHandler) List(c *gin.Context) {
	var req LeadListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err, "request.invalid_query")
		return
	}

	filter := models.LeadFilter{
		Status:   req.Status,
		Search:   req.Search,
		Sort:     req.Sort,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.AgentID != "" {
		agentID := uuid.MustParse(req.AgentID)
		filter.AgentID = &agentID
	}

	page, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		serviceFailed(c, err, "Failed to list leads")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /api/leads. Agents own the leads they create; leads
// created by an admin start unassigned.
func (h *LeadHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var input models.LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	var agentID *uuid.UUID
	if user.Role == models.RoleAgent {
		agentID = &user.ID
	}

	lead, err := h.service.Create(c.Request.Context(), input, agentID)
	if err != nil {
		serviceFailed(c, err, "Failed to create lead")
		return
	}
	c.JSON(http.StatusCreated, lead)
}

// Update handles PATCH /api/leads/:id.
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input models.LeadInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	lead, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		serviceFailed(c, err, "Failed to update lead")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// UpdateStatus handles PATCH /api/leads/:id/status.
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req LeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	lead, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		serviceFailed(c, err, "Failed to update lead status")
		return
	}
	c.JSON(http.StatusOK, lead)
}

// Reassign handles PATCH /api/leads/:id/reassign.
func (h *LeadHandler) Reassign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err, "request.invalid_body")
		return
	}

	lead, err := h.service.Reassign(c.Request.Context(), id, req.AgentID)
	if err != nil {
		serviceFailed(c, err, "Failed to reassign lead")
		return
	}

	if log := middleware.GetLogger(c); log != nil {
		fields := map[string]interface{}{"lead_id": id.String()}
		if req.AgentID != nil {
			fields["agent_id"] = req.AgentID.String()
		}
		log.Info("Lead reassigned", fields)
	}
	c.JSON(http.StatusOK, lead)
}
