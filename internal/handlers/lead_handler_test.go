package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/brokerage/internal/errors"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/services"
)

func setupLeadRouter(svc *MockLeadService, user models.User) *gin.Engine {
	h := NewLeadHandler(svc)
	router := setupTestRouter()
	router.Use(asUser(user))

	router.GET("/api/leads", h.List)
	router.POST("/api/leads", h.Create)
	router.PATCH("/api/leads/:id", h.Update)
	router.PATCH("/api/leads/:id/status", h.UpdateStatus)
	router.PATCH("/api/leads/:id/reassign", h.Reassign)
	return router
}

func TestLeadHandler_List(t *testing.T) {
	agent := newUser(models.RoleAgent)
	agentID := uuid.New()

	t.Run("binds the filter", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("List", mock.Anything, models.LeadFilter{
			AgentID:  &agentID,
			Status:   models.LeadStatusViewing,
			Search:   "maria",
			Sort:     "budget",
			Page:     3,
			PageSize: 25,
		}).Return(&models.LeadPage{Leads: []models.Lead{{Name: "Maria"}}, Total: 51, Page: 3, PageSize: 25}, nil)

		query := fmt.Sprintf("?agentId=%s&status=viewing&search=maria&sort=budget&page=3&pageSize=25", agentID)
		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads"+query, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var page models.LeadPage
		require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
		assert.Equal(t, 51, page.Total)
		svc.AssertExpectations(t)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("List", mock.Anything, models.LeadFilter{Status: "archived"}).Return(nil, services.ErrInvalidLeadStatus)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads?status=archived", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Unknown lead status", decodeError(t, w).Message)
	})

	t.Run("malformed agent id", func(t *testing.T) {
		svc := new(MockLeadService)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/leads?agentId=bob", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrValidation, decodeError(t, w).Code)
	})
}

func TestLeadHandler_Create(t *testing.T) {
	agent := newUser(models.RoleAgent)
	admin := newUser(models.RoleAdmin)
	body := `{"name": "Maria Lopez", "phone": "+52 55 1234 5678", "source": "website"}`

	t.Run("agent owns the lead", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in models.LeadInput) bool {
			return in.Name == "Maria Lopez" && in.Phone == "+52 55 1234 5678"
		}), &agent.ID).Return(&models.Lead{ID: uuid.New(), Status: models.LeadStatusNew, AgentID: &agent.ID}, nil)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/leads", body))

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("admin lead starts unassigned", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("Create", mock.Anything, mock.Anything, (*uuid.UUID)(nil)).
			Return(&models.Lead{ID: uuid.New(), Status: models.LeadStatusNew}, nil)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, admin).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/leads", body))

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("duplicate carries the existing lead", func(t *testing.T) {
		existing := models.Lead{ID: uuid.New(), Name: "María López", Phone: "5512345678", Status: models.LeadStatusContacted}
		svc := new(MockLeadService)
		svc.On("Create", mock.Anything, mock.Anything, &agent.ID).
			Return(nil, &services.DuplicateLeadError{Existing: existing, Field: "phone"})

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/leads", body))

		assert.Equal(t, http.StatusConflict, w.Code)
		detail := decodeError(t, w)
		assert.Equal(t, apierrors.ErrDuplicateLead, detail.Code)
		assert.Equal(t, true, detail.Details["isDuplicate"])
		assert.Equal(t, "phone", detail.Details["field"])
		lead, ok := detail.Details["existingLead"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, existing.ID.String(), lead["id"])
	})

	t.Run("phone or email is required", func(t *testing.T) {
		svc := new(MockLeadService)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPost, "/api/leads", `{"name": "Nobody"}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apierrors.ErrValidation, decodeError(t, w).Code)
	})
}

func TestLeadHandler_Update(t *testing.T) {
	agent := newUser(models.RoleAgent)
	id := uuid.New()

	svc := new(MockLeadService)
	svc.On("Update", mock.Anything, id, mock.Anything).Return(nil, services.ErrLeadNotFound)

	w := httptest.NewRecorder()
	setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPatch, "/api/leads/"+id.String(), `{"name": "Maria", "email": "maria@example.com"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Lead not found", decodeError(t, w).Message)
}

func TestLeadHandler_UpdateStatus(t *testing.T) {
	agent := newUser(models.RoleAgent)
	id := uuid.New()

	t.Run("moves the card", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("UpdateStatus", mock.Anything, id, models.LeadStatusWon).
			Return(&models.Lead{ID: id, Status: models.LeadStatusWon}, nil)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPatch, "/api/leads/"+id.String()+"/status", `{"status": "won"}`))

		assert.Equal(t, http.StatusOK, w.Code)
		var got models.Lead
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, models.LeadStatusWon, got.Status)
	})

	t.Run("missing status", func(t *testing.T) {
		svc := new(MockLeadService)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPatch, "/api/leads/"+id.String()+"/status", `{}`))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unexpected failure", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("UpdateStatus", mock.Anything, id, models.LeadStatusLost).Return(nil, errors.New("deadlock detected"))

		w := httptest.NewRecorder()
		setupLeadRouter(svc, agent).ServeHTTP(w, jsonRequest(http.MethodPatch, "/api/leads/"+id.String()+"/status", `{"status": "lost"}`))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "deadlock")
	})
}

func TestLeadHandler_Reassign(t *testing.T) {
	admin := newUser(models.RoleAdmin)
	id := uuid.New()
	target := uuid.New()

	t.Run("to another agent", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("Reassign", mock.Anything, id, &target).Return(&models.Lead{ID: id, AgentID: &target}, nil)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, admin).ServeHTTP(w, jsonRequest(http.MethodPatch, "/api/leads/"+id.String()+"/reassign", fmt.Sprintf(`{"agentId": %q}`, target)))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unassign", func(t *testing.T) {
		svc := new(MockLeadService)
		svc.On("Reassign", mock.Anything, id, (*uuid.UUID)(nil)).Return(&models.Lead{ID: id}, nil)

		w := httptest.NewRecorder()
		setupLeadRouter(svc, admin).ServeHTTP(w, jsonRequest(http.MethodPatch, "/api/leads/"+id.String()+"/reassign", `{"agentId": null}`))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}
