package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apierrors "github.com/stwalsh4118/brokerage/internal/errors"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/middleware"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/photos"
)

// setupTestRouter creates a router with the request middleware handlers
// expect.
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.New("test")))
	return router
}

// asUser stands in for the auth middleware.
func asUser(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserKey, &user)
		c.Next()
	}
}

func newUser(role models.Role) models.User {
	return models.User{ID: uuid.New(), Name: "Test " + string(role), Role: role}
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apierrors.ErrorDetail {
	t.Helper()
	var resp apierrors.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

// MockPropertyService is a mock implementation of PropertyService for testing
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) ListForOwner(ctx context.Context, ownerID uuid.UUID, filter models.PropertyFilter) (*models.PropertyPage, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyPage), args.Error(1)
}

func (m *MockPropertyService) List(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyPage), args.Error(1)
}

func (m *MockPropertyService) Approve(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPropertyService) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	return m.Called(ctx, id, reason).Error(0)
}

func (m *MockPropertyService) BulkApprove(ctx context.Context, ids []uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyService) BulkReject(ctx context.Context, ids []uuid.UUID, reason string) (int64, error) {
	args := m.Called(ctx, ids, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyService) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	return m.Called(ctx, id, published).Error(0)
}

func (m *MockPropertyService) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	return m.Called(ctx, id, featured).Error(0)
}

func (m *MockPropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockChangeRequestService is a mock implementation of ChangeRequestService for testing
type MockChangeRequestService struct {
	mock.Mock
}

func (m *MockChangeRequestService) Preview(ctx context.Context, ownerID, propertyID uuid.UUID, state *models.EditState) (models.ChangedFields, error) {
	args := m.Called(ctx, ownerID, propertyID, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.ChangedFields), args.Error(1)
}

func (m *MockChangeRequestService) Submit(ctx context.Context, ownerID, propertyID uuid.UUID, state *models.EditState) (*models.ChangeRequest, error) {
	args := m.Called(ctx, ownerID, propertyID, state)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChangeRequest, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestService) ListPending(ctx context.Context) ([]models.ChangeRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestService) Approve(ctx context.Context, id, reviewerID uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockChangeRequestService) Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error {
	return m.Called(ctx, id, reviewerID, reason).Error(0)
}

// MockEditSessionService is a mock implementation of EditSessionService for testing
type MockEditSessionService struct {
	mock.Mock
}

func (m *MockEditSessionService) Start(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, bool, error) {
	args := m.Called(ctx, ownerID, propertyID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.EditSession), args.Bool(1), args.Error(2)
}

func (m *MockEditSessionService) Get(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, error) {
	args := m.Called(ctx, ownerID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EditSession), args.Error(1)
}

func (m *MockEditSessionService) UpdateForm(ctx context.Context, ownerID, propertyID uuid.UUID, form models.EditForm, additional []models.AdditionalService) (*models.EditSession, error) {
	args := m.Called(ctx, ownerID, propertyID, form, additional)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EditSession), args.Error(1)
}

func (m *MockEditSessionService) ApplyPhotoOp(ctx context.Context, ownerID, propertyID uuid.UUID, op photos.Op) (*models.EditSession, error) {
	args := m.Called(ctx, ownerID, propertyID, op)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EditSession), args.Error(1)
}

func (m *MockEditSessionService) Submit(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.ChangeRequest, error) {
	args := m.Called(ctx, ownerID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChangeRequest), args.Error(1)
}

func (m *MockEditSessionService) Discard(ctx context.Context, ownerID, propertyID uuid.UUID) error {
	return m.Called(ctx, ownerID, propertyID).Error(0)
}

// MockPhotoService is a mock implementation of PhotoService for testing
type MockPhotoService struct {
	mock.Mock
}

func (m *MockPhotoService) Upload(ctx context.Context, ownerID uuid.UUID, r io.Reader, size int64) (string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	args := m.Called(ctx, ownerID, body, size)
	return args.String(0), args.Error(1)
}

// MockTokenService is a mock implementation of TokenService for testing
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(ctx context.Context, kind models.TokenKind, createdBy, propertyID uuid.UUID, leadID *uuid.UUID) (*models.AccessToken, error) {
	args := m.Called(ctx, kind, createdBy, propertyID, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

func (m *MockTokenService) ListForCreator(ctx context.Context, createdBy uuid.UUID, kind models.TokenKind) ([]models.AccessToken, error) {
	args := m.Called(ctx, createdBy, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessToken), args.Error(1)
}

func (m *MockTokenService) Validate(ctx context.Context, kind models.TokenKind, token string) (*models.TokenValidation, error) {
	args := m.Called(ctx, kind, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TokenValidation), args.Error(1)
}

func (m *MockTokenService) SubmitRental(ctx context.Context, token string, app models.RentalApplication) (*models.StoredRentalApplication, error) {
	args := m.Called(ctx, token, app)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StoredRentalApplication), args.Error(1)
}

func (m *MockTokenService) SubmitOffer(ctx context.Context, token string, input models.OfferInput) (*models.ExternalOffer, error) {
	args := m.Called(ctx, token, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalOffer), args.Error(1)
}

func (m *MockTokenService) UpdateOffer(ctx context.Context, id uuid.UUID, user models.User, patch models.OfferPatch) (*models.ExternalOffer, error) {
	args := m.Called(ctx, id, user, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalOffer), args.Error(1)
}

func (m *MockTokenService) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	args := m.Called(ctx, retention)
	return args.Get(0).(int64), args.Error(1)
}

// MockLeadService is a mock implementation of LeadService for testing
type MockLeadService struct {
	mock.Mock
}

func (m *MockLeadService) List(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeadPage), args.Error(1)
}

func (m *MockLeadService) Create(ctx context.Context, input models.LeadInput, agentID *uuid.UUID) (*models.Lead, error) {
	args := m.Called(ctx, input, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadService) Update(ctx context.Context, id uuid.UUID, input models.LeadInput) (*models.Lead, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadService) Reassign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (*models.Lead, error) {
	args := m.Called(ctx, id, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

// MockReferenceService is a mock implementation of ReferenceService for testing
type MockReferenceService struct {
	mock.Mock
}

func (m *MockReferenceService) Colonies(ctx context.Context) ([]models.Colony, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Colony), args.Error(1)
}

func (m *MockReferenceService) Condominiums(ctx context.Context) ([]models.Condominium, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Condominium), args.Error(1)
}
