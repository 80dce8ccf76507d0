package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/brokerage/internal/cache"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/models"
)

// setupTestCache returns a query cache backed by an in-memory Redis.
func setupTestCache(t *testing.T) (*cache.QueryCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client, err := cache.NewClient(context.Background(), "redis://"+s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return cache.NewQueryCache(client, time.Minute, logger.New("test")), s
}

// MockPropertyRepository is a mock implementation of PropertyRepository for testing
type MockPropertyRepository struct {
	mock.Mock
}

func (m *MockPropertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyRepository) List(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PropertyPage), args.Error(1)
}

func (m *MockPropertyRepository) SetStatus(ctx context.Context, ids []uuid.UUID, status models.PropertyStatus, reason *string) (int64, error) {
	args := m.Called(ctx, ids, status, reason)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPropertyRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) (bool, error) {
	args := m.Called(ctx, id, published)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (bool, error) {
	args := m.Called(ctx, id, featured)
	return args.Bool(0), args.Error(1)
}

func (m *MockPropertyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockChangeRequestRepository is a mock implementation of ChangeRequestRepository for testing
type MockChangeRequestRepository struct {
	mock.Mock
}

func (m *MockChangeRequestRepository) Create(ctx context.Context, cr *models.ChangeRequest) error {
	args := m.Called(ctx, cr)
	return args.Error(0)
}

func (m *MockChangeRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChangeRequest, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) ListByStatus(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) Approve(ctx context.Context, id, reviewerID uuid.UUID, updated *models.Property, baseVersion int) error {
	args := m.Called(ctx, id, reviewerID, updated, baseVersion)
	return args.Error(0)
}

func (m *MockChangeRequestRepository) Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reviewerID, reason)
	return args.Error(0)
}

// MockTokenRepository is a mock implementation of TokenRepository for testing
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenRepository) Find(ctx context.Context, token string) (*models.AccessToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) ListByCreator(ctx context.Context, createdBy uuid.UUID, kind models.TokenKind) ([]models.AccessToken, error) {
	args := m.Called(ctx, createdBy, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AccessToken), args.Error(1)
}

func (m *MockTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTokenRepository) SubmitRentalApplication(ctx context.Context, app *models.StoredRentalApplication, now time.Time) error {
	args := m.Called(ctx, app, now)
	return args.Error(0)
}

func (m *MockTokenRepository) SubmitOffer(ctx context.Context, offer *models.ExternalOffer, now time.Time) error {
	args := m.Called(ctx, offer, now)
	return args.Error(0)
}

func (m *MockTokenRepository) FindOffer(ctx context.Context, id uuid.UUID) (*models.ExternalOffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExternalOffer), args.Error(1)
}

func (m *MockTokenRepository) UpdateOffer(ctx context.Context, offer *models.ExternalOffer) error {
	args := m.Called(ctx, offer)
	return args.Error(0)
}

// MockLeadRepository is a mock implementation of LeadRepository for testing
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) List(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LeadPage), args.Error(1)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindDuplicate(ctx context.Context, phone, email string, excludeID *uuid.UUID) (*models.Lead, error) {
	args := m.Called(ctx, phone, email, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *models.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) Update(ctx context.Context, lead *models.Lead) (bool, error) {
	args := m.Called(ctx, lead)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

func (m *MockLeadRepository) Reassign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (*models.Lead, error) {
	args := m.Called(ctx, id, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Lead), args.Error(1)
}

// MockReferenceRepository is a mock implementation of ReferenceRepository for testing
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) ApprovedColonies(ctx context.Context) ([]models.Colony, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Colony), args.Error(1)
}

func (m *MockReferenceRepository) ApprovedCondominiums(ctx context.Context) ([]models.Condominium, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Condominium), args.Error(1)
}

// MockObjectStore records uploads.
type MockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *MockObjectStore) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.body = data
	args := m.Called(ctx, name, size, contentType)
	return args.String(0), args.Error(1)
}

func newRedisClient(addr string) (*redis.Client, error) {
	return cache.NewClient(context.Background(), "redis://"+addr)
}
