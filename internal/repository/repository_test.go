package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/brokerage/internal/config"
	"github.com/stwalsh4118/brokerage/internal/database"
	"github.com/stwalsh4118/brokerage/internal/models"
)

// getTestConfig returns database configuration for integration tests.
func getTestConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		Name:     getEnvOrDefault("DB_NAME", "brokerage_test"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
		PoolMin:  1,
		PoolMax:  5,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupTestDB connects and migrates the test database, skipping when it is
// not reachable.
func setupTestDB(t *testing.T) *database.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, getTestConfig())
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *database.Database, role models.Role) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.Pool.QueryRow(context.Background(),
		`INSERT INTO users (name, role) VALUES ($1, $2) RETURNING id`, "test "+string(role), role).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
	})
	return id
}

func seedProperty(t *testing.T, db *database.Database, ownerID uuid.UUID, title string) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	err := db.Pool.QueryRow(context.Background(), `
		INSERT INTO properties (owner_id, title, price, location, primary_images, cover_image_index)
		VALUES ($1, $2, 15000, 'Centro', ARRAY['https://cdn.example.com/a.jpg'], 0)
		RETURNING id
	`, ownerID, title).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM properties WHERE id = $1`, id)
	})
	return id
}

func TestPageBounds(t *testing.T) {
	testCases := []struct {
		name       string
		page, size int
		wantLimit  int
		wantOffset int
		wantPage   int
	}{
		{name: "defaults", page: 0, size: 0, wantLimit: 20, wantOffset: 0, wantPage: 1},
		{name: "third page", page: 3, size: 10, wantLimit: 10, wantOffset: 20, wantPage: 3},
		{name: "size capped", page: 2, size: 500, wantLimit: 100, wantOffset: 100, wantPage: 2},
		{name: "negative page", page: -4, size: 5, wantLimit: 5, wantOffset: 0, wantPage: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset, page, size := pageBounds(tc.page, tc.size)
			assert.Equal(t, tc.wantLimit, limit)
			assert.Equal(t, tc.wantOffset, offset)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantLimit, size)
		})
	}
}

func TestNonNil(t *testing.T) {
	assert.Equal(t, []string{}, nonNil(nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}

func TestPropertyRepository_FindAndModerate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPropertyRepository(db)

	owner := seedUser(t, db, models.RoleOwner)
	id := seedProperty(t, db, owner, "Casa en Centro")

	p, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Casa en Centro", p.Title)
	assert.Equal(t, 15000.0, p.Price)
	assert.Equal(t, models.PropertyStatusPending, p.Status)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, "", p.Bathrooms)

	missing, err := repo.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	reason := "blurry photos"
	n, err := repo.SetStatus(ctx, []uuid.UUID{id}, models.PropertyStatusRejected, &reason)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	p, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p.RejectionReason)
	assert.Equal(t, reason, *p.RejectionReason)

	_, err = repo.SetStatus(ctx, []uuid.UUID{id}, models.PropertyStatusApproved, &reason)
	require.NoError(t, err)
	p, err = repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, p.RejectionReason, "approval clears the rejection reason")

	ok, err := repo.SetFeatured(ctx, id, true)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.SetPublished(ctx, uuid.New(), true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPropertyRepository_ListFiltersByOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPropertyRepository(db)

	owner := seedUser(t, db, models.RoleOwner)
	other := seedUser(t, db, models.RoleOwner)
	seedProperty(t, db, owner, "Departamento Norte")
	seedProperty(t, db, owner, "Casa Sur")
	seedProperty(t, db, other, "Local Comercial")

	page, err := repo.List(ctx, models.PropertyFilter{OwnerID: &owner, Sort: "title", PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Properties, 1)
	assert.Equal(t, "Casa Sur", page.Properties[0].Title)

	page, err = repo.List(ctx, models.PropertyFilter{OwnerID: &owner, Search: "norte"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestChangeRequestRepository_ApproveBumpsVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	props := NewPropertyRepository(db)
	repo := NewChangeRequestRepository(db)

	owner := seedUser(t, db, models.RoleOwner)
	admin := seedUser(t, db, models.RoleAdmin)
	id := seedProperty(t, db, owner, "Casa Original")

	cr := &models.ChangeRequest{
		PropertyID:    id,
		OwnerID:       owner,
		BaseVersion:   1,
		ChangedFields: models.ChangedFields{"title": {Old: "Casa Original", New: "Casa Renovada"}},
	}
	require.NoError(t, repo.Create(ctx, cr))
	assert.NotEqual(t, uuid.Nil, cr.ID)
	assert.Equal(t, models.ChangeRequestPending, cr.Status)

	pending, err := repo.ListByStatus(ctx, models.ChangeRequestPending)
	require.NoError(t, err)
	found := false
	for _, p := range pending {
		if p.ID == cr.ID {
			found = true
			assert.Equal(t, "Casa Original", p.PropertyTitle)
			assert.Equal(t, "Casa Renovada", p.ChangedFields["title"].New)
		}
	}
	assert.True(t, found)

	current, err := props.FindByID(ctx, id)
	require.NoError(t, err)
	current.Title = "Casa Renovada"
	require.NoError(t, repo.Approve(ctx, cr.ID, admin, current, 1))
	assert.Equal(t, 2, current.Version)

	stored, err := repo.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChangeRequestApproved, stored.Status)
	require.NotNil(t, stored.ReviewerID)
	assert.Equal(t, admin, *stored.ReviewerID)

	err = repo.Reject(ctx, cr.ID, admin, "too late")
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
}

func TestChangeRequestRepository_ApproveConflictRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	props := NewPropertyRepository(db)
	repo := NewChangeRequestRepository(db)

	owner := seedUser(t, db, models.RoleOwner)
	admin := seedUser(t, db, models.RoleAdmin)
	id := seedProperty(t, db, owner, "Casa Original")

	cr := &models.ChangeRequest{
		PropertyID:    id,
		OwnerID:       owner,
		BaseVersion:   1,
		ChangedFields: models.ChangedFields{"bedrooms": {Old: 0, New: 3}},
	}
	require.NoError(t, repo.Create(ctx, cr))

	current, err := props.FindByID(ctx, id)
	require.NoError(t, err)
	current.Bedrooms = 3

	err = repo.Approve(ctx, cr.ID, admin, current, 7)
	assert.ErrorIs(t, err, ErrVersionConflict)

	stored, err := repo.FindByID(ctx, cr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChangeRequestPending, stored.Status, "a failed approval leaves the request pending")
}

func TestTokenRepository_SubmitConsumesOnce(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewTokenRepository(db)

	owner := seedUser(t, db, models.RoleOwner)
	agent := seedUser(t, db, models.RoleAgent)
	propertyID := seedProperty(t, db, owner, "Casa con Jardin")
	now := time.Now().UTC().Truncate(time.Microsecond)

	token := &models.AccessToken{
		Token:      "rental-" + uuid.NewString(),
		Kind:       models.TokenKindRentalForm,
		PropertyID: propertyID,
		CreatedBy:  agent,
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, token))

	app := &models.StoredRentalApplication{
		Token:      token.Token,
		PropertyID: propertyID,
		Application: models.RentalApplication{
			Personal:  models.ApplicantPersonal{FullName: "Ana Ruiz", Email: "ana@example.com", Phone: "5512345678", IDNumber: "X1"},
			Occupants: 2,
		},
	}
	require.NoError(t, repo.SubmitRentalApplication(ctx, app, now))
	assert.NotEqual(t, uuid.Nil, app.ID)

	again := *app
	err := repo.SubmitRentalApplication(ctx, &again, now)
	assert.ErrorIs(t, err, ErrTokenUnavailable)

	stored, err := repo.Find(ctx, token.Token)
	require.NoError(t, err)
	require.NotNil(t, stored.UsedAt)

	listed, err := repo.ListByCreator(ctx, agent, models.TokenKindRentalForm)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, token.Token, listed[0].Token)
}

func TestTokenRepository_OfferLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewTokenRepository(db)

	owner := seedUser(t, db, models.RoleOwner)
	agent := seedUser(t, db, models.RoleExternalAgent)
	propertyID := seedProperty(t, db, owner, "Penthouse")
	now := time.Now().UTC()

	expired := &models.AccessToken{
		Token:      "offer-" + uuid.NewString(),
		Kind:       models.TokenKindOffer,
		PropertyID: propertyID,
		CreatedBy:  agent,
		ExpiresAt:  now.Add(-time.Minute),
	}
	require.NoError(t, repo.Create(ctx, expired))

	offer := &models.ExternalOffer{
		Token:       expired.Token,
		PropertyID:  propertyID,
		AgentID:     agent,
		ClientName:  "Luis",
		OfferedRent: 14000,
		Status:      models.OfferStatusSubmitted,
	}
	assert.ErrorIs(t, repo.SubmitOffer(ctx, offer, now), ErrTokenUnavailable)

	valid := &models.AccessToken{
		Token:      "offer-" + uuid.NewString(),
		Kind:       models.TokenKindOffer,
		PropertyID: propertyID,
		CreatedBy:  agent,
		ExpiresAt:  now.Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, valid))
	offer.Token = valid.Token
	require.NoError(t, repo.SubmitOffer(ctx, offer, now))

	offer.OfferedRent = 14500
	offer.Status = models.OfferStatusUnderReview
	require.NoError(t, repo.UpdateOffer(ctx, offer))

	stored, err := repo.FindOffer(ctx, offer.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 14500.0, stored.OfferedRent)
	assert.Equal(t, models.OfferStatusUnderReview, stored.Status)

	removed, err := repo.DeleteExpiredBefore(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	gone, err := repo.Find(ctx, expired.Token)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestLeadRepository_FindDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewLeadRepository(db)

	lead := &models.Lead{Name: "Maria", Phone: "+52 (55) 1234-5678", Email: "Maria@Example.com "}
	require.NoError(t, repo.Create(ctx, lead))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM leads WHERE id = $1`, lead.ID)
	})
	assert.Equal(t, models.LeadStatusNew, lead.Status)

	dup, err := repo.FindDuplicate(ctx, models.NormalizePhone("55 1234 5678"), "", nil)
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, lead.ID, dup.ID)

	dup, err = repo.FindDuplicate(ctx, "", models.NormalizeEmail("maria@example.com"), nil)
	require.NoError(t, err)
	require.NotNil(t, dup)

	dup, err = repo.FindDuplicate(ctx, models.NormalizePhone(lead.Phone), "", &lead.ID)
	require.NoError(t, err)
	assert.Nil(t, dup, "a lead is not its own duplicate")

	dup, err = repo.FindDuplicate(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Nil(t, dup)

	updated, err := repo.UpdateStatus(ctx, lead.ID, models.LeadStatusViewing)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, models.LeadStatusViewing, updated.Status)

	missing, err := repo.Reassign(ctx, uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReferenceRepository_ApprovedOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewReferenceRepository(db)

	name := "Colonia " + uuid.NewString()
	var approvedID uuid.UUID
	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO colonies (name, city) VALUES ($1, 'CDMX') RETURNING id`, name).Scan(&approvedID))
	var hiddenID uuid.UUID
	require.NoError(t, db.Pool.QueryRow(ctx,
		`INSERT INTO colonies (name, approved) VALUES ($1, FALSE) RETURNING id`, name+" hidden").Scan(&hiddenID))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM colonies WHERE id = ANY($1)`, []uuid.UUID{approvedID, hiddenID})
	})

	colonies, err := repo.ApprovedColonies(ctx)
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, c := range colonies {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, approvedID)
	assert.NotContains(t, ids, hiddenID)
}
