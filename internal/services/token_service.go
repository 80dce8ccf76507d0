package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/repository"
)

// Service-level errors
var (
	ErrTokenNotFound  = errors.New("token not found")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenUsed      = errors.New("token already used")
	ErrWrongTokenKind = errors.New("token is for a different form")
	ErrOfferNotFound  = errors.New("offer not found")
	ErrNotOfferAgent  = errors.New("offer belongs to another agent")
)

// tokenBytes is the entropy of a generated link token.
const tokenBytes = 32

// TokenService issues and redeems offer links and rental form links.
type TokenService interface {
	// Generate issues a link for the property.
	Generate(ctx context.Context, kind models.TokenKind, createdBy, propertyID uuid.UUID, leadID *uuid.UUID) (*models.AccessToken, error)

	// ListForCreator returns the links of one kind a user issued.
	ListForCreator(ctx context.Context, createdBy uuid.UUID, kind models.TokenKind) ([]models.AccessToken, error)

	// Validate checks that token is a redeemable link of kind.
	// Returns ErrTokenNotFound, ErrWrongTokenKind, ErrTokenExpired or ErrTokenUsed.
	Validate(ctx context.Context, kind models.TokenKind, token string) (*models.TokenValidation, error)

	// SubmitRental stores a rental application and consumes the link.
	SubmitRental(ctx context.Context, token string, app models.RentalApplication) (*models.StoredRentalApplication, error)

	// SubmitOffer stores a client's offer and consumes the link.
	SubmitOffer(ctx context.Context, token string, input models.OfferInput) (*models.ExternalOffer, error)

	// UpdateOffer lets the agent who issued the link, or an admin, revise
	// the offer.
	UpdateOffer(ctx context.Context, id uuid.UUID, user models.User, patch models.OfferPatch) (*models.ExternalOffer, error)

	// CleanupExpired deletes links that expired more than retention ago.
	CleanupExpired(ctx context.Context, retention time.Duration) (int64, error)
}

type tokenService struct {
	tokens     repository.TokenRepository
	properties repository.PropertyRepository
	ttl        time.Duration
	log        *logger.Logger
	now        func() time.Time
}

// NewTokenService creates a new instance of TokenService. Issued links live
// for ttl.
func NewTokenService(tokens repository.TokenRepository, properties repository.PropertyRepository, ttl time.Duration, log *logger.Logger) TokenService {
	return &tokenService{
		tokens:     tokens,
		properties: properties,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
	}
}

// newToken returns a URL-safe random token.
func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *tokenService) Generate(ctx context.Context, kind models.TokenKind, createdBy, propertyID uuid.UUID, leadID *uuid.UUID) (*models.AccessToken, error) {
	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}

	value, err := newToken()
	if err != nil {
		return nil, err
	}
	t := &models.AccessToken{
		Token:      value,
		Kind:       kind,
		PropertyID: propertyID,
		LeadID:     leadID,
		CreatedBy:  createdBy,
		ExpiresAt:  s.now().UTC().Add(s.ttl),
	}
	if err := s.tokens.Create(ctx, t); err != nil {
		s.log.Error("Failed to store token", err, map[string]interface{}{
			"kind":        kind,
			"property_id": propertyID.String(),
		})
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.log.Info("Token issued", map[string]interface{}{
		"kind":        kind,
		"property_id": propertyID.String(),
		"created_by":  createdBy.String(),
		"expires_at":  t.ExpiresAt,
	})
	return t, nil
}

func (s *tokenService) ListForCreator(ctx context.Context, createdBy uuid.UUID, kind models.TokenKind) ([]models.AccessToken, error) {
	list, err := s.tokens.ListByCreator(ctx, createdBy, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return list, nil
}

// check loads token and classifies why it cannot be redeemed, if it cannot.
func (s *tokenService) check(ctx context.Context, kind models.TokenKind, token string) (*models.AccessToken, error) {
	t, err := s.tokens.Find(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}
	switch {
	case t == nil:
		return nil, ErrTokenNotFound
	case t.Kind != kind:
		return nil, ErrWrongTokenKind
	case t.Used():
		return nil, ErrTokenUsed
	case t.Expired(s.now()):
		return nil, ErrTokenExpired
	}
	return t, nil
}

func (s *tokenService) Validate(ctx context.Context, kind models.TokenKind, token string) (*models.TokenValidation, error) {
	t, err := s.check(ctx, kind, token)
	if err != nil {
		return nil, err
	}

	p, err := s.properties.FindByID(ctx, t.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}

	return &models.TokenValidation{
		Property:  models.SummaryOf(p),
		ExpiresAt: t.ExpiresAt,
		Kind:      t.Kind,
	}, nil
}

// consumed explains a submission that lost the race for its token.
func (s *tokenService) consumed(ctx context.Context, kind models.TokenKind, token string) error {
	if _, err := s.check(ctx, kind, token); err != nil {
		return err
	}
	return ErrTokenUsed
}

func (s *tokenService) SubmitRental(ctx context.Context, token string, app models.RentalApplication) (*models.StoredRentalApplication, error) {
	t, err := s.check(ctx, models.TokenKindRentalForm, token)
	if err != nil {
		return nil, err
	}

	stored := &models.StoredRentalApplication{
		Token:       t.Token,
		PropertyID:  t.PropertyID,
		LeadID:      t.LeadID,
		Application: app,
	}
	err = s.tokens.SubmitRentalApplication(ctx, stored, s.now().UTC())
	if errors.Is(err, repository.ErrTokenUnavailable) {
		return nil, s.consumed(ctx, models.TokenKindRentalForm, token)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store rental application: %w", err)
	}

	s.log.Info("Rental application submitted", map[string]interface{}{
		"application_id": stored.ID.String(),
		"property_id":    stored.PropertyID.String(),
	})
	return stored, nil
}

func (s *tokenService) SubmitOffer(ctx context.Context, token string, input models.OfferInput) (*models.ExternalOffer, error) {
	t, err := s.check(ctx, models.TokenKindOffer, token)
	if err != nil {
		return nil, err
	}

	offer := &models.ExternalOffer{
		Token:         t.Token,
		PropertyID:    t.PropertyID,
		AgentID:       t.CreatedBy,
		ClientName:    input.ClientName,
		ClientEmail:   models.NormalizeEmail(input.ClientEmail),
		ClientPhone:   input.ClientPhone,
		OfferedRent:   input.OfferedRent,
		LeaseDuration: input.LeaseDuration,
		MoveInDate:    input.MoveInDate,
		Notes:         input.Notes,
		Status:        models.OfferStatusSubmitted,
	}
	err = s.tokens.SubmitOffer(ctx, offer, s.now().UTC())
	if errors.Is(err, repository.ErrTokenUnavailable) {
		return nil, s.consumed(ctx, models.TokenKindOffer, token)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store offer: %w", err)
	}

	s.log.Info("Offer submitted", map[string]interface{}{
		"offer_id":     offer.ID.String(),
		"property_id":  offer.PropertyID.String(),
		"agent_id":     offer.AgentID.String(),
		"offered_rent": offer.OfferedRent,
	})
	return offer, nil
}

func (s *tokenService) UpdateOffer(ctx context.Context, id uuid.UUID, user models.User, patch models.OfferPatch) (*models.ExternalOffer, error) {
	offer, err := s.tokens.FindOffer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}
	if offer == nil {
		return nil, ErrOfferNotFound
	}
	if user.Role != models.RoleAdmin && offer.AgentID != user.ID {
		return nil, ErrNotOfferAgent
	}

	patch.ApplyTo(offer)
	if err := s.tokens.UpdateOffer(ctx, offer); err != nil {
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}

	s.log.Info("Offer updated", map[string]interface{}{
		"offer_id": id.String(),
		"user_id":  user.ID.String(),
		"status":   offer.Status,
	})
	return offer, nil
}

func (s *tokenService) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.tokens.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	s.log.Info("Expired tokens removed", map[string]interface{}{
		"cutoff":  cutoff,
		"removed": n,
	})
	return n, nil
}
