package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/changeset"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/photos"
	"github.com/stwalsh4118/brokerage/internal/repository"
	"github.com/stwalsh4118/brokerage/internal/session"
)

// ErrEditSessionNotFound is returned when the owner has no open edit of the
// property.
var ErrEditSessionNotFound = session.ErrSessionNotFound

// SessionStore holds edit sessions between requests.
type SessionStore interface {
	Create(ctx context.Context, sess *models.EditSession) (*models.EditSession, bool, error)
	Load(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, error)
	Update(ctx context.Context, ownerID, propertyID uuid.UUID, fn func(*models.EditSession) error) (*models.EditSession, error)
	Delete(ctx context.Context, ownerID, propertyID uuid.UUID) error
}

// EditSessionService keeps an owner's in-progress edit on the server.
type EditSessionService interface {
	// Start opens an edit seeded from the stored property. An open session is
	// returned unchanged; created reports whether this call opened it.
	Start(ctx context.Context, ownerID, propertyID uuid.UUID) (sess *models.EditSession, created bool, err error)

	Get(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, error)

	// UpdateForm replaces the form and the additional services.
	UpdateForm(ctx context.Context, ownerID, propertyID uuid.UUID, form models.EditForm, additional []models.AdditionalService) (*models.EditSession, error)

	// ApplyPhotoOp edits the photo list and cover.
	ApplyPhotoOp(ctx context.Context, ownerID, propertyID uuid.UUID, op photos.Op) (*models.EditSession, error)

	// Submit sends the edit as a change request and closes the session.
	// The session stays open when submission fails.
	Submit(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.ChangeRequest, error)

	Discard(ctx context.Context, ownerID, propertyID uuid.UUID) error
}

type editSessionService struct {
	properties repository.PropertyRepository
	requests   ChangeRequestService
	store      SessionStore
	log        *logger.Logger
	now        func() time.Time
}

// NewEditSessionService creates a new instance of EditSessionService.
func NewEditSessionService(
	properties repository.PropertyRepository,
	requests ChangeRequestService,
	store SessionStore,
	log *logger.Logger,
) EditSessionService {
	return &editSessionService{
		properties: properties,
		requests:   requests,
		store:      store,
		log:        log,
		now:        time.Now,
	}
}

func (s *editSessionService) Start(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, bool, error) {
	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load property: %w", err)
	}
	if p == nil || p.OwnerID != ownerID {
		return nil, false, ErrPropertyNotFound
	}

	now := s.now().UTC()
	sess, created, err := s.store.Create(ctx, &models.EditSession{
		PropertyID: propertyID,
		OwnerID:    ownerID,
		State:      changeset.NewEditState(p, now),
		StartedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to open edit session: %w", err)
	}

	if created {
		s.log.Info("Edit session started", map[string]interface{}{
			"owner_id":     ownerID.String(),
			"property_id":  propertyID.String(),
			"base_version": sess.State.BaseVersion,
		})
	}
	return sess, created, nil
}

func (s *editSessionService) Get(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, error) {
	return s.store.Load(ctx, ownerID, propertyID)
}

func (s *editSessionService) UpdateForm(ctx context.Context, ownerID, propertyID uuid.UUID, form models.EditForm, additional []models.AdditionalService) (*models.EditSession, error) {
	return s.store.Update(ctx, ownerID, propertyID, func(sess *models.EditSession) error {
		sess.State.Form = form
		sess.State.AdditionalServices = additional
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *editSessionService) ApplyPhotoOp(ctx context.Context, ownerID, propertyID uuid.UUID, op photos.Op) (*models.EditSession, error) {
	return s.store.Update(ctx, ownerID, propertyID, func(sess *models.EditSession) error {
		list := photos.NewList(sess.State.Photos, sess.State.CoverImageIndex)
		if err := list.Apply(op); err != nil {
			return err
		}
		sess.State.Photos = list.Photos()
		sess.State.CoverImageIndex = list.Cover()
		sess.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *editSessionService) Submit(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.ChangeRequest, error) {
	sess, err := s.store.Load(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}

	cr, err := s.requests.Submit(ctx, ownerID, propertyID, &sess.State)
	if err != nil {
		return nil, err
	}

	if err := s.store.Delete(ctx, ownerID, propertyID); err != nil {
		s.log.Warn("Failed to close submitted edit session", map[string]interface{}{
			"owner_id":    ownerID.String(),
			"property_id": propertyID.String(),
			"error":       err.Error(),
		})
	}
	return cr, nil
}

func (s *editSessionService) Discard(ctx context.Context, ownerID, propertyID uuid.UUID) error {
	if err := s.store.Delete(ctx, ownerID, propertyID); err != nil {
		return fmt.Errorf("failed to discard edit session: %w", err)
	}
	s.log.Debug("Edit session discarded", map[string]interface{}{
		"owner_id":    ownerID.String(),
		"property_id": propertyID.String(),
	})
	return nil
}
