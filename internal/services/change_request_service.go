package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/cache"
	"github.com/stwalsh4118/brokerage/internal/changeset"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/repository"
)

// Service-level errors
var (
	ErrChangeRequestNotFound = errors.New("change request not found")
	// ErrStaleEdit is returned when the property changed after the edit
	// started, or after the change request was submitted.
	ErrStaleEdit = errors.New("property was modified since the edit started")
	// ErrAlreadyReviewed is returned when approving or rejecting a change
	// request that is no longer pending.
	ErrAlreadyReviewed = errors.New("change request already reviewed")
)

// ChangeRequestService turns owner edits into reviewable change requests.
type ChangeRequestService interface {
	// Preview returns the changes state would make without storing anything.
	// An unchanged edit yields an empty map.
	Preview(ctx context.Context, ownerID, propertyID uuid.UUID, state *models.EditState) (models.ChangedFields, error)

	// Submit stores a pending change request for the edit.
	// Returns ErrPropertyNotFound, ErrStaleEdit, models.ErrInvalidAccessInfo
	// or changeset.ErrNoChanges without writing anything.
	Submit(ctx context.Context, ownerID, propertyID uuid.UUID, state *models.EditState) (*models.ChangeRequest, error)

	// ListForOwner returns the owner's change requests, newest first.
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChangeRequest, error)

	// ListPending returns the review queue, oldest first.
	ListPending(ctx context.Context) ([]models.ChangeRequest, error)

	// Approve writes the requested changes onto the property.
	Approve(ctx context.Context, id, reviewerID uuid.UUID) (*models.Property, error)

	Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error
}

type changeRequestService struct {
	properties repository.PropertyRepository
	requests   repository.ChangeRequestRepository
	cache      cache.Store
	log        *logger.Logger
}

// NewChangeRequestService creates a new instance of ChangeRequestService.
func NewChangeRequestService(
	properties repository.PropertyRepository,
	requests repository.ChangeRequestRepository,
	store cache.Store,
	log *logger.Logger,
) ChangeRequestService {
	return &changeRequestService{
		properties: properties,
		requests:   requests,
		cache:      store,
		log:        log,
	}
}

// ownedProperty loads the property and hides it from anyone but its owner.
func (s *changeRequestService) ownedProperty(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.Property, error) {
	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if p == nil || p.OwnerID != ownerID {
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

func (s *changeRequestService) Preview(ctx context.Context, ownerID, propertyID uuid.UUID, state *models.EditState) (models.ChangedFields, error) {
	p, err := s.ownedProperty(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}
	if _, err := changeset.AccessInfoOf(&state.Form); err != nil {
		return nil, err
	}
	return changeset.Build(p, state), nil
}

func (s *changeRequestService) Submit(ctx context.Context, ownerID, propertyID uuid.UUID, state *models.EditState) (*models.ChangeRequest, error) {
	p, err := s.ownedProperty(ctx, ownerID, propertyID)
	if err != nil {
		return nil, err
	}

	if state.BaseVersion != p.Version {
		s.log.Warn("Rejected stale edit", map[string]interface{}{
			"property_id":  propertyID.String(),
			"base_version": state.BaseVersion,
			"version":      p.Version,
		})
		return nil, ErrStaleEdit
	}

	if _, err := changeset.AccessInfoOf(&state.Form); err != nil {
		return nil, err
	}

	changes, err := changeset.Diff(p, state)
	if err != nil {
		return nil, err
	}

	cr := &models.ChangeRequest{
		PropertyID:    propertyID,
		OwnerID:       ownerID,
		ChangedFields: changes,
		BaseVersion:   p.Version,
		PropertyTitle: p.Title,
	}
	if err := s.requests.Create(ctx, cr); err != nil {
		s.log.Error("Failed to store change request", err, map[string]interface{}{
			"property_id": propertyID.String(),
		})
		return nil, fmt.Errorf("failed to store change request: %w", err)
	}

	s.log.Info("Change request submitted", map[string]interface{}{
		"change_request_id": cr.ID.String(),
		"property_id":       propertyID.String(),
		"changed_fields":    len(changes),
	})
	invalidate(ctx, s.cache, s.log, cache.PrefixPropertyList, cache.PrefixPropertyDetail, cache.PrefixChangeRequests)
	return cr, nil
}

func (s *changeRequestService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChangeRequest, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.Key(cache.PrefixChangeRequests, "owner", ownerID.String()),
		func(ctx context.Context) ([]models.ChangeRequest, error) {
			list, err := s.requests.ListByOwner(ctx, ownerID)
			if err != nil {
				return nil, fmt.Errorf("failed to list change requests: %w", err)
			}
			return list, nil
		})
}

func (s *changeRequestService) ListPending(ctx context.Context) ([]models.ChangeRequest, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.Key(cache.PrefixChangeRequests, "pending"),
		func(ctx context.Context) ([]models.ChangeRequest, error) {
			list, err := s.requests.ListByStatus(ctx, models.ChangeRequestPending)
			if err != nil {
				return nil, fmt.Errorf("failed to list pending change requests: %w", err)
			}
			return list, nil
		})
}

func (s *changeRequestService) pending(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error) {
	cr, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load change request: %w", err)
	}
	if cr == nil {
		return nil, ErrChangeRequestNotFound
	}
	if cr.Status != models.ChangeRequestPending {
		return nil, ErrAlreadyReviewed
	}
	return cr, nil
}

func (s *changeRequestService) Approve(ctx context.Context, id, reviewerID uuid.UUID) (*models.Property, error) {
	cr, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := s.properties.FindByID(ctx, cr.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if p == nil {
		return nil, ErrPropertyNotFound
	}
	if p.Version != cr.BaseVersion {
		return nil, ErrStaleEdit
	}

	updated, err := changeset.Apply(p, cr.ChangedFields)
	if err != nil {
		return nil, fmt.Errorf("failed to apply change request %s: %w", id, err)
	}

	err = s.requests.Approve(ctx, id, reviewerID, updated, cr.BaseVersion)
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return nil, ErrStaleEdit
	case errors.Is(err, repository.ErrAlreadyReviewed):
		return nil, ErrAlreadyReviewed
	case err != nil:
		s.log.Error("Failed to approve change request", err, map[string]interface{}{
			"change_request_id": id.String(),
		})
		return nil, fmt.Errorf("failed to approve change request: %w", err)
	}

	s.log.Info("Change request approved", map[string]interface{}{
		"change_request_id": id.String(),
		"property_id":       cr.PropertyID.String(),
		"reviewer_id":       reviewerID.String(),
		"version":           updated.Version,
	})
	invalidate(ctx, s.cache, s.log, cache.PrefixPropertyList, cache.PrefixPropertyDetail, cache.PrefixChangeRequests)
	return updated, nil
}

func (s *changeRequestService) Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error {
	if _, err := s.pending(ctx, id); err != nil {
		return err
	}

	err := s.requests.Reject(ctx, id, reviewerID, reason)
	if errors.Is(err, repository.ErrAlreadyReviewed) {
		return ErrAlreadyReviewed
	}
	if err != nil {
		return fmt.Errorf("failed to reject change request: %w", err)
	}

	s.log.Info("Change request rejected", map[string]interface{}{
		"change_request_id": id.String(),
		"reviewer_id":       reviewerID.String(),
	})
	invalidate(ctx, s.cache, s.log, cache.PrefixChangeRequests)
	return nil
}
