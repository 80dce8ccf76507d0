package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/stwalsh4118/brokerage/internal/cache"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/repository"
)

// Service-level errors
var (
	ErrPropertyNotFound = errors.New("property not found")
	ErrNoProperties     = errors.New("no property ids given")
)

// PropertyService defines the interface for property reads and moderation.
type PropertyService interface {
	// GetForOwner returns the property only if ownerID owns it.
	// Returns ErrPropertyNotFound otherwise, so foreign listings look absent.
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*models.Property, error)

	// ListForOwner returns one page of the owner's listings.
	ListForOwner(ctx context.Context, ownerID uuid.UUID, filter models.PropertyFilter) (*models.PropertyPage, error)

	// List returns one page of every listing for moderation.
	List(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error)

	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID, reason string) error

	// BulkApprove and BulkReject report how many listings changed.
	BulkApprove(ctx context.Context, ids []uuid.UUID) (int64, error)
	BulkReject(ctx context.Context, ids []uuid.UUID, reason string) (int64, error)

	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error

	// Delete permanently removes a listing.
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyService struct {
	repo  repository.PropertyRepository
	cache cache.Store
	log   *logger.Logger
}

// NewPropertyService creates a new instance of PropertyService.
func NewPropertyService(repo repository.PropertyRepository, store cache.Store, log *logger.Logger) PropertyService {
	return &propertyService{
		repo:  repo,
		cache: store,
		log:   log,
	}
}

func (s *propertyService) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*models.Property, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != ownerID {
		s.log.Warn("Owner requested a property they do not own", map[string]interface{}{
			"owner_id":    ownerID.String(),
			"property_id": id.String(),
		})
		return nil, ErrPropertyNotFound
	}
	return p, nil
}

// load reads a property through the detail cache. Missing properties are
// never cached.
func (s *propertyService) load(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.Key(cache.PrefixPropertyDetail, id.String()),
		func(ctx context.Context) (*models.Property, error) {
			p, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("failed to load property: %w", err)
			}
			if p == nil {
				return nil, ErrPropertyNotFound
			}
			return p, nil
		})
}

func (s *propertyService) ListForOwner(ctx context.Context, ownerID uuid.UUID, filter models.PropertyFilter) (*models.PropertyPage, error) {
	filter.OwnerID = &ownerID
	return s.List(ctx, filter)
}

func (s *propertyService) List(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error) {
	owner := "all"
	if filter.OwnerID != nil {
		owner = filter.OwnerID.String()
	}
	key := cache.Key(cache.PrefixPropertyList, owner, string(filter.Status), filter.Search, filter.Sort,
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize))

	return cache.Fetch(ctx, s.cache, s.log, key, func(ctx context.Context) (*models.PropertyPage, error) {
		page, err := s.repo.List(ctx, filter)
		if err != nil {
			s.log.Error("Failed to list properties", err, map[string]interface{}{
				"owner":  owner,
				"status": filter.Status,
			})
			return nil, fmt.Errorf("failed to list properties: %w", err)
		}
		return page, nil
	})
}

func (s *propertyService) Approve(ctx context.Context, id uuid.UUID) error {
	return s.setStatusOne(ctx, id, models.PropertyStatusApproved, nil)
}

func (s *propertyService) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	return s.setStatusOne(ctx, id, models.PropertyStatusRejected, &reason)
}

func (s *propertyService) setStatusOne(ctx context.Context, id uuid.UUID, status models.PropertyStatus, reason *string) error {
	n, err := s.setStatus(ctx, []uuid.UUID{id}, status, reason)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPropertyNotFound
	}
	return nil
}

func (s *propertyService) BulkApprove(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return s.setStatus(ctx, ids, models.PropertyStatusApproved, nil)
}

func (s *propertyService) BulkReject(ctx context.Context, ids []uuid.UUID, reason string) (int64, error) {
	return s.setStatus(ctx, ids, models.PropertyStatusRejected, &reason)
}

func (s *propertyService) setStatus(ctx context.Context, ids []uuid.UUID, status models.PropertyStatus, reason *string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoProperties
	}

	n, err := s.repo.SetStatus(ctx, ids, status, reason)
	if err != nil {
		s.log.Error("Failed to update property status", err, map[string]interface{}{
			"status": status,
			"count":  len(ids),
		})
		return 0, fmt.Errorf("failed to update property status: %w", err)
	}

	s.log.Info("Property status updated", map[string]interface{}{
		"status":    status,
		"requested": len(ids),
		"updated":   n,
	})
	s.invalidate(ctx)
	return n, nil
}

func (s *propertyService) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	return s.toggle(ctx, id, "published", published, s.repo.SetPublished)
}

func (s *propertyService) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) error {
	return s.toggle(ctx, id, "featured", featured, s.repo.SetFeatured)
}

func (s *propertyService) toggle(ctx context.Context, id uuid.UUID, name string, value bool,
	set func(context.Context, uuid.UUID, bool) (bool, error)) error {
	found, err := set(ctx, id, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	if !found {
		return ErrPropertyNotFound
	}
	s.log.Info("Property flag updated", map[string]interface{}{
		"property_id": id.String(),
		name:          value,
	})
	s.invalidate(ctx)
	return nil
}

func (s *propertyService) Delete(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if !found {
		return ErrPropertyNotFound
	}
	s.log.Info("Property deleted", map[string]interface{}{"property_id": id.String()})
	s.invalidate(ctx, cache.PrefixChangeRequests)
	return nil
}

func (s *propertyService) invalidate(ctx context.Context, extra ...string) {
	invalidate(ctx, s.cache, s.log, append([]string{cache.PrefixPropertyList, cache.PrefixPropertyDetail}, extra...)...)
}

// invalidate drops cached query families. Failures are logged, not returned:
// the write already succeeded and entries expire on their own.
func invalidate(ctx context.Context, store cache.Store, log *logger.Logger, prefixes ...string) {
	if err := store.Invalidate(ctx, prefixes...); err != nil {
		log.Warn("Cache invalidation failed", map[string]interface{}{
			"prefixes": prefixes,
			"error":    err.Error(),
		})
	}
}
