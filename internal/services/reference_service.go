package services

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/brokerage/internal/cache"
	"github.com/stwalsh4118/brokerage/internal/logger"
	"github.com/stwalsh4118/brokerage/internal/models"
	"github.com/stwalsh4118/brokerage/internal/repository"
)

// ReferenceService serves the approved colony and condominium lists.
type ReferenceService interface {
	Colonies(ctx context.Context) ([]models.Colony, error)
	Condominiums(ctx context.Context) ([]models.Condominium, error)
}

type referenceService struct {
	repo  repository.ReferenceRepository
	cache cache.Store
	log   *logger.Logger
}

// NewReferenceService creates a new instance of ReferenceService.
func NewReferenceService(repo repository.ReferenceRepository, store cache.Store, log *logger.Logger) ReferenceService {
	return &referenceService{repo: repo, cache: store, log: log}
}

func (s *referenceService) Colonies(ctx context.Context) ([]models.Colony, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.Key(cache.PrefixReference, "colonies"),
		func(ctx context.Context) ([]models.Colony, error) {
			list, err := s.repo.ApprovedColonies(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load colonies: %w", err)
			}
			return list, nil
		})
}

func (s *referenceService) Condominiums(ctx context.Context) ([]models.Condominium, error) {
	return cache.Fetch(ctx, s.cache, s.log, cache.Key(cache.PrefixReference, "condominiums"),
		func(ctx context.Context) ([]models.Condominium, error) {
			list, err := s.repo.ApprovedCondominiums(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load condominiums: %w", err)
			}
			return list, nil
		})
}
