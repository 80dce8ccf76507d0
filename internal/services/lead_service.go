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
	ErrLeadNotFound      = errors.New("lead not found")
	ErrInvalidLeadStatus = errors.New("invalid lead status")
)

// DuplicateLeadError reports that another lead already has the same phone
// or email.
type DuplicateLeadError struct {
	Existing models.Lead
	// Field is "phone" or "email".
	Field string
}

func (e *DuplicateLeadError) Error() string {
	return fmt.Sprintf("lead with this %s already exists (%s)", e.Field, e.Existing.ID)
}

// LeadService manages the CRM kanban.
type LeadService interface {
	List(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error)

	// Create adds a lead assigned to agentID, or unassigned when nil.
	// Returns *DuplicateLeadError when the phone or email is taken.
	Create(ctx context.Context, input models.LeadInput, agentID *uuid.UUID) (*models.Lead, error)

	// Update replaces the contact details with the same duplicate check.
	Update(ctx context.Context, id uuid.UUID, input models.LeadInput) (*models.Lead, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error)

	// Reassign moves the lead to agentID; nil unassigns it.
	Reassign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (*models.Lead, error)
}

type leadService struct {
	repo  repository.LeadRepository
	cache cache.Store
	log   *logger.Logger
}

// NewLeadService creates a new instance of LeadService.
func NewLeadService(repo repository.LeadRepository, store cache.Store, log *logger.Logger) LeadService {
	return &leadService{
		repo:  repo,
		cache: store,
		log:   log,
	}
}

func (s *leadService) List(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLeadStatus, filter.Status)
	}

	agent := "all"
	if filter.AgentID != nil {
		agent = filter.AgentID.String()
	}
	key := cache.Key(cache.PrefixLeads, agent, string(filter.Status), filter.Search, filter.Sort,
		strconv.Itoa(filter.Page), strconv.Itoa(filter.PageSize))

	return cache.Fetch(ctx, s.cache, s.log, key, func(ctx context.Context) (*models.LeadPage, error) {
		page, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list leads: %w", err)
		}
		return page, nil
	})
}

// checkDuplicate looks for another lead with the same phone or email.
func (s *leadService) checkDuplicate(ctx context.Context, input models.LeadInput, excludeID *uuid.UUID) error {
	phone := models.NormalizePhone(input.Phone)
	email := models.NormalizeEmail(input.Email)

	existing, err := s.repo.FindDuplicate(ctx, phone, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate leads: %w", err)
	}
	if existing == nil {
		return nil
	}

	field := "email"
	if phone != "" && models.NormalizePhone(existing.Phone) == phone {
		field = "phone"
	}
	s.log.Info("Duplicate lead rejected", map[string]interface{}{
		"existing_lead_id": existing.ID.String(),
		"field":            field,
	})
	return &DuplicateLeadError{Existing: *existing, Field: field}
}

func (s *leadService) Create(ctx context.Context, input models.LeadInput, agentID *uuid.UUID) (*models.Lead, error) {
	if err := s.checkDuplicate(ctx, input, nil); err != nil {
		return nil, err
	}

	lead := &models.Lead{
		Name:       input.Name,
		Email:      models.NormalizeEmail(input.Email),
		Phone:      input.Phone,
		Source:     input.Source,
		Notes:      input.Notes,
		Budget:     input.Budget,
		PropertyID: input.PropertyID,
		AgentID:    agentID,
		Status:     models.LeadStatusNew,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.log.Info("Lead created", map[string]interface{}{"lead_id": lead.ID.String()})
	invalidate(ctx, s.cache, s.log, cache.PrefixLeads)
	return lead, nil
}

func (s *leadService) Update(ctx context.Context, id uuid.UUID, input models.LeadInput) (*models.Lead, error) {
	if err := s.checkDuplicate(ctx, input, &id); err != nil {
		return nil, err
	}

	lead := &models.Lead{
		ID:         id,
		Name:       input.Name,
		Email:      models.NormalizeEmail(input.Email),
		Phone:      input.Phone,
		Source:     input.Source,
		Notes:      input.Notes,
		Budget:     input.Budget,
		PropertyID: input.PropertyID,
	}
	found, err := s.repo.Update(ctx, lead)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	if !found {
		return nil, ErrLeadNotFound
	}

	invalidate(ctx, s.cache, s.log, cache.PrefixLeads)
	return lead, nil
}

func (s *leadService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLeadStatus, status)
	}

	lead, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}

	s.log.Info("Lead moved", map[string]interface{}{
		"lead_id": id.String(),
		"status":  status,
	})
	invalidate(ctx, s.cache, s.log, cache.PrefixLeads)
	return lead, nil
}

func (s *leadService) Reassign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (*models.Lead, error) {
	lead, err := s.repo.Reassign(ctx, id, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reassign lead: %w", err)
	}
	if lead == nil {
		return nil, ErrLeadNotFound
	}

	fields := map[string]interface{}{"lead_id": id.String()}
	if agentID != nil {
		fields["agent_id"] = agentID.String()
	}
	s.log.Info("Lead reassigned", fields)
	invalidate(ctx, s.cache, s.log, cache.PrefixLeads)
	return lead, nil
}
