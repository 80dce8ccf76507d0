package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerage/internal/database"
	"github.com/stwalsh4118/brokerage/internal/models"
)

// LeadRepository defines data access for CRM leads.
type LeadRepository interface {
	List(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error)

	// FindByID returns nil, nil when the lead does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error)

	// FindDuplicate returns another lead sharing the normalized phone or email.
	// Empty inputs never match. excludeID, when set, is skipped so a lead is
	// not its own duplicate. Returns nil, nil when there is none.
	FindDuplicate(ctx context.Context, phone, email string, excludeID *uuid.UUID) (*models.Lead, error)

	Create(ctx context.Context, lead *models.Lead) error

	// Update writes the contact details of lead and reports whether it exists.
	Update(ctx context.Context, lead *models.Lead) (bool, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error)
	Reassign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (*models.Lead, error)
}

type leadRepository struct {
	db *database.Database
}

// NewLeadRepository creates a new instance of LeadRepository.
func NewLeadRepository(db *database.Database) LeadRepository {
	return &leadRepository{db: db}
}

const leadColumns = `id, name, email, phone, source, notes, status, budget::float8, agent_id, property_id, created_at, updated_at`

func scanLead(row pgx.Row) (*models.Lead, error) {
	var l models.Lead
	if err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Source,
		&l.Notes,
		&l.Status,
		&l.Budget,
		&l.AgentID,
		&l.PropertyID,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

var leadSorts = map[string]string{
	"":        "updated_at DESC",
	"updated": "updated_at DESC",
	"newest":  "created_at DESC",
	"oldest":  "created_at ASC",
	"name":    "name ASC",
	"budget":  "budget DESC NULLS LAST",
}

func (r *leadRepository) List(ctx context.Context, filter models.LeadFilter) (*models.LeadPage, error) {
	var (
		conds []string
		args  []any
	)
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		conds = append(conds, "agent_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(name ILIKE $"+n+" OR email ILIKE $"+n+" OR phone ILIKE $"+n+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	order, ok := leadSorts[filter.Sort]
	if !ok {
		order = leadSorts[""]
	}
	limit, offset, page, size := pageBounds(filter.Page, filter.PageSize)
	args = append(args, limit, offset)
	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		` ORDER BY ` + order +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	result := &models.LeadPage{Leads: []models.Lead{}, Total: total, Page: page, PageSize: size}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		result.Leads = append(result.Leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lead rows: %w", err)
	}
	return result, nil
}

func (r *leadRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	l, err := scanLead(r.db.Pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query lead %s: %w", id, err)
	}
	return l, nil
}

// normalizedPhone mirrors models.NormalizePhone in SQL.
const normalizedPhone = `(CASE
	WHEN regexp_replace(phone, '\D', '', 'g') ~ '^52[0-9]{10}$'
	THEN substr(regexp_replace(phone, '\D', '', 'g'), 3)
	ELSE regexp_replace(phone, '\D', '', 'g')
END)`

// FindDuplicate compares against the stored values normalized the same way
// models.NormalizePhone and models.NormalizeEmail do.
func (r *leadRepository) FindDuplicate(ctx context.Context, phone, email string, excludeID *uuid.UUID) (*models.Lead, error) {
	if phone == "" && email == "" {
		return nil, nil
	}

	l, err := scanLead(r.db.Pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE ($3::uuid IS NULL OR id <> $3)
		AND (
			($1 <> '' AND `+normalizedPhone+` = $1)
			OR ($2 <> '' AND lower(trim(email)) = $2)
		)
		ORDER BY created_at ASC
		LIMIT 1
	`, phone, email, excludeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query duplicate lead: %w", err)
	}
	return l, nil
}

func (r *leadRepository) Create(ctx context.Context, lead *models.Lead) error {
	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO leads (name, email, phone, source, notes, status, budget, agent_id, property_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Notes,
		lead.Status,
		lead.Budget,
		lead.AgentID,
		lead.PropertyID,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

func (r *leadRepository) Update(ctx context.Context, lead *models.Lead) (bool, error) {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE leads
		SET name = $2, email = $3, phone = $4, source = $5, notes = $6, budget = $7, property_id = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING status, agent_id, created_at, updated_at
	`,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Source,
		lead.Notes,
		lead.Budget,
		lead.PropertyID,
	).Scan(&lead.Status, &lead.AgentID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update lead %s: %w", lead.ID, err)
	}
	return true, nil
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.LeadStatus) (*models.Lead, error) {
	return r.updateOne(ctx, `UPDATE leads SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+leadColumns, id, status)
}

func (r *leadRepository) Reassign(ctx context.Context, id uuid.UUID, agentID *uuid.UUID) (*models.Lead, error) {
	return r.updateOne(ctx, `UPDATE leads SET agent_id = $2, updated_at = NOW() WHERE id = $1 RETURNING `+leadColumns, id, agentID)
}

// updateOne runs a single-row update returning the lead, or nil, nil when no
// row matched.
func (r *leadRepository) updateOne(ctx context.Context, query string, id uuid.UUID, value any) (*models.Lead, error) {
	l, err := scanLead(r.db.Pool.QueryRow(ctx, query, id, value))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update lead %s: %w", id, err)
	}
	return l, nil
}
