package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerage/internal/database"
	"github.com/stwalsh4118/brokerage/internal/models"
)

// ChangeRequestRepository defines the interface for change request data access.
type ChangeRequestRepository interface {
	// Create inserts cr as pending and fills in its ID, status and CreatedAt.
	Create(ctx context.Context, cr *models.ChangeRequest) error

	// FindByID returns nil, nil if the change request does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error)

	// ListByOwner returns the owner's change requests, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChangeRequest, error)

	// ListByStatus returns change requests in status, oldest first.
	ListByStatus(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error)

	// Approve marks the request approved and writes updated to the property
	// in one transaction. It fails with ErrAlreadyReviewed when the request is
	// not pending and ErrVersionConflict when the property is no longer at
	// baseVersion; neither write happens in those cases.
	Approve(ctx context.Context, id, reviewerID uuid.UUID, updated *models.Property, baseVersion int) error

	// Reject marks a pending request rejected. It fails with
	// ErrAlreadyReviewed when the request is not pending.
	Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error
}

type changeRequestRepository struct {
	db *database.Database
}

// NewChangeRequestRepository creates a new instance of ChangeRequestRepository.
func NewChangeRequestRepository(db *database.Database) ChangeRequestRepository {
	return &changeRequestRepository{db: db}
}

const changeRequestColumns = `
	cr.id,
	cr.property_id,
	cr.owner_id,
	cr.changed_fields,
	cr.base_version,
	cr.status,
	cr.reviewer_id,
	cr.rejection_reason,
	cr.created_at,
	cr.reviewed_at,
	COALESCE(p.title, '')`

const changeRequestFrom = `
	FROM property_change_requests cr
	LEFT JOIN properties p ON p.id = cr.property_id`

func scanChangeRequest(row pgx.Row) (*models.ChangeRequest, error) {
	var cr models.ChangeRequest
	err := row.Scan(
		&cr.ID,
		&cr.PropertyID,
		&cr.OwnerID,
		&cr.ChangedFields,
		&cr.BaseVersion,
		&cr.Status,
		&cr.ReviewerID,
		&cr.RejectionReason,
		&cr.CreatedAt,
		&cr.ReviewedAt,
		&cr.PropertyTitle,
	)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

func (r *changeRequestRepository) Create(ctx context.Context, cr *models.ChangeRequest) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO property_change_requests (property_id, owner_id, changed_fields, base_version, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING id, status, created_at
	`, cr.PropertyID, cr.OwnerID, cr.ChangedFields, cr.BaseVersion).Scan(&cr.ID, &cr.Status, &cr.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert change request for property %s: %w", cr.PropertyID, err)
	}
	return nil
}

func (r *changeRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ChangeRequest, error) {
	query := `SELECT ` + changeRequestColumns + changeRequestFrom + ` WHERE cr.id = $1`

	cr, err := scanChangeRequest(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query change request %s: %w", id, err)
	}
	return cr, nil
}

func (r *changeRequestRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ChangeRequest, error) {
	return r.list(ctx, ` WHERE cr.owner_id = $1 ORDER BY cr.created_at DESC`, ownerID)
}

func (r *changeRequestRepository) ListByStatus(ctx context.Context, status models.ChangeRequestStatus) ([]models.ChangeRequest, error) {
	return r.list(ctx, ` WHERE cr.status = $1 ORDER BY cr.created_at ASC`, status)
}

func (r *changeRequestRepository) list(ctx context.Context, tail string, arg any) ([]models.ChangeRequest, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+changeRequestColumns+changeRequestFrom+tail, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list change requests: %w", err)
	}
	defer rows.Close()

	result := []models.ChangeRequest{}
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan change request row: %w", err)
		}
		result = append(result, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change request rows: %w", err)
	}
	return result, nil
}

func (r *changeRequestRepository) Approve(ctx context.Context, id, reviewerID uuid.UUID, updated *models.Property, baseVersion int) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := markReviewed(ctx, tx, id, reviewerID, models.ChangeRequestApproved, nil); err != nil {
			return err
		}
		return updatePropertyContent(ctx, tx, updated, baseVersion)
	})
}

func (r *changeRequestRepository) Reject(ctx context.Context, id, reviewerID uuid.UUID, reason string) error {
	return markReviewed(ctx, r.db.Pool, id, reviewerID, models.ChangeRequestRejected, &reason)
}

func markReviewed(ctx context.Context, q querier, id, reviewerID uuid.UUID, status models.ChangeRequestStatus, reason *string) error {
	tag, err := q.Exec(ctx, `
		UPDATE property_change_requests
		SET status = $3, reviewer_id = $2, rejection_reason = $4, reviewed_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, reviewerID, status, reason)
	if err != nil {
		return fmt.Errorf("failed to mark change request %s %s: %w", id, status, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyReviewed
	}
	return nil
}
