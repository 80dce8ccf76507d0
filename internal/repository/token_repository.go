package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerage/internal/database"
	"github.com/stwalsh4118/brokerage/internal/models"
)

// TokenRepository defines data access for shareable links and the forms
// submitted through them.
type TokenRepository interface {
	Create(ctx context.Context, token *models.AccessToken) error

	// Find returns nil, nil when the token does not exist.
	Find(ctx context.Context, token string) (*models.AccessToken, error)

	// ListByCreator returns the links created by a user, newest first.
	ListByCreator(ctx context.Context, createdBy uuid.UUID, kind models.TokenKind) ([]models.AccessToken, error)

	// DeleteExpiredBefore removes links that expired before cutoff.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// SubmitRentalApplication stores app and consumes its token in one
	// transaction. It fails with ErrTokenUnavailable when the token was used
	// or expired at now.
	SubmitRentalApplication(ctx context.Context, app *models.StoredRentalApplication, now time.Time) error

	// SubmitOffer stores offer and consumes its token the same way.
	SubmitOffer(ctx context.Context, offer *models.ExternalOffer, now time.Time) error

	// FindOffer returns nil, nil when the offer does not exist.
	FindOffer(ctx context.Context, id uuid.UUID) (*models.ExternalOffer, error)

	// UpdateOffer writes the negotiable fields of offer.
	UpdateOffer(ctx context.Context, offer *models.ExternalOffer) error
}

type tokenRepository struct {
	db *database.Database
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *database.Database) TokenRepository {
	return &tokenRepository{db: db}
}

const tokenColumns = `token, kind, property_id, lead_id, created_by, expires_at, used_at, created_at`

func scanToken(row pgx.Row) (*models.AccessToken, error) {
	var t models.AccessToken
	if err := row.Scan(
		&t.Token,
		&t.Kind,
		&t.PropertyID,
		&t.LeadID,
		&t.CreatedBy,
		&t.ExpiresAt,
		&t.UsedAt,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tokenRepository) Create(ctx context.Context, token *models.AccessToken) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO access_tokens (token, kind, property_id, lead_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, token.Token, token.Kind, token.PropertyID, token.LeadID, token.CreatedBy, token.ExpiresAt).Scan(&token.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert %s token: %w", token.Kind, err)
	}
	return nil
}

func (r *tokenRepository) Find(ctx context.Context, token string) (*models.AccessToken, error) {
	t, err := scanToken(r.db.Pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM access_tokens WHERE token = $1`, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query token: %w", err)
	}
	return t, nil
}

func (r *tokenRepository) ListByCreator(ctx context.Context, createdBy uuid.UUID, kind models.TokenKind) ([]models.AccessToken, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+tokenColumns+`
		FROM access_tokens
		WHERE created_by = $1 AND kind = $2
		ORDER BY created_at DESC
	`, createdBy, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens for %s: %w", createdBy, err)
	}
	defer rows.Close()

	result := []models.AccessToken{}
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating token rows: %w", err)
	}
	return result, nil
}

func (r *tokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM access_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// consumeToken marks the token used if it is still redeemable at now.
func consumeToken(ctx context.Context, q querier, token string, kind models.TokenKind, now time.Time) error {
	tag, err := q.Exec(ctx, `
		UPDATE access_tokens
		SET used_at = $3
		WHERE token = $1 AND kind = $2 AND used_at IS NULL AND expires_at > $3
	`, token, kind, now)
	if err != nil {
		return fmt.Errorf("failed to consume token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTokenUnavailable
	}
	return nil
}

func (r *tokenRepository) SubmitRentalApplication(ctx context.Context, app *models.StoredRentalApplication, now time.Time) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := consumeToken(ctx, tx, app.Token, models.TokenKindRentalForm, now); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO rental_applications (token, property_id, lead_id, application, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, app.Token, app.PropertyID, app.LeadID, app.Application, now).Scan(&app.ID)
		if err != nil {
			return fmt.Errorf("failed to insert rental application: %w", err)
		}
		app.CreatedAt = now
		return nil
	})
}

func (r *tokenRepository) SubmitOffer(ctx context.Context, offer *models.ExternalOffer, now time.Time) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if err := consumeToken(ctx, tx, offer.Token, models.TokenKindOffer, now); err != nil {
			return err
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO external_offers (
				token, property_id, agent_id, client_name, client_email, client_phone,
				offered_rent, lease_duration, move_in_date, notes, status, created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
			RETURNING id
		`,
			offer.Token,
			offer.PropertyID,
			offer.AgentID,
			offer.ClientName,
			offer.ClientEmail,
			offer.ClientPhone,
			offer.OfferedRent,
			offer.LeaseDuration,
			offer.MoveInDate,
			offer.Notes,
			offer.Status,
			now,
		).Scan(&offer.ID)
		if err != nil {
			return fmt.Errorf("failed to insert offer: %w", err)
		}
		offer.CreatedAt = now
		offer.UpdatedAt = now
		return nil
	})
}

func (r *tokenRepository) FindOffer(ctx context.Context, id uuid.UUID) (*models.ExternalOffer, error) {
	var o models.ExternalOffer
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, token, property_id, agent_id, client_name, client_email, client_phone,
			offered_rent::float8, lease_duration, move_in_date, notes, status, created_at, updated_at
		FROM external_offers
		WHERE id = $1
	`, id).Scan(
		&o.ID,
		&o.Token,
		&o.PropertyID,
		&o.AgentID,
		&o.ClientName,
		&o.ClientEmail,
		&o.ClientPhone,
		&o.OfferedRent,
		&o.LeaseDuration,
		&o.MoveInDate,
		&o.Notes,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query offer %s: %w", id, err)
	}
	return &o, nil
}

func (r *tokenRepository) UpdateOffer(ctx context.Context, offer *models.ExternalOffer) error {
	err := r.db.Pool.QueryRow(ctx, `
		UPDATE external_offers
		SET offered_rent = $2, lease_duration = $3, move_in_date = $4, notes = $5, status = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, offer.ID, offer.OfferedRent, offer.LeaseDuration, offer.MoveInDate, offer.Notes, offer.Status).Scan(&offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update offer %s: %w", offer.ID, err)
	}
	return nil
}
