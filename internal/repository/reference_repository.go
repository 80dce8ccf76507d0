package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/brokerage/internal/database"
	"github.com/stwalsh4118/brokerage/internal/models"
)

// ReferenceRepository reads the approved colonies and condominiums owners
// pick from.
type ReferenceRepository interface {
	ApprovedColonies(ctx context.Context) ([]models.Colony, error)
	ApprovedCondominiums(ctx context.Context) ([]models.Condominium, error)
}

type referenceRepository struct {
	db *database.Database
}

// NewReferenceRepository creates a new instance of ReferenceRepository.
func NewReferenceRepository(db *database.Database) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) ApprovedColonies(ctx context.Context) ([]models.Colony, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, city
		FROM colonies
		WHERE approved
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query colonies: %w", err)
	}
	colonies, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Colony, error) {
		var c models.Colony
		err := row.Scan(&c.ID, &c.Name, &c.City)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan colonies: %w", err)
	}
	return colonies, nil
}

func (r *referenceRepository) ApprovedCondominiums(ctx context.Context) ([]models.Condominium, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, colony_id, name
		FROM condominiums
		WHERE approved
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query condominiums: %w", err)
	}
	condos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Condominium, error) {
		var c models.Condominium
		err := row.Scan(&c.ID, &c.ColonyID, &c.Name)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan condominiums: %w", err)
	}
	return condos, nil
}
