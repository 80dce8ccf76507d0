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

// PropertyRepository defines the interface for property data access operations.
type PropertyRepository interface {
	// FindByID returns the property with id.
	// Returns nil, nil if no property is found (not an error).
	FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error)

	// List returns one page of properties matching filter.
	List(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error)

	// SetStatus moves every listed property to status and returns how many
	// rows changed. reason is stored for rejections and cleared otherwise.
	SetStatus(ctx context.Context, ids []uuid.UUID, status models.PropertyStatus, reason *string) (int64, error)

	// SetPublished and SetFeatured toggle storefront flags. They report
	// false when the property does not exist.
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (bool, error)
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (bool, error)

	// Delete permanently removes the property and reports whether it existed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type propertyRepository struct {
	db *database.Database
}

// NewPropertyRepository creates a new instance of PropertyRepository.
func NewPropertyRepository(db *database.Database) PropertyRepository {
	return &propertyRepository{db: db}
}

const propertyColumns = `
	id,
	owner_id,
	title,
	description,
	property_type,
	price::float8,
	sale_price::float8,
	location,
	colony_id::text,
	condominium_id::text,
	unit_number,
	bedrooms,
	COALESCE(bathrooms::text, ''),
	COALESCE(area::text, ''),
	pet_friendly,
	google_maps_url,
	amenities,
	accepted_lease_durations,
	included_services,
	access_info,
	primary_images,
	secondary_images,
	images,
	cover_image_index,
	status,
	rejection_reason,
	published,
	featured,
	version,
	created_at,
	updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Title,
		&p.Description,
		&p.PropertyType,
		&p.Price,
		&p.SalePrice,
		&p.Location,
		&p.ColonyID,
		&p.CondominiumID,
		&p.UnitNumber,
		&p.Bedrooms,
		&p.Bathrooms,
		&p.Area,
		&p.PetFriendly,
		&p.GoogleMapsURL,
		&p.Amenities,
		&p.AcceptedLeaseDurations,
		&p.IncludedServices,
		&p.AccessInfo,
		&p.PrimaryImages,
		&p.SecondaryImages,
		&p.Images,
		&p.CoverImageIndex,
		&p.Status,
		&p.RejectionReason,
		&p.Published,
		&p.Featured,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByID queries a single property by primary key.
func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id = $1`

	p, err := scanProperty(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property %s: %w", id, err)
	}
	return p, nil
}

var propertySorts = map[string]string{
	"":           "created_at DESC",
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"price_asc":  "price ASC, created_at DESC",
	"price_desc": "price DESC, created_at DESC",
	"title":      "title ASC",
	"updated":    "updated_at DESC",
}

// List builds a filtered, paginated query. Unknown sort keys fall back to
// newest first.
func (r *propertyRepository) List(ctx context.Context, filter models.PropertyFilter) (*models.PropertyPage, error) {
	var (
		conds []string
		args  []any
	)
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		conds = append(conds, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := strconv.Itoa(len(args))
		conds = append(conds, "(title ILIKE $"+n+" OR location ILIKE $"+n+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}

	order, ok := propertySorts[filter.Sort]
	if !ok {
		order = propertySorts[""]
	}
	limit, offset, page, size := pageBounds(filter.Page, filter.PageSize)
	args = append(args, limit, offset)
	query := `SELECT ` + propertyColumns + ` FROM properties` + where +
		` ORDER BY ` + order +
		` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	result := &models.PropertyPage{Properties: []models.Property{}, Total: total, Page: page, PageSize: size}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property row: %w", err)
		}
		result.Properties = append(result.Properties, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property rows: %w", err)
	}
	return result, nil
}

// SetStatus updates the moderation status of every id in one statement.
func (r *propertyRepository) SetStatus(ctx context.Context, ids []uuid.UUID, status models.PropertyStatus, reason *string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	if status != models.PropertyStatusRejected {
		reason = nil
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE properties
		SET status = $2, rejection_reason = $3, updated_at = NOW()
		WHERE id = ANY($1)
	`, ids, status, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to set status %s on %d properties: %w", status, len(ids), err)
	}
	return tag.RowsAffected(), nil
}

func (r *propertyRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) (bool, error) {
	return r.setFlag(ctx, "published", id, published)
}

func (r *propertyRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (bool, error) {
	return r.setFlag(ctx, "featured", id, featured)
}

// setFlag updates one boolean column. column is never user input.
func (r *propertyRepository) setFlag(ctx context.Context, column string, id uuid.UUID, value bool) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE properties SET `+column+` = $2, updated_at = NOW() WHERE id = $1`, id, value)
	if err != nil {
		return false, fmt.Errorf("failed to set %s on property %s: %w", column, id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the property; change requests and links cascade.
func (r *propertyRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete property %s: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

// updatePropertyContent writes every owner-editable column of p when the row
// is still at expectedVersion, bumping the version. It sets p.Version and
// p.UpdatedAt from the stored row.
func updatePropertyContent(ctx context.Context, q querier, p *models.Property, expectedVersion int) error {
	err := q.QueryRow(ctx, `
		UPDATE properties SET
			title = $3,
			description = $4,
			property_type = $5,
			price = $6,
			sale_price = $7,
			location = $8,
			colony_id = $9::uuid,
			condominium_id = $10::uuid,
			unit_number = $11,
			bedrooms = $12,
			bathrooms = NULLIF($13, '')::numeric,
			area = NULLIF($14, '')::numeric,
			pet_friendly = $15,
			google_maps_url = $16,
			amenities = $17,
			accepted_lease_durations = $18,
			included_services = $19,
			access_info = $20,
			primary_images = $21,
			secondary_images = $22,
			images = $23,
			cover_image_index = $24,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING version, updated_at
	`,
		p.ID,
		expectedVersion,
		p.Title,
		p.Description,
		p.PropertyType,
		p.Price,
		p.SalePrice,
		p.Location,
		p.ColonyID,
		p.CondominiumID,
		p.UnitNumber,
		p.Bedrooms,
		p.Bathrooms,
		p.Area,
		p.PetFriendly,
		p.GoogleMapsURL,
		nonNil(p.Amenities),
		nonNil(p.AcceptedLeaseDurations),
		p.IncludedServices,
		p.AccessInfo,
		nonNil(p.PrimaryImages),
		nonNil(p.SecondaryImages),
		nonNil(p.Images),
		p.CoverImageIndex,
	).Scan(&p.Version, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to update property %s: %w", p.ID, err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
