package models

import (
	"time"

	"github.com/google/uuid"
)

// PropertyStatus is the moderation state of a listing.
type PropertyStatus string

const (
	PropertyStatusPending  PropertyStatus = "pending"
	PropertyStatusApproved PropertyStatus = "approved"
	PropertyStatusRejected PropertyStatus = "rejected"
)

// Property is a rental or sale listing owned by a property owner.
// JSON names double as the field names used in change requests, so they must
// stay in sync with the changeset field table.
//
// Bathrooms and Area are decimal columns carried as text; an empty string
// means the value was never provided.
type Property struct {
	CreatedAt              time.Time         `json:"createdAt"`
	UpdatedAt              time.Time         `json:"updatedAt"`
	ColonyID               *string           `json:"colonyId"`
	CondominiumID          *string           `json:"condominiumId"`
	UnitNumber             *string           `json:"unitNumber"`
	GoogleMapsURL          *string           `json:"googleMapsUrl"`
	CoverImageIndex        *int              `json:"coverImageIndex"`
	IncludedServices       *IncludedServices `json:"includedServices"`
	AccessInfo             *AccessInfo       `json:"accessInfo"`
	RejectionReason        *string           `json:"rejectionReason,omitempty"`
	Title                  string            `json:"title"`
	Description            string            `json:"description"`
	PropertyType           string            `json:"propertyType"`
	Location               string            `json:"location"`
	Bathrooms              string            `json:"bathrooms"`
	Area                   string            `json:"area"`
	Status                 PropertyStatus    `json:"status"`
	Amenities              []string          `json:"amenities"`
	AcceptedLeaseDurations []string          `json:"acceptedLeaseDurations"`
	PrimaryImages          []string          `json:"primaryImages"`
	SecondaryImages        []string          `json:"secondaryImages"`
	Images                 []string          `json:"images"`
	Price                  float64           `json:"price"`
	SalePrice              float64           `json:"salePrice"`
	Bedrooms               int               `json:"bedrooms"`
	Version                int               `json:"version"`
	ID                     uuid.UUID         `json:"id"`
	OwnerID                uuid.UUID         `json:"ownerId"`
	PetFriendly            bool              `json:"petFriendly"`
	Published              bool              `json:"published"`
	Featured               bool              `json:"featured"`
}

// IsForRent reports whether the listing carries a rent price.
func (p *Property) IsForRent() bool {
	return p.Price > 0
}

// IsForSale reports whether the listing carries a sale price.
func (p *Property) IsForSale() bool {
	return p.SalePrice > 0
}

// PropertyFilter narrows property list queries.
// Zero values mean "no filter"; Page is 1-based.
type PropertyFilter struct {
	OwnerID  *uuid.UUID
	Status   PropertyStatus
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// PropertyPage is one page of a property list query.
type PropertyPage struct {
	Properties []Property `json:"properties"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
}
