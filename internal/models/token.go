package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind distinguishes the two kinds of shareable links.
type TokenKind string

const (
	TokenKindOffer      TokenKind = "offer"
	TokenKindRentalForm TokenKind = "rental_form"
)

// AccessToken grants a person without an account one-time access to a form
// about a property.
type AccessToken struct {
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
	LeadID     *uuid.UUID `json:"leadId,omitempty"`
	Token      string     `json:"token"`
	Kind       TokenKind  `json:"kind"`
	PropertyID uuid.UUID  `json:"propertyId"`
	CreatedBy  uuid.UUID  `json:"createdBy"`
}

// Expired reports whether the token is past its expiry at now.
func (t *AccessToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Used reports whether the token was already redeemed.
func (t *AccessToken) Used() bool {
	return t.UsedAt != nil
}

// PropertySummary is the public view of a property shown on shared forms.
type PropertySummary struct {
	CoverImage   string    `json:"coverImage,omitempty"`
	Title        string    `json:"title"`
	Location     string    `json:"location"`
	PropertyType string    `json:"propertyType"`
	Price        float64   `json:"price"`
	SalePrice    float64   `json:"salePrice"`
	ID           uuid.UUID `json:"id"`
}

// SummaryOf builds the public summary of p.
func SummaryOf(p *Property) PropertySummary {
	s := PropertySummary{
		ID:           p.ID,
		Title:        p.Title,
		Location:     p.Location,
		PropertyType: p.PropertyType,
		Price:        p.Price,
		SalePrice:    p.SalePrice,
	}
	idx := 0
	if p.CoverImageIndex != nil {
		idx = *p.CoverImageIndex
	}
	if idx >= 0 && idx < len(p.PrimaryImages) {
		s.CoverImage = p.PrimaryImages[idx]
	}
	return s
}

// TokenValidation is what a public form receives after validating its link.
type TokenValidation struct {
	Property  PropertySummary `json:"property"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Kind      TokenKind       `json:"kind"`
}

// OfferStatus is the negotiation state of an external offer.
type OfferStatus string

const (
	OfferStatusSubmitted   OfferStatus = "submitted"
	OfferStatusUnderReview OfferStatus = "under_review"
	OfferStatusAccepted    OfferStatus = "accepted"
	OfferStatusRejected    OfferStatus = "rejected"
	OfferStatusWithdrawn   OfferStatus = "withdrawn"
)

// ExternalOffer is an offer a client made through an agency offer link.
type ExternalOffer struct {
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	MoveInDate    *time.Time  `json:"moveInDate,omitempty"`
	Token         string      `json:"token"`
	ClientName    string      `json:"clientName"`
	ClientEmail   string      `json:"clientEmail"`
	ClientPhone   string      `json:"clientPhone"`
	LeaseDuration string      `json:"leaseDuration"`
	Notes         string      `json:"notes"`
	Status        OfferStatus `json:"status"`
	OfferedRent   float64     `json:"offeredRent"`
	ID            uuid.UUID   `json:"id"`
	PropertyID    uuid.UUID   `json:"propertyId"`
	AgentID       uuid.UUID   `json:"agentId"`
}

// RentalApplication is the payload of the public multi-step rental form.
type RentalApplication struct {
	Personal    ApplicantPersonal   `json:"personal"`
	Employment  ApplicantEmployment `json:"employment"`
	Guarantor   *ApplicantGuarantor `json:"guarantor,omitempty"`
	References  []ApplicantRef      `json:"references" binding:"required,min=1,max=3,dive"`
	Occupants   int                 `json:"occupants" binding:"required,gte=1,lte=20"`
	HasPets     bool                `json:"hasPets"`
	AcceptTerms bool                `json:"acceptTerms" binding:"required"`
}

// ApplicantPersonal is step one of the rental form.
type ApplicantPersonal struct {
	FullName    string `json:"fullName" binding:"required,max=200"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required,min=7,max=20"`
	Nationality string `json:"nationality"`
	IDNumber    string `json:"idNumber" binding:"required"`
}

// ApplicantEmployment is step two of the rental form.
type ApplicantEmployment struct {
	Employer      string  `json:"employer" binding:"required"`
	Position      string  `json:"position"`
	MonthlyIncome float64 `json:"monthlyIncome" binding:"required,gt=0"`
	YearsEmployed float64 `json:"yearsEmployed" binding:"gte=0"`
}

// ApplicantRef is a personal reference.
type ApplicantRef struct {
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Relationship string `json:"relationship"`
}

// ApplicantGuarantor is the optional guarantor step.
type ApplicantGuarantor struct {
	FullName     string `json:"fullName" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	PropertyDeed string `json:"propertyDeed"`
}

// StoredRentalApplication is a submitted rental application.
type StoredRentalApplication struct {
	CreatedAt   time.Time         `json:"createdAt"`
	LeadID      *uuid.UUID        `json:"leadId,omitempty"`
	Token       string            `json:"token"`
	Application RentalApplication `json:"application"`
	ID          uuid.UUID         `json:"id"`
	PropertyID  uuid.UUID         `json:"propertyId"`
}

// OfferInput is what a client fills in on an offer link.
type OfferInput struct {
	MoveInDate    *time.Time `json:"moveInDate"`
	ClientName    string     `json:"clientName" binding:"required,max=200"`
	ClientEmail   string     `json:"clientEmail" binding:"omitempty,email"`
	ClientPhone   string     `json:"clientPhone" binding:"omitempty,min=7,max=20"`
	LeaseDuration string     `json:"leaseDuration" binding:"max=50"`
	Notes         string     `json:"notes" binding:"max=2000"`
	OfferedRent   float64    `json:"offeredRent" binding:"required,gt=0"`
}

// OfferPatch is a partial update of an offer by its agent. Nil fields are
// left as they are.
type OfferPatch struct {
	MoveInDate    *time.Time   `json:"moveInDate"`
	OfferedRent   *float64     `json:"offeredRent" binding:"omitempty,gt=0"`
	LeaseDuration *string      `json:"leaseDuration" binding:"omitempty,max=50"`
	Notes         *string      `json:"notes" binding:"omitempty,max=2000"`
	Status        *OfferStatus `json:"status" binding:"omitempty,oneof=submitted under_review accepted rejected withdrawn"`
}

// ApplyTo copies the set fields of the patch onto o.
func (p OfferPatch) ApplyTo(o *ExternalOffer) {
	if p.MoveInDate != nil {
		o.MoveInDate = p.MoveInDate
	}
	if p.OfferedRent != nil {
		o.OfferedRent = *p.OfferedRent
	}
	if p.LeaseDuration != nil {
		o.LeaseDuration = *p.LeaseDuration
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
}
