package models

import (
	"time"

	"github.com/google/uuid"
)

// ChangeRequestStatus is the review state of a change request.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// FieldChange is the before and after value of one property field.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// ChangedFields maps a property field name to its change.
type ChangedFields map[string]FieldChange

// ChangeRequest is an owner's proposed edit awaiting admin review.
type ChangeRequest struct {
	CreatedAt       time.Time           `json:"createdAt"`
	ReviewedAt      *time.Time          `json:"reviewedAt,omitempty"`
	ReviewerID      *uuid.UUID          `json:"reviewerId,omitempty"`
	RejectionReason *string             `json:"rejectionReason,omitempty"`
	ChangedFields   ChangedFields       `json:"changedFields"`
	PropertyTitle   string              `json:"propertyTitle,omitempty"`
	Status          ChangeRequestStatus `json:"status"`
	BaseVersion     int                 `json:"baseVersion"`
	ID              uuid.UUID           `json:"id"`
	PropertyID      uuid.UUID           `json:"propertyId"`
	OwnerID         uuid.UUID           `json:"ownerId"`
}
