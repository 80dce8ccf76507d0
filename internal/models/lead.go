package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// LeadStatus is the kanban column a lead sits in.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusViewing   LeadStatus = "viewing"
	LeadStatusOffer     LeadStatus = "offer"
	LeadStatusWon       LeadStatus = "won"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadStatuses lists the kanban columns in board order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusViewing,
	LeadStatusOffer,
	LeadStatusWon,
	LeadStatusLost,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Lead is a prospective tenant or buyer tracked in the CRM.
type Lead struct {
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	AgentID    *uuid.UUID `json:"agentId,omitempty"`
	PropertyID *uuid.UUID `json:"propertyId,omitempty"`
	Budget     *float64   `json:"budget,omitempty"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Source     string     `json:"source"`
	Notes      string     `json:"notes"`
	Status     LeadStatus `json:"status"`
	ID         uuid.UUID  `json:"id"`
}

// LeadFilter narrows lead list queries.
type LeadFilter struct {
	AgentID  *uuid.UUID
	Status   LeadStatus
	Search   string
	Sort     string
	Page     int
	PageSize int
}

// LeadPage is one page of a lead list query.
type LeadPage struct {
	Leads    []Lead `json:"leads"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

// NormalizePhone keeps only digits, dropping a leading country code of 52
// when the remainder is a 10 digit national number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "52") {
		return digits[2:]
	}
	return digits
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LeadInput is the editable part of a lead.
type LeadInput struct {
	PropertyID *uuid.UUID `json:"propertyId"`
	Budget     *float64   `json:"budget" binding:"omitempty,gte=0"`
	Name       string     `json:"name" binding:"required,max=200"`
	Email      string     `json:"email" binding:"required_without=Phone,omitempty,email"`
	Phone      string     `json:"phone" binding:"required_without=Email,omitempty,min=7,max=20"`
	Source     string     `json:"source" binding:"max=100"`
	Notes      string     `json:"notes" binding:"max=5000"`
}
