package models

import "github.com/google/uuid"

// Colony is a neighborhood a property can belong to.
type Colony struct {
	Name string    `json:"name"`
	City string    `json:"city"`
	ID   uuid.UUID `json:"id"`
}

// Condominium is a gated development inside a colony.
type Condominium struct {
	ColonyID *uuid.UUID `json:"colonyId,omitempty"`
	Name     string     `json:"name"`
	ID       uuid.UUID  `json:"id"`
}

// Role is what an authenticated user may do.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleAdmin         Role = "admin"
	RoleAgent         Role = "agent"
	RoleExternalAgent Role = "external_agent"
)

// User is the caller identified by a verified bearer token.
type User struct {
	Name string    `json:"name"`
	Role Role      `json:"role"`
	ID   uuid.UUID `json:"id"`
}
