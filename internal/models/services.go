package models

import (
	"fmt"
	"time"
)

// BillingCycle is how often a utility is billed.
type BillingCycle string

const (
	BillingMonthly   BillingCycle = "monthly"
	BillingBimonthly BillingCycle = "bimonthly"
	BillingQuarterly BillingCycle = "quarterly"
	BillingAnnual    BillingCycle = "annual"
)

// UtilityService describes one basic utility and whether rent covers it.
type UtilityService struct {
	Cost         *float64     `json:"cost,omitempty"`
	Provider     string       `json:"provider,omitempty"`
	BillingCycle BillingCycle `json:"billingCycle,omitempty" binding:"omitempty,oneof=monthly bimonthly quarterly annual"`
	Included     bool         `json:"included"`
}

// BasicServices groups the utilities every listing reports on.
// A nil entry means the owner has not reported on that utility.
type BasicServices struct {
	Water       *UtilityService `json:"water,omitempty"`
	Electricity *UtilityService `json:"electricity,omitempty"`
	Internet    *UtilityService `json:"internet,omitempty"`
}

// AdditionalServiceType enumerates the optional extra services.
type AdditionalServiceType string

const (
	ServicePoolCleaning AdditionalServiceType = "pool_cleaning"
	ServiceGarden       AdditionalServiceType = "garden"
	ServiceGas          AdditionalServiceType = "gas"
	ServiceCustom       AdditionalServiceType = "custom"
)

// ServiceItem is an additional service as persisted on a property.
type ServiceItem struct {
	Cost       *float64              `json:"cost,omitempty"`
	Type       AdditionalServiceType `json:"type"`
	CustomName string                `json:"customName,omitempty"`
	Provider   string                `json:"provider,omitempty"`
}

// IncludedServices is the utilities and extras included with a listing.
type IncludedServices struct {
	BasicServices      BasicServices `json:"basicServices"`
	AdditionalServices []ServiceItem `json:"additionalServices,omitempty"`
}

// AdditionalService is an extra service while it is being edited. ID only
// identifies the row in an edit session and is never persisted.
type AdditionalService struct {
	Cost       *float64              `json:"cost,omitempty"`
	ID         string                `json:"id"`
	Type       AdditionalServiceType `json:"type" binding:"required,oneof=pool_cleaning garden gas custom"`
	CustomName string                `json:"customName,omitempty" binding:"required_if=Type custom"`
	Provider   string                `json:"provider,omitempty"`
}

// NewAdditionalServiceID builds the session-local id for a service row.
func NewAdditionalServiceID(t AdditionalServiceType, now time.Time) string {
	return fmt.Sprintf("%s-%d", t, now.UnixMilli())
}

// Item strips the session-local id.
func (a AdditionalService) Item() ServiceItem {
	item := ServiceItem{
		Type:     a.Type,
		Provider: a.Provider,
		Cost:     a.Cost,
	}
	if a.Type == ServiceCustom {
		item.CustomName = a.CustomName
	}
	return item
}
