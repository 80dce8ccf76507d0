package models

import (
	"time"

	"github.com/google/uuid"
)

// EditForm is the editable subset of a Property as an owner's form holds it.
// Numbers arrive as the text the owner typed; IsForRent and IsForSale decide
// whether Price and SalePrice count at all.
type EditForm struct {
	BasicServices          BasicServices `json:"basicServices"`
	Title                  string        `json:"title" binding:"required,max=200"`
	Description            string        `json:"description" binding:"max=5000"`
	PropertyType           string        `json:"propertyType" binding:"required,oneof=house apartment studio room land office commercial"`
	Location               string        `json:"location"`
	ColonyID               string        `json:"colonyId" binding:"omitempty,uuid"`
	CondominiumID          string        `json:"condominiumId" binding:"omitempty,uuid"`
	UnitNumber             string        `json:"unitNumber"`
	GoogleMapsURL          string        `json:"googleMapsUrl" binding:"omitempty,url"`
	Bathrooms              string        `json:"bathrooms" binding:"omitempty,numeric"`
	Area                   string        `json:"area" binding:"omitempty,numeric"`
	Price                  string        `json:"price" binding:"omitempty,numeric"`
	SalePrice              string        `json:"salePrice" binding:"omitempty,numeric"`
	AccessType             AccessType    `json:"accessType" binding:"omitempty,oneof=attended unattended"`
	AccessMethod           AccessMethod  `json:"accessMethod" binding:"omitempty,oneof=lockbox smart_lock"`
	LockboxCode            string        `json:"lockboxCode"`
	SmartLockProvider      string        `json:"smartLockProvider"`
	SmartLockInstructions  string        `json:"smartLockInstructions"`
	ContactPerson          string        `json:"contactPerson"`
	ContactPhone           string        `json:"contactPhone"`
	ContactNotes           string        `json:"contactNotes"`
	Amenities              []string      `json:"amenities"`
	AcceptedLeaseDurations []string      `json:"acceptedLeaseDurations"`
	Bedrooms               int           `json:"bedrooms" binding:"gte=0,lte=100"`
	PetFriendly            bool          `json:"petFriendly"`
	IsForRent              bool          `json:"isForRent"`
	IsForSale              bool          `json:"isForSale"`
}

// AccessFields collects the flat access inputs of the form.
func (f *EditForm) AccessFields() AccessFields {
	return AccessFields{
		LockboxCode:           f.LockboxCode,
		SmartLockProvider:     f.SmartLockProvider,
		SmartLockInstructions: f.SmartLockInstructions,
		ContactPerson:         f.ContactPerson,
		ContactPhone:          f.ContactPhone,
		ContactNotes:          f.ContactNotes,
	}
}

// EditState is everything an owner changed while editing a property: the form
// plus the lists that live outside it. BaseVersion is the property version
// the edit started from.
type EditState struct {
	Form               EditForm            `json:"form"`
	AdditionalServices []AdditionalService `json:"additionalServices" binding:"dive"`
	Photos             []string            `json:"photos" binding:"dive,url"`
	CoverImageIndex    int                 `json:"coverImageIndex" binding:"gte=0"`
	BaseVersion        int                 `json:"baseVersion" binding:"gte=1"`
}

// EditSession is an EditState held server side between requests.
type EditSession struct {
	StartedAt  time.Time `json:"startedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	State      EditState `json:"state"`
	PropertyID uuid.UUID `json:"propertyId"`
	OwnerID    uuid.UUID `json:"ownerId"`
}
