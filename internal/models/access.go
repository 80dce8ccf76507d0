package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// AccessType says whether a visit needs somebody on site.
type AccessType string

const (
	AccessTypeAttended   AccessType = "attended"
	AccessTypeUnattended AccessType = "unattended"
)

// AccessMethod is how an unattended visitor opens the door.
type AccessMethod string

const (
	AccessMethodLockbox   AccessMethod = "lockbox"
	AccessMethodSmartLock AccessMethod = "smart_lock"
)

// ErrInvalidAccessInfo is returned when access info names an unknown variant.
var ErrInvalidAccessInfo = errors.New("invalid access info")

// AccessDetails is implemented by each access variant. The set is closed:
// only AttendedAccess, LockboxAccess and SmartLockAccess satisfy it.
type AccessDetails interface {
	Type() AccessType
	isAccessDetails()
}

// AttendedAccess means a contact person lets visitors in.
type AttendedAccess struct {
	ContactPerson string
	ContactPhone  string
	ContactNotes  string
}

// LockboxAccess is unattended access through a coded lockbox.
type LockboxAccess struct {
	Code string
}

// SmartLockAccess is unattended access through a connected lock.
type SmartLockAccess struct {
	Provider     string
	Instructions string
}

func (AttendedAccess) Type() AccessType  { return AccessTypeAttended }
func (LockboxAccess) Type() AccessType   { return AccessTypeUnattended }
func (SmartLockAccess) Type() AccessType { return AccessTypeUnattended }

func (AttendedAccess) isAccessDetails()  {}
func (LockboxAccess) isAccessDetails()   {}
func (SmartLockAccess) isAccessDetails() {}

// AccessInfo holds exactly one access variant. On the wire it is a flat
// object discriminated by accessType (and method for unattended access);
// fields belonging to other variants never appear.
type AccessInfo struct {
	Details AccessDetails
}

type accessInfoWire struct {
	AccessType            AccessType   `json:"accessType"`
	Method                AccessMethod `json:"method,omitempty"`
	LockboxCode           string       `json:"lockboxCode,omitempty"`
	SmartLockProvider     string       `json:"smartLockProvider,omitempty"`
	SmartLockInstructions string       `json:"smartLockInstructions,omitempty"`
	ContactPerson         string       `json:"contactPerson,omitempty"`
	ContactPhone          string       `json:"contactPhone,omitempty"`
	ContactNotes          string       `json:"contactNotes,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (a AccessInfo) MarshalJSON() ([]byte, error) {
	var wire accessInfoWire
	switch d := a.Details.(type) {
	case nil:
		return []byte("null"), nil
	case AttendedAccess:
		wire = accessInfoWire{
			AccessType:    AccessTypeAttended,
			ContactPerson: d.ContactPerson,
			ContactPhone:  d.ContactPhone,
			ContactNotes:  d.ContactNotes,
		}
	case LockboxAccess:
		wire = accessInfoWire{
			AccessType:  AccessTypeUnattended,
			Method:      AccessMethodLockbox,
			LockboxCode: d.Code,
		}
	case SmartLockAccess:
		wire = accessInfoWire{
			AccessType:            AccessTypeUnattended,
			Method:                AccessMethodSmartLock,
			SmartLockProvider:     d.Provider,
			SmartLockInstructions: d.Instructions,
		}
	default:
		return nil, fmt.Errorf("%w: unsupported variant %T", ErrInvalidAccessInfo, d)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AccessInfo) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		a.Details = nil
		return nil
	}

	var wire accessInfoWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	details, err := NewAccessDetails(wire.AccessType, wire.Method, AccessFields{
		LockboxCode:           wire.LockboxCode,
		SmartLockProvider:     wire.SmartLockProvider,
		SmartLockInstructions: wire.SmartLockInstructions,
		ContactPerson:         wire.ContactPerson,
		ContactPhone:          wire.ContactPhone,
		ContactNotes:          wire.ContactNotes,
	})
	if err != nil {
		return err
	}
	a.Details = details
	return nil
}

// AccessFields is the flat set of inputs an edit form collects for access info.
type AccessFields struct {
	LockboxCode           string
	SmartLockProvider     string
	SmartLockInstructions string
	ContactPerson         string
	ContactPhone          string
	ContactNotes          string
}

// NewAccessDetails picks the variant selected by accessType and method and
// keeps only the fields that belong to it. An empty accessType yields nil.
func NewAccessDetails(accessType AccessType, method AccessMethod, f AccessFields) (AccessDetails, error) {
	switch accessType {
	case "":
		return nil, nil
	case AccessTypeAttended:
		return AttendedAccess{
			ContactPerson: f.ContactPerson,
			ContactPhone:  f.ContactPhone,
			ContactNotes:  f.ContactNotes,
		}, nil
	case AccessTypeUnattended:
		switch method {
		case AccessMethodLockbox:
			return LockboxAccess{Code: f.LockboxCode}, nil
		case AccessMethodSmartLock:
			return SmartLockAccess{
				Provider:     f.SmartLockProvider,
				Instructions: f.SmartLockInstructions,
			}, nil
		default:
			return nil, fmt.Errorf("%w: unknown access method %q", ErrInvalidAccessInfo, method)
		}
	default:
		return nil, fmt.Errorf("%w: unknown access type %q", ErrInvalidAccessInfo, accessType)
	}
}
