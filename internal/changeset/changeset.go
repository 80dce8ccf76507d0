package changeset

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/stwalsh4118/brokerage/internal/models"
)

// ErrNoChanges is returned when an edit does not change any tracked field.
var ErrNoChanges = errors.New("no changes detected")

// Build compares the stored property with an edit and records an old/new
// pair for every field that differs. The result is empty when nothing did.
func Build(p *models.Property, s *models.EditState) models.ChangedFields {
	out := models.ChangedFields{}
	for _, f := range fields {
		oldValue, newValue := f.old(p), f.new(s)
		if f.equal(oldValue, newValue) {
			continue
		}
		out[f.name] = models.FieldChange{Old: oldValue, New: newValue}
		if f.also != nil {
			f.also(p, out)
		}
	}
	return out
}

// Diff is Build that treats an empty result as ErrNoChanges.
func Diff(p *models.Property, s *models.EditState) (models.ChangedFields, error) {
	changes := Build(p, s)
	if len(changes) == 0 {
		return nil, ErrNoChanges
	}
	return changes, nil
}

// IncludedServicesOf rebuilds the included services object from an edit:
// the form's basic services plus the edited additional services.
func IncludedServicesOf(s *models.EditState) *models.IncludedServices {
	out := &models.IncludedServices{BasicServices: s.Form.BasicServices}
	for _, svc := range s.AdditionalServices {
		out.AdditionalServices = append(out.AdditionalServices, svc.Item())
	}
	return out
}

// AccessInfoOf rebuilds access info as the variant the form selects.
// A form without an access type yields nil.
func AccessInfoOf(f *models.EditForm) (*models.AccessInfo, error) {
	details, err := models.NewAccessDetails(f.AccessType, f.AccessMethod, f.AccessFields())
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}
	return &models.AccessInfo{Details: details}, nil
}

// ConsolidatedPhotos joins primary, secondary and legacy images keeping the
// first occurrence of each URL.
func ConsolidatedPhotos(p *models.Property) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, group := range [][]string{p.PrimaryImages, p.SecondaryImages, p.Images} {
		for _, url := range group {
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = struct{}{}
			out = append(out, url)
		}
	}
	return out
}

// NewEditState seeds an edit from the stored property. Building a diff from
// an unmodified result yields no changes.
func NewEditState(p *models.Property, now time.Time) models.EditState {
	form := models.EditForm{
		Title:                  p.Title,
		Description:            p.Description,
		PropertyType:           p.PropertyType,
		Location:               p.Location,
		ColonyID:               deref(p.ColonyID),
		CondominiumID:          deref(p.CondominiumID),
		UnitNumber:             deref(p.UnitNumber),
		GoogleMapsURL:          deref(p.GoogleMapsURL),
		Bedrooms:               p.Bedrooms,
		Bathrooms:              p.Bathrooms,
		Area:                   p.Area,
		PetFriendly:            p.PetFriendly,
		IsForRent:              p.IsForRent(),
		IsForSale:              p.IsForSale(),
		Amenities:              append([]string{}, p.Amenities...),
		AcceptedLeaseDurations: append([]string{}, p.AcceptedLeaseDurations...),
	}
	if form.IsForRent {
		form.Price = strconv.FormatFloat(p.Price, 'f', -1, 64)
	}
	if form.IsForSale {
		form.SalePrice = strconv.FormatFloat(p.SalePrice, 'f', -1, 64)
	}

	state := models.EditState{
		Photos:          ConsolidatedPhotos(p),
		CoverImageIndex: coverIndex(p),
		BaseVersion:     p.Version,
	}

	if svc := p.IncludedServices; svc != nil {
		form.BasicServices = svc.BasicServices
		for i, item := range svc.AdditionalServices {
			state.AdditionalServices = append(state.AdditionalServices, models.AdditionalService{
				ID:         models.NewAdditionalServiceID(item.Type, now.Add(time.Duration(i)*time.Millisecond)),
				Type:       item.Type,
				CustomName: item.CustomName,
				Provider:   item.Provider,
				Cost:       item.Cost,
			})
		}
	}

	if p.AccessInfo != nil {
		switch d := p.AccessInfo.Details.(type) {
		case models.AttendedAccess:
			form.AccessType = models.AccessTypeAttended
			form.ContactPerson = d.ContactPerson
			form.ContactPhone = d.ContactPhone
			form.ContactNotes = d.ContactNotes
		case models.LockboxAccess:
			form.AccessType = models.AccessTypeUnattended
			form.AccessMethod = models.AccessMethodLockbox
			form.LockboxCode = d.Code
		case models.SmartLockAccess:
			form.AccessType = models.AccessTypeUnattended
			form.AccessMethod = models.AccessMethodSmartLock
			form.SmartLockProvider = d.Provider
			form.SmartLockInstructions = d.Instructions
		}
	}

	state.Form = form
	return state
}

// Apply returns a copy of p with the new value of every change written over
// the matching field. Unknown field names are rejected.
func Apply(p *models.Property, changes models.ChangedFields) (*models.Property, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode property: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode property: %w", err)
	}

	for name, change := range changes {
		if !applicable(name) {
			return nil, fmt.Errorf("field %q cannot be changed", name)
		}
		raw, err := json.Marshal(change.New)
		if err != nil {
			return nil, fmt.Errorf("failed to encode new value for %q: %w", name, err)
		}
		doc[name] = raw
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged property: %w", err)
	}
	var out models.Property
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, fmt.Errorf("failed to decode merged property: %w", err)
	}
	return &out, nil
}

func applicable(name string) bool {
	switch name {
	case "secondaryImages", "images":
		return true
	}
	for _, f := range fields {
		if f.name == name {
			return true
		}
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
