package changeset

import (
	"sort"
	"strconv"
	"strings"

	"github.com/stwalsh4118/brokerage/internal/models"
)

// field describes how one tracked property field is read from the stored
// record and from the edit, and how the two readings are compared.
type field struct {
	name  string
	old   func(p *models.Property) interface{}
	new   func(s *models.EditState) interface{}
	equal func(old, new interface{}) bool
	// also runs after the field was recorded as changed and may record
	// related fields.
	also func(p *models.Property, out models.ChangedFields)
}

// fields is the ordered table of everything an owner can change.
var fields = []field{
	{
		name:  "title",
		old:   func(p *models.Property) interface{} { return p.Title },
		new:   func(s *models.EditState) interface{} { return s.Form.Title },
		equal: scalarEqual,
	},
	{
		name:  "description",
		old:   func(p *models.Property) interface{} { return p.Description },
		new:   func(s *models.EditState) interface{} { return s.Form.Description },
		equal: scalarEqual,
	},
	{
		name:  "propertyType",
		old:   func(p *models.Property) interface{} { return p.PropertyType },
		new:   func(s *models.EditState) interface{} { return s.Form.PropertyType },
		equal: scalarEqual,
	},
	{
		name: "price",
		old:  func(p *models.Property) interface{} { return p.Price },
		new: func(s *models.EditState) interface{} {
			return toggledPrice(s.Form.IsForRent, s.Form.Price)
		},
		equal: scalarEqual,
	},
	{
		name: "salePrice",
		old:  func(p *models.Property) interface{} { return p.SalePrice },
		new: func(s *models.EditState) interface{} {
			return toggledPrice(s.Form.IsForSale, s.Form.SalePrice)
		},
		equal: scalarEqual,
	},
	{
		name:  "location",
		old:   func(p *models.Property) interface{} { return p.Location },
		new:   func(s *models.EditState) interface{} { return s.Form.Location },
		equal: scalarEqual,
	},
	{
		name:  "colonyId",
		old:   func(p *models.Property) interface{} { return optional(p.ColonyID) },
		new:   func(s *models.EditState) interface{} { return nonEmpty(s.Form.ColonyID) },
		equal: scalarEqual,
	},
	{
		name:  "condominiumId",
		old:   func(p *models.Property) interface{} { return optional(p.CondominiumID) },
		new:   func(s *models.EditState) interface{} { return nonEmpty(s.Form.CondominiumID) },
		equal: scalarEqual,
	},
	{
		name:  "unitNumber",
		old:   func(p *models.Property) interface{} { return optional(p.UnitNumber) },
		new:   func(s *models.EditState) interface{} { return nonEmpty(s.Form.UnitNumber) },
		equal: scalarEqual,
	},
	{
		name:  "bedrooms",
		old:   func(p *models.Property) interface{} { return p.Bedrooms },
		new:   func(s *models.EditState) interface{} { return s.Form.Bedrooms },
		equal: scalarEqual,
	},
	{
		name:  "bathrooms",
		old:   func(p *models.Property) interface{} { return p.Bathrooms },
		new:   func(s *models.EditState) interface{} { return s.Form.Bathrooms },
		equal: numericTextEqual,
	},
	{
		name:  "area",
		old:   func(p *models.Property) interface{} { return p.Area },
		new:   func(s *models.EditState) interface{} { return s.Form.Area },
		equal: numericTextEqual,
	},
	{
		name:  "petFriendly",
		old:   func(p *models.Property) interface{} { return p.PetFriendly },
		new:   func(s *models.EditState) interface{} { return s.Form.PetFriendly },
		equal: scalarEqual,
	},
	{
		name:  "googleMapsUrl",
		old:   func(p *models.Property) interface{} { return optional(p.GoogleMapsURL) },
		new:   func(s *models.EditState) interface{} { return nonEmpty(s.Form.GoogleMapsURL) },
		equal: scalarEqual,
	},
	{
		name:  "amenities",
		old:   func(p *models.Property) interface{} { return orEmpty(p.Amenities) },
		new:   func(s *models.EditState) interface{} { return orEmpty(s.Form.Amenities) },
		equal: setEqual,
	},
	{
		name:  "acceptedLeaseDurations",
		old:   func(p *models.Property) interface{} { return orEmpty(p.AcceptedLeaseDurations) },
		new:   func(s *models.EditState) interface{} { return orEmpty(s.Form.AcceptedLeaseDurations) },
		equal: setEqual,
	},
	{
		name: "includedServices",
		old: func(p *models.Property) interface{} {
			return Normalize(p.IncludedServices)
		},
		new: func(s *models.EditState) interface{} {
			return Normalize(IncludedServicesOf(s))
		},
		equal: jsonEqual,
	},
	{
		name: "accessInfo",
		old: func(p *models.Property) interface{} {
			return Normalize(p.AccessInfo)
		},
		new: func(s *models.EditState) interface{} {
			info, err := AccessInfoOf(&s.Form)
			if err != nil {
				return nil
			}
			return Normalize(info)
		},
		equal: jsonEqual,
	},
	{
		name:  "primaryImages",
		old:   func(p *models.Property) interface{} { return ConsolidatedPhotos(p) },
		new:   func(s *models.EditState) interface{} { return orEmpty(s.Photos) },
		equal: jsonEqual,
		also:  clearSecondaryPhotos,
	},
	{
		name:  "coverImageIndex",
		old:   func(p *models.Property) interface{} { return coverIndex(p) },
		new:   func(s *models.EditState) interface{} { return s.CoverImageIndex },
		equal: scalarEqual,
	},
}

// FieldNames lists every field the differ tracks, in table order.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.name)
	}
	return names
}

func scalarEqual(a, b interface{}) bool {
	return a == b
}

// numericTextEqual compares decimal text by value, so "2.5" equals "2.50".
func numericTextEqual(a, b interface{}) bool {
	as, _ := a.(string)
	bs, _ := b.(string)
	return ParseNumber(as) == ParseNumber(bs)
}

// setEqual compares string slices ignoring order.
func setEqual(a, b interface{}) bool {
	as, _ := a.([]string)
	bs, _ := b.([]string)
	return jsonEqual(sortedCopy(as), sortedCopy(bs))
}

func sortedCopy(in []string) []string {
	out := append([]string{}, in...)
	sort.Strings(out)
	return out
}

// ParseNumber reads decimal text leniently: blank or malformed input is 0.
func ParseNumber(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return n
}

// toggledPrice is the price the form asks for: zero whenever the toggle is
// off, whatever the text field still holds.
func toggledPrice(enabled bool, text string) float64 {
	if !enabled {
		return 0
	}
	return ParseNumber(text)
}

func optional(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nonEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func coverIndex(p *models.Property) int {
	if p.CoverImageIndex == nil {
		return 0
	}
	return *p.CoverImageIndex
}

// clearSecondaryPhotos records the secondary image arrays as emptied so all
// photos end up consolidated in primaryImages.
func clearSecondaryPhotos(p *models.Property, out models.ChangedFields) {
	if len(p.SecondaryImages) > 0 {
		out["secondaryImages"] = models.FieldChange{Old: p.SecondaryImages, New: []string{}}
	}
	if len(p.Images) > 0 {
		out["images"] = models.FieldChange{Old: p.Images, New: []string{}}
	}
}
