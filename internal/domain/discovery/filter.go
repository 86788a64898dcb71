package discovery

import (
	"strings"

	"workspots/internal/domain/venue"
)

// AmenityFilter is the map's filter panel: one switch per amenity.
type AmenityFilter struct {
	Toilets          bool `json:"toilets"`
	Wifi             bool `json:"wifi"`
	QuietEnvironment bool `json:"quietEnvironment"`
	PowerSocket      bool `json:"powerSocket"`
}

// FilterOf enables the given tags. Unknown tags are ignored.
func FilterOf(tags ...string) AmenityFilter {
	var f AmenityFilter
	for _, raw := range tags {
		for _, tag := range strings.Split(raw, ",") {
			if a, ok := venue.ParseAmenity(tag); ok {
				f.set(a)
			}
		}
	}
	return f
}

func (f *AmenityFilter) set(a venue.Amenity) {
	switch a {
	case venue.AmenityToilets:
		f.Toilets = true
	case venue.AmenityWifi:
		f.Wifi = true
	case venue.AmenityQuietEnvironment:
		f.QuietEnvironment = true
	case venue.AmenityPowerSocket:
		f.PowerSocket = true
	}
}

// On reports whether the switch for a is on.
func (f AmenityFilter) On(a venue.Amenity) bool {
	switch a {
	case venue.AmenityToilets:
		return f.Toilets
	case venue.AmenityWifi:
		return f.Wifi
	case venue.AmenityQuietEnvironment:
		return f.QuietEnvironment
	case venue.AmenityPowerSocket:
		return f.PowerSocket
	}
	return false
}

// Enabled lists the switched-on amenities in display order.
func (f AmenityFilter) Enabled() []venue.Amenity {
	var out []venue.Amenity
	for _, a := range venue.Amenities {
		if f.On(a) {
			out = append(out, a)
		}
	}
	return out
}

// Apply keeps the venues that have every enabled amenity. With nothing
// enabled every venue is kept.
func (f AmenityFilter) Apply(venues []*venue.Venue) []*venue.Venue {
	want := f.Enabled()
	out := make([]*venue.Venue, 0, len(venues))
	for _, v := range venues {
		if hasAll(v.Amenities, want) {
			out = append(out, v)
		}
	}
	return out
}

func hasAll(set venue.AmenitySet, want []venue.Amenity) bool {
	for _, a := range want {
		if !set.Has(a) {
			return false
		}
	}
	return true
}
