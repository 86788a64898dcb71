package venue

import (
	"fmt"
	"strings"
)

// ParseAmenityList parses a comma separated list such as "wifi, toilets".
// Blank entries are skipped and duplicates collapse.
func ParseAmenityList(csv string) (AmenitySet, error) {
	return ParseAmenities(strings.Split(csv, ","))
}

func ParseAmenities(tags []string) (AmenitySet, error) {
	out := AmenitySet{}
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		a, ok := ParseAmenity(tag)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAmenity, tag)
		}
		if !out.Has(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
