package venue

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

type Amenity string

const (
	AmenityToilets          Amenity = "toilets"
	AmenityWifi             Amenity = "wifi"
	AmenityQuietEnvironment Amenity = "quietEnvironment"
	AmenityPowerSocket      Amenity = "powerSocket"
)

// Amenities is every known tag in display order.
var Amenities = []Amenity{AmenityToilets, AmenityWifi, AmenityQuietEnvironment, AmenityPowerSocket}

// ParseAmenity matches a tag case-insensitively.
func ParseAmenity(s string) (Amenity, bool) {
	s = strings.TrimSpace(s)
	for _, a := range Amenities {
		if strings.EqualFold(string(a), s) {
			return a, true
		}
	}
	return "", false
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Known() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

const (
	MaxImages     = 3
	MinNameLength = 2
	MaxNameLength = 80
	ImagePrefix   = "places"
)

// AmenitySet is stored as a JSON array.
type AmenitySet []Amenity

func (a AmenitySet) Value() (driver.Value, error) { return jsonValue(a) }
func (a *AmenitySet) Scan(src any) error        { return jsonScan(src, a) }

func (a AmenitySet) Has(x Amenity) bool { return slices.Contains(a, x) }

func (a AmenitySet) Strings() []string {
	out := make([]string, len(a))
	for i, x := range a {
		out[i] = string(x)
	}
	return out
}

// ImageList is stored as a JSON array, in selection order.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) { return jsonValue(l) }
func (l *ImageList) Scan(src any) error        { return jsonScan(src, l) }

// Venue is a user-submitted remote work location. Only approved venues are
// shown on the map.
type Venue struct {
	ID        string     `gorm:"column:id;primaryKey" json:"id"`
	UserID    string     `gorm:"column:user_id;index" json:"user_id"`
	Name      string     `gorm:"column:name" json:"name"`
	Address   string     `gorm:"column:address" json:"address"`
	Lat       float64    `gorm:"column:lat" json:"lat"`
	Lng       float64    `gorm:"column:lng" json:"lng"`
	Amenities AmenitySet `gorm:"column:amenities;type:text" json:"amenities"`
	Images    ImageList  `gorm:"column:images;type:text" json:"images"`
	Status    Status     `gorm:"column:status;index" json:"status"`
	CreatedAt time.Time  `gorm:"column:created_at;index" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Venue) TableName() string { return "remote_work_locations" }

// Validate normalises a record read from storage. An unknown status is
// treated as pending so it never reaches the map.
func (v *Venue) Validate() {
	if !v.Status.Known() {
		v.Status = StatusPending
	}
	clean := make(AmenitySet, 0, len(v.Amenities))
	for _, a := range v.Amenities {
		if known, ok := ParseAmenity(string(a)); ok && !clean.Has(known) {
			clean = append(clean, known)
		}
	}
	v.Amenities = clean
	if v.Images == nil {
		v.Images = ImageList{}
	}
	if len(v.Images) > MaxImages {
		v.Images = v.Images[:MaxImages]
	}
}

func (v *Venue) IsPending() bool  { return v.Status == StatusPending }
func (v *Venue) IsApproved() bool { return v.Status == StatusApproved }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
