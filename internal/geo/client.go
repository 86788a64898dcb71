// Package geo talks to third-party location services: IP geolocation for
// the initial map centre and address autocomplete for submissions.
package geo

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

const userAgent = "workspots/1.0 (+https://github.com/workspots)"

// NewSafeClient returns an HTTP client that refuses private, loopback and
// link-local targets, including after DNS resolution.
func NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fallback is used whenever the caller's location cannot be determined.
var Fallback = Point{Lat: 40.7128, Lng: -74.006}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 && !(p.Lat == 0 && p.Lng == 0)
}
