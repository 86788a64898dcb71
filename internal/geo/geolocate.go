package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

const (
	SourceIP       = "ip"
	SourceFallback = "fallback"
)

type Center struct {
	Point
	Source string `json:"source"`
}

// Geolocator looks up an approximate position for an IP address using an
// ipapi.co compatible service.
type Geolocator struct {
	client  *http.Client
	baseURL string
}

func NewGeolocator(client *http.Client, baseURL string) *Geolocator {
	return &Geolocator{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

type ipapiResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Error     bool    `json:"error"`
	Reason    string  `json:"reason"`
}

// Center is best effort: any failure yields Fallback.
func (g *Geolocator) Center(ctx context.Context, clientIP string) Center {
	p, err := g.Locate(ctx, clientIP)
	if err != nil {
		slog.Debug("ip geolocation unavailable, using fallback", "err", err)
		return Center{Point: Fallback, Source: SourceFallback}
	}
	return Center{Point: p, Source: SourceIP}
}

func (g *Geolocator) Locate(ctx context.Context, clientIP string) (Point, error) {
	ip := net.ParseIP(strings.TrimSpace(clientIP))
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return Point{}, fmt.Errorf("ip %q is not routable", clientIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+ip.String()+"/json/", nil)
	if err != nil {
		return Point{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geolocate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geolocate: status %d", resp.StatusCode)
	}

	var body ipapiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return Point{}, fmt.Errorf("decode geolocation: %w", err)
	}
	if body.Error {
		return Point{}, fmt.Errorf("geolocate: %s", body.Reason)
	}

	p := Point{Lat: body.Latitude, Lng: body.Longitude}
	if !p.Valid() {
		return Point{}, fmt.Errorf("geolocate: invalid point %+v", p)
	}
	return p, nil
}
