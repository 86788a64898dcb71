package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

var ErrNoMatch = errors.New("no place matches the address")

type Place struct {
	FormattedAddress string  `json:"formatted_address"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
}

// Autocompleter resolves free-text addresses through a Nominatim compatible
// search endpoint.
type Autocompleter struct {
	client  *http.Client
	baseURL string
}

func NewAutocompleter(client *http.Client, baseURL string) *Autocompleter {
	return &Autocompleter{client: client, baseURL: baseURL}
}

type nominatimPlace struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (a *Autocompleter) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Place{}, nil
	}
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	u, err := url.Parse(a.baseURL)
	if err != nil {
		return nil, fmt.Errorf("geocoding url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "jsonv2")
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("autocomplete: status %d", resp.StatusCode)
	}

	var raw []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode autocomplete: %w", err)
	}

	out := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLng != nil {
			continue
		}
		out = append(out, Place{FormattedAddress: r.DisplayName, Lat: lat, Lng: lng})
	}
	return out, nil
}

// Resolve returns the best match for address.
func (a *Autocompleter) Resolve(ctx context.Context, address string) (Place, error) {
	places, err := a.Search(ctx, address, 1)
	if err != nil {
		return Place{}, err
	}
	if len(places) == 0 {
		return Place{}, ErrNoMatch
	}
	return places[0], nil
}
