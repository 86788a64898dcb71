package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeolocator_Center(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/8.8.8.8/json/":
			_, _ = w.Write([]byte(`{"latitude":37.42,"longitude":-122.08}`))
		case "/1.1.1.1/json/":
			_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	g := NewGeolocator(srv.Client(), srv.URL+"/")
	ctx := context.Background()

	c := g.Center(ctx, "8.8.8.8")
	assert.Equal(t, SourceIP, c.Source)
	assert.Equal(t, Point{Lat: 37.42, Lng: -122.08}, c.Point)

	for _, ip := range []string{"1.1.1.1", "9.9.9.9", "127.0.0.1", "10.0.0.7", "", "garbage"} {
		c := g.Center(ctx, ip)
		assert.Equal(t, SourceFallback, c.Source, ip)
		assert.Equal(t, Fallback, c.Point, ip)
	}
}

func TestGeolocator_Unreachable(t *testing.T) {
	g := NewGeolocator(http.DefaultClient, "http://127.0.0.1:1")
	assert.Equal(t, Fallback, g.Center(context.Background(), "8.8.8.8").Point)
}

func TestAutocompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if r.URL.Query().Get("q") == "nowhere" {
			_, _ = w.Write([]byte(`[]`))
			return
		}
		_, _ = w.Write([]byte(`[
			{"display_name":"Blue Bottle, 1 Main St","lat":"40.7","lon":"-74.0"},
			{"display_name":"broken","lat":"x","lon":"y"}
		]`))
	}))
	defer srv.Close()

	a := NewAutocompleter(srv.Client(), srv.URL+"/search")
	ctx := context.Background()

	places, err := a.Search(ctx, "blue bottle", 5)
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Blue Bottle, 1 Main St", places[0].FormattedAddress)

	p, err := a.Resolve(ctx, "blue bottle")
	require.NoError(t, err)
	assert.InDelta(t, 40.7, p.Lat, 1e-9)

	_, err = a.Resolve(ctx, "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)

	empty, err := a.Search(ctx, "  ", 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Fallback.Valid())
	assert.False(t, Point{}.Valid())
	assert.False(t, Point{Lat: 91, Lng: 0}.Valid())
}
