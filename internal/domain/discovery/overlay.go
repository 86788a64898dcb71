package discovery

import (
	"fmt"
	"strconv"

	"workspots/internal/domain/venue"
)

const directionsBase = "https://www.google.com/maps/dir/?api=1&destination="

// DirectionsURL opens turn-by-turn directions to a coordinate.
func DirectionsURL(lat, lng float64) string {
	return fmt.Sprintf("%s%s,%s", directionsBase,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lng, 'f', -1, 64))
}

// Carousel steps through a venue's photos. Both directions wrap.
type Carousel struct {
	images []string
	index  int
}

func NewCarousel(images []string) *Carousel {
	return &Carousel{images: images}
}

func (c *Carousel) Next() {
	if len(c.images) > 0 {
		c.index = (c.index + 1) % len(c.images)
	}
}

func (c *Carousel) Prev() {
	if len(c.images) > 0 {
		c.index = (c.index - 1 + len(c.images)) % len(c.images)
	}
}

func (c *Carousel) Index() int { return c.index }

// Current is empty when there are no photos.
func (c *Carousel) Current() string {
	if len(c.images) == 0 {
		return ""
	}
	return c.images[c.index]
}

// Overlay is the info panel for one selected venue.
type Overlay struct {
	Venue      *venue.Venue
	Carousel   *Carousel
	Directions string
}

func NewOverlay(v *venue.Venue) *Overlay {
	return &Overlay{
		Venue:      v,
		Carousel:   NewCarousel(v.Images),
		Directions: DirectionsURL(v.Lat, v.Lng),
	}
}

// OverlayView is what clients render.
type OverlayView struct {
	Venue      *venue.Venue `json:"venue"`
	Image      string       `json:"image"`
	ImageIndex int          `json:"image_index"`
	ImageCount int          `json:"image_count"`
	Directions string       `json:"directions_url"`
}

func (o *Overlay) View() OverlayView {
	return OverlayView{
		Venue:      o.Venue,
		Image:      o.Carousel.Current(),
		ImageIndex: o.Carousel.Index(),
		ImageCount: len(o.Venue.Images),
		Directions: o.Directions,
	}
}
