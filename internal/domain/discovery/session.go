package discovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"workspots/internal/changefeed"
	"workspots/internal/domain/venue"
	"workspots/internal/geo"
	"workspots/internal/realtime"
	"workspots/internal/source"
)

// VenuesView is pushed whenever the visible set changes.
type VenuesView struct {
	Venues   []*venue.Venue `json:"venues"`
	Filter   AmenityFilter  `json:"filter"`
	Controls Controls       `json:"controls"`
}

type mapMessage struct {
	AmenityFilter
	Width int     `json:"width"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	ID    string  `json:"id"`
}

// MapSession is one open map. The approved set follows the change feed;
// the filter, viewport and overlay belong to this session only.
type MapSession struct {
	ctx     context.Context
	stop    context.CancelFunc
	service *Service
	feed    changefeed.Broker
	center  geo.Center

	mu       sync.Mutex
	approved []*venue.Venue
	filter   AmenityFilter
	width    int
	viewport *Viewport
	overlay  *Overlay
	cancel   func()
}

func NewMapSession(ctx context.Context, service *Service, feed changefeed.Broker, center geo.Center) *MapSession {
	ctx, stop := context.WithCancel(ctx)
	return &MapSession{
		ctx:      ctx,
		stop:     stop,
		service:  service,
		feed:     feed,
		center:   center,
		width:    CompactBreakpoint,
		viewport: NewViewport(center.Point),
	}
}

func (s *MapSession) Open(conn *realtime.Conn) error {
	conn.Send("viewport", s.viewport)

	sub := source.NewQuerySubscription[*venue.Venue](s.feed, changefeed.CollectionVenues, s.service.Approved)
	cancel, err := sub.Subscribe(s.ctx,
		func(approved []*venue.Venue) {
			s.mu.Lock()
			s.approved = approved
			venues := s.venuesView()
			var overlay *OverlayView
			closed := false
			if s.overlay != nil {
				if v := find(approved, s.overlay.Venue.ID); v != nil {
					s.overlay = s.reopen(v)
					view := s.overlay.View()
					overlay = &view
				} else {
					s.overlay = nil
					closed = true
				}
			}
			s.mu.Unlock()

			conn.Send("venues", venues)
			if overlay != nil || closed {
				conn.Send("overlay", overlay)
			}
		},
		func(err error) {
			conn.SendError("LOAD_FAILED", "Failed to load places")
		})
	if err != nil {
		return err
	}
	s.cancel = cancel
	return nil
}

func (s *MapSession) Handle(conn *realtime.Conn, in realtime.Inbound) {
	var msg mapMessage
	if len(in.Data) > 0 {
		if err := json.Unmarshal(in.Data, &msg); err != nil {
			conn.SendError("INVALID_MESSAGE", "Malformed "+in.Type+" message")
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch in.Type {
	case "filters":
		s.filter = msg.AmenityFilter
		if msg.Width > 0 {
			s.width = msg.Width
		}
		conn.Send("venues", s.venuesView())
	case "locate":
		p := geo.Point{Lat: msg.Lat, Lng: msg.Lng}
		if !p.Valid() {
			conn.SendError("INVALID_COORDINATES", "Invalid coordinates")
			return
		}
		s.viewport.Locate(p)
		conn.Send("viewport", s.viewport)
	case "select":
		v := find(s.approved, msg.ID)
		if v == nil {
			conn.SendError("PLACE_NOT_FOUND", ErrNotFound.Error())
			return
		}
		s.overlay = NewOverlay(v)
		conn.Send("overlay", s.overlay.View())
	case "deselect":
		s.overlay = nil
		conn.Send("overlay", nil)
	case "carousel_next", "carousel_prev":
		if s.overlay == nil {
			conn.SendError("NO_SELECTION", "No place is selected")
			return
		}
		if in.Type == "carousel_next" {
			s.overlay.Carousel.Next()
		} else {
			s.overlay.Carousel.Prev()
		}
		conn.Send("overlay", s.overlay.View())
	default:
		slog.Debug("unknown map message", "type", in.Type)
		conn.SendError("UNKNOWN_TYPE", "Unknown message type: "+in.Type)
	}
}

func (s *MapSession) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.stop()
}

func (s *MapSession) venuesView() VenuesView {
	return VenuesView{
		Venues:   s.filter.Apply(s.approved),
		Filter:   s.filter,
		Controls: FilterControls(s.width),
	}
}

// reopen keeps the carousel position when the selected venue is refreshed.
func (s *MapSession) reopen(v *venue.Venue) *Overlay {
	o := NewOverlay(v)
	for i := 0; i < s.overlay.Carousel.Index() && i < len(v.Images)-1; i++ {
		o.Carousel.Next()
	}
	return o
}
