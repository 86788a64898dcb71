package discovery

import "workspots/internal/geo"

const (
	DefaultZoom    = 12
	LocateZoomStep = 3
	MaxZoom        = 20

	// Below this width filters are shown as icon toggles.
	CompactBreakpoint = 768
)

type Viewport struct {
	Center  geo.Point `json:"center"`
	Zoom    int       `json:"zoom"`
	located bool
}

func NewViewport(center geo.Point) *Viewport {
	return &Viewport{Center: center, Zoom: DefaultZoom}
}

// Locate centres on the device position. Only the first call in a session
// zooms in.
func (v *Viewport) Locate(p geo.Point) {
	v.Center = p
	if v.located {
		return
	}
	v.located = true
	v.Zoom = min(v.Zoom+LocateZoomStep, MaxZoom)
}

type Controls string

const (
	ControlsIcons      Controls = "icons"
	ControlsCheckboxes Controls = "checkboxes"
)

// FilterControls picks how the filter panel is drawn for a viewport width.
// Filtering itself is the same either way.
func FilterControls(width int) Controls {
	if width < CompactBreakpoint {
		return ControlsIcons
	}
	return ControlsCheckboxes
}
