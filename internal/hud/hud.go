// Package hud computes the heads-up readout of a viewer: the image pixel
// under the cursor, the magnification, and the navigator rectangle.
package hud

import (
	"fmt"
	"math"

	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

// DefaultNavigatorSize is the size of the mini-map thumbnail
var DefaultNavigatorSize = viewport.Size{Width: 200, Height: 150}

// Readout is what the HUD shows
type Readout struct {
	// HasCursor is false while the pointer is outside the container
	HasCursor bool
	// ImageX and ImageY are the image pixel under the cursor, rounded and
	// limited to the int32 range. They may lie outside the image.
	ImageX, ImageY int
	// InsideImage reports whether the cursor is over the image
	InsideImage bool

	Zoom          float64
	Magnification string
	Rotation      int

	// Navigator is the visible area drawn on the mini-map thumbnail
	Navigator viewport.Rect
}

// Tracker keeps a Readout current for one viewer. It must only be used on
// the viewer's scheduler.
type Tracker struct {
	v       *viewer.Viewer
	navSize viewport.Size

	cursor      *viewport.Point
	readout     Readout
	unsubscribe func()
}

// NewTracker subscribes to v. An empty navigator size uses
// DefaultNavigatorSize.
func NewTracker(v *viewer.Viewer, navSize viewport.Size) *Tracker {
	if navSize.Empty() {
		navSize = DefaultNavigatorSize
	}
	t := &Tracker{v: v, navSize: navSize}
	t.unsubscribe = v.Subscribe(func(ev viewer.Event) {
		switch ev.Type {
		case viewer.EventOpen, viewer.EventViewportChange:
			t.update(ev.State, ev.Container)
		}
	})
	t.update(v.State(), v.Container())
	return t
}

// SetCursor records the pointer position in container pixels
func (t *Tracker) SetCursor(screen viewport.Point) Readout {
	t.cursor = &screen
	t.update(t.v.State(), t.v.Container())
	return t.readout
}

// ClearCursor is called when the pointer leaves the container
func (t *Tracker) ClearCursor() Readout {
	t.cursor = nil
	t.update(t.v.State(), t.v.Container())
	return t.readout
}

// Readout returns the latest readout
func (t *Tracker) Readout() Readout {
	return t.readout
}

// Close detaches from the viewer
func (t *Tracker) Close() {
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

func (t *Tracker) update(s viewport.State, container viewport.Size) {
	r := Readout{
		Zoom:          s.Zoom,
		Magnification: Magnification(s.Zoom),
		Rotation:      s.Rotation,
	}

	img := t.v.Image()
	if img != nil {
		r.Navigator = viewport.NavigatorRect(s, *img, container, t.navSize)
		if t.cursor != nil {
			p := viewport.ScreenToImage(*t.cursor, s, *img, container)
			r.HasCursor = true
			r.ImageX = pixel(p.X)
			r.ImageY = pixel(p.Y)
			r.InsideImage = viewport.ContainsImagePoint(p, *img)
		}
	}
	t.readout = r
}

// pixel rounds v to the nearest pixel, saturating at the int32 range
func pixel(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(math.MinInt32, math.Min(math.MaxInt32, v))))
}

// Magnification formats a zoom level the way the HUD shows it
func Magnification(zoom float64) string {
	return fmt.Sprintf("%.2fx", zoom)
}
