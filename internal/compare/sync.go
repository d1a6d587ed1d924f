package compare

import (
	"log/slog"
	"math"

	"github.com/kiesman99/cosmoview/internal/viewer"
)

// DefaultOpacity of the overlay viewer, in percent
const DefaultOpacity = 50.0

// Synchronizer locks an overlay viewer to a base viewer. Every change
// notification of the base is copied onto the overlay without animation, and
// the overlay adopts the base view as soon as it opens. The base is only
// read, never written.
type Synchronizer struct {
	base    *viewer.Viewer
	overlay *viewer.Viewer
	log     *slog.Logger

	opacity   float64
	onOpacity func(float64)
	unsubs    []func()
}

// NewSynchronizer starts mirroring base onto overlay
func NewSynchronizer(base, overlay *viewer.Viewer, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.Default()
	}
	s := &Synchronizer{
		base:    base,
		overlay: overlay,
		log:     log,
		opacity: DefaultOpacity,
	}

	s.unsubs = append(s.unsubs,
		base.Subscribe(func(ev viewer.Event) {
			switch ev.Type {
			case viewer.EventOpen, viewer.EventViewportChange:
				s.sync()
			}
		}),
		overlay.Subscribe(func(ev viewer.Event) {
			if ev.Type == viewer.EventOpen {
				s.sync()
			}
		}),
	)
	s.sync()
	return s
}

func (s *Synchronizer) sync() {
	if s.base.Status() != viewer.StatusReady || s.overlay.Status() != viewer.StatusReady {
		return
	}
	st := s.base.State()

	if err := s.overlay.Resize(s.base.Container()); err != nil {
		s.log.Warn("overlay resize failed", "error", err)
		return
	}
	if err := s.overlay.SetRotation(st.Rotation); err != nil {
		s.log.Warn("overlay rotation failed", "error", err)
		return
	}
	if err := s.overlay.SetView(st.Center, st.Zoom, false); err != nil {
		s.log.Warn("overlay sync failed", "error", err)
	}
}

// SetOpacity clamps value into [0, 100] and applies it. The listener only
// runs when the opacity actually changes. The applied value is returned.
func (s *Synchronizer) SetOpacity(value float64) float64 {
	if math.IsNaN(value) {
		return s.opacity
	}
	value = clampOpacity(value)
	if value == s.opacity {
		return value
	}
	s.opacity = value
	if s.onOpacity != nil {
		s.onOpacity(value)
	}
	return value
}

// Opacity returns the overlay opacity in percent
func (s *Synchronizer) Opacity() float64 {
	return s.opacity
}

// OnOpacity registers the function that applies opacity to the rendered
// overlay
func (s *Synchronizer) OnOpacity(fn func(float64)) {
	s.onOpacity = fn
}

// Close stops mirroring. The viewers are left untouched.
func (s *Synchronizer) Close() {
	for _, unsubscribe := range s.unsubs {
		unsubscribe()
	}
	s.unsubs = nil
}

func clampOpacity(value float64) float64 {
	return math.Max(0, math.Min(100, value))
}
