// Package highlight keeps a named image feature emphasized on a viewer. The
// feature is stored in image pixels and its screen position is recomputed on
// every change notification, so it follows the image while the user pans and
// zooms.
package highlight

import (
	"log/slog"
	"time"

	"github.com/kiesman99/cosmoview/internal/eventloop"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

// DefaultDuration is how long a highlight stays before it clears itself
const DefaultDuration = 4 * time.Second

// Highlight is a named region being emphasized
type Highlight struct {
	Name  string
	Image viewport.Point
	// Screen is the position in the container for the latest viewer state
	Screen viewport.Point
	// Visible turns true once the navigation animation has finished
	Visible   bool
	CreatedAt time.Time
}

// Tracker owns at most one highlight for one viewer. Like the viewer it must
// only be used on the viewer's scheduler.
type Tracker struct {
	v        *viewer.Viewer
	sched    eventloop.Scheduler
	duration time.Duration
	log      *slog.Logger

	current     *Highlight
	timer       eventloop.Timer
	unsubscribe func()
}

// NewTracker subscribes to v. A zero duration uses DefaultDuration.
func NewTracker(v *viewer.Viewer, sched eventloop.Scheduler, duration time.Duration, log *slog.Logger) *Tracker {
	if duration <= 0 {
		duration = DefaultDuration
	}
	if log == nil {
		log = slog.Default()
	}
	t := &Tracker{
		v:        v,
		sched:    sched,
		duration: duration,
		log:      log,
	}
	t.unsubscribe = v.Subscribe(t.handle)
	return t
}

// Navigate flies the viewer to p at zoom and highlights it under name. It
// returns false without touching the viewer when the viewer is not ready or
// p lies outside the image.
//
// A request for the name already highlighted keeps the marker visible and
// restarts the clear timer. A different name replaces the current
// highlight.
func (t *Tracker) Navigate(name string, p viewport.Point, zoom float64) bool {
	img := t.v.Image()
	if t.v.Status() != viewer.StatusReady || img == nil {
		return false
	}
	if !viewport.ContainsImagePoint(p, *img) {
		t.log.Debug("highlight target outside image", "name", name, "point", p.String())
		return false
	}

	if err := t.v.SetView(viewport.ImageToViewport(p, *img), zoom, true); err != nil {
		t.log.Debug("highlight navigation rejected", "name", name, "error", err)
		return false
	}

	visible := t.current != nil && t.current.Name == name && t.current.Visible
	t.stopTimer()
	t.current = &Highlight{
		Name:      name,
		Image:     p,
		Visible:   visible || !t.v.Animating(),
		CreatedAt: t.sched.Now(),
	}
	t.reposition(t.v.State(), t.v.Container())
	t.timer = t.sched.AfterFunc(t.duration, t.expire)

	t.log.Debug("highlight created", "name", name, "point", p.String(), "zoom", zoom)
	return true
}

// Current returns the outstanding highlight. Check Visible before drawing
// it.
func (t *Tracker) Current() (Highlight, bool) {
	if t.current == nil {
		return Highlight{}, false
	}
	return *t.current, true
}

// Clear removes the highlight and stops its timer
func (t *Tracker) Clear() {
	t.stopTimer()
	t.current = nil
}

// Close clears the highlight and detaches from the viewer
func (t *Tracker) Close() {
	t.Clear()
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

func (t *Tracker) handle(ev viewer.Event) {
	if t.current == nil {
		return
	}
	switch ev.Type {
	case viewer.EventViewportChange:
		t.reposition(ev.State, ev.Container)
	case viewer.EventAnimationFinish:
		t.reposition(ev.State, ev.Container)
		t.current.Visible = true
	}
}

func (t *Tracker) reposition(s viewport.State, container viewport.Size) {
	img := t.v.Image()
	if img == nil {
		return
	}
	t.current.Screen = viewport.ImageToScreen(t.current.Image, s, *img, container)
}

func (t *Tracker) expire() {
	t.timer = nil
	if t.current != nil {
		t.log.Debug("highlight expired", "name", t.current.Name)
	}
	t.current = nil
}

func (t *Tracker) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
