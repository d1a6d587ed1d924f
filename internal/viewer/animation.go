package viewer

import (
	"math"
	"time"

	"github.com/kiesman99/cosmoview/pkg/viewport"
)

type animation struct {
	from, to viewport.State
	anchor   *viewport.Point
	start    time.Time
	duration time.Duration
}

// at returns the interpolated state at now and whether the animation is over
func (a *animation) at(now time.Time) (viewport.State, bool) {
	if a.duration <= 0 {
		return a.to, true
	}
	t := float64(now.Sub(a.start)) / float64(a.duration)
	if t >= 1 {
		return a.to, true
	}
	e := easeOut(math.Max(t, 0))

	// zoom is interpolated geometrically so each frame scales by the same ratio
	zoom := a.from.Zoom * math.Pow(a.to.Zoom/a.from.Zoom, e)

	var center viewport.Point
	if a.anchor != nil {
		center = anchorCenter(*a.anchor, a.from, zoom)
	} else {
		center = viewport.Point{
			X: a.from.Center.X + (a.to.Center.X-a.from.Center.X)*e,
			Y: a.from.Center.Y + (a.to.Center.Y-a.from.Center.Y)*e,
		}
	}
	return viewport.State{Center: center, Zoom: zoom, Rotation: a.to.Rotation}, false
}

func easeOut(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// anchorCenter returns the center that keeps anchor at the same screen
// position when s is zoomed to zoom
func anchorCenter(anchor viewport.Point, s viewport.State, zoom float64) viewport.Point {
	k := s.Zoom / zoom
	return viewport.Point{
		X: anchor.X - (anchor.X-s.Center.X)*k,
		Y: anchor.Y - (anchor.Y-s.Center.Y)*k,
	}
}

// transition moves the viewer to target. An immediate transition abandons a
// running animation; an animated one retargets it from the current state.
func (v *Viewer) transition(to viewport.State, anchor *viewport.Point, animate bool) {
	if !animate || v.opts.AnimationTime <= 0 {
		abandoned := v.anim != nil
		v.stopAnimation()
		v.state = to
		v.emit(EventViewportChange, nil)
		if abandoned {
			v.emit(EventAnimationFinish, nil)
		}
		return
	}

	running := v.anim != nil
	v.anim = &animation{
		from:     v.state,
		to:       to,
		anchor:   anchor,
		start:    v.sched.Now(),
		duration: v.opts.AnimationTime,
	}
	if running {
		return
	}
	v.emit(EventAnimationStart, nil)
	if v.anim != nil && v.frame == nil {
		v.scheduleFrame()
	}
}

func (v *Viewer) scheduleFrame() {
	v.frame = v.sched.AfterFunc(v.opts.FrameInterval, v.onFrame)
}

func (v *Viewer) onFrame() {
	v.frame = nil
	if v.anim == nil || v.status != StatusReady {
		return
	}

	s, done := v.anim.at(v.sched.Now())
	v.state = s
	if done {
		v.anim = nil
		v.emit(EventViewportChange, nil)
		v.emit(EventAnimationFinish, nil)
		return
	}

	v.emit(EventViewportChange, nil)
	if v.anim != nil && v.frame == nil && v.status == StatusReady {
		v.scheduleFrame()
	}
}

func (v *Viewer) stopAnimation() {
	if v.frame != nil {
		v.frame.Stop()
		v.frame = nil
	}
	v.anim = nil
}
