// Package viewer implements a deep zoom viewer instance: one tile source and
// one viewport state, mutated through zoom, pan and rotate operations that
// emit ordered change notifications.
//
// A Viewer is not safe for concurrent use. All methods, subscriber callbacks
// and animation frames run on the eventloop.Scheduler passed to New.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/kiesman99/cosmoview/internal/eventloop"
	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

var (
	// ErrNotReady is returned by view operations before the tile source has
	// opened, or after it failed
	ErrNotReady = errors.New("viewer is not ready")
	// ErrDestroyed is returned by every operation on a destroyed viewer
	ErrDestroyed = errors.New("viewer is destroyed")
	// ErrAlreadyOpened is returned when a tile source is supplied twice. A
	// new viewer has to be created instead.
	ErrAlreadyOpened = errors.New("viewer already has a tile source")
	// ErrInvalidZoom is returned for zero, negative or non finite zoom levels
	ErrInvalidZoom = errors.New("zoom must be a positive number")
	// ErrInvalidContainer is returned when resizing to an empty container
	ErrInvalidContainer = errors.New("container must have a positive size")
)

// Status is the lifecycle state of a viewer
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusReady
	StatusFailed
	StatusDestroyed
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	case StatusDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Resolver loads a tile source descriptor. tile.Processor implements it.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*tile.Image, error)
}

// Options configures a viewer
type Options struct {
	// MinZoom is the lower bound for every zoom operation
	MinZoom float64
	// ZoomFactor is applied by ZoomIn and ZoomOut
	ZoomFactor float64
	// AnimationTime is the length of an animated transition. Zero makes every
	// transition immediate.
	AnimationTime time.Duration
	// FrameInterval is the delay between animation frames
	FrameInterval time.Duration
	Container     viewport.Size
	Logger        *slog.Logger
}

// DefaultOptions returns the settings of the web viewer
func DefaultOptions() Options {
	return Options{
		MinZoom:       0.8,
		ZoomFactor:    1.5,
		AnimationTime: 500 * time.Millisecond,
		FrameInterval: 16 * time.Millisecond,
		Container:     viewport.Size{Width: 1280, Height: 800},
	}
}

type subscriber struct {
	fn      func(Event)
	removed bool
}

// Viewer owns one tile image and one viewport state
type Viewer struct {
	sched eventloop.Scheduler
	opts  Options
	log   *slog.Logger

	status    Status
	url       string
	img       *tile.Image
	err       error
	state     viewport.State
	container viewport.Size

	anim   *animation
	frame  eventloop.Timer
	cancel context.CancelFunc

	subs     []*subscriber
	seq      uint64
	pending  []Event
	emitting bool
}

// New creates an uninitialized viewer running on sched
func New(sched eventloop.Scheduler, opts Options) *Viewer {
	def := DefaultOptions()
	if opts.MinZoom <= 0 {
		opts.MinZoom = def.MinZoom
	}
	if opts.ZoomFactor <= 1 {
		opts.ZoomFactor = def.ZoomFactor
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = def.FrameInterval
	}
	if opts.AnimationTime < 0 {
		opts.AnimationTime = 0
	}
	if opts.Container.Empty() {
		opts.Container = def.Container
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Viewer{
		sched:     sched,
		opts:      opts,
		log:       log,
		container: opts.Container,
	}
}

// Load marks the viewer as loading url. The owner reports the outcome with
// HandleOpen or HandleOpenFailed.
func (v *Viewer) Load(url string) error {
	switch v.status {
	case StatusDestroyed:
		return ErrDestroyed
	case StatusUninitialized:
	default:
		return ErrAlreadyOpened
	}
	v.status = StatusLoading
	v.url = url
	v.log.Debug("loading tile source", "url", url)
	return nil
}

// Open loads url and resolves its descriptor on a separate goroutine. The
// result is delivered on the scheduler. Destroying the viewer cancels the
// fetch.
func (v *Viewer) Open(ctx context.Context, r Resolver, url string) error {
	if err := v.Load(url); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	sched := v.sched
	go func() {
		img, err := r.Resolve(ctx, url)
		sched.Post(func() {
			if err != nil {
				v.HandleOpenFailed(err)
				return
			}
			v.HandleOpen(img)
		})
	}()
	return nil
}

// HandleOpen completes loading. The viewer moves to the home view and emits
// open followed by viewport-change. It is ignored unless the viewer is
// loading.
func (v *Viewer) HandleOpen(img *tile.Image) {
	if v.status != StatusLoading {
		return
	}
	if img == nil {
		v.HandleOpenFailed(errors.New("tile source has no descriptor"))
		return
	}
	if err := img.Validate(); err != nil {
		v.HandleOpenFailed(err)
		return
	}

	v.releaseFetch()
	v.img = img
	v.status = StatusReady
	v.state = v.homeState()
	v.log.Info("tile source opened", "url", v.url, "width", img.Width, "height", img.Height)

	v.emit(EventOpen, nil)
	v.emit(EventViewportChange, nil)
}

// HandleOpenFailed moves a loading viewer to the terminal failed state and
// reports the failure once
func (v *Viewer) HandleOpenFailed(err error) {
	if v.status != StatusLoading {
		return
	}
	v.releaseFetch()
	v.status = StatusFailed
	v.err = err
	v.log.Warn("tile source failed to open", "url", v.url, "error", err)

	v.emit(EventOpenFailed, err)
}

func (v *Viewer) releaseFetch() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// Destroy detaches every subscriber, abandons any animation and cancels an
// in-flight descriptor fetch. Nothing is emitted afterwards.
func (v *Viewer) Destroy() {
	if v.status == StatusDestroyed {
		return
	}
	v.stopAnimation()
	v.releaseFetch()
	v.status = StatusDestroyed
	v.subs = nil
	v.pending = nil
	v.img = nil
	v.log.Debug("viewer destroyed", "url", v.url)
}

// Subscribe registers fn for every event emitted from now on. The returned
// function removes the registration.
func (v *Viewer) Subscribe(fn func(Event)) func() {
	if v.status == StatusDestroyed {
		return func() {}
	}
	s := &subscriber{fn: fn}
	v.subs = append(v.subs, s)
	return func() {
		s.removed = true
		v.subs = slices.DeleteFunc(v.subs, func(other *subscriber) bool { return other == s })
	}
}

// emit delivers events strictly in order. An event emitted by a subscriber
// is queued until the current one has reached every subscriber.
func (v *Viewer) emit(t EventType, err error) {
	if v.status == StatusDestroyed {
		return
	}
	v.seq++
	v.pending = append(v.pending, Event{
		Type:      t,
		Seq:       v.seq,
		State:     v.state,
		Container: v.container,
		Err:       err,
		Time:      v.sched.Now(),
	})
	if v.emitting {
		return
	}

	v.emitting = true
	defer func() { v.emitting = false }()
	for len(v.pending) > 0 {
		ev := v.pending[0]
		v.pending = v.pending[1:]
		for _, s := range slices.Clone(v.subs) {
			if s.removed || v.status == StatusDestroyed {
				continue
			}
			s.fn(ev)
		}
	}
}

func (v *Viewer) ready() error {
	switch v.status {
	case StatusReady:
		return nil
	case StatusDestroyed:
		return ErrDestroyed
	}
	return ErrNotReady
}

func (v *Viewer) clampZoom(z float64) float64 {
	return math.Max(z, v.opts.MinZoom)
}

func validZoom(z float64) bool {
	return z > 0 && !math.IsInf(z, 0) && !math.IsNaN(z)
}

func (v *Viewer) homeState() viewport.State {
	return viewport.State{
		Center:   viewport.ImageCenter(*v.img),
		Zoom:     v.clampZoom(viewport.FitZoom(*v.img, v.container, v.state.Rotation)),
		Rotation: v.state.Rotation,
	}
}

// ZoomIn multiplies the target zoom by the zoom factor, animated
func (v *Viewer) ZoomIn() error {
	return v.zoomBy(v.opts.ZoomFactor)
}

// ZoomOut divides the target zoom by the zoom factor, animated
func (v *Viewer) ZoomOut() error {
	return v.zoomBy(1 / v.opts.ZoomFactor)
}

func (v *Viewer) zoomBy(factor float64) error {
	if err := v.ready(); err != nil {
		return err
	}
	return v.ZoomTo(v.TargetState().Zoom*factor, nil, true)
}

// ZoomTo sets the zoom level. With an anchor, given in viewport coordinates,
// the anchor stays at the same screen position for the whole transition.
func (v *Viewer) ZoomTo(zoom float64, anchor *viewport.Point, animate bool) error {
	if err := v.ready(); err != nil {
		return err
	}
	if !validZoom(zoom) {
		return ErrInvalidZoom
	}
	zoom = v.clampZoom(zoom)

	to := v.TargetState()
	to.Zoom = zoom
	if anchor != nil {
		a := *anchor
		anchor = &a
		to.Center = anchorCenter(a, v.state, zoom)
	}
	v.transition(to, anchor, animate)
	return nil
}

// PanTo moves the viewport center, keeping the target zoom
func (v *Viewer) PanTo(center viewport.Point, animate bool) error {
	if err := v.ready(); err != nil {
		return err
	}
	to := v.TargetState()
	to.Center = center
	v.transition(to, nil, animate)
	return nil
}

// SetView pans and zooms in one transition
func (v *Viewer) SetView(center viewport.Point, zoom float64, animate bool) error {
	if err := v.ready(); err != nil {
		return err
	}
	if !validZoom(zoom) {
		return ErrInvalidZoom
	}
	to := v.TargetState()
	to.Center = center
	to.Zoom = v.clampZoom(zoom)
	v.transition(to, nil, animate)
	return nil
}

// Home animates back to the fit-to-container view. Rotation is kept.
func (v *Viewer) Home() error {
	if err := v.ready(); err != nil {
		return err
	}
	v.transition(v.homeState(), nil, true)
	return nil
}

// SetRotation rotates the view to deg, a multiple of 90. An in-flight
// animation keeps running with the new rotation.
func (v *Viewer) SetRotation(deg int) error {
	if err := v.ready(); err != nil {
		return err
	}
	r, err := viewport.NormalizeRotation(deg)
	if err != nil {
		return err
	}
	if r == v.state.Rotation {
		return nil
	}
	v.state.Rotation = r
	if v.anim != nil {
		v.anim.from.Rotation = r
		v.anim.to.Rotation = r
	}
	v.emit(EventViewportChange, nil)
	return nil
}

// Rotate advances the rotation by a quarter turn clockwise
func (v *Viewer) Rotate() error {
	if err := v.ready(); err != nil {
		return err
	}
	return v.SetRotation(viewport.NextRotation(v.state.Rotation))
}

// Resize changes the container size. The viewport state is kept.
func (v *Viewer) Resize(size viewport.Size) error {
	if v.status == StatusDestroyed {
		return ErrDestroyed
	}
	if size.Empty() {
		return ErrInvalidContainer
	}
	if size == v.container {
		return nil
	}
	v.container = size
	if v.status == StatusReady {
		v.emit(EventViewportChange, nil)
	}
	return nil
}

// Status returns the lifecycle state
func (v *Viewer) Status() Status { return v.status }

// Err returns the load failure of a failed viewer
func (v *Viewer) Err() error { return v.err }

// URL returns the tile source URL
func (v *Viewer) URL() string { return v.url }

// Image returns the opened tile image, or nil
func (v *Viewer) Image() *tile.Image { return v.img }

// State returns the current, possibly mid-animation, viewport state
func (v *Viewer) State() viewport.State { return v.state }

// Container returns the container size
func (v *Viewer) Container() viewport.Size { return v.container }

// Animating reports whether a transition is in flight
func (v *Viewer) Animating() bool { return v.anim != nil }

// TargetState returns the state the viewer is heading to. Without an
// animation this is the current state.
func (v *Viewer) TargetState() viewport.State {
	if v.anim != nil {
		return v.anim.to
	}
	return v.state
}

// Options returns the effective options
func (v *Viewer) Options() Options { return v.opts }

// ImageToScreen maps an image pixel to the container for the current state
func (v *Viewer) ImageToScreen(p viewport.Point) (viewport.Point, error) {
	if v.img == nil {
		return viewport.Point{}, ErrNotReady
	}
	return viewport.ImageToScreen(p, v.state, *v.img, v.container), nil
}

// ScreenToImage maps a container pixel to image pixels for the current state
func (v *Viewer) ScreenToImage(p viewport.Point) (viewport.Point, error) {
	if v.img == nil {
		return viewport.Point{}, ErrNotReady
	}
	return viewport.ScreenToImage(p, v.state, *v.img, v.container), nil
}
