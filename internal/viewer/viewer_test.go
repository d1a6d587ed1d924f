package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kiesman99/cosmoview/internal/eventloop"
	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blueMarbleURL = "/dzi/earth/blue-marble.dzi"

func blueMarble() *tile.Image {
	return &tile.Image{URL: blueMarbleURL, Width: 26674, Height: 17783, TileSize: 256, Overlap: 1, Format: tile.FormatPNG}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Container = viewport.Size{Width: 1000, Height: 800}
	return opts
}

type recorder struct {
	events []Event
}

func (r *recorder) record(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) types() []EventType {
	var out []EventType
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func (r *recorder) count(t EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func setupViewer(t *testing.T, opts Options) (*Viewer, *eventloop.Manual, *recorder) {
	t.Helper()
	m := eventloop.NewManual(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	v := New(m, opts)
	rec := &recorder{}
	v.Subscribe(rec.record)

	require.NoError(t, v.Load(blueMarbleURL))
	v.HandleOpen(blueMarble())
	require.Equal(t, StatusReady, v.Status())
	return v, m, rec
}

func TestStateMachine(t *testing.T) {
	m := eventloop.NewManual(time.Unix(0, 0))
	v := New(m, testOptions())
	rec := &recorder{}
	v.Subscribe(rec.record)

	assert.Equal(t, StatusUninitialized, v.Status())
	assert.ErrorIs(t, v.ZoomIn(), ErrNotReady)

	require.NoError(t, v.Load(blueMarbleURL))
	assert.Equal(t, StatusLoading, v.Status())
	assert.ErrorIs(t, v.PanTo(viewport.Point{}, false), ErrNotReady)
	assert.ErrorIs(t, v.Load(blueMarbleURL), ErrAlreadyOpened)

	v.HandleOpen(blueMarble())
	assert.Equal(t, StatusReady, v.Status())
	assert.Equal(t, []EventType{EventOpen, EventViewportChange}, rec.types())

	// home view of the image in a 1000x800 container
	s := v.State()
	assert.InDelta(t, 0.5, s.Center.X, 1e-9)
	assert.InDelta(t, 17783.0/26674.0/2, s.Center.Y, 1e-9)
	assert.InDelta(t, 1.0, s.Zoom, 1e-9)

	v.Destroy()
	assert.Equal(t, StatusDestroyed, v.Status())
	assert.Nil(t, v.Image())
	assert.ErrorIs(t, v.ZoomIn(), ErrDestroyed)
	assert.ErrorIs(t, v.Load(blueMarbleURL), ErrDestroyed)
	assert.ErrorIs(t, v.Resize(viewport.Size{Width: 10, Height: 10}), ErrDestroyed)
	v.Destroy()
}

func TestFailureReportedOnce(t *testing.T) {
	m := eventloop.NewManual(time.Unix(0, 0))
	v := New(m, testOptions())
	rec := &recorder{}
	v.Subscribe(rec.record)

	require.NoError(t, v.Load("/dzi/missing.dzi"))
	loadErr := errors.New("HTTP 404")
	v.HandleOpenFailed(loadErr)
	v.HandleOpenFailed(errors.New("again"))
	v.HandleOpen(blueMarble())

	assert.Equal(t, StatusFailed, v.Status())
	assert.Equal(t, loadErr, v.Err())
	require.Equal(t, []EventType{EventOpenFailed}, rec.types())
	assert.Equal(t, loadErr, rec.events[0].Err)

	assert.ErrorIs(t, v.ZoomIn(), ErrNotReady)
	assert.ErrorIs(t, v.Load("/dzi/missing.dzi"), ErrAlreadyOpened)
}

func TestHandleOpen_InvalidDescriptor(t *testing.T) {
	m := eventloop.NewManual(time.Unix(0, 0))
	v := New(m, testOptions())
	require.NoError(t, v.Load("x.dzi"))

	v.HandleOpen(&tile.Image{Width: 0, Height: 10, TileSize: 256, Format: tile.FormatPNG})
	assert.Equal(t, StatusFailed, v.Status())
	assert.Error(t, v.Err())
}

type resolverFunc func(ctx context.Context, url string) (*tile.Image, error)

func (f resolverFunc) Resolve(ctx context.Context, url string) (*tile.Image, error) {
	return f(ctx, url)
}

func TestOpen_ResolvesOffLoop(t *testing.T) {
	m := eventloop.NewManual(time.Unix(0, 0))
	v := New(m, testOptions())
	rec := &recorder{}
	v.Subscribe(rec.record)

	r := resolverFunc(func(ctx context.Context, url string) (*tile.Image, error) {
		return blueMarble(), nil
	})
	require.NoError(t, v.Open(context.Background(), r, blueMarbleURL))
	assert.Equal(t, StatusLoading, v.Status())

	require.Eventually(t, func() bool {
		m.RunPending()
		return v.Status() == StatusReady
	}, time.Second, time.Millisecond)
	assert.Equal(t, EventOpen, rec.events[0].Type)
}

func TestOpen_DestroyCancelsFetch(t *testing.T) {
	m := eventloop.NewManual(time.Unix(0, 0))
	v := New(m, testOptions())
	rec := &recorder{}
	v.Subscribe(rec.record)

	returned := make(chan error, 1)
	r := resolverFunc(func(ctx context.Context, url string) (*tile.Image, error) {
		<-ctx.Done()
		returned <- ctx.Err()
		return nil, ctx.Err()
	})
	require.NoError(t, v.Open(context.Background(), r, blueMarbleURL))
	v.Destroy()

	select {
	case err := <-returned:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("fetch was not cancelled")
	}

	// give the fetch goroutine time to post its result
	time.Sleep(20 * time.Millisecond)
	m.RunPending()
	assert.Equal(t, StatusDestroyed, v.Status())
	assert.Empty(t, rec.events)
}

func TestZoomIn_Monotonic(t *testing.T) {
	opts := testOptions()
	opts.AnimationTime = 0
	v, _, _ := setupViewer(t, opts)

	prev := v.State().Zoom
	for i := 0; i < 8; i++ {
		require.NoError(t, v.ZoomIn())
		z := v.State().Zoom
		assert.Greater(t, z, prev)
		assert.InDelta(t, prev*1.5, z, 1e-9*z)
		prev = z
	}

	for i := 0; i < 3; i++ {
		require.NoError(t, v.ZoomOut())
	}
	assert.InDelta(t, 1.5*1.5*1.5*1.5*1.5, v.State().Zoom, 1e-9)
}

func TestZoomIn_Animated(t *testing.T) {
	v, m, rec := setupViewer(t, testOptions())
	rec.events = nil
	z0 := v.State().Zoom

	require.NoError(t, v.ZoomIn())
	require.NoError(t, v.ZoomIn())
	assert.True(t, v.Animating())
	assert.InDelta(t, z0*2.25, v.TargetState().Zoom, 1e-9)
	assert.Equal(t, z0, v.State().Zoom)

	m.Advance(600 * time.Millisecond)
	assert.False(t, v.Animating())
	assert.InDelta(t, z0*2.25, v.State().Zoom, 1e-9)

	assert.Equal(t, 1, rec.count(EventAnimationStart))
	assert.Equal(t, 1, rec.count(EventAnimationFinish))
	assert.Greater(t, rec.count(EventViewportChange), 10)
	assert.Equal(t, EventAnimationStart, rec.events[0].Type)
	assert.Equal(t, EventAnimationFinish, rec.events[len(rec.events)-1].Type)

	// every intermediate frame is delivered, zooming in steadily
	prev := z0
	for _, ev := range rec.events {
		if ev.Type != EventViewportChange {
			continue
		}
		assert.GreaterOrEqual(t, ev.State.Zoom, prev)
		prev = ev.State.Zoom
	}
}

func TestEventsStrictlyOrdered(t *testing.T) {
	v, m, first := setupViewer(t, testOptions())
	second := &recorder{}

	panned := false
	v.Subscribe(func(ev Event) {
		if ev.Type == EventViewportChange && !panned {
			panned = true
			require.NoError(t, v.PanTo(viewport.Point{X: 0.2, Y: 0.2}, false))
		}
		second.record(ev)
	})

	require.NoError(t, v.ZoomIn())
	m.Advance(time.Second)

	require.Equal(t, len(first.events[2:]), len(second.events))
	for i, ev := range second.events {
		assert.Equal(t, first.events[i+2].Seq, ev.Seq)
		if i > 0 {
			assert.Equal(t, second.events[i-1].Seq+1, ev.Seq)
		}
	}
}

func TestZoomTo_Anchor(t *testing.T) {
	opts := testOptions()
	opts.AnimationTime = 0
	v, _, _ := setupViewer(t, opts)

	anchor := viewport.ImageToViewport(viewport.Point{X: 20000, Y: 3000}, *v.Image())
	before := viewport.ViewportToScreen(anchor, v.State(), v.Container())

	require.NoError(t, v.ZoomTo(6, &anchor, false))
	assert.InDelta(t, 6, v.State().Zoom, 1e-9)

	after := viewport.ViewportToScreen(anchor, v.State(), v.Container())
	assert.InDelta(t, before.X, after.X, 1e-6)
	assert.InDelta(t, before.Y, after.Y, 1e-6)
}

func TestZoomTo_AnchorHoldsDuringAnimation(t *testing.T) {
	v, m, rec := setupViewer(t, testOptions())
	rec.events = nil

	anchor := viewport.Point{X: 0.8, Y: 0.1}
	before := viewport.ViewportToScreen(anchor, v.State(), v.Container())

	require.NoError(t, v.ZoomTo(12, &anchor, true))
	m.Advance(time.Second)

	for _, ev := range rec.events {
		p := viewport.ViewportToScreen(anchor, ev.State, ev.Container)
		assert.InDelta(t, before.X, p.X, 1e-6)
		assert.InDelta(t, before.Y, p.Y, 1e-6)
	}
}

func TestZoomTo_ClampsToMinimum(t *testing.T) {
	opts := testOptions()
	opts.AnimationTime = 0
	v, _, _ := setupViewer(t, opts)

	require.NoError(t, v.ZoomTo(0.1, nil, false))
	assert.Equal(t, 0.8, v.State().Zoom)

	for i := 0; i < 5; i++ {
		require.NoError(t, v.ZoomOut())
	}
	assert.Equal(t, 0.8, v.State().Zoom)

	assert.ErrorIs(t, v.ZoomTo(-1, nil, false), ErrInvalidZoom)
	assert.ErrorIs(t, v.SetView(viewport.Point{}, 0, false), ErrInvalidZoom)
}

func TestHome(t *testing.T) {
	v, m, _ := setupViewer(t, testOptions())
	home := v.State()

	require.NoError(t, v.SetView(viewport.Point{X: 0.1, Y: 0.6}, 20, false))
	require.NoError(t, v.Rotate())
	require.NoError(t, v.Home())
	m.Advance(time.Second)

	s := v.State()
	assert.InDelta(t, home.Center.X, s.Center.X, 1e-9)
	assert.InDelta(t, home.Center.Y, s.Center.Y, 1e-9)
	assert.Equal(t, 90, s.Rotation)
	// rotated, the image height has to fit the container width
	assert.InDelta(t, 0.8, s.Zoom, 1e-9)
}

func TestRotation(t *testing.T) {
	v, _, rec := setupViewer(t, testOptions())
	rec.events = nil

	for i := 0; i < 4; i++ {
		require.NoError(t, v.Rotate())
	}
	assert.Equal(t, 0, v.State().Rotation)
	assert.Equal(t, 4, rec.count(EventViewportChange))

	require.NoError(t, v.SetRotation(-90))
	assert.Equal(t, 270, v.State().Rotation)
	assert.ErrorIs(t, v.SetRotation(45), viewport.ErrInvalidRotation)
	assert.Equal(t, 270, v.State().Rotation)
}

func TestImmediateOperationAbandonsAnimation(t *testing.T) {
	v, m, rec := setupViewer(t, testOptions())

	require.NoError(t, v.ZoomIn())
	m.Advance(100 * time.Millisecond)
	require.True(t, v.Animating())

	rec.events = nil
	target := viewport.Point{X: 0.3, Y: 0.3}
	require.NoError(t, v.PanTo(target, false))
	assert.False(t, v.Animating())
	assert.Equal(t, []EventType{EventViewportChange, EventAnimationFinish}, rec.types())

	m.Advance(time.Second)
	assert.Len(t, rec.events, 2)
	assert.Equal(t, target, v.State().Center)
	assert.Equal(t, 0, m.Timers())
}

func TestDestroyDetaches(t *testing.T) {
	v, m, rec := setupViewer(t, testOptions())

	require.NoError(t, v.ZoomIn())
	m.Advance(50 * time.Millisecond)
	n := len(rec.events)

	v.Destroy()
	assert.Equal(t, 0, m.Timers())

	m.Advance(time.Second)
	assert.Len(t, rec.events, n)
	assert.False(t, v.Animating())
}

func TestDestroyFromSubscriber(t *testing.T) {
	v, m, rec := setupViewer(t, testOptions())
	rec.events = nil

	v.Subscribe(func(ev Event) {
		if ev.Type == EventAnimationStart {
			v.Destroy()
		}
	})
	late := &recorder{}
	v.Subscribe(late.record)

	require.NoError(t, v.ZoomIn())
	m.Advance(time.Second)

	assert.Equal(t, []EventType{EventAnimationStart}, rec.types())
	assert.Empty(t, late.events)
}

func TestUnsubscribe(t *testing.T) {
	opts := testOptions()
	opts.AnimationTime = 0
	v, _, _ := setupViewer(t, opts)

	rec := &recorder{}
	unsubscribe := v.Subscribe(rec.record)
	require.NoError(t, v.ZoomIn())
	unsubscribe()
	require.NoError(t, v.ZoomIn())

	assert.Len(t, rec.events, 1)
}

func TestResize(t *testing.T) {
	v, _, rec := setupViewer(t, testOptions())
	rec.events = nil
	s := v.State()

	require.NoError(t, v.Resize(viewport.Size{Width: 500, Height: 400}))
	assert.Equal(t, s, v.State())
	assert.Equal(t, viewport.Size{Width: 500, Height: 400}, v.Container())
	assert.Equal(t, []EventType{EventViewportChange}, rec.types())

	assert.ErrorIs(t, v.Resize(viewport.Size{}), ErrInvalidContainer)
}

func TestCoordinateHelpers(t *testing.T) {
	v, _, _ := setupViewer(t, testOptions())

	center, err := v.ImageToScreen(viewport.Point{X: 13337, Y: 8891.5})
	require.NoError(t, err)
	assert.InDelta(t, 500, center.X, 1e-6)
	assert.InDelta(t, 400, center.Y, 1e-6)

	p, err := v.ScreenToImage(viewport.Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, p.X, 1e-6)
	assert.Less(t, p.Y, 0.0)

	empty := New(eventloop.NewManual(time.Unix(0, 0)), testOptions())
	_, err = empty.ImageToScreen(viewport.Point{})
	assert.ErrorIs(t, err, ErrNotReady)
}
