// Package compare shows two tile images side by side (split mode) or stacked
// with the upper one locked to the lower one (overlay mode).
package compare

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/kiesman99/cosmoview/internal/viewer"
)

var (
	// ErrOverlayReadOnly is returned when asking for the overlay viewer to
	// drive it directly. Its view follows the base viewer.
	ErrOverlayReadOnly = errors.New("overlay viewer is read only")
	// ErrNoImage is returned when a comparison has no left image
	ErrNoImage = errors.New("comparison needs at least one image")
	// ErrInvalidMode is returned by ParseMode
	ErrInvalidMode = errors.New("mode must be split or overlay")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("comparison is closed")
)

// Mode is the comparison layout
type Mode string

const (
	ModeSplit   Mode = "split"
	ModeOverlay Mode = "overlay"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSplit, ModeOverlay:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Side selects one of the two viewers
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ImageRef names a tile source
type ImageRef struct {
	URL  string
	Name string
}

// Factory creates a viewer for ref and starts opening it. It runs on the
// scheduler the comparison is used from.
type Factory func(side Side, ref ImageRef) (*viewer.Viewer, error)

// Comparison owns the two viewers of a comparison pair. The left image is
// the base, the right image is the overlay. Changing the mode or an image
// destroys both viewers and creates new ones.
type Comparison struct {
	factory Factory
	log     *slog.Logger

	mode        Mode
	left, right ImageRef
	opacity     float64
	onOpacity   func(float64)

	leftV, rightV *viewer.Viewer
	sync          *Synchronizer
	closed        bool
}

// New builds a comparison. An empty right image reuses the left one.
func New(left, right ImageRef, mode Mode, factory Factory, log *slog.Logger) (*Comparison, error) {
	if left.URL == "" {
		return nil, ErrNoImage
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	c := &Comparison{
		factory: factory,
		log:     log,
		mode:    mode,
		left:    left,
		right:   right,
		opacity: DefaultOpacity,
	}
	if c.right.URL == "" {
		c.right = left
	}
	if err := c.build(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Comparison) build() error {
	l, err := c.factory(SideLeft, c.left)
	if err != nil {
		return fmt.Errorf("create left viewer: %w", err)
	}
	r, err := c.factory(SideRight, c.right)
	if err != nil {
		l.Destroy()
		return fmt.Errorf("create right viewer: %w", err)
	}
	c.leftV, c.rightV = l, r

	if c.mode == ModeOverlay {
		c.sync = NewSynchronizer(l, r, c.log)
		c.sync.opacity = c.opacity
		c.sync.OnOpacity(c.onOpacity)
		// a new overlay renders at full opacity until told otherwise
		if c.onOpacity != nil {
			c.onOpacity(c.opacity)
		}
	}
	c.log.Debug("comparison built", "mode", c.mode, "left", c.left.URL, "right", c.right.URL)
	return nil
}

func (c *Comparison) teardown() {
	if c.sync != nil {
		c.sync.Close()
		c.sync = nil
	}
	if c.leftV != nil {
		c.leftV.Destroy()
		c.leftV = nil
	}
	if c.rightV != nil {
		c.rightV.Destroy()
		c.rightV = nil
	}
}

func (c *Comparison) rebuild() error {
	if c.closed {
		return ErrClosed
	}
	c.teardown()
	return c.build()
}

// SetMode switches layout. The image selection is kept: left stays the base
// and right the overlay.
func (c *Comparison) SetMode(mode Mode) error {
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	if c.closed {
		return ErrClosed
	}
	if mode == c.mode {
		return nil
	}
	c.mode = mode
	return c.rebuild()
}

// SetLeft replaces the left image
func (c *Comparison) SetLeft(ref ImageRef) error {
	return c.SetImages(&ref, nil)
}

// SetRight replaces the right image. An empty ref reuses the left image.
func (c *Comparison) SetRight(ref ImageRef) error {
	return c.SetImages(nil, &ref)
}

// SetImages replaces either or both images with a single rebuild. A nil
// side is kept; an empty right ref reuses the left image.
func (c *Comparison) SetImages(left, right *ImageRef) error {
	if left != nil && left.URL == "" {
		return ErrNoImage
	}
	if c.closed {
		return ErrClosed
	}
	if left == nil && right == nil {
		return nil
	}
	if left != nil {
		c.left = *left
	}
	if right != nil {
		c.right = *right
		if c.right.URL == "" {
			c.right = c.left
		}
	}
	return c.rebuild()
}

// SetOpacity stores the overlay opacity, clamped to [0, 100], and applies it
// in overlay mode
func (c *Comparison) SetOpacity(value float64) float64 {
	if math.IsNaN(value) {
		return c.opacity
	}
	c.opacity = clampOpacity(value)
	if c.sync != nil {
		c.sync.SetOpacity(c.opacity)
	}
	return c.opacity
}

// OnOpacity registers the function applying opacity to the rendered overlay
func (c *Comparison) OnOpacity(fn func(float64)) {
	c.onOpacity = fn
	if c.sync != nil {
		c.sync.OnOpacity(fn)
		if fn != nil {
			fn(c.opacity)
		}
	}
}

// Viewer returns the viewer that takes input for side. In overlay mode the
// right viewer is read only.
func (c *Comparison) Viewer(side Side) (*viewer.Viewer, error) {
	if c.closed {
		return nil, ErrClosed
	}
	switch side {
	case SideLeft:
		return c.leftV, nil
	case SideRight:
		if c.mode == ModeOverlay {
			return nil, ErrOverlayReadOnly
		}
		return c.rightV, nil
	}
	return nil, fmt.Errorf("unknown side %q", side)
}

// Viewers returns both viewers for reading
func (c *Comparison) Viewers() (left, right *viewer.Viewer) {
	return c.leftV, c.rightV
}

// Base is the left viewer
func (c *Comparison) Base() *viewer.Viewer { return c.leftV }

// Overlay is the right viewer in overlay mode, nil in split mode
func (c *Comparison) Overlay() *viewer.Viewer {
	if c.mode != ModeOverlay {
		return nil
	}
	return c.rightV
}

// Mode returns the current layout
func (c *Comparison) Mode() Mode { return c.mode }

// Images returns the selected images
func (c *Comparison) Images() (left, right ImageRef) { return c.left, c.right }

// Opacity returns the overlay opacity in percent
func (c *Comparison) Opacity() float64 { return c.opacity }

// Close destroys both viewers
func (c *Comparison) Close() {
	if c.closed {
		return
	}
	c.teardown()
	c.closed = true
}
