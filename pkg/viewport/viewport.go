// Package viewport converts between the three coordinate spaces of a deep
// zoom viewer:
//
//   - image space: full resolution pixels of the tile source
//   - viewport space: image coordinates normalized by the image's longer
//     side, so the longer axis spans [0, 1] and aspect ratio is preserved
//   - screen space: pixels relative to the top-left corner of the viewer's
//     container
//
// A State maps viewport space onto the screen: the viewport point at
// State.Center lands on the container center, one viewport unit spans
// State.Zoom*container.Width screen pixels, and the result is rotated
// clockwise by State.Rotation around the container center. The composition
// order is zoom, then pan, then rotate.
//
// None of the functions clamp. Points outside the image or the container
// are reported as computed.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/kiesman99/cosmoview/pkg/tile"
)

// ErrInvalidRotation is returned for angles that are not a multiple of 90
var ErrInvalidRotation = errors.New("rotation must be a multiple of 90 degrees")

// Point is a 2D coordinate. Which space it lives in is given by the function
// producing or consuming it.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.3f, %.3f)", p.X, p.Y)
}

// Size is the size of the viewer container in screen pixels
type Size struct {
	Width, Height float64
}

// Center of the container in screen pixels
func (s Size) Center() Point {
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// Empty reports whether the container has no area
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// State is the view of one viewer
type State struct {
	Center   Point
	Zoom     float64
	Rotation int
}

// Rect is an axis aligned rectangle
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether p lies inside r, edges included
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// NormalizeRotation folds deg into [0, 360). Only multiples of 90 are
// accepted.
func NormalizeRotation(deg int) (int, error) {
	if deg%90 != 0 {
		return 0, ErrInvalidRotation
	}
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg, nil
}

// NextRotation returns rotation advanced by one clockwise quarter turn
func NextRotation(rotation int) int {
	r, err := NormalizeRotation(rotation + 90)
	if err != nil {
		return 0
	}
	return r
}

// rotate turns p clockwise by deg degrees in a y-down coordinate system.
// deg must already be normalized.
func rotate(p Point, deg int) Point {
	switch deg {
	case 90:
		return Point{X: -p.Y, Y: p.X}
	case 180:
		return Point{X: -p.X, Y: -p.Y}
	case 270:
		return Point{X: p.Y, Y: -p.X}
	}
	return p
}

func normalized(deg int) int {
	r, err := NormalizeRotation(deg)
	if err != nil {
		return 0
	}
	return r
}

// Scale returns the number of screen pixels per viewport unit
func Scale(s State, container Size) float64 {
	return s.Zoom * container.Width
}

// ImageToViewport normalizes an image pixel coordinate
func ImageToViewport(p Point, img tile.Image) Point {
	long := float64(img.LongSide())
	if long == 0 {
		return Point{}
	}
	return Point{X: p.X / long, Y: p.Y / long}
}

// ViewportToImage is the inverse of ImageToViewport
func ViewportToImage(p Point, img tile.Image) Point {
	long := float64(img.LongSide())
	return Point{X: p.X * long, Y: p.Y * long}
}

// ViewportToScreen maps a viewport point onto the container
func ViewportToScreen(p Point, s State, container Size) Point {
	scale := Scale(s, container)
	d := Point{X: (p.X - s.Center.X) * scale, Y: (p.Y - s.Center.Y) * scale}
	d = rotate(d, normalized(s.Rotation))
	c := container.Center()
	return Point{X: c.X + d.X, Y: c.Y + d.Y}
}

// ScreenToViewport is the inverse of ViewportToScreen. A zero zoom or an
// empty container yields the state's center.
func ScreenToViewport(p Point, s State, container Size) Point {
	scale := Scale(s, container)
	if scale == 0 {
		return s.Center
	}
	c := container.Center()
	d := Point{X: p.X - c.X, Y: p.Y - c.Y}
	d = rotate(d, normalized(360-normalized(s.Rotation)))
	return Point{X: s.Center.X + d.X/scale, Y: s.Center.Y + d.Y/scale}
}

// ImageToScreen maps an image pixel onto the container
func ImageToScreen(p Point, s State, img tile.Image, container Size) Point {
	return ViewportToScreen(ImageToViewport(p, img), s, container)
}

// ScreenToImage maps a container pixel back to image pixels
func ScreenToImage(p Point, s State, img tile.Image, container Size) Point {
	return ViewportToImage(ScreenToViewport(p, s, container), img)
}

// ContainsImagePoint reports whether p lies within [0, Width] x [0, Height]
func ContainsImagePoint(p Point, img tile.Image) bool {
	return p.X >= 0 && p.Y >= 0 && p.X <= float64(img.Width) && p.Y <= float64(img.Height)
}

// ImageBounds returns the image extent in viewport coordinates
func ImageBounds(img tile.Image) Rect {
	size := ImageToViewport(Point{X: float64(img.Width), Y: float64(img.Height)}, img)
	return Rect{Width: size.X, Height: size.Y}
}

// ImageCenter is the center of the image in viewport coordinates
func ImageCenter(img tile.Image) Point {
	return ImageBounds(img).Center()
}

// FitZoom returns the zoom at which the whole image fits the container for
// the given rotation
func FitZoom(img tile.Image, container Size, rotation int) float64 {
	if container.Empty() {
		return 1
	}
	b := ImageBounds(img)
	if b.Width == 0 || b.Height == 0 {
		return 1
	}
	w, h := b.Width, b.Height
	if r := normalized(rotation); r == 90 || r == 270 {
		w, h = h, w
	}
	// on screen the image spans w*zoom*cw by h*zoom*cw pixels
	return math.Min(1/w, container.Height/(container.Width*h))
}

// VisibleRect returns the bounding rectangle, in viewport coordinates, of the
// area shown in the container
func VisibleRect(s State, container Size) Rect {
	corners := []Point{
		{X: 0, Y: 0},
		{X: container.Width, Y: 0},
		{X: 0, Y: container.Height},
		{X: container.Width, Y: container.Height},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		v := ScreenToViewport(c, s, container)
		minX = math.Min(minX, v.X)
		minY = math.Min(minY, v.Y)
		maxX = math.Max(maxX, v.X)
		maxY = math.Max(maxY, v.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// VisibleImageRect is VisibleRect expressed in image pixels
func VisibleImageRect(s State, img tile.Image, container Size) Rect {
	r := VisibleRect(s, container)
	origin := ViewportToImage(Point{X: r.X, Y: r.Y}, img)
	size := ViewportToImage(Point{X: r.Width, Y: r.Height}, img)
	return Rect{X: origin.X, Y: origin.Y, Width: size.X, Height: size.Y}
}
