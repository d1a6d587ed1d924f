package viewport

import (
	"math"

	"github.com/kiesman99/cosmoview/pkg/tile"
)

// NavigatorRect returns the rectangle of a navigator thumbnail (the whole
// image drawn into nav) that is currently visible in the container. The
// result is clipped to the thumbnail.
func NavigatorRect(s State, img tile.Image, container Size, nav Size) Rect {
	if img.Width == 0 || img.Height == 0 {
		return Rect{}
	}
	r := VisibleImageRect(s, img, container)
	sx := nav.Width / float64(img.Width)
	sy := nav.Height / float64(img.Height)

	x0 := clamp(r.X*sx, 0, nav.Width)
	y0 := clamp(r.Y*sy, 0, nav.Height)
	x1 := clamp((r.X+r.Width)*sx, 0, nav.Width)
	y1 := clamp((r.Y+r.Height)*sy, 0, nav.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// NavigatorToViewport maps a click on a navigator thumbnail of size nav to
// the viewport point it shows
func NavigatorToViewport(p Point, img tile.Image, nav Size) Point {
	if nav.Empty() {
		return ImageCenter(img)
	}
	ip := Point{
		X: p.X / nav.Width * float64(img.Width),
		Y: p.Y / nav.Height * float64(img.Height),
	}
	return ImageToViewport(ip, img)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
