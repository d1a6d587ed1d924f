package tile

import "fmt"

// Tile formats understood by the pyramid writer and descriptor parser
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatJPG  = "jpg"
)

// Defaults used by the DZI generator
const (
	DefaultTileSize = 256
	DefaultOverlap  = 1
	DefaultFormat   = FormatPNG
)

// DeepZoomNamespace is the XML namespace of a DZI manifest
const DeepZoomNamespace = "http://schemas.microsoft.com/deepzoom/2008"

// Image describes a deep zoom tile source once its manifest has been loaded.
// It is immutable after loading.
type Image struct {
	// URL the descriptor was loaded from
	URL string

	// Full resolution dimensions in pixels
	Width  int
	Height int

	TileSize int
	Overlap  int
	Format   string

	// TilesURL is the optional base URL of the tile tree (the manifest's Url
	// attribute). When empty, tiles live in "<descriptor base>_files/".
	TilesURL string
}

// Validate checks the descriptor fields the viewer depends on
func (img *Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return fmt.Errorf("invalid image size: %dx%d", img.Width, img.Height)
	}
	if img.TileSize <= 0 {
		return fmt.Errorf("invalid tile size: %d", img.TileSize)
	}
	if img.Overlap < 0 {
		return fmt.Errorf("invalid overlap: %d", img.Overlap)
	}
	switch img.Format {
	case FormatPNG, FormatJPEG, FormatJPG:
	default:
		return fmt.Errorf("unsupported tile format: %q", img.Format)
	}
	return nil
}

// LongSide returns the longer of the two image dimensions
func (img *Image) LongSide() int {
	if img.Width > img.Height {
		return img.Width
	}
	return img.Height
}

// AspectRatio is width over height
func (img *Image) AspectRatio() float64 {
	if img.Height == 0 {
		return 0
	}
	return float64(img.Width) / float64(img.Height)
}
