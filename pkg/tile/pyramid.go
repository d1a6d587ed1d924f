package tile

import (
	"image"
	"math"
	"path"
	"strconv"
	"strings"
)

// MaxLevel returns the index of the full resolution level of a pyramid for
// an image of the given size. Level 0 is a single pixel.
func MaxLevel(width, height int) int {
	maxDim := width
	if height > maxDim {
		maxDim = height
	}
	if maxDim <= 1 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(maxDim))))
}

// MaxLevel of this image's pyramid
func (img *Image) MaxLevel() int {
	return MaxLevel(img.Width, img.Height)
}

// LevelScale is the downsampling factor of level relative to full resolution
func (img *Image) LevelScale(level int) float64 {
	return math.Pow(2, float64(img.MaxLevel()-level))
}

// LevelSize returns the pixel dimensions of a pyramid level
func (img *Image) LevelSize(level int) (int, int) {
	scale := img.LevelScale(level)
	w := int(math.Ceil(float64(img.Width) / scale))
	h := int(math.Ceil(float64(img.Height) / scale))
	return w, h
}

// LevelTiles returns the number of tile columns and rows of a level
func (img *Image) LevelTiles(level int) (int, int) {
	w, h := img.LevelSize(level)
	cols := int(math.Ceil(float64(w) / float64(img.TileSize)))
	rows := int(math.Ceil(float64(h) / float64(img.TileSize)))
	return cols, rows
}

// TileCount is the total number of tiles across all levels
func (img *Image) TileCount() int {
	total := 0
	for level := 0; level <= img.MaxLevel(); level++ {
		cols, rows := img.LevelTiles(level)
		total += cols * rows
	}
	return total
}

// TileBounds returns the pixel rectangle of a tile within its level,
// including the overlap shared with neighbouring tiles
func (img *Image) TileBounds(level, col, row int) image.Rectangle {
	w, h := img.LevelSize(level)

	x0 := col * img.TileSize
	y0 := row * img.TileSize
	if col > 0 {
		x0 -= img.Overlap
	}
	if row > 0 {
		y0 -= img.Overlap
	}
	x1 := min((col+1)*img.TileSize+img.Overlap, w)
	y1 := min((row+1)*img.TileSize+img.Overlap, h)

	return image.Rect(x0, y0, x1, y1)
}

// TileURLTemplate returns the tile URL template of this image,
// <tiles>/{z}/{x}_{y}.<format>, with the placeholders BuildURL fills in
func (img *Image) TileURLTemplate() string {
	base := img.TilesURL
	if base == "" {
		base = strings.TrimSuffix(img.URL, path.Ext(img.URL)) + "_files/"
	} else if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + "{z}/{x}_{y}." + img.Format
}

// TileURL returns the URL of a single tile
func (img *Image) TileURL(level, col, row int) string {
	return BuildURL(img.TileURLTemplate(), level, col, row)
}

// BuildURL replaces URL template tokens
func BuildURL(template string, level, col, row int) string {
	url := template
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(level))
	url = strings.ReplaceAll(url, "{x}", strconv.Itoa(col))
	url = strings.ReplaceAll(url, "{y}", strconv.Itoa(row))
	return url
}
