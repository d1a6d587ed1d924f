// Package tiler cuts large images into Deep Zoom (DZI) tile pyramids that
// the viewer can open.
package tiler

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// Options contains all pyramid parameters
type Options struct {
	TileSize int
	Overlap  int
	Format   string
	// BaseURL, when set, is written into the manifest as the location of the
	// tile tree: "<BaseURL>/<name>_files/"
	BaseURL string
	Logger  *slog.Logger
}

// DefaultOptions returns 256 pixel png tiles with one pixel overlap
func DefaultOptions() Options {
	return Options{
		TileSize: tile.DefaultTileSize,
		Overlap:  tile.DefaultOverlap,
		Format:   tile.DefaultFormat,
	}
}

// Result describes one generated pyramid
type Result struct {
	Name       string
	Descriptor string
	TilesDir   string
	Image      tile.Image
	Tiles      int
}

// BatchError reports images of a directory that could not be tiled
type BatchError struct {
	Message   string
	Failed    []FailedImage
	Succeeded int
	Total     int
}

func (e *BatchError) Error() string {
	return e.Message
}

// FailedImage is a single input that failed
type FailedImage struct {
	Path  string
	Error string
}

// Generator writes tile pyramids
type Generator struct {
	opts Options
	log  *slog.Logger
}

// New creates a generator. Zero values in opts fall back to DefaultOptions.
func New(opts Options) (*Generator, error) {
	def := DefaultOptions()
	if opts.TileSize == 0 {
		opts.TileSize = def.TileSize
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	opts.Format = strings.ToLower(opts.Format)

	if opts.TileSize < 1 {
		return nil, errors.Errorf("invalid tile size: %d", opts.TileSize)
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.TileSize {
		return nil, errors.Errorf("invalid overlap: %d", opts.Overlap)
	}
	switch opts.Format {
	case tile.FormatPNG, tile.FormatJPEG, tile.FormatJPG:
	default:
		return nil, errors.Errorf("unsupported tile format: %q", opts.Format)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Generator{opts: opts, log: log}, nil
}

// Generate writes the pyramid of src to outDir/<name>_files and its manifest
// to outDir/<name>.dzi
func (g *Generator) Generate(ctx context.Context, src image.Image, outDir, name string) (*Result, error) {
	b := src.Bounds()
	desc := tile.Image{
		Width:    b.Dx(),
		Height:   b.Dy(),
		TileSize: g.opts.TileSize,
		Overlap:  g.opts.Overlap,
		Format:   g.opts.Format,
	}
	if g.opts.BaseURL != "" {
		desc.TilesURL = strings.TrimSuffix(g.opts.BaseURL, "/") + "/" + name + "_files/"
	}
	if err := desc.Validate(); err != nil {
		return nil, errors.Wrap(err, "source image")
	}

	tilesDir := filepath.Join(outDir, name+"_files")
	total := 0

	// each level is scaled from the one above it
	var level image.Image = src
	for z := desc.MaxLevel(); z >= 0; z-- {
		w, h := desc.LevelSize(z)
		level = resize(level, w, h)

		n, err := g.writeLevel(ctx, &desc, level, z, filepath.Join(tilesDir, strconv.Itoa(z)))
		if err != nil {
			return nil, err
		}
		total += n
		g.log.Debug("level written", "name", name, "level", z, "width", w, "height", h, "tiles", n)
	}

	descriptor := filepath.Join(outDir, name+".dzi")
	if err := writeDescriptor(descriptor, &desc); err != nil {
		return nil, err
	}
	desc.URL = descriptor

	g.log.Info("pyramid written", "name", name, "width", desc.Width, "height", desc.Height,
		"levels", desc.MaxLevel()+1, "tiles", total)

	return &Result{
		Name:       name,
		Descriptor: descriptor,
		TilesDir:   tilesDir,
		Image:      desc,
		Tiles:      total,
	}, nil
}

func (g *Generator) writeLevel(ctx context.Context, desc *tile.Image, level image.Image, z int, dir string) (int, error) {
	cols, rows := desc.LevelTiles(z)
	origin := level.Bounds().Min

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			// Check context cancellation
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			default:
			}

			r := desc.TileBounds(z, col, row)
			t := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
			draw.Draw(t, t.Bounds(), level, r.Min.Add(origin), draw.Src)

			name := filepath.Join(dir, fmt.Sprintf("%d_%d.%s", col, row, desc.Format))
			if err := tile.WriteTile(name, t, desc.Format); err != nil {
				return 0, err
			}
		}
	}
	return cols * rows, nil
}

func resize(src image.Image, w, h int) image.Image {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func writeDescriptor(filename string, desc *tile.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}
	if err := tile.WriteDescriptor(f, desc); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", filename)
	}
	return f.Close()
}

// GenerateFile tiles one PNG, JPEG or TIFF file. The pyramid is named after
// the file.
func (g *Generator) GenerateFile(ctx context.Context, path, outDir string) (*Result, error) {
	src, _, err := tile.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", outDir)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return g.Generate(ctx, src, outDir, name)
}

var inputExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}

// GenerateDir tiles every image file in inDir. Failing images are skipped
// and reported together in a *BatchError.
func (g *Generator) GenerateDir(ctx context.Context, inDir, outDir string) ([]Result, error) {
	entries, err := os.ReadDir(inDir)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", inDir)
	}

	var results []Result
	var failed []FailedImage
	total := 0
	for _, e := range entries {
		if e.IsDir() || !slices.Contains(inputExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			continue
		}
		total++

		path := filepath.Join(inDir, e.Name())
		res, err := g.GenerateFile(ctx, path, outDir)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			g.log.Warn("image skipped", "path", path, "error", err)
			failed = append(failed, FailedImage{Path: path, Error: err.Error()})
			continue
		}
		results = append(results, *res)
	}

	if len(failed) > 0 {
		return results, &BatchError{
			Message:   fmt.Sprintf("%d/%d images failed", len(failed), total),
			Failed:    failed,
			Succeeded: len(results),
			Total:     total,
		}
	}
	return results, nil
}
