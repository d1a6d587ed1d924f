// Package snapshot renders the part of an image a viewer shows by stitching
// the visible tiles of one pyramid level.
package snapshot

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

// DefaultWorkers is the number of concurrent tile downloads
const DefaultWorkers = 8

// maxPixels bounds both the stitched level region and the output
const maxPixels = 10000 * 10000

// ErrEmptyRegion is returned when the view does not overlap the image
var ErrEmptyRegion = errors.New("view does not overlap the image")

// Fetcher downloads tiles. *tile.Processor implements it.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Options describes the view to render
type Options struct {
	Image     tile.Image
	State     viewport.State
	Container viewport.Size
}

// Result contains the rendered view. Image covers the visible part of the
// picture only, at screen resolution and with the view's rotation applied.
type Result struct {
	Image  *image.RGBA
	Level  int
	Region viewport.Rect
	Tiles  int
}

// TileError represents errors related to tile downloading
type TileError struct {
	Message         string
	FailedTiles     []FailedTile
	SuccessfulTiles int
	TotalTiles      int
}

func (e *TileError) Error() string {
	return e.Message
}

// FailedTile represents a single failed tile download
type FailedTile struct {
	URL        string
	StatusCode *int
	Error      string
}

// Renderer stitches view snapshots
type Renderer struct {
	fetcher Fetcher
	workers int
	log     *slog.Logger
}

// New creates a renderer. workers <= 0 uses DefaultWorkers.
func New(f Fetcher, workers int, log *slog.Logger) *Renderer {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{fetcher: f, workers: workers, log: log}
}

type tileJob struct {
	col, row int
	bounds   image.Rectangle
	url      string
}

// Render downloads the tiles under the view and composes them. It fails
// with a *TileError when no tile or more than half of them could be loaded.
func (r *Renderer) Render(ctx context.Context, opts Options) (*Result, error) {
	img := opts.Image
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if opts.Container.Empty() || !(opts.State.Zoom > 0) {
		return nil, fmt.Errorf("invalid view: zoom %v, container %vx%v",
			opts.State.Zoom, opts.Container.Width, opts.Container.Height)
	}
	rotation, err := viewport.NormalizeRotation(opts.State.Rotation)
	if err != nil {
		return nil, err
	}

	region := clip(viewport.VisibleImageRect(opts.State, img, opts.Container), img)
	if region.Width <= 0 || region.Height <= 0 {
		return nil, ErrEmptyRegion
	}

	// screen pixels per image pixel
	spp := viewport.Scale(opts.State, opts.Container) / float64(img.LongSide())
	outW := max(1, int(math.Round(region.Width*spp)))
	outH := max(1, int(math.Round(region.Height*spp)))
	if int64(outW)*int64(outH) > maxPixels {
		return nil, fmt.Errorf("requested image size too large: %dx%d", outW, outH)
	}

	level := pickLevel(&img, spp)
	scale := img.LevelScale(level)
	lw, lh := img.LevelSize(level)
	src := image.Rect(
		int(math.Floor(region.X/scale)),
		int(math.Floor(region.Y/scale)),
		int(math.Ceil((region.X+region.Width)/scale)),
		int(math.Ceil((region.Y+region.Height)/scale)),
	).Intersect(image.Rect(0, 0, lw, lh))
	if src.Empty() {
		return nil, ErrEmptyRegion
	}
	if int64(src.Dx())*int64(src.Dy()) > maxPixels {
		return nil, fmt.Errorf("level %d region too large: %dx%d", level, src.Dx(), src.Dy())
	}

	var jobs []tileJob
	ts := img.TileSize
	for row := src.Min.Y / ts; row <= (src.Max.Y-1)/ts; row++ {
		for col := src.Min.X / ts; col <= (src.Max.X-1)/ts; col++ {
			jobs = append(jobs, tileJob{
				col:    col,
				row:    row,
				bounds: img.TileBounds(level, col, row),
				url:    img.TileURL(level, col, row),
			})
		}
	}

	canvas := image.NewRGBA(src)
	succeeded, failed, err := r.stitch(ctx, canvas, jobs)
	if err != nil {
		return nil, err
	}

	total := len(jobs)
	if succeeded == 0 {
		return nil, &TileError{
			Message:         "No tiles could be downloaded successfully",
			FailedTiles:     failed,
			SuccessfulTiles: succeeded,
			TotalTiles:      total,
		}
	}
	if len(failed) > total/2 {
		return nil, &TileError{
			Message:         fmt.Sprintf("Too many tile download failures: %d/%d failed", len(failed), total),
			FailedTiles:     failed,
			SuccessfulTiles: succeeded,
			TotalTiles:      total,
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	draw.ApproxBiLinear.Scale(out, out.Bounds(), canvas, src, draw.Src, nil)

	r.log.Debug("snapshot rendered", "url", img.URL, "level", level,
		"tiles", succeeded, "failed", len(failed), "width", outW, "height", outH)

	return &Result{
		Image:  rotate(out, rotation),
		Level:  level,
		Region: region,
		Tiles:  succeeded,
	}, nil
}

// stitch downloads jobs with a bounded number of workers and draws each
// tile into canvas
func (r *Renderer) stitch(ctx context.Context, canvas *image.RGBA, jobs []tileJob) (int, []FailedTile, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		failed    []FailedTile
		succeeded int
	)
	queue := make(chan tileJob)

	for range min(r.workers, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				t, err := r.loadTile(ctx, job)

				mu.Lock()
				if err != nil {
					failed = append(failed, failedTile(job.url, err))
				} else {
					draw.Draw(canvas, job.bounds, t, t.Bounds().Min, draw.Src)
					succeeded++
				}
				mu.Unlock()
			}
		}()
	}

	for _, job := range jobs {
		select {
		case queue <- job:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(queue)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	return succeeded, failed, nil
}

func (r *Renderer) loadTile(ctx context.Context, job tileJob) (image.Image, error) {
	data, err := r.fetcher.Fetch(ctx, job.url)
	if err != nil {
		return nil, err
	}
	t, _, err := tile.DecodeImage(data)
	if err != nil {
		return nil, err
	}
	if b := t.Bounds(); b.Dx() != job.bounds.Dx() || b.Dy() != job.bounds.Dy() {
		return nil, fmt.Errorf("wrong tile size: got %dx%d, expected %dx%d",
			b.Dx(), b.Dy(), job.bounds.Dx(), job.bounds.Dy())
	}
	return t, nil
}

func failedTile(url string, err error) FailedTile {
	f := FailedTile{URL: url, Error: err.Error()}
	var descErr *tile.DescriptorError
	if errors.As(err, &descErr) {
		f.StatusCode = descErr.StatusCode
	}
	return f
}

// pickLevel returns the lowest level with at least spp level pixels per
// image pixel, or the full resolution level
func pickLevel(img *tile.Image, spp float64) int {
	maxLevel := img.MaxLevel()
	if spp >= 1 {
		return maxLevel
	}
	level := maxLevel + int(math.Ceil(math.Log2(spp)))
	return max(0, min(level, maxLevel))
}

func clip(r viewport.Rect, img tile.Image) viewport.Rect {
	x0 := math.Max(r.X, 0)
	y0 := math.Max(r.Y, 0)
	x1 := math.Min(r.X+r.Width, float64(img.Width))
	y1 := math.Min(r.Y+r.Height, float64(img.Height))
	return viewport.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// rotate turns src clockwise by deg, a multiple of 90
func rotate(src *image.RGBA, deg int) *image.RGBA {
	if deg == 0 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dw, dh := w, h
	if deg == 90 || deg == 270 {
		dw, dh = h, w
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			switch deg {
			case 90:
				dst.SetRGBA(h-1-y, x, c)
			case 180:
				dst.SetRGBA(w-1-x, h-1-y, c)
			case 270:
				dst.SetRGBA(y, w-1-x, c)
			}
		}
	}
	return dst
}

// EncodePNG writes the snapshot as PNG
func EncodePNG(w io.Writer, res *Result) error {
	return tile.EncodeTile(w, res.Image, tile.FormatPNG)
}
