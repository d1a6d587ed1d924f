package tile

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/image/tiff"
)

// DescriptorError reports a tile source descriptor that could not be
// fetched or parsed
type DescriptorError struct {
	URL        string
	StatusCode *int
	Message    string
	Err        error
}

func (e *DescriptorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.URL, e.Message)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}

// Processor handles descriptor downloading and tile image coding
type Processor struct {
	client    *http.Client
	userAgent string
}

// NewProcessor creates a new tile processor
func NewProcessor(userAgent string, timeout time.Duration) *Processor {
	return &Processor{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Resolve loads and parses the descriptor at url. http(s) URLs are fetched,
// anything else is read from the local filesystem.
func (p *Processor) Resolve(ctx context.Context, url string) (*Image, error) {
	data, err := p.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	img, err := ParseDescriptor(data, url)
	if err != nil {
		return nil, &DescriptorError{URL: url, Message: "parse failed", Err: err}
	}
	return img, nil
}

// Fetch downloads a descriptor or tile. URLs without an http(s) scheme are
// read from the local file system, so URLs from untrusted clients must be
// checked before they get here. Failures are reported as *DescriptorError.
func (p *Processor) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		data, err := os.ReadFile(strings.TrimPrefix(url, "file://"))
		if err != nil {
			return nil, &DescriptorError{URL: url, Message: "read failed", Err: err}
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DescriptorError{URL: url, Message: "invalid request", Err: err}
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &DescriptorError{URL: url, Message: "download failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		code := resp.StatusCode
		return nil, &DescriptorError{
			URL:        url,
			StatusCode: &code,
			Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DescriptorError{URL: url, Message: "read body failed", Err: err}
	}
	return data, nil
}

// DecodeImage detects the image format and decodes. Returns the detected
// format name alongside the image.
func DecodeImage(data []byte) (image.Image, string, error) {
	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x89, 0x50, 0x4E, 0x47}):
		img, err := png.Decode(bytes.NewReader(data))
		return img, FormatPNG, errors.Wrap(err, "decode png")
	case len(data) >= 2 && bytes.Equal(data[:2], []byte{0xFF, 0xD8}):
		img, err := jpeg.Decode(bytes.NewReader(data))
		return img, FormatJPEG, errors.Wrap(err, "decode jpeg")
	case len(data) >= 4 && (bytes.Equal(data[:4], []byte("II*\x00")) || bytes.Equal(data[:4], []byte("MM\x00*"))):
		img, err := tiff.Decode(bytes.NewReader(data))
		return img, "tiff", errors.Wrap(err, "decode tiff")
	}

	return nil, "", errors.New("unrecognized image format")
}

// DecodeFile reads and decodes an image file
func DecodeFile(filename string) (image.Image, string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s", filename)
	}
	return DecodeImage(data)
}

// EncodeTile writes img to w in the given tile format
func EncodeTile(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG, FormatJPG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	}
	return fmt.Errorf("unsupported tile format: %q", format)
}

// WriteTile encodes img into filename, creating parent directories
func WriteTile(filename string, img image.Image, format string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", filename)
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "create %s", filename)
	}

	if err := EncodeTile(file, img, format); err != nil {
		file.Close()
		return errors.Wrapf(err, "encode %s", filename)
	}
	return file.Close()
}
