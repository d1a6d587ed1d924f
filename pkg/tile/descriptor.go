package tile

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type dziSize struct {
	Width  int `xml:"Width,attr"`
	Height int `xml:"Height,attr"`
}

type dziManifest struct {
	XMLName  xml.Name `xml:"Image"`
	TileSize int      `xml:"TileSize,attr"`
	Overlap  int      `xml:"Overlap,attr"`
	Format   string   `xml:"Format,attr"`
	Xmlns    string   `xml:"xmlns,attr,omitempty"`
	URL      string   `xml:"Url,attr,omitempty"`
	Size     dziSize  `xml:"Size"`
}

// flexInt accepts both JSON numbers and numeric strings, the JSON flavour of
// DZI manifests is written with quoted numbers by most tools
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.Wrapf(err, "invalid integer %s", string(data))
	}
	*f = flexInt(v)
	return nil
}

type dziJSON struct {
	Image struct {
		URL      string  `json:"Url"`
		Format   string  `json:"Format"`
		Overlap  flexInt `json:"Overlap"`
		TileSize flexInt `json:"TileSize"`
		Size     struct {
			Width  flexInt `json:"Width"`
			Height flexInt `json:"Height"`
		} `json:"Size"`
	} `json:"Image"`
}

// ParseDescriptor decodes a DZI manifest in either its XML or JSON form.
// sourceURL is recorded on the returned image and used to locate tiles.
func ParseDescriptor(data []byte, sourceURL string) (*Image, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty descriptor")
	}

	var img *Image
	switch trimmed[0] {
	case '{':
		var doc dziJSON
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, "decode JSON descriptor")
		}
		img = &Image{
			Width:    int(doc.Image.Size.Width),
			Height:   int(doc.Image.Size.Height),
			TileSize: int(doc.Image.TileSize),
			Overlap:  int(doc.Image.Overlap),
			Format:   strings.ToLower(doc.Image.Format),
			TilesURL: doc.Image.URL,
		}
	case '<':
		var doc dziManifest
		if err := xml.Unmarshal(trimmed, &doc); err != nil {
			return nil, errors.Wrap(err, "decode XML descriptor")
		}
		img = &Image{
			Width:    doc.Size.Width,
			Height:   doc.Size.Height,
			TileSize: doc.TileSize,
			Overlap:  doc.Overlap,
			Format:   strings.ToLower(doc.Format),
			TilesURL: doc.URL,
		}
	default:
		return nil, errors.New("unrecognized descriptor format")
	}

	img.URL = sourceURL
	if err := img.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid descriptor")
	}
	return img, nil
}

// WriteDescriptor writes the XML manifest for img
func WriteDescriptor(w io.Writer, img *Image) error {
	doc := dziManifest{
		TileSize: img.TileSize,
		Overlap:  img.Overlap,
		Format:   img.Format,
		Xmlns:    DeepZoomNamespace,
		URL:      img.TilesURL,
		Size:     dziSize{Width: img.Width, Height: img.Height},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encode descriptor")
	}
	_, err := io.WriteString(w, "\n")
	return err
}
