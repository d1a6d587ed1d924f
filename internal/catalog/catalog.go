// Package catalog is the read-only content store of named celestial objects
// and their deep zoom images, addressed by collection, group, object and
// image id.
package catalog

import (
	"net/url"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a lookup key does not exist
var ErrNotFound = errors.New("not found")

// Statistics are optional facts about an object. Nil fields are unknown.
type Statistics struct {
	HabitabilityScore     *float64 `yaml:"habitability_score,omitempty" json:"habitability_score,omitempty"`
	RadiusKm              *float64 `yaml:"radius_km,omitempty" json:"radius_km,omitempty"`
	MassEarths            *float64 `yaml:"mass_earths,omitempty" json:"mass_earths,omitempty"`
	SurfaceAreaKm2        *float64 `yaml:"surface_area_km2,omitempty" json:"surface_area_km2,omitempty"`
	Gravity               *float64 `yaml:"gravity,omitempty" json:"gravity,omitempty"`
	DayLengthHours        *float64 `yaml:"day_length_hours,omitempty" json:"day_length_hours,omitempty"`
	YearLengthDays        *float64 `yaml:"year_length_days,omitempty" json:"year_length_days,omitempty"`
	DistanceFromStarAU    *float64 `yaml:"distance_from_star_au,omitempty" json:"distance_from_star_au,omitempty"`
	EscapeVelocity        *float64 `yaml:"escape_velocity,omitempty" json:"escape_velocity,omitempty"`
	AverageTemperatureC   *float64 `yaml:"average_temperature_c,omitempty" json:"average_temperature_c,omitempty"`
	AtmosphereComposition string   `yaml:"atmosphere_composition,omitempty" json:"atmosphere_composition,omitempty"`
	SurfacePressureAtm    *float64 `yaml:"surface_pressure_atm,omitempty" json:"surface_pressure_atm,omitempty"`
	Moons                 *int     `yaml:"moons,omitempty" json:"moons,omitempty"`
	Type                  string   `yaml:"type,omitempty" json:"type,omitempty"`
}

// Image is one deep zoom image of an object
type Image struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	DZIURL      string `yaml:"dzi_url" json:"dzi_url"`
	Thumbnail   string `yaml:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Date        string `yaml:"date,omitempty" json:"date,omitempty"`
	Mission     string `yaml:"mission,omitempty" json:"mission,omitempty"`
}

// Object is a planet, moon or other body
type Object struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Statistics  *Statistics `yaml:"statistics,omitempty"`
	Images      []Image     `yaml:"images"`
}

// Group is a solar system or similar grouping of objects
type Group struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Objects     []Object `yaml:"objects"`
}

// Collection is the top level, a galaxy
type Collection struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Groups      []Group `yaml:"groups"`
}

// Catalog is the whole content store
type Catalog struct {
	Collections []Collection `yaml:"collections"`
}

// Ref addresses an image. An empty Image selects the object's first image.
type Ref struct {
	Collection string `json:"collection"`
	Group      string `json:"group"`
	Object     string `json:"object"`
	Image      string `json:"image,omitempty"`
}

// RefFromQuery reads the galaxy, system, planet and image query parameters
// used by the viewer pages
func RefFromQuery(q url.Values) Ref {
	return Ref{
		Collection: q.Get("galaxy"),
		Group:      q.Get("system"),
		Object:     q.Get("planet"),
		Image:      q.Get("image"),
	}
}

// Entry is a resolved image with its ancestors
type Entry struct {
	Ref        Ref
	Collection *Collection
	Group      *Group
	Object     *Object
	Image      Image
}

// Load reads a catalog file
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read catalog %s", path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	images := map[string]bool{}
	collections := map[string]bool{}
	for _, col := range c.Collections {
		if col.ID == "" || collections[col.ID] {
			return errors.Errorf("collection id %q missing or duplicated", col.ID)
		}
		collections[col.ID] = true

		groups := map[string]bool{}
		for _, g := range col.Groups {
			if g.ID == "" || groups[g.ID] {
				return errors.Errorf("group id %q in %s missing or duplicated", g.ID, col.ID)
			}
			groups[g.ID] = true

			objects := map[string]bool{}
			for _, o := range g.Objects {
				if o.ID == "" || objects[o.ID] {
					return errors.Errorf("object id %q in %s/%s missing or duplicated", o.ID, col.ID, g.ID)
				}
				objects[o.ID] = true

				for _, img := range o.Images {
					if img.ID == "" || images[img.ID] {
						return errors.Errorf("image id %q missing or duplicated", img.ID)
					}
					if img.DZIURL == "" {
						return errors.Errorf("image %s has no dzi_url", img.ID)
					}
					images[img.ID] = true
				}
			}
		}
	}
	return nil
}

// Collection returns a collection by id
func (c *Catalog) Collection(id string) (*Collection, error) {
	for i := range c.Collections {
		if c.Collections[i].ID == id {
			return &c.Collections[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "collection %q", id)
}

// Group returns a group of a collection
func (c *Catalog) Group(collection, id string) (*Group, error) {
	col, err := c.Collection(collection)
	if err != nil {
		return nil, err
	}
	for i := range col.Groups {
		if col.Groups[i].ID == id {
			return &col.Groups[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "group %q", id)
}

// Object returns an object of a group
func (c *Catalog) Object(collection, group, id string) (*Object, error) {
	g, err := c.Group(collection, group)
	if err != nil {
		return nil, err
	}
	for i := range g.Objects {
		if g.Objects[i].ID == id {
			return &g.Objects[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "object %q", id)
}

// Lookup resolves ref. Without an image id the object's first image is
// used.
func (c *Catalog) Lookup(ref Ref) (*Entry, error) {
	col, err := c.Collection(ref.Collection)
	if err != nil {
		return nil, err
	}
	g, err := c.Group(ref.Collection, ref.Group)
	if err != nil {
		return nil, err
	}
	o, err := c.Object(ref.Collection, ref.Group, ref.Object)
	if err != nil {
		return nil, err
	}
	if len(o.Images) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "object %q has no images", o.ID)
	}

	img := o.Images[0]
	if ref.Image != "" {
		found := false
		for _, candidate := range o.Images {
			if candidate.ID == ref.Image {
				img, found = candidate, true
				break
			}
		}
		if !found {
			return nil, errors.Wrapf(ErrNotFound, "image %q", ref.Image)
		}
	}

	ref.Image = img.ID
	return &Entry{Ref: ref, Collection: col, Group: g, Object: o, Image: img}, nil
}

// Pair picks the images of a comparison for an object: the referenced image
// (or the first) on the left, the object's second image on the right. An
// object with a single image is compared with itself.
func (c *Catalog) Pair(ref Ref) (left, right *Entry, err error) {
	left, err = c.Lookup(ref)
	if err != nil {
		return nil, nil, err
	}
	images := left.Object.Images
	rightRef := left.Ref
	rightRef.Image = images[0].ID
	if len(images) > 1 {
		rightRef.Image = images[1].ID
	}
	right, err = c.Lookup(rightRef)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// Images lists every image in catalog order
func (c *Catalog) Images() []Entry {
	var out []Entry
	for ci := range c.Collections {
		col := &c.Collections[ci]
		for gi := range col.Groups {
			g := &col.Groups[gi]
			for oi := range g.Objects {
				o := &g.Objects[oi]
				for _, img := range o.Images {
					out = append(out, Entry{
						Ref:        Ref{Collection: col.ID, Group: g.ID, Object: o.ID, Image: img.ID},
						Collection: col,
						Group:      g,
						Object:     o,
						Image:      img,
					})
				}
			}
		}
	}
	return out
}

// Image finds an image by its catalog wide id
func (c *Catalog) Image(id string) (*Entry, error) {
	for _, e := range c.Images() {
		if e.Image.ID == id {
			return &e, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "image %q", id)
}
