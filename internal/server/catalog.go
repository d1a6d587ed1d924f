package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/catalog"
	"github.com/kiesman99/cosmoview/internal/compare"
)

// ListCatalogImages lists every image of the catalog
func (s *Server) ListCatalogImages(w http.ResponseWriter, r *http.Request) {
	images := []api.CatalogImage{}
	if s.cfg.Catalog != nil {
		for _, e := range s.cfg.Catalog.Images() {
			images = append(images, toAPICatalogImage(e))
		}
	}
	s.writeJSON(w, http.StatusOK, images)
}

// ResolveCatalogImage maps the galaxy, system, planet and image query ids
// to a catalog image
func (s *Server) ResolveCatalogImage(w http.ResponseWriter, r *http.Request, params api.ResolveCatalogImageParams) {
	e, err := s.lookup(catalog.RefFromQuery(r.URL.Query()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := api.CatalogEntry{
		Ref:   toAPICatalogRef(e.Ref),
		Image: toAPICatalogImage(*e),
	}
	if stats := e.Object.Statistics; stats != nil {
		m, err := statisticsMap(stats)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Statistics = &m
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) lookup(ref catalog.Ref) (*catalog.Entry, error) {
	if s.cfg.Catalog == nil {
		return nil, fmt.Errorf("no catalog loaded: %w", catalog.ErrNotFound)
	}
	return s.cfg.Catalog.Lookup(ref)
}

// sourceURL makes a catalog descriptor URL loadable
func (s *Server) sourceURL(u string) string {
	if s.cfg.CatalogBaseURL != "" && strings.HasPrefix(u, "/") {
		return strings.TrimSuffix(s.cfg.CatalogBaseURL, "/") + u
	}
	return u
}

// checkSource accepts client supplied descriptor URLs. Only absolute http(s)
// URLs are loaded, and with AllowedSources set they must start with one of
// its prefixes.
func (s *Server) checkSource(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute http or https URL", errInvalidRequest)
	}
	if len(s.cfg.AllowedSources) == 0 {
		return nil
	}
	for _, prefix := range s.cfg.AllowedSources {
		if strings.HasPrefix(raw, prefix) {
			return nil
		}
	}
	return fmt.Errorf("%w: url is not an allowed tile source", errInvalidRequest)
}

// viewerSource picks the descriptor URL and display name of a new viewer
func (s *Server) viewerSource(req api.CreateViewerRequest) (compare.ImageRef, error) {
	var ref compare.ImageRef
	if req.Name != nil {
		ref.Name = *req.Name
	}
	if req.Url != nil && *req.Url != "" {
		if err := s.checkSource(*req.Url); err != nil {
			return ref, err
		}
		ref.URL = *req.Url
		return ref, nil
	}
	if req.Ref == nil {
		return ref, fmt.Errorf("%w: url or ref is required", errInvalidRequest)
	}

	e, err := s.lookup(fromAPICatalogRef(*req.Ref))
	if err != nil {
		return ref, err
	}
	ref.URL = s.sourceURL(e.Image.DZIURL)
	if ref.Name == "" {
		ref.Name = e.Image.Name
	}
	return ref, nil
}

// imageSource resolves one side of a comparison request. A nil or empty
// source yields an empty ref.
func (s *Server) imageSource(src *api.ImageSource) (compare.ImageRef, error) {
	var ref compare.ImageRef
	if src == nil {
		return ref, nil
	}
	if src.Name != nil {
		ref.Name = *src.Name
	}
	switch {
	case src.Url != nil && *src.Url != "":
		if err := s.checkSource(*src.Url); err != nil {
			return ref, err
		}
		ref.URL = *src.Url
	case src.ImageId != nil && *src.ImageId != "":
		if s.cfg.Catalog == nil {
			return ref, fmt.Errorf("no catalog loaded: %w", catalog.ErrNotFound)
		}
		e, err := s.cfg.Catalog.Image(*src.ImageId)
		if err != nil {
			return ref, err
		}
		ref.URL = s.sourceURL(e.Image.DZIURL)
		if ref.Name == "" {
			ref.Name = e.Image.Name
		}
	}
	return ref, nil
}

// pairSource picks the comparison images of a catalog object: the
// referenced (or first) image on the left and the second (or the same) on
// the right
func (s *Server) pairSource(ref api.CatalogRef) (left, right compare.ImageRef, err error) {
	if s.cfg.Catalog == nil {
		return left, right, fmt.Errorf("no catalog loaded: %w", catalog.ErrNotFound)
	}
	l, r, err := s.cfg.Catalog.Pair(fromAPICatalogRef(ref))
	if err != nil {
		return left, right, err
	}
	left = compare.ImageRef{URL: s.sourceURL(l.Image.DZIURL), Name: l.Image.Name}
	right = compare.ImageRef{URL: s.sourceURL(r.Image.DZIURL), Name: r.Image.Name}
	return left, right, nil
}

func fromAPICatalogRef(ref api.CatalogRef) catalog.Ref {
	out := catalog.Ref{Collection: ref.Collection, Group: ref.Group, Object: ref.Object}
	if ref.Image != nil {
		out.Image = *ref.Image
	}
	return out
}

func toAPICatalogRef(ref catalog.Ref) api.CatalogRef {
	out := api.CatalogRef{Collection: ref.Collection, Group: ref.Group, Object: ref.Object}
	if ref.Image != "" {
		img := ref.Image
		out.Image = &img
	}
	return out
}

func toAPICatalogImage(e catalog.Entry) api.CatalogImage {
	img := api.CatalogImage{
		Id:          e.Image.ID,
		Name:        e.Image.Name,
		DziUrl:      e.Image.DZIURL,
		Collection:  e.Ref.Collection,
		Group:       e.Ref.Group,
		Object:      e.Ref.Object,
		ObjectName:  e.Object.Name,
		Description: optional(e.Image.Description),
		Thumbnail:   optional(e.Image.Thumbnail),
		Date:        optional(e.Image.Date),
		Mission:     optional(e.Image.Mission),
	}
	return img
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func statisticsMap(stats *catalog.Statistics) (map[string]interface{}, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
