package server

import (
	"errors"
	"fmt"

	"github.com/kiesman99/cosmoview/internal/annotation"
	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/highlight"
	"github.com/kiesman99/cosmoview/internal/hud"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/tile"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

var errInvalidRequest = errors.New("invalid request")

// applyAction runs a on v. It must be called on the viewer's loop.
func applyAction(v *viewer.Viewer, a api.ViewerAction) error {
	animate := a.Animate == nil || *a.Animate

	switch a.Action {
	case api.ZoomIn:
		return v.ZoomIn()
	case api.ZoomOut:
		return v.ZoomOut()
	case api.ZoomTo:
		if a.Zoom == nil {
			return fmt.Errorf("%w: zoom_to needs zoom", errInvalidRequest)
		}
		var anchor *viewport.Point
		if a.Anchor != nil {
			// the anchor arrives in screen pixels
			p := viewport.ScreenToViewport(toPoint(*a.Anchor), v.State(), v.Container())
			anchor = &p
		}
		return v.ZoomTo(*a.Zoom, anchor, animate)
	case api.PanTo:
		if a.Center == nil {
			return fmt.Errorf("%w: pan_to needs center", errInvalidRequest)
		}
		return v.PanTo(toPoint(*a.Center), animate)
	case api.SetView:
		if a.Center == nil || a.Zoom == nil {
			return fmt.Errorf("%w: set_view needs center and zoom", errInvalidRequest)
		}
		return v.SetView(toPoint(*a.Center), *a.Zoom, animate)
	case api.Home:
		return v.Home()
	case api.Rotate:
		return v.Rotate()
	case api.SetRotation:
		if a.Rotation == nil {
			return fmt.Errorf("%w: set_rotation needs rotation", errInvalidRequest)
		}
		return v.SetRotation(*a.Rotation)
	case api.Resize:
		if a.Container == nil {
			return fmt.Errorf("%w: resize needs container", errInvalidRequest)
		}
		return v.Resize(toSize(*a.Container))
	}
	return fmt.Errorf("%w: unknown action %q", errInvalidRequest, a.Action)
}

// actionError reports the load failure instead of ErrNotReady when the
// viewer failed to open
func actionError(v *viewer.Viewer, err error) error {
	if errors.Is(err, viewer.ErrNotReady) && v.Status() == viewer.StatusFailed && v.Err() != nil {
		return v.Err()
	}
	return err
}

func toPoint(p api.Point) viewport.Point {
	return viewport.Point{X: p.X, Y: p.Y}
}

func toSize(s api.Size) viewport.Size {
	return viewport.Size{Width: s.Width, Height: s.Height}
}

func toAPIPoint(p viewport.Point) api.Point {
	return api.Point{X: p.X, Y: p.Y}
}

func toAPISize(s viewport.Size) api.Size {
	return api.Size{Width: s.Width, Height: s.Height}
}

func toAPIRect(r viewport.Rect) api.Rect {
	return api.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

func toAPIState(s viewport.State) api.ViewportState {
	return api.ViewportState{Center: toAPIPoint(s.Center), Zoom: s.Zoom, Rotation: s.Rotation}
}

func toAPITileSource(img *tile.Image) *api.TileSource {
	src := &api.TileSource{
		Width:    img.Width,
		Height:   img.Height,
		TileSize: img.TileSize,
		Overlap:  img.Overlap,
		Format:   img.Format,
		MaxLevel: img.MaxLevel(),
	}
	if img.TilesURL != "" {
		u := img.TilesURL
		src.TilesUrl = &u
	}
	return src
}

// viewerView is the part of a viewer snapshot shared by viewer sessions and
// comparison sides
type viewerView struct {
	status    api.ViewerStatus
	err       *string
	image     *api.TileSource
	state     *api.ViewportState
	target    *api.ViewportState
	visible   *api.Rect
	container api.Size
	animating bool
}

func viewSnapshot(v *viewer.Viewer) viewerView {
	view := viewerView{
		status:    api.ViewerStatus(v.Status().String()),
		container: toAPISize(v.Container()),
		animating: v.Animating(),
	}
	if err := v.Err(); err != nil {
		msg := err.Error()
		view.err = &msg
	}
	if img := v.Image(); img != nil {
		view.image = toAPITileSource(img)
		state := toAPIState(v.State())
		target := toAPIState(v.TargetState())
		visible := toAPIRect(viewport.VisibleImageRect(v.State(), *img, v.Container()))
		view.state, view.target, view.visible = &state, &target, &visible
	}
	return view
}

func (s *viewerSession) response() api.ViewerResponse {
	view := viewSnapshot(s.viewer)
	resp := api.ViewerResponse{
		Id:               s.id,
		Url:              s.viewer.URL(),
		Status:           view.status,
		Error:            view.err,
		Image:            view.image,
		State:            view.state,
		Target:           view.target,
		Container:        view.container,
		VisibleImageRect: view.visible,
		Animating:        view.animating,
		CreatedAt:        s.createdAt,
	}
	if s.name != "" {
		name := s.name
		resp.Name = &name
	}
	return resp
}

func toAPIAnnotation(a annotation.Annotation) api.Annotation {
	return api.Annotation{
		Id:        a.ID,
		X:         a.X,
		Y:         a.Y,
		Label:     a.Label,
		Color:     a.Color,
		CreatedAt: a.CreatedAt,
	}
}

func toAPIHighlight(h highlight.Highlight) *api.Highlight {
	return &api.Highlight{
		Name:      h.Name,
		Image:     toAPIPoint(h.Image),
		Screen:    toAPIPoint(h.Screen),
		Visible:   h.Visible,
		CreatedAt: h.CreatedAt,
	}
}

func toAPIReadout(r hud.Readout) api.HudReadout {
	out := api.HudReadout{
		HasCursor:     r.HasCursor,
		InsideImage:   r.InsideImage,
		Zoom:          r.Zoom,
		Magnification: r.Magnification,
		Rotation:      r.Rotation,
		Navigator:     toAPIRect(r.Navigator),
	}
	if r.HasCursor {
		x, y := r.ImageX, r.ImageY
		out.ImageX, out.ImageY = &x, &y
	}
	return out
}
