package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kiesman99/cosmoview/internal/annotation"
	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/highlight"
	"github.com/kiesman99/cosmoview/internal/hud"
	"github.com/kiesman99/cosmoview/internal/metrics"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

// observe feeds the events of v into the metrics and the session hub. It
// must be called on the viewer's loop.
func (s *Server) observe(v *viewer.Viewer, id, side string, h *hub) func() {
	return v.Subscribe(func(ev viewer.Event) {
		switch ev.Type {
		case viewer.EventOpen:
			s.metrics.DescriptorLoaded(nil)
		case viewer.EventOpenFailed:
			s.metrics.DescriptorLoaded(ev.Err)
		case viewer.EventViewportChange:
			s.metrics.ViewportChanges.Inc()
		}
		h.publish(newEventMessage(id, side, ev))
	})
}

// CreateViewer starts a viewer session. The tile source opens in the
// background; poll the viewer or follow its event stream to see it become
// ready.
func (s *Server) CreateViewer(w http.ResponseWriter, r *http.Request) {
	var req api.CreateViewerRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Container != nil && toSize(*req.Container).Empty() {
		s.writeError(w, r, viewer.ErrInvalidContainer)
		return
	}
	src, err := s.viewerSource(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := uuid.NewString()
	log := s.log.With("viewer", id)
	sess := &viewerSession{
		id:        id,
		name:      src.Name,
		createdAt: time.Now(),
		loop:      s.newLoop("viewer", id),
		notes:     annotation.NewStore(),
		events:    newHub(),
	}

	var resp api.ViewerResponse
	err = sess.do(r.Context(), func() error {
		sess.viewer = viewer.New(sess.loop, s.viewerOptions(req.Container, log))
		sess.highlight = highlight.NewTracker(sess.viewer, sess.loop, s.cfg.HighlightDuration, log)
		sess.hud = hud.NewTracker(sess.viewer, hud.DefaultNavigatorSize)
		s.observe(sess.viewer, id, "", sess.events)

		if err := sess.viewer.Open(s.ctx, s.cfg.Resolver, src.URL); err != nil {
			return err
		}
		resp = sess.response()
		return nil
	})
	if err != nil {
		sess.loop.Close()
		s.writeError(w, r, err)
		return
	}

	s.viewers.add(id, sess)
	s.metrics.Viewers.Inc()
	log.Info("viewer created", "url", src.URL, "name", src.Name)

	s.writeJSON(w, http.StatusCreated, resp)
}

// ListViewers lists viewer sessions in creation order
func (s *Server) ListViewers(w http.ResponseWriter, r *http.Request) {
	out := []api.ViewerResponse{}
	for _, sess := range s.viewers.list() {
		var resp api.ViewerResponse
		err := sess.do(r.Context(), func() error {
			resp = sess.response()
			return nil
		})
		if err != nil {
			// deleted while listing
			continue
		}
		out = append(out, resp)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetViewer returns a snapshot of a viewer session
func (s *Server) GetViewer(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		return sess.response(), nil
	})
}

// DeleteViewer destroys a viewer session
func (s *Server) DeleteViewer(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	sess, err := s.viewers.remove(viewerId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.close(r.Context())
	s.metrics.Viewers.Dec()
	s.log.InfoContext(r.Context(), "viewer deleted", "viewer", viewerId)

	w.WriteHeader(http.StatusNoContent)
}

// ViewerAction applies a zoom, pan, rotate, resize or home action
func (s *Server) ViewerAction(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	var action api.ViewerAction
	if !s.decode(w, r, &action) {
		return
	}
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		if err := applyAction(sess.viewer, action); err != nil {
			return nil, actionError(sess.viewer, err)
		}
		return sess.response(), nil
	})
}

// ConvertPoint maps a point between screen and image pixels for the
// current viewport state
func (s *Server) ConvertPoint(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId, params api.ConvertPointParams) {
	from := api.Screen
	if params.From != nil {
		from = *params.From
	}
	if from != api.Screen && from != api.Image {
		requestID := requestID(r)
		s.writeValidationErrorResponse(w, "from must be screen or image", &requestID)
		return
	}

	p := viewport.Point{X: params.X, Y: params.Y}
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		v := sess.viewer
		img := v.Image()
		if img == nil {
			return nil, actionError(v, viewer.ErrNotReady)
		}

		screen, imagePt := p, p
		if from == api.Image {
			screen = viewport.ImageToScreen(p, v.State(), *img, v.Container())
		} else {
			imagePt = viewport.ScreenToImage(p, v.State(), *img, v.Container())
		}
		return api.ConvertResponse{
			Screen:      toAPIPoint(screen),
			Image:       toAPIPoint(imagePt),
			InsideImage: viewport.ContainsImagePoint(imagePt, *img),
		}, nil
	})
}

// CreateHighlight flies the viewer to an image point and highlights it.
// Requests the viewer cannot honor are answered with accepted=false.
func (s *Server) CreateHighlight(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	var req api.HighlightRequest
	if !s.decode(w, r, &req) {
		return
	}
	zoom := s.cfg.HighlightZoom
	if req.Zoom != nil {
		zoom = *req.Zoom
	}
	if !(zoom > 0) {
		s.writeError(w, r, viewer.ErrInvalidZoom)
		return
	}

	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		accepted := sess.highlight.Navigate(req.Name, viewport.Point{X: req.X, Y: req.Y}, zoom)
		switch {
		case accepted:
			s.metrics.Highlights.WithLabelValues(metrics.HighlightShown).Inc()
		case sess.viewer.Status() != viewer.StatusReady:
			s.metrics.Highlights.WithLabelValues(metrics.HighlightNotReady).Inc()
		default:
			s.metrics.Highlights.WithLabelValues(metrics.HighlightIgnored).Inc()
		}

		resp := api.HighlightResponse{Accepted: accepted}
		if h, ok := sess.highlight.Current(); ok {
			resp.Highlight = toAPIHighlight(h)
		}
		return resp, nil
	})
}

// GetHighlight returns the outstanding highlight, if any
func (s *Server) GetHighlight(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		h, ok := sess.highlight.Current()
		resp := api.HighlightResponse{Accepted: ok}
		if ok {
			resp.Highlight = toAPIHighlight(h)
		}
		return resp, nil
	})
}

// GetHud returns the HUD readout
func (s *Server) GetHud(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		return toAPIReadout(sess.hud.Readout()), nil
	})
}

// SetCursor moves the HUD cursor
func (s *Server) SetCursor(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	var p api.Point
	if !s.decode(w, r, &p) {
		return
	}
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		return toAPIReadout(sess.hud.SetCursor(toPoint(p))), nil
	})
}

// ClearCursor hides the HUD cursor
func (s *Server) ClearCursor(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	s.withViewer(w, r, viewerId, func(sess *viewerSession) (any, error) {
		return toAPIReadout(sess.hud.ClearCursor()), nil
	})
}

// ListAnnotations lists the annotations of a viewer
func (s *Server) ListAnnotations(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	sess, err := s.viewers.get(viewerId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := []api.Annotation{}
	for _, a := range sess.notes.List() {
		out = append(out, toAPIAnnotation(a))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// CreateAnnotation places an annotation. Label and color default to
// "New Label" and purple.
func (s *Server) CreateAnnotation(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	var req api.AnnotationCreate
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.viewers.get(viewerId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var label, color string
	if req.Label != nil {
		label = *req.Label
	}
	if req.Color != nil {
		color = *req.Color
	}
	a := sess.notes.AddLabeled(req.X, req.Y, label, color)
	s.writeJSON(w, http.StatusCreated, toAPIAnnotation(a))
}

// UpdateAnnotation renames an annotation
func (s *Server) UpdateAnnotation(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId, annotationId string) {
	var req api.AnnotationUpdate
	if !s.decode(w, r, &req) {
		return
	}
	sess, err := s.viewers.get(viewerId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := sess.notes.Rename(annotationId, req.Label)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toAPIAnnotation(a))
}

// DeleteAnnotation removes one annotation
func (s *Server) DeleteAnnotation(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId, annotationId string) {
	sess, err := s.viewers.get(viewerId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.notes.Delete(annotationId); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearAnnotations removes every annotation of a viewer
func (s *Server) ClearAnnotations(w http.ResponseWriter, r *http.Request, viewerId api.ViewerId) {
	sess, err := s.viewers.get(viewerId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.notes.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// withViewer runs fn on the session loop and writes its result as JSON
func (s *Server) withViewer(w http.ResponseWriter, r *http.Request, id string, fn func(*viewerSession) (any, error)) {
	sess, err := s.viewers.get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var resp any
	err = sess.do(r.Context(), func() error {
		var err error
		resp, err = fn(sess)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
