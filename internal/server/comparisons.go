package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/compare"
	"github.com/kiesman99/cosmoview/internal/viewer"
)

// factory creates the viewers of a comparison on its loop. New viewers use
// the last container size of the left viewer, so a rebuild keeps the layout.
func (s *Server) factory(sess *comparisonSession) compare.Factory {
	return func(side compare.Side, ref compare.ImageRef) (*viewer.Viewer, error) {
		log := s.log.With("comparison", sess.id, "side", string(side))
		container := toAPISize(sess.container)
		v := viewer.New(sess.loop, s.viewerOptions(&container, log))
		s.observe(v, sess.id, string(side), sess.events)
		if err := v.Open(s.ctx, s.cfg.Resolver, ref.URL); err != nil {
			v.Destroy()
			return nil, err
		}
		return v, nil
	}
}

func (sess *comparisonSession) response() api.ComparisonResponse {
	left, right := sess.cmp.Viewers()
	leftRef, rightRef := sess.cmp.Images()
	return api.ComparisonResponse{
		Id:        sess.id,
		Mode:      api.ComparisonMode(sess.cmp.Mode()),
		Opacity:   sess.cmp.Opacity(),
		Left:      sideResponse(left, leftRef, false),
		Right:     sideResponse(right, rightRef, sess.cmp.Overlay() != nil),
		CreatedAt: sess.createdAt,
	}
}

func sideResponse(v *viewer.Viewer, ref compare.ImageRef, readOnly bool) api.ComparisonSide {
	side := api.ComparisonSide{
		Url:      ref.URL,
		Name:     optional(ref.Name),
		ReadOnly: readOnly,
		Status:   api.Destroyed,
	}
	if v == nil {
		return side
	}
	view := viewSnapshot(v)
	side.Status = view.status
	side.Error = view.err
	side.Image = view.image
	side.State = view.state
	side.Container = view.container
	side.Animating = view.animating
	return side
}

// comparisonImages picks the two images of a new comparison. Explicit
// sources win over a catalog object; without either the first catalog
// object is compared.
func (s *Server) comparisonImages(req api.CreateComparisonRequest) (left, right compare.ImageRef, err error) {
	switch {
	case req.Ref != nil:
		left, right, err = s.pairSource(*req.Ref)
	case req.Left == nil && s.cfg.Catalog != nil && len(s.cfg.Catalog.Images()) > 0:
		first := s.cfg.Catalog.Images()[0]
		left, right, err = s.pairSource(toAPICatalogRef(first.Ref))
	}
	if err != nil {
		return left, right, err
	}

	if req.Left != nil {
		if left, err = s.imageSource(req.Left); err != nil {
			return left, right, err
		}
	}
	if req.Right != nil {
		if right, err = s.imageSource(req.Right); err != nil {
			return left, right, err
		}
	}
	if left.URL == "" {
		return left, right, compare.ErrNoImage
	}
	return left, right, nil
}

// CreateComparison starts a comparison session in split mode unless another
// mode is requested
func (s *Server) CreateComparison(w http.ResponseWriter, r *http.Request) {
	var req api.CreateComparisonRequest
	if !s.decode(w, r, &req) {
		return
	}

	mode := compare.ModeSplit
	if req.Mode != nil {
		m, err := compare.ParseMode(string(*req.Mode))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		mode = m
	}
	container := s.cfg.Viewer.Container
	if req.Container != nil {
		container = toSize(*req.Container)
		if container.Empty() {
			s.writeError(w, r, viewer.ErrInvalidContainer)
			return
		}
	}
	left, right, err := s.comparisonImages(req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	id := uuid.NewString()
	log := s.log.With("comparison", id)
	sess := &comparisonSession{
		id:        id,
		createdAt: time.Now(),
		loop:      s.newLoop("comparison", id),
		events:    newHub(),
		container: container,
	}

	var resp api.ComparisonResponse
	err = sess.do(r.Context(), func() error {
		cmp, err := compare.New(left, right, mode, s.factory(sess), log)
		if err != nil {
			return err
		}
		cmp.OnOpacity(func(opacity float64) {
			log.Debug("overlay opacity applied", "opacity", opacity)
		})
		sess.cmp = cmp
		resp = sess.response()
		return nil
	})
	if err != nil {
		sess.loop.Close()
		s.writeError(w, r, err)
		return
	}

	s.comparisons.add(id, sess)
	s.metrics.Comparisons.Inc()
	log.Info("comparison created", "mode", mode, "left", left.URL, "right", right.URL)

	s.writeJSON(w, http.StatusCreated, resp)
}

// ListComparisons lists comparison sessions in creation order
func (s *Server) ListComparisons(w http.ResponseWriter, r *http.Request) {
	out := []api.ComparisonResponse{}
	for _, sess := range s.comparisons.list() {
		var resp api.ComparisonResponse
		err := sess.do(r.Context(), func() error {
			resp = sess.response()
			return nil
		})
		if err != nil {
			continue
		}
		out = append(out, resp)
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetComparison returns a snapshot of a comparison session
func (s *Server) GetComparison(w http.ResponseWriter, r *http.Request, comparisonId api.ComparisonId) {
	s.withComparison(w, r, comparisonId, func(*comparisonSession) error { return nil })
}

// DeleteComparison destroys a comparison session and both its viewers
func (s *Server) DeleteComparison(w http.ResponseWriter, r *http.Request, comparisonId api.ComparisonId) {
	sess, err := s.comparisons.remove(comparisonId)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.close(r.Context())
	s.metrics.Comparisons.Dec()
	s.log.InfoContext(r.Context(), "comparison deleted", "comparison", comparisonId)

	w.WriteHeader(http.StatusNoContent)
}

// SetComparisonMode switches layout. Both viewers are recreated with the
// same images.
func (s *Server) SetComparisonMode(w http.ResponseWriter, r *http.Request, comparisonId api.ComparisonId) {
	var req api.ModeRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withComparison(w, r, comparisonId, func(sess *comparisonSession) error {
		mode, err := compare.ParseMode(string(req.Mode))
		if err != nil {
			return err
		}
		return sess.cmp.SetMode(mode)
	})
}

// SetComparisonOpacity sets the overlay opacity. Values are clamped to
// [0, 100].
func (s *Server) SetComparisonOpacity(w http.ResponseWriter, r *http.Request, comparisonId api.ComparisonId) {
	var req api.OpacityRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.withComparison(w, r, comparisonId, func(sess *comparisonSession) error {
		sess.cmp.SetOpacity(req.Opacity)
		return nil
	})
}

// SetComparisonImages replaces images. An empty right source compares the
// left image with itself.
func (s *Server) SetComparisonImages(w http.ResponseWriter, r *http.Request, comparisonId api.ComparisonId) {
	var req api.ComparisonImagesRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Left == nil && req.Right == nil {
		s.writeError(w, r, fmt.Errorf("%w: left or right is required", errInvalidRequest))
		return
	}
	left, err := s.imageSource(req.Left)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	right, err := s.imageSource(req.Right)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Left != nil && left.URL == "" {
		s.writeError(w, r, compare.ErrNoImage)
		return
	}

	s.withComparison(w, r, comparisonId, func(sess *comparisonSession) error {
		var l, rt *compare.ImageRef
		if req.Left != nil {
			l = &left
		}
		if req.Right != nil {
			rt = &right
		}
		return sess.cmp.SetImages(l, rt)
	})
}

// ComparisonAction drives one side. The right side is read only in overlay
// mode because it follows the left one.
func (s *Server) ComparisonAction(w http.ResponseWriter, r *http.Request, comparisonId api.ComparisonId, side api.ComparisonSideName) {
	if side != api.Left && side != api.Right {
		requestID := requestID(r)
		s.writeValidationErrorResponse(w, "side must be left or right", &requestID)
		return
	}
	var action api.ViewerAction
	if !s.decode(w, r, &action) {
		return
	}

	s.withComparison(w, r, comparisonId, func(sess *comparisonSession) error {
		v, err := sess.cmp.Viewer(compare.Side(side))
		if err != nil {
			return err
		}
		if err := applyAction(v, action); err != nil {
			return actionError(v, err)
		}
		if action.Action == api.Resize && side == api.Left {
			sess.container = v.Container()
		}
		return nil
	})
}

// withComparison runs fn on the session loop and answers with the resulting
// comparison snapshot
func (s *Server) withComparison(w http.ResponseWriter, r *http.Request, id string, fn func(*comparisonSession) error) {
	sess, err := s.comparisons.get(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var resp api.ComparisonResponse
	err = sess.do(r.Context(), func() error {
		if err := fn(sess); err != nil {
			return err
		}
		resp = sess.response()
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
