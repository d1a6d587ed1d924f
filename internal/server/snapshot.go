package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kiesman99/cosmoview/internal/snapshot"
	"github.com/kiesman99/cosmoview/internal/viewer"
)

// ViewerSnapshot renders the current view of a viewer as PNG. Tiles are
// downloaded outside the session loop, so the viewer keeps running while a
// snapshot is stitched.
func (s *Server) ViewerSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, err := s.viewers.get(chi.URLParam(r, "viewerId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var opts snapshot.Options
	err = sess.do(r.Context(), func() error {
		v := sess.viewer
		img := v.Image()
		if img == nil {
			return actionError(v, viewer.ErrNotReady)
		}
		opts = snapshot.Options{Image: *img, State: v.State(), Container: v.Container()}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.snapshots.Render(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := snapshot.EncodePNG(&buf, res); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Pyramid-Level", strconv.Itoa(res.Level))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
