package server

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kiesman99/cosmoview/internal/annotation"
	"github.com/kiesman99/cosmoview/internal/compare"
	"github.com/kiesman99/cosmoview/internal/eventloop"
	"github.com/kiesman99/cosmoview/internal/highlight"
	"github.com/kiesman99/cosmoview/internal/hud"
	"github.com/kiesman99/cosmoview/internal/viewer"
	"github.com/kiesman99/cosmoview/pkg/viewport"
)

type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{items: map[string]T{}}
}

func (r *registry[T]) add(id string, v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = v
	r.order = append(r.order, id)
}

func (r *registry[T]) get(id string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	if !ok {
		return v, errSessionNotFound
	}
	return v, nil
}

func (r *registry[T]) remove(id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if !ok {
		return v, errSessionNotFound
	}
	delete(r.items, id)
	r.order = slices.DeleteFunc(r.order, func(other string) bool { return other == id })
	return v, nil
}

// list returns the sessions in creation order
func (r *registry[T]) list() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}

func (r *registry[T]) drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	r.items = map[string]T{}
	r.order = nil
	return out
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// viewerSession is one viewer with its highlight, HUD and annotations. All
// fields except id, name, createdAt, notes and events belong to loop.
type viewerSession struct {
	id        string
	name      string
	createdAt time.Time

	loop      *eventloop.Loop
	viewer    *viewer.Viewer
	highlight *highlight.Tracker
	hud       *hud.Tracker

	notes  *annotation.Store
	events *hub
}

// do runs fn on the session loop
func (s *viewerSession) do(ctx context.Context, fn func() error) error {
	var err error
	if doErr := s.loop.Do(ctx, func() { err = fn() }); doErr != nil {
		return doErr
	}
	return err
}

func (s *viewerSession) close(ctx context.Context) {
	_ = s.loop.Do(ctx, func() {
		s.highlight.Close()
		s.hud.Close()
		s.viewer.Destroy()
	})
	s.loop.Close()
	s.events.close()
}

// comparisonSession owns a comparison pair. Both viewers share loop.
type comparisonSession struct {
	id        string
	createdAt time.Time

	loop   *eventloop.Loop
	cmp    *compare.Comparison
	events *hub
	// container sizes viewers created by mode and image changes
	container viewport.Size
}

func (s *comparisonSession) do(ctx context.Context, fn func() error) error {
	var err error
	if doErr := s.loop.Do(ctx, func() { err = fn() }); doErr != nil {
		return doErr
	}
	return err
}

func (s *comparisonSession) close(ctx context.Context) {
	_ = s.loop.Do(ctx, func() { s.cmp.Close() })
	s.loop.Close()
	s.events.close()
}
