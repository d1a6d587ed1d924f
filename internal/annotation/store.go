// Package annotation keeps user placed labels. Positions are screen pixels
// relative to the viewer container.
package annotation

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Defaults for a freshly placed annotation
const (
	DefaultLabel = "New Label"
	DefaultColor = "#9B59B6"
)

// ErrNotFound is returned for unknown annotation ids
var ErrNotFound = errors.New("annotation not found")

// Annotation is one labeled point
type Annotation struct {
	ID        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Label     string    `json:"label"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an in-memory annotation list in insertion order. It is safe for
// concurrent use.
type Store struct {
	mu    sync.RWMutex
	items []Annotation

	newID func() string
	now   func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Add places an annotation with the default label and color
func (s *Store) Add(x, y float64) Annotation {
	return s.AddLabeled(x, y, "", "")
}

// AddLabeled places an annotation. Empty label or color fall back to the
// defaults.
func (s *Store) AddLabeled(x, y float64, label, color string) Annotation {
	if label == "" {
		label = DefaultLabel
	}
	if color == "" {
		color = DefaultColor
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a := Annotation{
		ID:        s.newID(),
		X:         x,
		Y:         y,
		Label:     label,
		Color:     color,
		CreatedAt: s.now(),
	}
	s.items = append(s.items, a)
	return a
}

// Get returns the annotation with id
func (s *Store) Get(id string) (Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.index(id)
	if i < 0 {
		return Annotation{}, ErrNotFound
	}
	return s.items[i], nil
}

// Rename changes the label of an annotation
func (s *Store) Rename(id, label string) (Annotation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return Annotation{}, ErrNotFound
	}
	s.items[i].Label = label
	return s.items[i], nil
}

// Delete removes an annotation
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return ErrNotFound
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// Clear removes every annotation
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}

// List returns a copy of all annotations
func (s *Store) List() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of annotations
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.items, func(a Annotation) bool { return a.ID == id })
}
