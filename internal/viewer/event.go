package viewer

import (
	"time"

	"github.com/kiesman99/cosmoview/pkg/viewport"
)

// EventType names a viewer notification
type EventType string

const (
	EventOpen            EventType = "open"
	EventOpenFailed      EventType = "open-failed"
	EventViewportChange  EventType = "viewport-change"
	EventAnimationStart  EventType = "animation-start"
	EventAnimationFinish EventType = "animation-finish"
)

// Event is delivered to subscribers. Seq increases by one per event of a
// viewer, and State is the viewport state at the time of emission.
type Event struct {
	Type      EventType
	Seq       uint64
	State     viewport.State
	Container viewport.Size
	Err       error
	Time      time.Time
}
