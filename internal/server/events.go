package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"

	"github.com/kiesman99/cosmoview/internal/api"
	"github.com/kiesman99/cosmoview/internal/viewer"
)

const (
	streamBuffer = 64
	writeTimeout = 5 * time.Second
)

// EventMessage is one viewer notification on an event stream
type EventMessage struct {
	Viewer    string            `json:"viewer"`
	Side      string            `json:"side,omitempty"`
	Type      viewer.EventType  `json:"type"`
	Seq       uint64            `json:"seq"`
	State     api.ViewportState `json:"state"`
	Container api.Size          `json:"container"`
	Error     string            `json:"error,omitempty"`
	Time      time.Time         `json:"time"`
}

func newEventMessage(id, side string, ev viewer.Event) EventMessage {
	msg := EventMessage{
		Viewer:    id,
		Side:      side,
		Type:      ev.Type,
		Seq:       ev.Seq,
		State:     toAPIState(ev.State),
		Container: toAPISize(ev.Container),
		Time:      ev.Time,
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}

// hub fans session events out to websocket clients. publish never blocks:
// a client that falls behind by more than streamBuffer events is dropped.
type hub struct {
	mu     sync.Mutex
	subs   map[chan EventMessage]struct{}
	closed bool
}

func newHub() *hub {
	return &hub{subs: map[chan EventMessage]struct{}{}}
}

func (h *hub) subscribe() (<-chan EventMessage, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan EventMessage, streamBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *hub) publish(msg EventMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			delete(h.subs, ch)
			close(ch)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		close(ch)
	}
	h.subs = map[chan EventMessage]struct{}{}
}

// ViewerEvents streams the notifications of a viewer session as JSON
// messages
func (s *Server) ViewerEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.viewers.get(chi.URLParam(r, "viewerId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.streamEvents(w, r, sess.events)
}

// ComparisonEvents streams the notifications of both viewers of a
// comparison. Each message names its side.
func (s *Server) ComparisonEvents(w http.ResponseWriter, r *http.Request) {
	sess, err := s.comparisons.get(chi.URLParam(r, "comparisonId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.streamEvents(w, r, sess.events)
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request, h *hub) {
	events, unsubscribe := h.subscribe()
	defer unsubscribe()

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.OriginPatterns,
	})
	if err != nil {
		s.log.WarnContext(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	s.metrics.EventStreams.Inc()
	defer s.metrics.EventStreams.Dec()

	// clients only listen; CloseRead handles their close frame
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				c.Close(websocket.StatusGoingAway, "event stream ended")
				return
			}
			if err := writeEvent(ctx, c, msg); err != nil {
				s.log.Debug("event stream closed", "error", err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, c *websocket.Conn, msg EventMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, c, msg)
}
