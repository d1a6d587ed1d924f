// Package eventloop provides the single threaded executors that viewers run
// on. Every viewer, its subscribers and its timers execute on one loop, so
// viewer state needs no locking; other goroutines hand work to the loop with
// Post or Do.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed is returned when work is handed to a loop that has been closed
var ErrClosed = errors.New("event loop closed")

// Timer is a pending callback created by Scheduler.AfterFunc
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call
	// stopped the timer; false means the callback already ran or the timer
	// was stopped before.
	Stop() bool
}

// Scheduler runs callbacks one at a time
type Scheduler interface {
	Now() time.Time
	// Post queues fn to run after everything already queued. It reports
	// false when the scheduler no longer accepts work.
	Post(fn func()) bool
	// AfterFunc runs fn on the scheduler once d has elapsed
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop is a Scheduler backed by a dedicated goroutine and the wall clock
type Loop struct {
	log *slog.Logger

	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

// New starts a loop. A nil logger uses slog.Default.
func New(log *slog.Logger) *Loop {
	if log == nil {
		log = slog.Default()
	}
	l := &Loop{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return
			}
			<-l.wake
			continue
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.exec(fn)
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("event loop task panicked", "panic", r)
		}
	}()
	fn()
}

// Now returns the wall clock time
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post implements Scheduler
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. It must not be called
// from the loop itself.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc implements Scheduler. The callback is queued on the loop when the
// timer expires and is skipped if Stop ran on the loop first.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.state.CompareAndSwap(timerPending, timerFired) {
				fn()
			}
		})
	})
	return t
}

// Close stops accepting work, runs what is already queued and waits for the
// loop goroutine to exit. It must not be called from the loop itself.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

const (
	timerPending int32 = iota
	timerFired
	timerStopped
)

type loopTimer struct {
	timer *time.Timer
	state atomic.Int32
}

func (t *loopTimer) Stop() bool {
	if !t.state.CompareAndSwap(timerPending, timerStopped) {
		return false
	}
	t.timer.Stop()
	return true
}
