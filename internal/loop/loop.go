// Package loop provides single-goroutine event loops that run posted callbacks
// one at a time in the order they were posted, in the manner of a GUI event
// dispatch thread.
package loop

import (
	"errors"
	"sync"

	"github.com/gammazero/deque"

	"go.alexhamlin.co/coalesce/internal/log"
	"go.alexhamlin.co/coalesce/internal/loop/catch"
)

// ErrClosed is returned when posting to a [Loop] that no longer accepts
// callbacks.
var ErrClosed = errors.New("loop: closed")

// Loop runs posted callbacks on a single dedicated goroutine, strictly in
// posting order, with no overlap between callbacks.
//
// Loop does not recover panics on behalf of its callbacks. A callback that
// panics or calls [runtime.Goexit] stops the loop, discarding any callbacks
// still pending, and [Loop.Wait] propagates that exit to its caller.
type Loop struct {
	// queue holds callbacks that have been posted but not yet started.
	queue  deque.Deque[func()]
	closed bool
	mu     sync.Mutex

	// ready carries at most one wake-up token to the loop goroutine. Every
	// change to queue or closed must be followed by a non-blocking send.
	ready chan struct{}

	done   chan struct{}
	result catch.Result // Written before done is closed.
}

// New starts a new [Loop].
func New() *Loop {
	l := &Loop{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

// Post schedules fn to run on the loop after every previously posted callback.
// It never blocks. If the loop is closed, the callback is discarded.
//
// Post satisfies the host capability required by the coalesce package.
func (l *Loop) Post(fn func()) {
	if err := l.TryPost(fn); err != nil {
		log.Verbosef("[loop] discarded callback: %v", err)
	}
}

// TryPost behaves like [Loop.Post], but returns [ErrClosed] instead of
// silently discarding a callback that the loop will never run.
func (l *Loop) TryPost(fn func()) error {
	if fn == nil {
		panic("loop: post called with nil callback")
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue.PushBack(fn)
	l.mu.Unlock()

	l.signal()
	return nil
}

// Len returns the number of callbacks posted but not yet started.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.queue.Len()
}

// Flush blocks until every callback posted before the call has finished, or
// until the loop stops. Calling Flush from a callback deadlocks the loop.
func (l *Loop) Flush() {
	flushed := make(chan struct{})
	if err := l.TryPost(func() { close(flushed) }); err != nil {
		// A closed loop still finishes everything it accepted before exiting.
		<-l.done
		return
	}
	select {
	case <-flushed:
	case <-l.done:
	}
}

// Close stops the loop from accepting new callbacks. The loop goroutine exits
// after running every callback that was posted before Close. Close may be
// called more than once.
func (l *Loop) Close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.signal()
}

// Done returns a channel that is closed when the loop goroutine has exited.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the loop goroutine exits following [Loop.Close]. If a
// callback panicked or called [runtime.Goexit], Wait propagates that exit to
// the current goroutine.
func (l *Loop) Wait() {
	<-l.done
	l.result.Rethrow()
}

func (l *Loop) signal() {
	select {
	case l.ready <- struct{}{}:
	default:
	}
}

func (l *Loop) run() {
	defer close(l.done)

	l.result = catch.Do(l.dispatch)
	if l.result.Returned() {
		return
	}

	l.mu.Lock()
	l.closed = true
	dropped := l.queue.Len()
	l.queue = deque.Deque[func()]{}
	l.mu.Unlock()
	log.Printf("[loop] callback failed; discarded %d pending callbacks", dropped)
}

func (l *Loop) dispatch() {
	for {
		fn, ok := l.next()
		if !ok {
			return
		}
		fn()
	}
}

func (l *Loop) next() (fn func(), ok bool) {
	for {
		l.mu.Lock()
		if l.queue.Len() > 0 {
			fn = l.queue.PopFront()
			l.mu.Unlock()
			return fn, true
		}
		closed := l.closed
		l.mu.Unlock()

		if closed {
			return nil, false
		}
		<-l.ready
	}
}
