package loop

import (
	"sync"

	"github.com/gammazero/deque"
)

// Manual is a callback queue that runs nothing until told to. It lets tests
// and simulations decide exactly when each posted callback executes, while
// still permitting concurrent posts. The zero value is an empty queue.
//
// Only one goroutine at a time may call [Manual.Step] or [Manual.Drain].
type Manual struct {
	queue deque.Deque[func()]
	mu    sync.Mutex
}

// Post appends fn to the queue.
func (m *Manual) Post(fn func()) {
	if fn == nil {
		panic("loop: post called with nil callback")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue.PushBack(fn)
}

// Len returns the number of callbacks waiting to run.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// Step runs the oldest waiting callback, if any, and reports whether it did.
// The callback may itself post to m.
func (m *Manual) Step() bool {
	m.mu.Lock()
	if m.queue.Len() == 0 {
		m.mu.Unlock()
		return false
	}
	fn := m.queue.PopFront()
	m.mu.Unlock()

	fn()
	return true
}

// Drain steps until the queue is empty, including callbacks posted while
// draining, and returns the number of callbacks run.
func (m *Manual) Drain() (n int) {
	for m.Step() {
		n++
	}
	return
}
