package coalesce

import (
	"errors"
	"fmt"
)

// ErrClassMismatch is panicked (wrapped) when a merge is attempted between
// tasks of different coalescence classes. It always indicates a programming
// error in the caller or in a [Task] implementation.
var ErrClassMismatch = errors.New("coalesce: merge across coalescence classes")

// Task is a unit of refresh-like work that can be merged with newer work of the
// same coalescence class.
type Task[C comparable] interface {
	// Class returns the key grouping this task with others it may merge with.
	// It must return the same value for the lifetime of the task.
	Class() C

	// MergeWith returns a new task equivalent to running this task followed by
	// newer. newer is guaranteed to have the same class as this task, and to
	// have been scheduled after this task (or after every task merged to form
	// this one).
	//
	// MergeWith must not have side effects, and must leave both this task and
	// newer unchanged. Implementations should call [MustMatch] to enforce the
	// class requirement.
	MergeWith(newer Task[C]) Task[C]

	// Run performs the work. A [Scheduler] calls it exactly once per merged
	// task, on the consumer goroutine.
	Run()
}

// MustMatch panics with an error wrapping [ErrClassMismatch] if older and newer
// belong to different coalescence classes.
func MustMatch[C comparable](older, newer Task[C]) {
	if oc, nc := older.Class(), newer.Class(); oc != nc {
		panic(fmt.Errorf("%w: %v vs. %v", ErrClassMismatch, oc, nc))
	}
}

// Poster runs callbacks later, in the order they were posted, on a single
// dedicated goroutine.
type Poster interface {
	Post(fn func())
}

// PosterFunc adapts an ordinary function to the [Poster] interface.
type PosterFunc func(fn func())

// Post calls p(fn).
func (p PosterFunc) Post(fn func()) {
	p(fn)
}
