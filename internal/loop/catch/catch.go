// Package catch confines the effects of panics and [runtime.Goexit] calls made
// by event loop callbacks.
package catch

import (
	"runtime"
	"sync"
)

// Do runs fn in an independent goroutine and captures its exit behavior,
// isolating the caller from any panic or [runtime.Goexit].
func Do(fn func()) (r Result) {
	r = Goexit()
	var wg sync.WaitGroup
	wg.Go(func() { r = DoOrExit(fn) })
	wg.Wait()
	return
}

// DoOrExit runs fn in the current goroutine and captures a return or panic.
// Unlike [Do], it propagates [runtime.Goexit] without returning.
func DoOrExit(fn func()) (r Result) {
	r.started = true
	func() {
		defer func() { r.panicval = recover() }()
		fn()
		r.returned = true
	}()
	r.recovered = true
	return
}

// Goexit constructs a synthetic result that captures [runtime.Goexit].
func Goexit() Result {
	return Result{started: true}
}

// Panic constructs a synthetic result that captures "panic(panicval)".
func Panic(panicval any) Result {
	return Result{started: true, recovered: true, panicval: panicval}
}

// Result captures the exit behavior of an isolated callback. The zero Result
// behaves as if capturing a normal return.
type Result struct {
	started   bool
	returned  bool
	recovered bool
	panicval  any
}

// Rethrow propagates the captured exit to the current goroutine: returning,
// panicking, or calling [runtime.Goexit]. It is guaranteed to return if and
// only if [Result.Returned] is true.
func (r Result) Rethrow() {
	switch {
	case !r.started || r.returned:
		return
	case r.recovered:
		panic(r.panicval)
	default:
		runtime.Goexit()
		panic("continued after runtime.Goexit")
	}
}

// Goexited is true if this result captures [runtime.Goexit].
func (r Result) Goexited() bool {
	return r.started && !r.returned && !r.recovered
}

// Panicked is true if this result captures a panic.
func (r Result) Panicked() bool {
	return r.started && !r.returned && r.recovered
}

// Returned is true if this result captures a normal return.
func (r Result) Returned() bool {
	return !r.started || r.returned
}

// Recovered returns any panic value captured by this result.
//
// If the GODEBUG panicnil=1 setting is enabled, a nil Recovered value may
// represent a true "panic(nil)". [Result.Panicked] distinguishes nil panics
// from non-panic results.
func (r Result) Recovered() any {
	return r.panicval
}
