// Package log provides the small amount of logging that the scheduler and its
// host need, with an opt-in verbose level for per-wake-up detail.
package log

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

var (
	verbose atomic.Bool
	logger  atomic.Pointer[log.Logger]
)

func init() {
	SetOutput(os.Stderr)
}

// EnableVerbose enables the printing of verbose logs.
func EnableVerbose() {
	verbose.Store(true)
}

// Verbose reports whether verbose logging is enabled, so that callers can skip
// formatting work that would be discarded.
func Verbose() bool {
	return verbose.Load()
}

// SetOutput replaces the destination for all logs. It is safe to call while
// other goroutines are logging.
func SetOutput(w io.Writer) {
	logger.Store(log.New(w, "", log.LstdFlags))
}

// Printf prints regardless of whether verbose logging is enabled.
func Printf(fmt string, v ...any) {
	logger.Load().Printf(fmt, v...)
}

// Verbosef prints if verbose logging is enabled. Otherwise, it does nothing.
func Verbosef(fmt string, v ...any) {
	if verbose.Load() {
		logger.Load().Printf(fmt, v...)
	}
}
