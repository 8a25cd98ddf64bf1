// Package refresh defines the coalescable refresh operations of the
// acquisition user interface: redrawing image windows, recomputing their
// histograms, and updating device property widgets.
//
// Every task in this package uses [Class] as its coalescence class, so a single
// [Scheduler] can carry all of them.
package refresh

import (
	"fmt"

	"go.alexhamlin.co/coalesce/internal/channels"
	"go.alexhamlin.co/coalesce/internal/coalesce"
)

// Kind distinguishes the refresh operations that share a [Scheduler].
type Kind uint8

const (
	KindDisplay Kind = iota + 1
	KindHistogram
	KindProperties
)

func (k Kind) String() string {
	switch k {
	case KindDisplay:
		return "display"
	case KindHistogram:
		return "histogram"
	case KindProperties:
		return "properties"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Class is the coalescence class of a refresh task. Tasks merge only when every
// field is equal, and each Kind uses only the fields that identify its target.
type Class struct {
	Kind     Kind
	Window   string
	Device   string
	Channels channels.Set
}

func (c Class) String() string {
	switch c.Kind {
	case KindProperties:
		return fmt.Sprintf("%s[%s]", c.Kind, c.Device)
	case KindHistogram:
		return fmt.Sprintf("%s[%s %s]", c.Kind, c.Window, c.Channels)
	default:
		return fmt.Sprintf("%s[%s]", c.Kind, c.Window)
	}
}

type (
	// Task is a refresh task.
	Task = coalesce.Task[Class]
	// Scheduler coalesces refresh tasks.
	Scheduler = coalesce.Scheduler[Class]
)

// NewScheduler returns a scheduler for refresh tasks that posts wake-ups
// through post.
func NewScheduler(post coalesce.Poster) *Scheduler {
	return coalesce.New[Class](post)
}

// mustMerge checks the merge contract for older and newer, and returns newer
// as the concrete type T.
func mustMerge[T Task](older T, newer Task) T {
	coalesce.MustMatch[Class](older, newer)
	n, ok := newer.(T)
	if !ok {
		panic(fmt.Errorf("%w: cannot merge %T into %T", coalesce.ErrClassMismatch, newer, older))
	}
	return n
}
