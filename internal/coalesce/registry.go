package coalesce

import (
	"fmt"
)

// registry holds at most one pending task per coalescence class.
type registry[C comparable] struct {
	pending map[C]Task[C]
}

// merge folds task into any pending task of the same class, and reports
// whether a pending task already existed.
func (r *registry[C]) merge(task Task[C]) (coalesced bool) {
	class := task.Class()
	older, ok := r.pending[class]
	if !ok {
		r.pending[class] = task
		return false
	}

	merged := older.MergeWith(task)
	if mc := merged.Class(); mc != class {
		panic(fmt.Errorf("%w: merge of %v produced %v", ErrClassMismatch, class, mc))
	}
	r.pending[class] = merged
	return true
}

// take removes and returns the pending task for class.
func (r *registry[C]) take(class C) (task Task[C], ok bool) {
	task, ok = r.pending[class]
	if ok {
		delete(r.pending, class)
	}
	return
}

func (r *registry[C]) has(class C) bool {
	_, ok := r.pending[class]
	return ok
}

// ledger tracks the number of upcoming wake-ups to ignore for each class
// scheduled through the deferred path. Classes with no skips have no entry.
type ledger[C comparable] struct {
	skips map[C]uint64
}

func (l *ledger[C]) add(class C) uint64 {
	l.skips[class]++
	return l.skips[class]
}

// consume uses up one skip for class if any remain, and reports whether it
// did.
func (l *ledger[C]) consume(class C) (remaining uint64, skipped bool) {
	n := l.skips[class]
	if n == 0 {
		return 0, false
	}
	n--
	if n == 0 {
		delete(l.skips, class)
	} else {
		l.skips[class] = n
	}
	return n, true
}

func (l *ledger[C]) count(class C) uint64 {
	return l.skips[class]
}
