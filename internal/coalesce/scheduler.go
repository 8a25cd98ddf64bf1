package coalesce

import (
	"sync"
	"sync/atomic"

	"github.com/samber/lo"

	"go.alexhamlin.co/coalesce/internal/log"
)

// Scheduler posts coalesced tasks to a single consumer goroutine, keeping at
// most one pending task per coalescence class.
//
// Tasks scheduled before the consumer gets around to them are merged, oldest
// first, into a single pending task. Each call posts its own wake-up to the
// consumer; the first wake-up to find the class's pending task removes and runs
// it, and the rest find nothing to do.
//
// A Scheduler never holds its internal lock while running a task, so a task may
// schedule further work for its own class. That work becomes a new pending
// task, run by a later wake-up.
type Scheduler[C comparable] struct {
	post Poster

	// registry and ledger are only accessed with mu held.
	registry registry[C]
	ledger   ledger[C]
	mu       sync.Mutex

	scheduled atomic.Uint64
	merged    atomic.Uint64
	posted    atomic.Uint64
	ran       atomic.Uint64
	skipped   atomic.Uint64
	idle      atomic.Uint64
}

// Stats is a snapshot of a [Scheduler]'s counters.
type Stats struct {
	// Scheduled counts calls to Schedule and ScheduleDeferred.
	Scheduled uint64
	// Merged counts scheduled tasks that were merged into a pending task.
	Merged uint64
	// Posted counts wake-ups posted to the consumer.
	Posted uint64
	// Ran counts merged tasks that were run.
	Ran uint64
	// Skipped counts deferred wake-ups ignored due to a positive skip count.
	Skipped uint64
	// Idle counts wake-ups that found no pending task.
	Idle uint64
}

// New creates a [Scheduler] that posts wake-ups through post.
func New[C comparable](post Poster) *Scheduler[C] {
	if post == nil {
		panic("coalesce: New called with nil Poster")
	}
	return &Scheduler[C]{
		post:     post,
		registry: registry[C]{pending: make(map[C]Task[C])},
		ledger:   ledger[C]{skips: make(map[C]uint64)},
	}
}

// Schedule merges task into the pending task for its class, or makes it the
// pending task if there is none, then posts a wake-up that will run the
// pending task if no earlier wake-up has already done so.
//
// Schedule never blocks beyond the brief acquisition of the scheduler's lock.
// It panics if task is nil, or if merging violates the [Task] contract.
func (s *Scheduler[C]) Schedule(task Task[C]) {
	class := s.classOf(task)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.registry.merge(task) {
			s.merged.Add(1)
		}
	}()
	s.wake(class, s.wakeImmediate)
}

// ScheduleDeferred behaves like [Scheduler.Schedule], but defers running the
// pending task until the wake-up posted by the last call that merged into it.
// Every call that merges into an existing pending task adds one to the class's
// skip count, and each wake-up consumes one skip before any wake-up may run the
// task.
//
// If ScheduleDeferred is called for a class faster than the consumer processes
// wake-ups, the skip count can grow without bound and the pending task may
// never run.
func (s *Scheduler[C]) ScheduleDeferred(task Task[C]) {
	class := s.classOf(task)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.registry.merge(task) {
			s.merged.Add(1)
			s.ledger.add(class)
		}
	}()
	s.wake(class, s.wakeDeferred)
}

// Pending reports whether class has a pending task.
func (s *Scheduler[C]) Pending(class C) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.has(class)
}

// SkipCount returns the number of upcoming wake-ups for class that will be
// ignored.
func (s *Scheduler[C]) SkipCount(class C) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.count(class)
}

// PendingClasses returns the classes that currently have pending tasks, in no
// particular order.
func (s *Scheduler[C]) PendingClasses() []C {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Keys(s.registry.pending)
}

// Stats returns a snapshot of the scheduler's counters. Counters are loaded
// individually, so a snapshot taken while work is in flight may not be
// internally consistent.
func (s *Scheduler[C]) Stats() Stats {
	return Stats{
		Scheduled: s.scheduled.Load(),
		Merged:    s.merged.Load(),
		Posted:    s.posted.Load(),
		Ran:       s.ran.Load(),
		Skipped:   s.skipped.Load(),
		Idle:      s.idle.Load(),
	}
}

func (s *Scheduler[C]) classOf(task Task[C]) C {
	if task == nil {
		panic("coalesce: scheduled a nil Task")
	}
	s.scheduled.Add(1)
	return task.Class()
}

func (s *Scheduler[C]) wake(class C, handle func(C)) {
	s.posted.Add(1)
	s.post.Post(func() { handle(class) })
}

func (s *Scheduler[C]) wakeImmediate(class C) {
	s.mu.Lock()
	task, ok := s.registry.take(class)
	s.mu.Unlock()
	s.runTask(class, task, ok)
}

func (s *Scheduler[C]) wakeDeferred(class C) {
	s.mu.Lock()
	if remaining, skipped := s.ledger.consume(class); skipped {
		s.mu.Unlock()
		s.skipped.Add(1)
		log.Verbosef("[coalesce] skipped wake-up for %v (%d more to skip)", class, remaining)
		return
	}
	task, ok := s.registry.take(class)
	s.mu.Unlock()
	s.runTask(class, task, ok)
}

func (s *Scheduler[C]) runTask(class C, task Task[C], ok bool) {
	if !ok {
		s.idle.Add(1)
		log.Verbosef("[coalesce] nothing pending for %v", class)
		return
	}
	s.ran.Add(1)
	task.Run()
}
