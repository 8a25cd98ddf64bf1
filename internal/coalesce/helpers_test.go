package coalesce_test

import (
	"sync"

	"go.alexhamlin.co/coalesce/internal/coalesce"
)

// label is a task whose merge concatenates values in submission order, so that
// the value of a run reveals exactly which tasks were folded into it and how.
type label struct {
	class string
	value string
	rec   *recorder

	// then, if set, runs after the run is recorded. Merges keep the newest one.
	then func()
}

func (l label) Class() string { return l.class }

func (l label) MergeWith(newer coalesce.Task[string]) coalesce.Task[string] {
	coalesce.MustMatch[string](l, newer)
	n := newer.(label)
	return label{
		class: l.class,
		value: l.value + n.value,
		rec:   l.rec,
		then:  n.then,
	}
}

func (l label) Run() {
	l.rec.record(l.class, l.value)
	if l.then != nil {
		l.then()
	}
}

// recorder collects the values of every run, per class.
type recorder struct {
	runs map[string][]string
	mu   sync.Mutex
}

func newRecorder() *recorder {
	return &recorder{runs: make(map[string][]string)}
}

func (r *recorder) label(class, value string) label {
	return label{class: class, value: value, rec: r}
}

func (r *recorder) record(class, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[class] = append(r.runs[class], value)
}

func (r *recorder) Runs() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	runs := make(map[string][]string, len(r.runs))
	for class, values := range r.runs {
		runs[class] = append([]string(nil), values...)
	}
	return runs
}

// classChanger is a broken task whose merges report a different class.
type classChanger struct{ class string }

func (c classChanger) Class() string { return c.class }

func (c classChanger) MergeWith(coalesce.Task[string]) coalesce.Task[string] {
	return classChanger{class: c.class + "!"}
}

func (c classChanger) Run() {}
