package loop

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const count = 100
		l := New()

		var got []int
		for i := range count {
			l.Post(func() { got = append(got, i) })
		}
		l.Close()
		l.Wait()

		want := make([]int, count)
		for i := range want {
			want[i] = i
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("callbacks ran out of order (-want +got): %s", diff)
		}
	})
}

func TestLoopConcurrentPostersKeepTheirOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const (
			posters = 8
			each    = 50
		)
		l := New()

		var (
			running atomic.Int32
			seen    [posters][]int
		)
		var wg sync.WaitGroup
		for p := range posters {
			wg.Go(func() {
				for i := range each {
					l.Post(func() {
						if running.Add(1) > 1 {
							t.Error("callbacks overlapped")
						}
						defer running.Add(-1)
						seen[p] = append(seen[p], i)
					})
				}
			})
		}
		wg.Wait()
		l.Close()
		l.Wait()

		for p := range posters {
			require.Len(t, seen[p], each)
			for i, v := range seen[p] {
				assert.Equal(t, i, v, "poster %d", p)
			}
		}
	})
}

func TestLoopPostAfterClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := New()
		l.Close()
		l.Close()

		assert.ErrorIs(t, l.TryPost(func() {}), ErrClosed)
		l.Post(func() { t.Error("callback posted after Close ran") })
		l.Wait()
	})
}

func TestLoopCloseFinishesPending(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := New()
		block := make(chan struct{})
		var ran []string
		l.Post(func() { <-block; ran = append(ran, "first") })
		l.Post(func() { ran = append(ran, "second") })
		synctest.Wait()
		assert.Equal(t, 1, l.Len())

		l.Close()
		close(block)
		l.Wait()
		assert.Equal(t, []string{"first", "second"}, ran)
	})
}

func TestLoopFlush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := New()
		defer l.Wait()
		defer l.Close()

		var count atomic.Int32
		for range 10 {
			l.Post(func() { count.Add(1) })
		}
		l.Flush()
		assert.Equal(t, int32(10), count.Load())
	})
}

func TestLoopFlushAfterClose(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := New()
		var count atomic.Int32
		l.Post(func() { count.Add(1) })
		l.Close()
		l.Flush()
		assert.Equal(t, int32(1), count.Load())
	})
}

func TestLoopPanicPropagation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const want = "the expected panic value"
		l := New()
		block := make(chan struct{})
		l.Post(func() { <-block; panic(want) })
		l.Post(func() { t.Error("callback after panic ran") })
		close(block)
		<-l.Done()

		assert.ErrorIs(t, l.TryPost(func() {}), ErrClosed)
		assert.Zero(t, l.Len())

		defer func() {
			assert.Equal(t, want, recover())
		}()
		l.Wait()
		t.Error("Wait returned after a callback panicked")
	})
}

func TestLoopGoexitPropagation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l := New()
		l.Post(func() { runtime.Goexit() })
		l.Close()

		// Goexit isn't allowed in tests outside of standard skip and fail functions,
		// so we need to get creative.
		done := make(chan bool)
		go func() {
			defer close(done)
			l.Wait()
			done <- true
		}()
		if <-done {
			t.Fatalf("runtime.Goexit did not propagate")
		}
	})
}

func TestManual(t *testing.T) {
	var (
		m   Manual
		got []string
	)
	assert.False(t, m.Step())

	m.Post(func() {
		got = append(got, "a")
		m.Post(func() { got = append(got, "c") })
	})
	m.Post(func() { got = append(got, "b") })
	assert.Equal(t, 2, m.Len())

	assert.True(t, m.Step())
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 2, m.Len())

	assert.Equal(t, 2, m.Drain())
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Zero(t, m.Len())
}

func TestPostNilPanics(t *testing.T) {
	var m Manual
	assert.Panics(t, func() { m.Post(nil) })

	synctest.Test(t, func(t *testing.T) {
		l := New()
		assert.Panics(t, func() { l.Post(nil) })
		l.Close()
		l.Wait()
	})
}
