package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan int, n int) []int {
	t.Helper()
	got := make([]int, 0, n)
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "channel closed after %d values", len(got))
			got = append(got, v)
		case <-timeout:
			t.Fatalf("received %d of %d values", len(got), n)
		}
	}
	return got
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestQueue_DirectWhileBufferHasRoom(t *testing.T) {
	q := New[int](4)
	defer q.Close()

	for i := range 4 {
		require.True(t, q.Push(i))
	}
	assert.Equal(t, 0, q.Backlog())
	assert.Len(t, q.C(), 4)
}

func TestQueue_BurstLargerThanBuffer(t *testing.T) {
	q := New[int](8)
	defer q.Close()

	for i := range 500 {
		require.True(t, q.Push(i))
	}
	assert.Equal(t, sequence(500), receive(t, q.C(), 500))

	assert.Eventually(t, func() bool { return q.Backlog() == 0 }, time.Second, 5*time.Millisecond)

	// Direct delivery resumes once the backlog is gone
	require.True(t, q.Push(500))
	assert.Equal(t, []int{500}, receive(t, q.C(), 1))
}

func TestQueue_ConcurrentPushKeepsPerWriterOrder(t *testing.T) {
	q := New[int](2)
	defer q.Close()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				q.Push(w*1000 + i)
			}
		}()
	}

	got := receive(t, q.C(), 400)
	wg.Wait()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	for _, v := range got {
		w, i := v/1000, v%1000
		assert.Greater(t, i, last[w], "writer %d out of order", w)
		last[w] = i
	}
}

func TestQueue_Close(t *testing.T) {
	q := New[int](1)
	q.Push(1)
	q.Push(2) // backlogged

	q.Close()
	q.Close()
	assert.False(t, q.Push(3))

	// The buffered value survives; the backlog does not
	var got []int
	for v := range q.C() {
		got = append(got, v)
	}
	assert.LessOrEqual(t, len(got), 2)
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0])
}

func TestQueue_CloseIdle(t *testing.T) {
	q := New[int](1)
	q.Close()

	_, ok := <-q.C()
	assert.False(t, ok)
}
