// Package feed delivers ordered event streams to subscribers without dropping
// events when a subscriber falls behind.
package feed

import "sync"

// Queue is a subscriber channel with an unbounded backlog.
//
// Push never blocks. While the channel buffer has room, values go straight
// into it; once it is full they queue in a backlog that a goroutine drains in
// order as the reader catches up.
type Queue[T any] struct {
	ch   chan T
	stop chan struct{}

	mu      sync.Mutex
	backlog []T
	pumping bool
	closed  bool
}

// New creates a Queue whose channel buffers up to buffer values.
func New[T any](buffer int) *Queue[T] {
	return &Queue[T]{
		ch:   make(chan T, buffer),
		stop: make(chan struct{}),
	}
}

// C returns the receive side of the queue.
func (q *Queue[T]) C() <-chan T {
	return q.ch
}

// Push appends v. It reports false once the queue is closed.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if !q.pumping {
		select {
		case q.ch <- v:
			return true
		default:
		}
		q.pumping = true
		go q.pump()
	}
	q.backlog = append(q.backlog, v)
	return true
}

// Backlog returns the number of values waiting behind the full channel.
func (q *Queue[T]) Backlog() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.backlog)
}

// Close stops delivery and closes the channel. Values already in the channel
// buffer can still be received; the backlog is discarded. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	if q.pumping {
		// The pump closes the channel so it never sends on a closed one.
		close(q.stop)
		return
	}
	close(q.ch)
}

func (q *Queue[T]) pump() {
	for {
		q.mu.Lock()
		if q.closed || len(q.backlog) == 0 {
			q.pumping = false
			if q.closed {
				q.backlog = nil
				close(q.ch)
			}
			q.mu.Unlock()
			return
		}
		v := q.backlog[0]
		q.mu.Unlock()

		select {
		case q.ch <- v:
			q.mu.Lock()
			var zero T
			q.backlog[0] = zero
			q.backlog = q.backlog[1:]
			q.mu.Unlock()
		case <-q.stop:
		}
	}
}
