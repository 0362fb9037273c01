// Package queue holds the pending display strings.
//
// The queue is a bounded FIFO owned by the scheduler loop. It is not
// safe for concurrent use; the scheduler is its only caller.
package queue

// DefaultCapacity bounds the number of pending messages. Scheduled
// prompts already in the queue are privileged over new arrivals.
const DefaultCapacity = 32

// Queue is a bounded FIFO of short display strings.
// Push on a full queue drops the newest entry.
type Queue struct {
	items []string
	cap   int
}

// New creates a queue with the given capacity.
// capacity <= 0 falls back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{items: make([]string, 0, capacity), cap: capacity}
}

// Push appends s and reports whether it was stored.
// A full queue drops s (oldest entries win).
func (q *Queue) Push(s string) bool {
	if len(q.items) >= q.cap {
		return false
	}
	q.items = append(q.items, s)
	return true
}

// Pop removes and returns the head.
func (q *Queue) Pop() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	s := q.items[0]
	q.items = q.items[1:]
	return s, true
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (string, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	return q.items[0], true
}

func (q *Queue) Len() int    { return len(q.items) }
func (q *Queue) Empty() bool { return len(q.items) == 0 }

// Clear drops all pending messages.
func (q *Queue) Clear() { q.items = q.items[:0] }
