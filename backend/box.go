package backend

import "sync"

// RWBox guards a value with a read/write lock. Callers only ever touch the
// value inside the closures, so the lock is held for exactly as long as the
// access takes.
type RWBox[T any] struct {
	t    T
	lock sync.RWMutex
}

func (r *RWBox[T]) Read(f func(*T)) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	f(&r.t)
}

func (r *RWBox[T]) Write(f func(*T)) {
	r.lock.Lock()
	defer r.lock.Unlock()
	f(&r.t)
}

// Load returns a copy of the boxed value.
func (r *RWBox[T]) Load() T {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.t
}

// Mailbox is an unbounded FIFO used to post work between goroutines. Posting
// never blocks; the receiver waits on Ready and then drains everything queued
// so far.
type Mailbox[T any] struct {
	lock   sync.Mutex
	items  []T
	signal chan struct{}
}

func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{signal: make(chan struct{}, 1)}
}

func (m *Mailbox[T]) Post(v T) {
	m.lock.Lock()
	m.items = append(m.items, v)
	m.lock.Unlock()
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Ready fires at least once after every Post.
func (m *Mailbox[T]) Ready() <-chan struct{} {
	return m.signal
}

// Drain removes and returns everything posted so far, oldest first.
func (m *Mailbox[T]) Drain() []T {
	m.lock.Lock()
	defer m.lock.Unlock()
	items := m.items
	m.items = nil
	return items
}

// Len reports how many posts are waiting.
func (m *Mailbox[T]) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.items)
}
