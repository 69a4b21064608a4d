package tasks

import "sync"

// Manual queues tasks instead of running them. Tests release them with
// RunNext, RunLast, RunAt or RunAll.
type Manual struct {
	mu      sync.Mutex
	pending []func()
}

// NewManual returns an empty Manual runner.
func NewManual() *Manual {
	return &Manual{}
}

// Go queues fn.
func (m *Manual) Go(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, fn)
}

// Len returns the number of queued tasks.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// RunAt removes the i-th queued task and runs it on the calling goroutine.
// It reports false when there is no such task.
func (m *Manual) RunAt(i int) bool {
	m.mu.Lock()
	if i < 0 || i >= len(m.pending) {
		m.mu.Unlock()
		return false
	}
	fn := m.pending[i]
	m.pending = append(m.pending[:i], m.pending[i+1:]...)
	m.mu.Unlock()

	fn()
	return true
}

// RunNext runs the oldest queued task.
func (m *Manual) RunNext() bool {
	return m.RunAt(0)
}

// RunLast runs the newest queued task.
func (m *Manual) RunLast() bool {
	return m.RunAt(m.Len() - 1)
}

// RunAll drains the queue in FIFO order, including tasks queued while
// draining.
func (m *Manual) RunAll() {
	for m.RunNext() {
	}
}
