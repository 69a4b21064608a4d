// Package tasks runs detached background work.
//
// Detached tasks are fire-and-forget from the caller's point of view: the
// navigation guard starts a background verification and moves on. The
// Runner abstraction lets tests hold such tasks and release them in any
// order to exercise out-of-order completion.
package tasks

import "sync"

// Runner starts fn without waiting for it.
type Runner interface {
	Go(fn func())
}

// Group runs each task on its own goroutine. Wait blocks until all tasks
// started so far have returned.
type Group struct {
	wg sync.WaitGroup
}

// NewGroup returns an empty Group.
func NewGroup() *Group {
	return &Group{}
}

// Go starts fn on a new goroutine.
func (g *Group) Go(fn func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn()
	}()
}

// Wait blocks until every started task has finished.
func (g *Group) Wait() {
	g.wg.Wait()
}
