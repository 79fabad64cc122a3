// Package scheduler implements the "some of the pipelines are changed"
// notification contract from
// original_source/scheduler/Scheduler.hpp, generalized from a single
// abstract update() hook into a listener registry plus a block/resume
// gate the application loop checks once per frame.
//
// A shader hot-reload (internal/hotreload) blocks the loop for the
// duration of a rebuild and notifies every registered listener once the
// new pipelines are live, so a listener never observes a half-rebuilt
// pipeline set.
package scheduler

import (
	"sync"

	"github.com/google/uuid"
)

// Listener is notified after a pipeline rebuild completes.
type Listener func(epoch uuid.UUID)

// Scheduler tracks whether the render loop is allowed to submit work
// this frame and fans out rebuild notifications to registered
// listeners. The zero value is not usable; use New.
type Scheduler struct {
	mu        sync.Mutex
	blocked   bool
	listeners []Listener
}

// New returns a Scheduler with the render loop initially unblocked.
func New() *Scheduler {
	return &Scheduler{}
}

// AddListener registers l to run after every future BlockRenderLoop /
// Resume cycle.
func (s *Scheduler) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// BlockRenderLoop suspends frame submission. Call Resume to lift it
// once the rebuild that required the block has finished.
func (s *Scheduler) BlockRenderLoop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = true
}

// Blocked reports whether the render loop must skip this frame.
func (s *Scheduler) Blocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocked
}

// Resume lifts the block and notifies every listener with a fresh
// epoch ID, letting consumers distinguish one rebuild from the next
// (e.g. to invalidate an in-flight frame's descriptor bundle
// references) without coordinating on a shared counter.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	s.blocked = false
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	epoch := uuid.New()
	for _, l := range listeners {
		l(epoch)
	}
}
