package mss

import (
	"slices"
	"sync"
)

// Metrics are statistics collected by a scheduler created WithMetrics.
type Metrics struct {
	// Dispatches counts the dispatches of each task, indexed by TaskID.
	Dispatches []uint64
	// Nested counts dispatches made by preemption, on top of another task.
	Nested uint64
	// MaxDepth is the deepest nesting observed, where 1 is a dispatch
	// directly from Run.
	MaxDepth int
	// Sleeps counts the calls to the HAL sleep.
	Sleeps uint64
	// Ticks counts timer interrupts.
	Ticks uint64
	// Exhausted counts allocations that failed because a pool was empty.
	Exhausted uint64
}

// metrics is nil when disabled, which all methods handle.
type metrics struct {
	mu sync.Mutex
	m  Metrics
}

func newMetrics(numTasks int) *metrics {
	return &metrics{m: Metrics{Dispatches: make([]uint64, numTasks)}}
}

func (x *metrics) dispatch(id TaskID, depth int) {
	if x == nil {
		return
	}
	x.mu.Lock()
	x.m.Dispatches[id]++
	if depth > x.m.MaxDepth {
		x.m.MaxDepth = depth
	}
	x.mu.Unlock()
}

func (x *metrics) nested() {
	if x == nil {
		return
	}
	x.mu.Lock()
	x.m.Nested++
	x.mu.Unlock()
}

func (x *metrics) sleep() {
	if x == nil {
		return
	}
	x.mu.Lock()
	x.m.Sleeps++
	x.mu.Unlock()
}

func (x *metrics) tick() {
	if x == nil {
		return
	}
	x.mu.Lock()
	x.m.Ticks++
	x.mu.Unlock()
}

func (x *metrics) exhausted() {
	if x == nil {
		return
	}
	x.mu.Lock()
	x.m.Exhausted++
	x.mu.Unlock()
}

func (x *metrics) snapshot() Metrics {
	if x == nil {
		return Metrics{}
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	m := x.m
	m.Dispatches = slices.Clone(x.m.Dispatches)
	return m
}
