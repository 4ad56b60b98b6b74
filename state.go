package mss

import (
	"sync/atomic"
)

// State is the lifecycle state of a [Scheduler].
//
// State machine:
//
//	StateAwake → StateRunning           [Run]
//	StateRunning → StateSleeping        [ready set empty, HAL sleep]
//	StateSleeping → StateRunning        [HAL sleep returned]
//	StateAwake → StateTerminated        [Close]
//	StateRunning → StateTerminating     [Run returning]
//	StateSleeping → StateTerminating    [Run returning]
//	StateTerminating → StateTerminated  [Run returned]
//
// Running and Sleeping are only entered with CAS (TryTransition). Terminated
// is irreversible, and is written with Store.
type State uint64

const (
	// StateAwake indicates the scheduler has been created but not run.
	StateAwake State = iota
	// StateRunning indicates the dispatcher is selecting or running tasks.
	StateRunning
	// StateSleeping indicates the dispatcher is blocked in the HAL sleep.
	StateSleeping
	// StateTerminating indicates Run is returning.
	StateTerminating
	// StateTerminated indicates the scheduler can no longer run.
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state cell, padded to its own cache line, since it
// is read from tick and producer goroutines while the dispatcher writes it.
type fastState struct { // betteralign:ignore
	_ [64]byte      //nolint:unused
	v atomic.Uint64 // State value
	_ [56]byte      //nolint:unused
}

func (s *fastState) Load() State {
	return State(s.v.Load())
}

func (s *fastState) Store(state State) {
	s.v.Store(uint64(state))
}

// TryTransition atomically moves from one state to another, reporting
// whether it did.
func (s *fastState) TryTransition(from, to State) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny moves to the target from the first matching source state.
func (s *fastState) TransitionAny(validFrom []State, to State) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsRunning reports whether Run is active (running or sleeping).
func (s *fastState) IsRunning() bool {
	state := s.Load()
	return state == StateRunning || state == StateSleeping
}
