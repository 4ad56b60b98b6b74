// Package hal defines the hardware abstraction the scheduler depends on, and
// provides two implementations: [Sim], a deterministic simulation driven by
// virtual ticks, and [Host], which derives ticks from the wall clock.
//
// The scheduler sees the hardware only through [HAL]. In the other direction
// the HAL delivers interrupts through [ISR], which the scheduler implements.
package hal

import (
	"context"
	"errors"
	"math/bits"

	"golang.org/x/exp/constraints"
)

type (
	// Tick is the unit of time. It is a wrapping counter; durations are
	// always expressed as a remaining number of ticks.
	Tick uint32

	// HAL is the contract between the scheduler and the platform.
	HAL interface {
		// Init prepares the platform, and records the interrupt handlers.
		// Interrupts must not be delivered until the first Sleep or Poll.
		Init(isr ISR) error

		// Sleep blocks until an interrupt may have made a task ready, or
		// until ctx is done. The hint is the number of ticks until the
		// nearest timer expires, or NoTimeout.
		Sleep(ctx context.Context, hint Tick) error

		// TriggerPreemption requests that ISR.Preempt runs as soon as
		// possible, on the goroutine that runs the scheduler. It is also used
		// to wake a sleeping scheduler.
		TriggerPreemption()

		// HighestPriority returns the index of the highest priority (lowest
		// numbered) bit set in ready, or InvalidPriority.
		HighestPriority(ready uint64) int
	}

	// ISR is implemented by the scheduler, and called by the HAL.
	ISR interface {
		// Tick is the periodic timer interrupt. It reports whether a task
		// became ready, in which case a sleeping dispatcher must wake.
		Tick() bool

		// Preempt is the software interrupt that dispatches higher priority
		// tasks. It returns false, without doing anything, if called from
		// the wrong goroutine.
		Preempt() bool
	}

	// Poller may be implemented by a HAL that can deliver pending interrupts
	// while a task is running, at the points where the task calls Poll.
	Poller interface {
		Poll()
	}
)

const (
	// NoTimeout is the sleep hint used when no timer is armed.
	NoTimeout Tick = ^Tick(0)

	// InvalidPriority is returned by HighestPriority for an empty set.
	InvalidPriority = -1
)

var (
	// ErrHalted is returned by Sleep once the simulated tick budget is
	// spent.
	ErrHalted = errors.New(`hal: halted`)

	// ErrNotInitialized is returned when the HAL is used before Init.
	ErrNotInitialized = errors.New(`hal: not initialized`)

	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New(`hal: already initialized`)

	// ErrClosed is returned by a HAL that has been closed.
	ErrClosed = errors.New(`hal: closed`)
)

// LowestSetBit returns the index of the least significant set bit of v, or
// InvalidPriority if v is zero.
func LowestSetBit[B constraints.Unsigned](v B) int {
	if v == 0 {
		return InvalidPriority
	}
	return bits.TrailingZeros64(uint64(v))
}
