package mss

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned by New for an unusable configuration.
	ErrInvalidConfig = errors.New(`mss: invalid configuration`)

	// ErrAlreadyRunning is returned by Run while the scheduler is running.
	ErrAlreadyRunning = errors.New(`mss: scheduler is already running`)

	// ErrTerminated is returned by Run and Close once the scheduler has
	// terminated.
	ErrTerminated = errors.New(`mss: scheduler has been terminated`)
)

// The following are wrapped by [ContractViolation].
var (
	ErrInvalidHandle   = errors.New(`mss: invalid handle`)
	ErrInvalidTask     = errors.New(`mss: invalid task`)
	ErrTaskRegistered  = errors.New(`mss: task already registered`)
	ErrTaskFinished    = errors.New(`mss: task body finished`)
	ErrNotOwner        = errors.New(`mss: caller does not own the object`)
	ErrBlockState      = errors.New(`mss: invalid block state`)
	ErrInvalidArgument = errors.New(`mss: invalid argument`)
)

// ContractViolation is the panic value raised when the scheduler is misused in
// a way it cannot recover from, such as using an invalid handle, or freeing a
// block twice. Continuing with corrupted scheduler state is never attempted.
type ContractViolation struct {
	Err  error
	Op   string
	Task TaskID
}

func (e *ContractViolation) Error() string {
	if e.Task == NoTask {
		return fmt.Sprintf(`mss: contract violation: %s: %v`, e.Op, e.Err)
	}
	return fmt.Sprintf(`mss: contract violation: %s (task %d): %v`, e.Op, e.Task, e.Err)
}

func (e *ContractViolation) Unwrap() error {
	return e.Err
}
