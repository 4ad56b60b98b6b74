// Package mss implements a small task scheduler, in the style of those built
// for microcontrollers: a fixed set of prioritized tasks share one goroutine,
// without a stack each, coordinating through timers, event registers,
// counting semaphores, message queues and fixed-block memory pools.
//
// # Tasks
//
// A task is a [Task] registered under a [TaskID], which is also its
// priority, 0 being the highest. The [Scheduler] calls the Run method of the
// highest priority ready task, and the task returns once it has nothing more
// to do, after recording where it should resume through its [Context]. Since
// nothing but the resume point is kept between dispatches, state that must
// survive a yield belongs in the task value itself.
//
// The wait helpers on Context ([Context.Delay], [Context.WaitEvent],
// [Context.WaitSema], [Context.WaitMsg]) either complete, or record the
// resume point and report that the task must return. Waits are re-evaluated
// on every later dispatch of the task, so a bounded wait is written as a race
// between a wait and a timer, checking both.
//
// # Preemption
//
// By default, tasks switch only when they return. [WithPreemption] enables
// priority preemption, which runs on the same goroutine: the higher priority
// task is called directly, nested on top of the frame it preempts, which
// resumes exactly where it was once the nested task returns. Nesting depth is
// therefore bounded by the number of tasks.
//
// # Interrupts
//
// The scheduler reaches the platform through a [hal.HAL], and implements
// [hal.ISR], through which the HAL delivers ticks and requests preemption.
// [hal.Sim] is a deterministic simulation, driven by virtual time, and
// [hal.Host] derives ticks from the wall clock.
//
// # Errors
//
// Running out of table capacity is reported by invalid handles, and an empty
// pool by a nil block. Anything else that cannot be recovered from, such as
// an invalid handle or a double free, is a [ContractViolation], which halts
// the scheduler by panicking.
package mss
