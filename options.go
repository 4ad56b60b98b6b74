package mss

import (
	"fmt"
	"time"

	"github.com/joeycumines/go-mss/hal"
	"github.com/joeycumines/logiface"
)

// options holds configuration for Scheduler creation.
type options struct {
	hal            hal.HAL
	logger         *logiface.Logger[logiface.Event]
	haltHandler    func(*ContractViolation)
	exhaustedRates map[time.Duration]int
	numTimers      int
	numSemas       int
	numQueues      int
	numPools       int
	numLists       int
	preemptive     bool
	metrics        bool
}

// Option configures a Scheduler.
type Option interface {
	applyOption(*options) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyOptionFunc func(*options) error
}

func (o *optionImpl) applyOption(opts *options) error {
	return o.applyOptionFunc(opts)
}

// WithHAL sets the hardware abstraction. The default is a [hal.Sim] without a
// tick limit.
func WithHAL(h hal.HAL) Option {
	return &optionImpl{func(opts *options) error {
		if h == nil {
			return fmt.Errorf(`%w: nil HAL`, ErrInvalidConfig)
		}
		opts.hal = h
		return nil
	}}
}

// WithPreemption enables nested, priority-driven preemption. When disabled
// (the default), tasks only switch at yield points.
func WithPreemption(enabled bool) Option {
	return &optionImpl{func(opts *options) error {
		opts.preemptive = enabled
		return nil
	}}
}

// WithTimers sets the capacity of the timer table.
func WithTimers(n int) Option {
	return capacityOption(`timers`, n, func(opts *options) *int { return &opts.numTimers })
}

// WithSemaphores sets the capacity of the semaphore table.
func WithSemaphores(n int) Option {
	return capacityOption(`semaphores`, n, func(opts *options) *int { return &opts.numSemas })
}

// WithQueues sets the capacity of the message queue table.
func WithQueues(n int) Option {
	return capacityOption(`queues`, n, func(opts *options) *int { return &opts.numQueues })
}

// WithPools sets the capacity of the memory pool table.
func WithPools(n int) Option {
	return capacityOption(`pools`, n, func(opts *options) *int { return &opts.numPools })
}

// WithLists sets the capacity of the linked list table, from which every
// message queue takes one list. Defaults to the queue capacity.
func WithLists(n int) Option {
	return capacityOption(`lists`, n, func(opts *options) *int { return &opts.numLists })
}

func capacityOption(name string, n int, field func(*options) *int) Option {
	return &optionImpl{func(opts *options) error {
		if n < 0 {
			return fmt.Errorf(`%w: negative %s capacity: %d`, ErrInvalidConfig, name, n)
		}
		*field(opts) = n
		return nil
	}}
}

// WithLogger sets the structured logger. Logging is disabled by default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *options) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables collection of the statistics returned by
// Scheduler.Metrics.
func WithMetrics(enabled bool) Option {
	return &optionImpl{func(opts *options) error {
		opts.metrics = enabled
		return nil
	}}
}

// WithExhaustionLogRates sets the per-pool rate limits for the warning logged
// when a pool is exhausted, as accepted by catrate.NewLimiter. A nil map
// disables the limit.
func WithExhaustionLogRates(rates map[time.Duration]int) Option {
	return &optionImpl{func(opts *options) error {
		for d, n := range rates {
			if d <= 0 || n <= 0 {
				return fmt.Errorf(`%w: invalid exhaustion log rate: %d per %s`, ErrInvalidConfig, n, d)
			}
		}
		opts.exhaustedRates = rates
		return nil
	}}
}

// WithHaltHandler sets a function called with every contract violation,
// before the scheduler panics. It must not return control to the scheduler
// by other means.
func WithHaltHandler(fn func(*ContractViolation)) Option {
	return &optionImpl{func(opts *options) error {
		opts.haltHandler = fn
		return nil
	}}
}

// resolveOptions applies Option instances over the defaults.
func resolveOptions(opts []Option) (*options, error) {
	cfg := &options{
		numTimers: 8,
		numSemas:  4,
		numQueues: 4,
		numPools:  2,
		numLists:  -1,
		exhaustedRates: map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyOption(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.numLists < 0 {
		cfg.numLists = cfg.numQueues
	}
	if cfg.hal == nil {
		cfg.hal = hal.NewSim(0)
	}
	return cfg, nil
}
