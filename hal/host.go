package hal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Host is a HAL for running on a general-purpose OS. A background goroutine
// delivers a tick every period, starting with the first Sleep or Poll, and a
// sleeping scheduler is woken through an eventfd (a pipe on darwin).
//
// Host cannot interrupt a running task: preemption requested from the tick
// goroutine, or from any goroutine other than the scheduler's, is delivered
// when the running task next calls Poll.
type Host struct {
	isr     ISR
	wake    waker
	done    chan struct{}
	period  time.Duration
	wg      sync.WaitGroup
	start   sync.Once
	stop    sync.Once
	ticks   atomic.Uint64
	pending atomic.Bool
	closed  atomic.Bool
}

var (
	_ HAL    = (*Host)(nil)
	_ Poller = (*Host)(nil)
)

// NewHost returns a HAL that ticks every period. Call Close to release it.
func NewHost(period time.Duration) (*Host, error) {
	if period <= 0 {
		period = time.Millisecond
	}
	w, err := newWaker()
	if err != nil {
		return nil, err
	}
	return &Host{
		wake:   w,
		done:   make(chan struct{}),
		period: period,
	}, nil
}

func (x *Host) Init(isr ISR) error {
	if isr == nil {
		return ErrNotInitialized
	}
	if x.closed.Load() {
		return ErrClosed
	}
	if x.isr != nil {
		return ErrAlreadyInitialized
	}
	x.isr = isr
	return nil
}

// Sleep blocks until a tick expires a timer, preemption is triggered from
// another goroutine, or ctx is done.
func (x *Host) Sleep(ctx context.Context, hint Tick) error {
	if err := x.enable(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, x.wake.signal)
	defer stop()
	if err := x.wake.wait(); err != nil {
		if x.closed.Load() {
			return ErrClosed
		}
		return err
	}
	// anything that was pending is picked up by the dispatcher re-reading
	// its ready set
	x.pending.Store(false)
	return ctx.Err()
}

// TriggerPreemption runs the software interrupt directly when called on the
// scheduler's goroutine, otherwise it is left pending for Poll, and any
// sleep is interrupted.
func (x *Host) TriggerPreemption() {
	if x.isr == nil {
		return
	}
	if x.isr.Preempt() {
		return
	}
	x.pending.Store(true)
	x.wake.signal()
}

func (x *Host) HighestPriority(ready uint64) int {
	return LowestSetBit(ready)
}

// Poll delivers a pending preemption request.
func (x *Host) Poll() {
	if x.enable() != nil {
		return
	}
	if x.pending.Swap(false) {
		x.isr.Preempt()
	}
}

// Ticks returns the number of ticks delivered so far.
func (x *Host) Ticks() uint64 { return x.ticks.Load() }

// Close stops the tick goroutine and releases the wakeup descriptors. It must
// not be called while the scheduler is sleeping.
func (x *Host) Close() (err error) {
	x.stop.Do(func() {
		x.closed.Store(true)
		close(x.done)
		x.wg.Wait()
		err = x.wake.close()
	})
	return
}

func (x *Host) enable() error {
	if x.isr == nil {
		return ErrNotInitialized
	}
	if x.closed.Load() {
		return ErrClosed
	}
	x.start.Do(func() {
		x.wg.Add(1)
		go x.tickLoop()
	})
	return nil
}

func (x *Host) tickLoop() {
	defer x.wg.Done()
	ticker := time.NewTicker(x.period)
	defer ticker.Stop()
	for {
		select {
		case <-x.done:
			return
		case <-ticker.C:
			x.ticks.Add(1)
			if x.isr.Tick() {
				x.wake.signal()
			}
		}
	}
}
