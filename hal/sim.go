package hal

import (
	"context"
)

type (
	// Sim is a deterministic HAL. Time only advances when the scheduler
	// sleeps, or when a running task calls Poll or Spin, one tick at a time,
	// each tick delivered as an interrupt on the calling goroutine.
	//
	// Sim is not safe for concurrent use: everything must happen on the
	// goroutine running the scheduler.
	Sim struct {
		isr      ISR
		sources  []simSource
		limit    uint64
		elapsed  uint64
		inISR    int
		pending  bool
		sleeps   int
		lastHint Tick
	}

	simSource struct {
		fn     func()
		period uint64
	}
)

var (
	_ HAL    = (*Sim)(nil)
	_ Poller = (*Sim)(nil)
)

// NewSim returns a simulated HAL that halts after limit ticks, or never, if
// limit is zero.
func NewSim(limit uint64) *Sim {
	return &Sim{limit: limit}
}

// Every registers an external interrupt source, which calls fn in interrupt
// context every period ticks, after the timer tick. It must be called before
// the scheduler runs.
func (x *Sim) Every(period uint64, fn func()) {
	if period == 0 || fn == nil {
		panic(`hal: sim: invalid interrupt source`)
	}
	x.sources = append(x.sources, simSource{fn: fn, period: period})
}

func (x *Sim) Init(isr ISR) error {
	if isr == nil {
		return ErrNotInitialized
	}
	if x.isr != nil {
		return ErrAlreadyInitialized
	}
	x.isr = isr
	return nil
}

// Sleep delivers ticks until one of them wakes the scheduler.
func (x *Sim) Sleep(ctx context.Context, hint Tick) error {
	if x.isr == nil {
		return ErrNotInitialized
	}
	x.sleeps++
	x.lastHint = hint
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		woke, ok := x.step()
		if !ok {
			return ErrHalted
		}
		if woke {
			return nil
		}
	}
}

// TriggerPreemption runs the software interrupt immediately, or, inside an
// interrupt, once the outermost interrupt returns.
func (x *Sim) TriggerPreemption() {
	if x.inISR > 0 {
		x.pending = true
		return
	}
	x.isr.Preempt()
}

func (x *Sim) HighestPriority(ready uint64) int {
	return LowestSetBit(ready)
}

// Poll advances time by one tick, modelling a tick's worth of busy work.
func (x *Sim) Poll() {
	x.step()
}

// Spin advances time by up to n ticks, returning the number that elapsed
// before the tick budget ran out.
func (x *Sim) Spin(n int) int {
	for i := 0; i < n; i++ {
		if _, ok := x.step(); !ok {
			return i
		}
	}
	return n
}

// Elapsed returns the number of ticks delivered so far.
func (x *Sim) Elapsed() uint64 { return x.elapsed }

// Halted reports whether the tick budget is spent.
func (x *Sim) Halted() bool { return x.limit != 0 && x.elapsed >= x.limit }

// Sleeps returns the number of calls to Sleep.
func (x *Sim) Sleeps() int { return x.sleeps }

// LastHint returns the hint passed to the most recent Sleep.
func (x *Sim) LastHint() Tick { return x.lastHint }

func (x *Sim) step() (woke, ok bool) {
	if x.isr == nil || x.Halted() {
		return false, false
	}
	x.elapsed++
	x.inISR++
	woke = x.isr.Tick()
	for _, s := range x.sources {
		if x.elapsed%s.period == 0 {
			s.fn()
			woke = true
		}
	}
	x.inISR--
	if x.inISR == 0 && x.pending {
		x.pending = false
		x.isr.Preempt()
	}
	return woke, true
}
