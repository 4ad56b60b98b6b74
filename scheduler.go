package mss

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-mss/hal"
	"github.com/joeycumines/go-mss/llist"
	"github.com/joeycumines/go-mss/mempool"
	"github.com/joeycumines/logiface"
)

// MaxTasks is the maximum number of tasks, one per bit of the ready set.
const MaxTasks = 64

// Scheduler multiplexes a fixed set of tasks onto the goroutine that calls
// Run, dispatching the highest priority ready task until it yields.
//
// Every table (tasks, timers, semaphores, queues, pools, lists) is sized by
// New, and never grows. Shared state is guarded by a single mutex, which is
// the critical section that interrupt handlers, producers on other
// goroutines, and tasks all go through.
type Scheduler struct {
	state fastState

	hal         hal.HAL
	logger      *logiface.Logger[logiface.Event]
	haltHandler func(*ContractViolation)
	metrics     *metrics
	exhausted   *catrate.Limiter

	tasks  []taskSlot
	timers []timer
	semas  []semaphore
	queues []queue
	pools  []*mempool.Pool
	lists  *llist.Table[llist.Doubly[*mempool.Block]]

	dispatchGoroutine atomic.Uint64

	mu    sync.Mutex
	ready uint64
	now   hal.Tick
	// the innermost task being dispatched, valid while depth > 0
	current    int
	depth      int
	preemptive bool
}

type taskSlot struct {
	task   Task
	ctx    Context
	events Event
}

var _ hal.ISR = (*Scheduler)(nil)

// New creates a scheduler for numTasks tasks. Every table is allocated
// empty, and the HAL is initialized, though it delivers no ticks until Run.
func New(numTasks int, opts ...Option) (*Scheduler, error) {
	if numTasks < 1 || numTasks > MaxTasks {
		return nil, fmt.Errorf(`%w: task count %d not in [1, %d]`, ErrInvalidConfig, numTasks, MaxTasks)
	}

	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		hal:         cfg.hal,
		logger:      cfg.logger,
		haltHandler: cfg.haltHandler,
		tasks:       make([]taskSlot, numTasks),
		timers:      make([]timer, 0, cfg.numTimers),
		semas:       make([]semaphore, 0, cfg.numSemas),
		queues:      make([]queue, 0, cfg.numQueues),
		pools:       make([]*mempool.Pool, 0, cfg.numPools),
		lists:       llist.NewTable[llist.Doubly[*mempool.Block]](cfg.numLists),
		preemptive:  cfg.preemptive,
	}
	for i := range s.tasks {
		s.tasks[i].ctx = Context{s: s, id: TaskID(i)}
	}
	if cfg.metrics {
		s.metrics = newMetrics(numTasks)
	}
	if len(cfg.exhaustedRates) != 0 {
		s.exhausted = catrate.NewLimiter(cfg.exhaustedRates)
	}

	if err := s.hal.Init(s); err != nil {
		return nil, fmt.Errorf(`mss: hal init: %w`, err)
	}

	s.logger.Debug().
		Int(`tasks`, numTasks).
		Int(`timers`, cfg.numTimers).
		Int(`semaphores`, cfg.numSemas).
		Int(`queues`, cfg.numQueues).
		Int(`pools`, cfg.numPools).
		Bool(`preemptive`, cfg.preemptive).
		Log(`scheduler created`)

	return s, nil
}

// Register binds task to id, which is also its priority (0 is highest). All
// tasks must be registered before Run.
func (s *Scheduler) Register(id TaskID, task Task) {
	const op = `register`
	if int(id) >= len(s.tasks) {
		s.fatal(op, id, ErrInvalidTask)
	}
	if task == nil {
		s.fatal(op, id, fmt.Errorf(`%w: nil task`, ErrInvalidArgument))
	}
	if s.state.Load() != StateAwake {
		s.fatal(op, id, fmt.Errorf(`%w: scheduler already started`, ErrInvalidArgument))
	}
	s.mu.Lock()
	if s.tasks[id].task != nil {
		s.mu.Unlock()
		s.fatal(op, id, ErrTaskRegistered)
	}
	s.tasks[id].task = task
	s.mu.Unlock()
}

// Activate marks a task ready. It may be called from any goroutine, and
// from interrupt context.
//
// With preemption enabled, activating a task of higher priority than the one
// running dispatches it before Activate returns, when called by the running
// task itself, or otherwise at the next opportunity the HAL provides.
func (s *Scheduler) Activate(id TaskID) {
	s.mustTask(`activate`, id)
	s.mu.Lock()
	trigger := s.activateLocked(id)
	s.mu.Unlock()
	if trigger {
		s.hal.TriggerPreemption()
	}
}

// activateLocked sets the ready bit of id, reporting whether the HAL must be
// asked to preempt the running task, or to wake the dispatcher.
func (s *Scheduler) activateLocked(id TaskID) bool {
	if s.tasks[id].task == nil {
		// owner of a timer or queue, never registered
		return false
	}
	s.ready |= 1 << id
	if s.depth == 0 {
		return s.state.Load() == StateSleeping
	}
	return s.preemptive && int(id) < s.current
}

// Run dispatches tasks until ctx is done, or the HAL fails to sleep. Every
// registered task is dispatched once to begin with. Run may only be called
// once, and must not be called from a task.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.TryTransition(StateAwake, StateRunning) {
		switch s.state.Load() {
		case StateTerminating, StateTerminated:
			return ErrTerminated
		default:
			return ErrAlreadyRunning
		}
	}
	s.dispatchGoroutine.Store(getGoroutineID())
	defer s.terminate()

	s.mu.Lock()
	var registered int
	for i := range s.tasks {
		if s.tasks[i].task != nil {
			s.ready |= 1 << i
			registered++
		}
	}
	s.mu.Unlock()

	s.logger.Info().
		Int(`tasks`, registered).
		Log(`scheduler running`)

	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info().
				Err(err).
				Log(`scheduler stopping`)
			return err
		}

		s.mu.Lock()
		next := s.hal.HighestPriority(s.ready)
		if next == hal.InvalidPriority {
			hint := s.sleepHintLocked()
			s.state.TryTransition(StateRunning, StateSleeping)
			s.mu.Unlock()

			s.metrics.sleep()
			s.logger.Trace().
				Uint64(`hint`, uint64(hint)).
				Log(`sleep`)

			err := s.hal.Sleep(ctx, hint)
			s.state.TryTransition(StateSleeping, StateRunning)
			if err != nil {
				s.logger.Notice().
					Err(err).
					Log(`scheduler stopping`)
				return err
			}
			continue
		}
		s.ready &^= 1 << next
		s.mu.Unlock()

		s.dispatch(TaskID(next))
	}
}

// Preempt is the software interrupt handler, called by the HAL. It
// dispatches, nested on the current frame, every ready task of higher
// priority than the one running, then returns to the interrupted task. It
// returns false if called from a goroutine other than the one in Run.
func (s *Scheduler) Preempt() bool {
	if !s.isDispatchGoroutine() {
		return false
	}
	if !s.preemptive {
		return true
	}
	for {
		s.mu.Lock()
		if s.depth == 0 {
			// nothing to preempt, Run will pick it up
			s.mu.Unlock()
			return true
		}
		next := s.hal.HighestPriority(s.ready)
		if next == hal.InvalidPriority || next >= s.current {
			s.mu.Unlock()
			return true
		}
		s.ready &^= 1 << next
		s.mu.Unlock()

		s.metrics.nested()
		s.dispatch(TaskID(next))
	}
}

// Close terminates a scheduler that is not running, so that Run cannot be
// called.
func (s *Scheduler) Close() error {
	if s.state.TryTransition(StateAwake, StateTerminated) {
		return nil
	}
	if s.state.IsRunning() {
		return ErrAlreadyRunning
	}
	return ErrTerminated
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	return s.state.Load()
}

// NumTasks returns the size of the task table.
func (s *Scheduler) NumTasks() int {
	return len(s.tasks)
}

// Ready returns a snapshot of the ready set.
func (s *Scheduler) Ready() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Continuation returns the saved continuation of a task. It is only stable
// while the task is not being dispatched.
func (s *Scheduler) Continuation(id TaskID) Continuation {
	s.mustTask(`continuation`, id)
	return s.tasks[id].ctx.cont
}

// Metrics returns a snapshot of the collected statistics, or the zero value
// if metrics are disabled.
func (s *Scheduler) Metrics() Metrics {
	return s.metrics.snapshot()
}

func (s *Scheduler) dispatch(id TaskID) {
	slot := &s.tasks[id]

	s.mu.Lock()
	prev := s.current
	s.current = int(id)
	s.depth++
	depth := s.depth
	s.mu.Unlock()

	s.metrics.dispatch(id, depth)
	s.logger.Trace().
		Int(`task`, int(id)).
		Int(`depth`, depth).
		Int(`resume`, int(slot.ctx.cont.Point)).
		Log(`dispatch`)

	slot.ctx.fresh = true
	slot.task.Run(&slot.ctx)
	slot.ctx.fresh = false

	waiting := InvalidSema
	if slot.ctx.cont.Blocked == OnSema {
		waiting = slot.ctx.sema
	}

	s.mu.Lock()
	s.current = prev
	s.depth--
	trigger := s.leaveSemasLocked(id, waiting)
	s.mu.Unlock()
	if trigger {
		s.hal.TriggerPreemption()
	}
}

func (s *Scheduler) terminate() {
	s.state.TransitionAny([]State{StateRunning, StateSleeping}, StateTerminating)
	s.dispatchGoroutine.Store(0)
	s.state.Store(StateTerminated)
}

func (s *Scheduler) isDispatchGoroutine() bool {
	id := s.dispatchGoroutine.Load()
	if id == 0 {
		return false
	}
	return getGoroutineID() == id
}

// mustTaskID halts on an id outside the task table. Objects may be created
// for a task before it is registered.
func (s *Scheduler) mustTaskID(op string, id TaskID) {
	if int(id) >= len(s.tasks) {
		s.fatal(op, id, ErrInvalidTask)
	}
}

// mustTask halts on an id that does not identify a registered task.
func (s *Scheduler) mustTask(op string, id TaskID) {
	s.mustTaskID(op, id)
	s.mu.Lock()
	registered := s.tasks[id].task != nil
	s.mu.Unlock()
	if !registered {
		s.fatal(op, id, fmt.Errorf(`%w: not registered`, ErrInvalidTask))
	}
}

// fatal reports a contract violation, and halts the scheduler by panicking.
// It must not be called with the mutex held.
func (s *Scheduler) fatal(op string, id TaskID, err error) {
	v := &ContractViolation{Err: err, Op: op, Task: id}
	s.logger.Emerg().
		Str(`op`, op).
		Int(`task`, int(id)).
		Err(err).
		Log(`contract violation`)
	if s.haltHandler != nil {
		s.haltHandler(v)
	}
	panic(v)
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte(`goroutine `))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
