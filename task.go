package mss

import (
	"github.com/joeycumines/go-mss/hal"
	"github.com/joeycumines/go-mss/mempool"
)

type (
	// TaskID identifies a task, and is its static priority: 0 is the
	// highest.
	TaskID uint8

	// Task is a unit of scheduled work. Run is called on every dispatch, and
	// must return promptly, after recording where to resume through the
	// Context. A task is typically a struct holding the state that must
	// survive a yield, with Run switching on [Context.Resume]:
	//
	//	func (x *blinker) Run(c *mss.Context) {
	//		for {
	//			switch c.Resume() {
	//			case mss.Begin:
	//				x.toggle()
	//				fallthrough
	//			case waitTick:
	//				if !c.Delay(waitTick, x.timer, 500) {
	//					return
	//				}
	//				c.Goto(mss.Begin)
	//			}
	//		}
	//	}
	Task interface {
		Run(c *Context)
	}

	// TaskFunc adapts a function to a Task.
	TaskFunc func(c *Context)

	// ResumePoint is an opaque resume token, chosen by the task.
	ResumePoint uint16

	// BlockedOn records what a task was waiting for when it yielded.
	BlockedOn uint8

	// Continuation is the saved resume state of a task.
	Continuation struct {
		Point   ResumePoint
		Blocked BlockedOn
	}

	// Context is a task's handle on its continuation, valid only within
	// Run. There is exactly one per task.
	Context struct {
		s    *Scheduler
		cont Continuation
		id   TaskID
		// semaphore of an OnSema wait
		sema SemaHandle
		// true until the first Resumed call of a dispatch
		fresh bool
	}
)

const (
	// Begin is the resume point of a task that has never yielded: the top of
	// its body.
	Begin ResumePoint = 0

	// NoTask is used where no task applies.
	NoTask TaskID = 0xFF
)

const (
	FreeRunning BlockedOn = iota
	OnTimer
	OnEvent
	OnSema
	OnQueue
)

func (f TaskFunc) Run(c *Context) { f(c) }

func (b BlockedOn) String() string {
	switch b {
	case FreeRunning:
		return "FreeRunning"
	case OnTimer:
		return "OnTimer"
	case OnEvent:
		return "OnEvent"
	case OnSema:
		return "OnSema"
	case OnQueue:
		return "OnQueue"
	default:
		return "Unknown"
	}
}

// ID returns the task's id.
func (c *Context) ID() TaskID { return c.id }

// Scheduler returns the scheduler running the task.
func (c *Context) Scheduler() *Scheduler { return c.s }

// Resume returns the point at which to resume.
func (c *Context) Resume() ResumePoint { return c.cont.Point }

// Goto moves the continuation to p without yielding, e.g. to return to the
// top of the task's loop.
func (c *Context) Goto(p ResumePoint) {
	c.cont = Continuation{Point: p}
}

// Yield records p as the resume point. The task must return from Run
// immediately afterwards, and runs again only once activated.
func (c *Context) Yield(p ResumePoint) {
	c.cont = Continuation{Point: p}
}

// YieldReady is Yield, but leaves the task ready, so it runs again after any
// other ready task of higher priority.
func (c *Context) YieldReady(p ResumePoint) {
	c.Yield(p)
	c.s.Activate(c.id)
}

// Finish marks the end of a task body, which must never be reached: task
// bodies loop forever.
func (c *Context) Finish() {
	c.s.fatal(`finish`, c.id, ErrTaskFinished)
}

// Resumed reports whether this dispatch resumed a wait that yielded at p.
// Only the first call of each dispatch may return true.
func (c *Context) Resumed(p ResumePoint) bool {
	r := c.fresh && c.cont.Point == p && c.cont.Blocked != FreeRunning
	c.fresh = false
	return r
}

// Poll gives the HAL a chance to deliver interrupts to a long-running task,
// if it supports doing so. It does not yield.
func (c *Context) Poll() {
	if p, ok := c.s.hal.(hal.Poller); ok {
		p.Poll()
	}
}

// Delay waits for ticks to elapse, using a timer owned by the task. The first
// call at p starts the timer and yields; it reports true, on a later
// dispatch, once the timer has expired.
func (c *Context) Delay(p ResumePoint, h TimerHandle, ticks hal.Tick) bool {
	t := c.s.timer(`delay`, h)
	if t.owner != c.id {
		c.s.fatal(`delay`, c.id, ErrNotOwner)
	}
	if c.Resumed(p) {
		if c.s.TimerCheckExpired(h) {
			c.Goto(p)
			return true
		}
	} else {
		c.s.TimerStart(h, ticks)
	}
	c.block(p, OnTimer)
	return false
}

// WaitEvent takes every event bit set for the task, yielding at p while
// there are none.
func (c *Context) WaitEvent(p ResumePoint) (Event, bool) {
	c.Resumed(p)
	if ev := c.s.takeEvents(c.id); ev != 0 {
		c.Goto(p)
		return ev, true
	}
	c.block(p, OnEvent)
	return 0, false
}

// WaitSema decrements the semaphore, yielding at p while its count is zero.
func (c *Context) WaitSema(p ResumePoint, h SemaHandle) bool {
	c.Resumed(p)
	if c.s.semaAcquire(h, c.id) {
		c.Goto(p)
		return true
	}
	c.sema = h
	c.block(p, OnSema)
	return false
}

// WaitMsg takes the oldest message from a queue owned by the task, yielding
// at p while the queue is empty. The caller must free the block.
func (c *Context) WaitMsg(p ResumePoint, h MqueHandle) (*mempool.Block, bool) {
	c.Resumed(p)
	if b := c.s.mqueReceive(h, c.id); b != nil {
		c.Goto(p)
		return b, true
	}
	c.block(p, OnQueue)
	return nil, false
}

func (c *Context) block(p ResumePoint, on BlockedOn) {
	c.cont = Continuation{Point: p, Blocked: on}
}
