package mss

import (
	"context"
	"testing"

	"github.com/joeycumines/go-mss/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder is a task that records every event mask it takes.
type eventRecorder struct {
	got []Event
}

func (x *eventRecorder) Run(c *Context) {
	for {
		ev, ok := c.WaitEvent(Begin)
		if !ok {
			return
		}
		x.got = append(x.got, ev)
	}
}

func TestEvent_coalescing(t *testing.T) {
	s, sim := newSimScheduler(t, 2, 35)
	rec := new(eventRecorder)
	s.Register(0, TaskFunc(func(c *Context) {
		if c.Resume() == Begin {
			s.EventSet(1, 0x01)
			s.EventSet(1, 0x02)
			s.EventSet(1, 0x02)
		}
		c.Yield(1)
	}))
	s.Register(1, rec)
	sim.Every(10, func() { s.EventSet(1, 0x04) })

	assert.ErrorIs(t, s.Run(context.Background()), hal.ErrHalted)
	assert.Equal(t, []Event{0x03, 0x04, 0x04, 0x04}, rec.got)
	assert.Zero(t, s.EventPeek(1))
	assert.Equal(t, Continuation{Point: Begin, Blocked: OnEvent}, s.Continuation(1))
}

func TestEvent_Set(t *testing.T) {
	s, _ := newSimScheduler(t, 2, 0)
	s.Register(0, idle)
	s.Register(1, idle)

	s.EventSet(1, 0)
	assert.Zero(t, s.Ready())
	assert.Zero(t, s.EventPeek(1))

	s.EventSet(1, 0x10)
	s.EventSet(1, 0x01)
	assert.Equal(t, uint64(1<<1), s.Ready())
	assert.Equal(t, Event(0x11), s.EventPeek(1))
	assert.Equal(t, Event(0x11), s.takeEvents(1))
	assert.Zero(t, s.takeEvents(1))

	assert.ErrorIs(t, violation(t, func() { s.EventSet(2, 1) }), ErrInvalidTask)
}

func TestEvent_preemptsLowerPriority(t *testing.T) {
	s, _ := newSimScheduler(t, 3, 1, WithPreemption(true))
	rec := new(eventRecorder)
	var seen []Event
	s.Register(0, idle)
	s.Register(1, rec)
	s.Register(2, TaskFunc(func(c *Context) {
		if c.Resume() == Begin {
			s.EventSet(1, 0x01)
			// the higher priority task ran before EventSet returned
			seen = append(seen, rec.got...)
		}
		c.Yield(1)
	}))

	assert.ErrorIs(t, s.Run(context.Background()), hal.ErrHalted)
	require.Equal(t, []Event{0x01}, seen)
	assert.Equal(t, []Event{0x01}, rec.got)
}
