package mss

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/joeycumines/go-mss/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_hostHAL(t *testing.T) {
	host, err := hal.NewHost(time.Millisecond)
	require.NoError(t, err)
	defer host.Close()

	s, err := New(2, WithHAL(host))
	require.NoError(t, err)
	timer := s.TimerCreate(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan Event, 1)
	s.Register(0, TaskFunc(func(c *Context) {
		for {
			ev, ok := c.WaitEvent(1)
			if !ok {
				return
			}
			got <- ev
			cancel()
		}
	}))

	const wait ResumePoint = 1
	var delayed sync.WaitGroup
	delayed.Add(1)
	s.Register(1, TaskFunc(func(c *Context) {
		switch c.Resume() {
		case Begin:
			fallthrough
		case wait:
			if !c.Delay(wait, timer, 3) {
				return
			}
			delayed.Done()
		}
		c.Yield(2)
	}))

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	delayed.Wait()
	assert.GreaterOrEqual(t, host.Ticks(), uint64(3))
	require.Eventually(t, func() bool { return s.State() == StateSleeping }, 5*time.Second, time.Millisecond)

	// from a goroutine other than the dispatcher's
	s.EventSet(0, 0x01)

	select {
	case ev := <-got:
		assert.Equal(t, Event(0x01), ev)
	case <-time.After(5 * time.Second):
		t.Fatal(`event never delivered`)
	}
	assert.ErrorIs(t, <-errCh, context.Canceled)
	assert.Equal(t, StateTerminated, s.State())
}
