package mss

import (
	"fmt"
	"sync"
	"testing"

	"github.com/joeycumines/go-mss/hal"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

// testEvent records every field, including the message.
type testEvent struct {
	logiface.UnimplementedEvent
	fields map[string]any
	level  logiface.Level
}

func (e *testEvent) Level() logiface.Level { return e.level }

func (e *testEvent) AddField(key string, val any) { e.fields[key] = val }

type testEventFactory struct{}

func (testEventFactory) NewEvent(level logiface.Level) *testEvent {
	return &testEvent{level: level, fields: make(map[string]any)}
}

type testEventWriter struct {
	mu     sync.Mutex
	events []*testEvent
}

func (w *testEventWriter) Write(event *testEvent) error {
	w.mu.Lock()
	w.events = append(w.events, event)
	w.mu.Unlock()
	return nil
}

// messages returns the messages logged at level.
func (w *testEventWriter) messages(level logiface.Level) (msgs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.events {
		if e.level == level {
			msgs = append(msgs, fmt.Sprint(e.fields[`msg`]))
		}
	}
	return
}

func newTestLogger(level logiface.Level) (*logiface.Logger[logiface.Event], *testEventWriter) {
	w := new(testEventWriter)
	logger := logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](testEventFactory{}),
		logiface.WithWriter[*testEvent](w),
		logiface.WithLevel[*testEvent](level),
	)
	return logger.Logger(), w
}

// newSimScheduler returns a scheduler on a simulated HAL that halts after
// limit ticks.
func newSimScheduler(t *testing.T, numTasks int, limit uint64, opts ...Option) (*Scheduler, *hal.Sim) {
	t.Helper()
	sim := hal.NewSim(limit)
	s, err := New(numTasks, append([]Option{WithHAL(sim)}, opts...)...)
	require.NoError(t, err)
	return s, sim
}

// idle is a task that never becomes ready again after its first dispatch.
var idle = TaskFunc(func(c *Context) { c.Yield(Begin) })

// violation runs fn, returning the contract violation it panics with.
func violation(t *testing.T, fn func()) (v *ContractViolation) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, `expected a contract violation`)
		var ok bool
		v, ok = r.(*ContractViolation)
		require.True(t, ok, `unexpected panic: %v`, r)
	}()
	fn()
	return
}
