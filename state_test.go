package mss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_String(t *testing.T) {
	for state, want := range map[State]string{
		StateAwake:       "Awake",
		StateRunning:     "Running",
		StateSleeping:    "Sleeping",
		StateTerminating: "Terminating",
		StateTerminated:  "Terminated",
		State(99):        "Unknown",
	} {
		assert.Equal(t, want, state.String())
	}
}

func TestFastState_transitions(t *testing.T) {
	var s fastState
	assert.Equal(t, StateAwake, s.Load())
	assert.False(t, s.TryTransition(StateRunning, StateSleeping))
	assert.True(t, s.TryTransition(StateAwake, StateRunning))
	assert.True(t, s.IsRunning())
	assert.True(t, s.TryTransition(StateRunning, StateSleeping))
	assert.True(t, s.IsRunning())
	assert.True(t, s.TransitionAny([]State{StateRunning, StateSleeping}, StateTerminating))
	assert.False(t, s.IsRunning())
	assert.False(t, s.TransitionAny([]State{StateRunning, StateSleeping}, StateTerminating))
	s.Store(StateTerminated)
	assert.Equal(t, StateTerminated, s.Load())
}

func TestBlockedOn_String(t *testing.T) {
	assert.Equal(t, "OnQueue", OnQueue.String())
	assert.Equal(t, "FreeRunning", FreeRunning.String())
	assert.Equal(t, "Unknown", BlockedOn(42).String())
}
