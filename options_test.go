package mss

import (
	"testing"
	"time"

	"github.com/joeycumines/go-mss/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOptions_defaults(t *testing.T) {
	cfg, err := resolveOptions(nil)
	require.NoError(t, err)
	assert.IsType(t, (*hal.Sim)(nil), cfg.hal)
	assert.False(t, cfg.preemptive)
	assert.False(t, cfg.metrics)
	assert.Nil(t, cfg.logger)
	assert.Equal(t, cfg.numQueues, cfg.numLists)
	assert.NotEmpty(t, cfg.exhaustedRates)
}

func TestResolveOptions_nilSkipped(t *testing.T) {
	cfg, err := resolveOptions([]Option{nil, WithPreemption(true), nil, WithQueues(7)})
	require.NoError(t, err)
	assert.True(t, cfg.preemptive)
	assert.Equal(t, 7, cfg.numQueues)
	assert.Equal(t, 7, cfg.numLists)
}

func TestResolveOptions_lists(t *testing.T) {
	cfg, err := resolveOptions([]Option{WithQueues(7), WithLists(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.numLists)
}

func TestResolveOptions_invalid(t *testing.T) {
	for name, opt := range map[string]Option{
		`nil hal`:       WithHAL(nil),
		`timers`:        WithTimers(-1),
		`semaphores`:    WithSemaphores(-1),
		`queues`:        WithQueues(-2),
		`pools`:         WithPools(-1),
		`lists`:         WithLists(-1),
		`zero rate`:     WithExhaustionLogRates(map[time.Duration]int{time.Second: 0}),
		`negative rate`: WithExhaustionLogRates(map[time.Duration]int{-time.Second: 1}),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := resolveOptions([]Option{opt})
			assert.ErrorIs(t, err, ErrInvalidConfig)
			_, err = New(1, opt)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
