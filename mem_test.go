package mss

import (
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMem_exhaustion(t *testing.T) {
	for _, tc := range []struct {
		name     string
		rates    map[time.Duration]int
		warnings int
	}{
		{`rate limited`, map[time.Duration]int{time.Hour: 1}, 1},
		{`unlimited`, nil, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger, w := newTestLogger(logiface.LevelWarning)
			s, _ := newSimScheduler(t, 1, 0,
				WithLogger(logger),
				WithMetrics(true),
				WithExhaustionLogRates(tc.rates),
			)
			pool := s.MemCreate(16, 2)
			require.NotNil(t, s.MemAlloc(pool))
			require.NotNil(t, s.MemAlloc(pool))
			for i := 0; i < 3; i++ {
				assert.Nil(t, s.MemAlloc(pool))
			}
			assert.Zero(t, s.MemAvailable(pool))
			assert.Equal(t, uint64(3), s.Metrics().Exhausted)
			assert.Len(t, w.messages(logiface.LevelWarning), tc.warnings)
		})
	}
}

func TestMem_exhaustion_perPool(t *testing.T) {
	logger, w := newTestLogger(logiface.LevelWarning)
	s, _ := newSimScheduler(t, 1, 0,
		WithLogger(logger),
		WithExhaustionLogRates(map[time.Duration]int{time.Hour: 1}),
	)
	a := s.MemCreate(4, 1)
	b := s.MemCreate(4, 1)
	s.MemAlloc(a)
	s.MemAlloc(b)
	for i := 0; i < 2; i++ {
		assert.Nil(t, s.MemAlloc(a))
		assert.Nil(t, s.MemAlloc(b))
	}
	assert.Equal(t,
		[]string{`memory pool exhausted`, `memory pool exhausted`},
		w.messages(logiface.LevelWarning),
	)
}
