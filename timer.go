package mss

import (
	"github.com/joeycumines/go-mss/hal"
)

type (
	// TimerHandle identifies a timer.
	TimerHandle int

	timer struct {
		owner     TaskID
		remaining hal.Tick
		period    hal.Tick
		armed     bool
		expired   bool
	}
)

// InvalidTimer is returned by TimerCreate once the timer table is full.
const InvalidTimer TimerHandle = -1

// TimerCreate allocates a timer, whose expiry activates owner.
func (s *Scheduler) TimerCreate(owner TaskID) TimerHandle {
	s.mustTaskID(`timer create`, owner)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.timers) == cap(s.timers) {
		return InvalidTimer
	}
	s.timers = append(s.timers, timer{owner: owner})
	return TimerHandle(len(s.timers) - 1)
}

// TimerStart arms a one-shot timer, expiring after ticks, and clears any
// unread expiry. A zero duration expires immediately. It returns false if h
// is invalid.
func (s *Scheduler) TimerStart(h TimerHandle, ticks hal.Tick) bool {
	return s.timerArm(h, ticks, 0)
}

// TimerPeriodicStart arms a timer that first expires after first ticks, then
// every period ticks. It returns false if h is invalid.
func (s *Scheduler) TimerPeriodicStart(h TimerHandle, first, period hal.Tick) bool {
	return s.timerArm(h, first, period)
}

func (s *Scheduler) timerArm(h TimerHandle, ticks, period hal.Tick) bool {
	s.mu.Lock()
	if !s.validTimerLocked(h) {
		s.mu.Unlock()
		return false
	}
	t := &s.timers[h]
	t.period = period
	t.expired = false
	t.armed = true
	t.remaining = ticks
	var trigger bool
	if ticks == 0 {
		trigger = s.expireLocked(t)
	}
	s.mu.Unlock()
	if trigger {
		s.hal.TriggerPreemption()
	}
	return true
}

// TimerStop disarms a timer, and clears any unread expiry.
func (s *Scheduler) TimerStop(h TimerHandle) {
	s.timer(`timer stop`, h)
	s.mu.Lock()
	t := &s.timers[h]
	t.armed = false
	t.expired = false
	t.remaining = 0
	s.mu.Unlock()
}

// TimerCheckExpired reports whether the timer has expired since the last
// check, clearing the flag.
func (s *Scheduler) TimerCheckExpired(h TimerHandle) bool {
	s.timer(`timer check expired`, h)
	s.mu.Lock()
	t := &s.timers[h]
	expired := t.expired
	t.expired = false
	s.mu.Unlock()
	return expired
}

// Now returns the number of ticks delivered, modulo the width of hal.Tick.
func (s *Scheduler) Now() hal.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Tick is the timer interrupt handler, called by the HAL once per tick. It
// reports whether an expiry activated a registered task. Expiry of a timer
// whose owner was never registered is flagged, but reports false.
func (s *Scheduler) Tick() bool {
	var activated, trigger bool
	s.mu.Lock()
	s.now++
	for i := range s.timers {
		t := &s.timers[i]
		if !t.armed {
			continue
		}
		if t.remaining > 1 {
			t.remaining--
			continue
		}
		if s.tasks[t.owner].task != nil {
			activated = true
		}
		if s.expireLocked(t) {
			trigger = true
		}
	}
	s.mu.Unlock()

	s.metrics.tick()
	if trigger {
		s.hal.TriggerPreemption()
	}
	return activated
}

// expireLocked flags an expiry, reloads or disarms the timer, and activates
// its owner.
func (s *Scheduler) expireLocked(t *timer) bool {
	t.expired = true
	if t.period != 0 {
		t.remaining = t.period
	} else {
		t.armed = false
		t.remaining = 0
	}
	return s.activateLocked(t.owner)
}

// sleepHintLocked returns the ticks until the nearest expiry.
func (s *Scheduler) sleepHintLocked() hal.Tick {
	hint := hal.NoTimeout
	for i := range s.timers {
		if t := &s.timers[i]; t.armed && t.remaining < hint {
			hint = t.remaining
		}
	}
	return hint
}

func (s *Scheduler) validTimerLocked(h TimerHandle) bool {
	return h >= 0 && int(h) < len(s.timers)
}

// timer returns a copy of the timer for h, halting if h is invalid.
func (s *Scheduler) timer(op string, h TimerHandle) timer {
	s.mu.Lock()
	if !s.validTimerLocked(h) {
		s.mu.Unlock()
		s.fatal(op, NoTask, ErrInvalidHandle)
	}
	t := s.timers[h]
	s.mu.Unlock()
	return t
}
