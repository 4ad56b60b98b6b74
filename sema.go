package mss

import (
	"fmt"

	"github.com/gammazero/deque"
)

type (
	// SemaHandle identifies a counting semaphore.
	SemaHandle int

	semaphore struct {
		// tasks waiting for the count, oldest first
		waiters deque.Deque[TaskID]
		// bit per task in waiters
		queued uint64
		// bit per task popped by a post, which keeps its place at the front
		// should another task take the count first
		woken uint64
		count int
		max   int
	}
)

// InvalidSema is returned by SemaCreate once the semaphore table is full.
const InvalidSema SemaHandle = -1

// SemaCreate allocates a counting semaphore, bounded by max.
func (s *Scheduler) SemaCreate(initial, max int) SemaHandle {
	if max < 1 || initial < 0 || initial > max {
		s.fatal(`sema create`, NoTask, fmt.Errorf(`%w: initial %d, max %d`, ErrInvalidArgument, initial, max))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.semas) == cap(s.semas) {
		return InvalidSema
	}
	s.semas = append(s.semas, semaphore{count: initial, max: max})
	return SemaHandle(len(s.semas) - 1)
}

// SemaPost increments the count, saturating at the maximum, and activates
// the longest waiting task, if any. It may be called from any goroutine, and
// from interrupt context.
func (s *Scheduler) SemaPost(h SemaHandle) {
	s.mustSema(`sema post`, h)
	s.mu.Lock()
	sm := &s.semas[h]
	if sm.count < sm.max {
		sm.count++
	}
	var trigger bool
	if sm.waiters.Len() != 0 {
		trigger = s.wakeWaiterLocked(sm)
	}
	s.mu.Unlock()
	if trigger {
		s.hal.TriggerPreemption()
	}
}

// SemaTryWait decrements the count if it is positive, without waiting.
func (s *Scheduler) SemaTryWait(h SemaHandle) bool {
	s.mustSema(`sema try wait`, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	sm := &s.semas[h]
	if sm.count == 0 {
		return false
	}
	sm.count--
	return true
}

// SemaCount returns the current count.
func (s *Scheduler) SemaCount(h SemaHandle) int {
	s.mustSema(`sema count`, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.semas[h].count
}

// semaAcquire decrements the count for id, or queues id to be woken by a
// later post. A task that already holds a place in the queue keeps it, and a
// woken task that lost the count to another goes back to the front.
func (s *Scheduler) semaAcquire(h SemaHandle, id TaskID) bool {
	s.mustSema(`sema wait`, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	sm := &s.semas[h]
	bit := uint64(1) << id
	woken := sm.woken&bit != 0
	sm.woken &^= bit
	if sm.count > 0 {
		sm.count--
		if sm.queued&bit != 0 {
			sm.removeWaiter(id)
		}
		return true
	}
	if sm.queued&bit == 0 {
		if woken {
			sm.waiters.PushFront(id)
		} else {
			sm.waiters.PushBack(id)
		}
		sm.queued |= bit
	}
	return false
}

// leaveSemasLocked drops id from every semaphore other than the one it is
// still waiting on. A task that was woken by a post, but did not take the
// count, passes the wakeup on to the next waiter.
func (s *Scheduler) leaveSemasLocked(id TaskID, waiting SemaHandle) (trigger bool) {
	bit := uint64(1) << id
	for i := range s.semas {
		sm := &s.semas[i]
		if SemaHandle(i) == waiting || (sm.queued|sm.woken)&bit == 0 {
			continue
		}
		if sm.queued&bit != 0 {
			sm.removeWaiter(id)
		}
		if sm.woken&bit == 0 {
			continue
		}
		sm.woken &^= bit
		if sm.count > 0 && sm.waiters.Len() != 0 && s.wakeWaiterLocked(sm) {
			trigger = true
		}
	}
	return
}

func (s *Scheduler) wakeWaiterLocked(sm *semaphore) bool {
	id := sm.waiters.PopFront()
	sm.queued &^= 1 << id
	sm.woken |= 1 << id
	return s.activateLocked(id)
}

func (x *semaphore) removeWaiter(id TaskID) {
	for i := 0; i < x.waiters.Len(); i++ {
		if x.waiters.At(i) == id {
			x.waiters.Remove(i)
			break
		}
	}
	x.queued &^= 1 << id
}

func (s *Scheduler) mustSema(op string, h SemaHandle) {
	s.mu.Lock()
	ok := h >= 0 && int(h) < len(s.semas)
	s.mu.Unlock()
	if !ok {
		s.fatal(op, NoTask, ErrInvalidHandle)
	}
}
