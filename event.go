package mss

// Event is a task's event register: a set of bits, accumulated by EventSet
// and taken, all at once, by [Context.WaitEvent].
type Event uint16

// EventSet ORs bits into a task's event register, and activates it. Setting
// no bits does nothing. It may be called from any goroutine, and from
// interrupt context.
func (s *Scheduler) EventSet(id TaskID, bits Event) {
	s.mustTask(`event set`, id)
	if bits == 0 {
		return
	}
	s.mu.Lock()
	s.tasks[id].events |= bits
	trigger := s.activateLocked(id)
	s.mu.Unlock()
	if trigger {
		s.hal.TriggerPreemption()
	}
}

// EventPeek returns a task's pending event bits, without taking them.
func (s *Scheduler) EventPeek(id TaskID) Event {
	s.mustTask(`event peek`, id)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[id].events
}

func (s *Scheduler) takeEvents(id TaskID) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.tasks[id].events
	s.tasks[id].events = 0
	return ev
}
