package mss

import (
	"github.com/joeycumines/go-mss/llist"
	"github.com/joeycumines/go-mss/mempool"
)

type (
	// MqueHandle identifies a message queue.
	MqueHandle int

	queue struct {
		list  llist.Handle
		owner TaskID
	}
)

// InvalidMque is returned by MqueCreate once the queue table, or the list
// table, is full.
const InvalidMque MqueHandle = -1

// MqueCreate allocates a message queue, consumed by owner.
func (s *Scheduler) MqueCreate(owner TaskID) MqueHandle {
	s.mustTaskID(`mque create`, owner)
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queues) == cap(s.queues) {
		return InvalidMque
	}
	list := s.lists.Create()
	if list == llist.InvalidHandle {
		return InvalidMque
	}
	s.queues = append(s.queues, queue{list: list, owner: owner})
	return MqueHandle(len(s.queues) - 1)
}

// MqueSend appends an allocated block to the tail of the queue, and
// activates its owner. Ownership of the block passes to the consumer. It may
// be called from any goroutine, and from interrupt context.
func (s *Scheduler) MqueSend(h MqueHandle, msg *mempool.Block) {
	const op = `mque send`
	s.mustMque(op, h)
	if msg == nil {
		s.fatal(op, NoTask, ErrBlockState)
	}
	s.mu.Lock()
	if !msg.Allocated() || msg.DLink().Linked() {
		s.mu.Unlock()
		s.fatal(op, NoTask, ErrBlockState)
	}
	q := s.queues[h]
	s.lists.Get(q.list).AddLast(msg)
	trigger := s.activateLocked(q.owner)
	s.mu.Unlock()
	if trigger {
		s.hal.TriggerPreemption()
	}
}

// MqueLen returns the number of queued messages.
func (s *Scheduler) MqueLen(h MqueHandle) int {
	s.mustMque(`mque len`, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists.Get(s.queues[h].list).Len()
}

func (s *Scheduler) mqueReceive(h MqueHandle, id TaskID) *mempool.Block {
	const op = `mque wait`
	s.mustMque(op, h)
	s.mu.Lock()
	q := s.queues[h]
	if q.owner != id {
		s.mu.Unlock()
		s.fatal(op, id, ErrNotOwner)
	}
	msg := s.lists.Get(q.list).GetFirst()
	s.mu.Unlock()
	return msg
}

func (s *Scheduler) mustMque(op string, h MqueHandle) {
	s.mu.Lock()
	ok := h >= 0 && int(h) < len(s.queues)
	s.mu.Unlock()
	if !ok {
		s.fatal(op, NoTask, ErrInvalidHandle)
	}
}
