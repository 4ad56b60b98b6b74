package llist

import (
	"iter"
)

// Singly is a singly linked intrusive list. The zero value is an empty list.
type Singly[E SNode[E]] struct {
	first E
	n     int
}

// AddFirst links obj at the head of the list.
func (x *Singly[E]) AddFirst(obj E) {
	x.mustUnlinked(obj)
	link := obj.SLink()
	link.next = x.first
	link.linked = true
	x.first = obj
	x.n++
}

// AddLast links obj at the tail of the list, walking from the head.
func (x *Singly[E]) AddLast(obj E) {
	x.mustUnlinked(obj)
	obj.SLink().linked = true
	var zero E
	if x.first == zero {
		x.first = obj
	} else {
		last := x.first
		for next := last.SLink().next; next != zero; next = last.SLink().next {
			last = next
		}
		last.SLink().next = obj
	}
	x.n++
}

// TouchFirst returns the head without unlinking it.
func (x *Singly[E]) TouchFirst() E {
	return x.first
}

// GetFirst unlinks and returns the head, or the zero value if empty.
func (x *Singly[E]) GetFirst() (obj E) {
	var zero E
	if obj = x.first; obj == zero {
		return
	}
	link := obj.SLink()
	x.first = link.next
	link.next = zero
	link.linked = false
	x.n--
	return
}

// Remove unlinks obj, scanning for its predecessor. Removing an object that
// is not a member is a no-op.
func (x *Singly[E]) Remove(obj E) {
	var zero E
	if obj == zero {
		return
	}
	var prev E
	for cur := x.first; cur != zero; prev, cur = cur, cur.SLink().next {
		if cur != obj {
			continue
		}
		if prev == zero {
			x.first = cur.SLink().next
		} else {
			prev.SLink().next = cur.SLink().next
		}
		link := cur.SLink()
		link.next = zero
		link.linked = false
		x.n--
		return
	}
}

// Sort orders the list with a bubble sort of adjacent exchanges, swapping
// only when cmp returns a positive value, so equal members keep their
// relative order.
func (x *Singly[E]) Sort(cmp func(a, b E) int) {
	var zero E
	for swapped := true; swapped; {
		swapped = false
		var prev E
		a := x.first
		for a != zero {
			b := a.SLink().next
			if b == zero {
				break
			}
			if cmp(a, b) <= 0 {
				prev, a = a, b
				continue
			}
			// prev -> a -> b -> c  becomes  prev -> b -> a -> c
			a.SLink().next = b.SLink().next
			b.SLink().next = a
			if prev == zero {
				x.first = b
			} else {
				prev.SLink().next = b
			}
			prev = b
			swapped = true
		}
	}
}

// Check calls fn for each member from the head, stopping early if fn returns
// false. It reports whether every member was visited.
func (x *Singly[E]) Check(fn func(obj E) bool) bool {
	var zero E
	for cur := x.first; cur != zero; cur = cur.SLink().next {
		if !fn(cur) {
			return false
		}
	}
	return true
}

// All iterates the members from the head. The list must not be modified
// during iteration.
func (x *Singly[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		x.Check(yield)
	}
}

// Len returns the number of members.
func (x *Singly[E]) Len() int {
	return x.n
}

func (x *Singly[E]) mustUnlinked(obj E) {
	var zero E
	if obj == zero {
		panic(`llist: singly: nil member`)
	}
	if obj.SLink().linked {
		panic(`llist: singly: member already linked`)
	}
}
