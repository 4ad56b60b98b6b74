package llist

import (
	"iter"
)

// Doubly is a doubly linked intrusive list with a cached tail. The zero value
// is an empty list.
type Doubly[E DNode[E]] struct {
	first E
	last  E
	n     int
}

// AddFirst links obj at the head of the list.
func (x *Doubly[E]) AddFirst(obj E) {
	x.mustUnlinked(obj)
	var zero E
	link := obj.DLink()
	link.next = x.first
	link.linked = true
	if x.first == zero {
		x.last = obj
	} else {
		x.first.DLink().prev = obj
	}
	x.first = obj
	x.n++
}

// AddLast links obj at the tail of the list.
func (x *Doubly[E]) AddLast(obj E) {
	x.mustUnlinked(obj)
	var zero E
	link := obj.DLink()
	link.prev = x.last
	link.linked = true
	if x.last == zero {
		x.first = obj
	} else {
		x.last.DLink().next = obj
	}
	x.last = obj
	x.n++
}

// TouchFirst returns the head without unlinking it.
func (x *Doubly[E]) TouchFirst() E {
	return x.first
}

// TouchLast returns the tail without unlinking it.
func (x *Doubly[E]) TouchLast() E {
	return x.last
}

// GetFirst unlinks and returns the head, or the zero value if empty.
func (x *Doubly[E]) GetFirst() (obj E) {
	var zero E
	if obj = x.first; obj == zero {
		return
	}
	x.unlink(obj)
	return
}

// Remove unlinks obj in constant time. The caller must ensure obj is a member
// of this list.
func (x *Doubly[E]) Remove(obj E) {
	var zero E
	if obj == zero {
		return
	}
	x.unlink(obj)
}

func (x *Doubly[E]) unlink(obj E) {
	var zero E
	link := obj.DLink()
	if !link.linked {
		panic(`llist: doubly: remove of non-member`)
	}
	if link.prev == zero {
		if x.first != obj {
			panic(`llist: doubly: remove of non-member`)
		}
		x.first = link.next
	} else {
		link.prev.DLink().next = link.next
	}
	if link.next == zero {
		if x.last != obj {
			panic(`llist: doubly: remove of non-member`)
		}
		x.last = link.prev
	} else {
		link.next.DLink().prev = link.prev
	}
	link.next, link.prev = zero, zero
	link.linked = false
	x.n--
}

// Sort orders the list with a bubble sort of adjacent exchanges, swapping
// only when cmp returns a positive value, so equal members keep their
// relative order.
func (x *Doubly[E]) Sort(cmp func(a, b E) int) {
	var zero E
	for swapped := true; swapped; {
		swapped = false
		a := x.first
		for a != zero {
			b := a.DLink().next
			if b == zero {
				break
			}
			if cmp(a, b) <= 0 {
				a = b
				continue
			}
			x.swap(a, b)
			swapped = true
		}
	}
}

// swap exchanges the adjacent members a and b, where b follows a.
func (x *Doubly[E]) swap(a, b E) {
	var zero E
	al, bl := a.DLink(), b.DLink()
	p, c := al.prev, bl.next
	if p == zero {
		x.first = b
	} else {
		p.DLink().next = b
	}
	if c == zero {
		x.last = a
	} else {
		c.DLink().prev = a
	}
	bl.prev, bl.next = p, a
	al.prev, al.next = b, c
}

// Check calls fn for each member from the head, stopping early if fn returns
// false. It reports whether every member was visited.
func (x *Doubly[E]) Check(fn func(obj E) bool) bool {
	var zero E
	for cur := x.first; cur != zero; cur = cur.DLink().next {
		if !fn(cur) {
			return false
		}
	}
	return true
}

// All iterates the members from the head. The list must not be modified
// during iteration.
func (x *Doubly[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		x.Check(yield)
	}
}

// Backward iterates the members from the tail.
func (x *Doubly[E]) Backward() iter.Seq[E] {
	return func(yield func(E) bool) {
		var zero E
		for cur := x.last; cur != zero; cur = cur.DLink().prev {
			if !yield(cur) {
				return
			}
		}
	}
}

// Len returns the number of members.
func (x *Doubly[E]) Len() int {
	return x.n
}

func (x *Doubly[E]) mustUnlinked(obj E) {
	var zero E
	if obj == zero {
		panic(`llist: doubly: nil member`)
	}
	if obj.DLink().linked {
		panic(`llist: doubly: member already linked`)
	}
}
