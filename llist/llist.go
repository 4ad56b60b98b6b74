package llist

import (
	"iter"
)

type (
	// List is the behavior common to [Singly] and [Doubly].
	List[E comparable] interface {
		AddFirst(obj E)
		AddLast(obj E)
		TouchFirst() E
		GetFirst() E
		Remove(obj E)
		Sort(cmp func(a, b E) int)
		Check(fn func(obj E) bool) bool
		All() iter.Seq[E]
		Len() int
	}

	// SLink is the link header of a singly linked member.
	SLink[E any] struct {
		next   E
		linked bool
	}

	// DLink is the link header of a doubly linked member.
	DLink[E any] struct {
		next   E
		prev   E
		linked bool
	}

	// SNode constrains members of a [Singly] list. Implementations are
	// typically pointers to a struct that embeds an [SLink].
	SNode[E any] interface {
		comparable
		SLink() *SLink[E]
	}

	// DNode constrains members of a [Doubly] list.
	DNode[E any] interface {
		comparable
		DLink() *DLink[E]
	}

	// Handle identifies a list within a [Table].
	Handle int

	// Table is a fixed-capacity table of list headers. The zero value has no
	// capacity.
	Table[L any] struct {
		lists []L
		n     int
	}
)

// InvalidHandle is returned by [Table.Create] once the table is exhausted.
const InvalidHandle Handle = -1

// NewTable allocates a table able to hold capacity lists.
func NewTable[L any](capacity int) *Table[L] {
	if capacity < 0 {
		panic(`llist: table: negative capacity`)
	}
	return &Table[L]{lists: make([]L, capacity)}
}

// Create allocates the next list header, returning [InvalidHandle] if the
// table is full.
func (x *Table[L]) Create() Handle {
	if x == nil || x.n >= len(x.lists) {
		return InvalidHandle
	}
	h := Handle(x.n)
	x.n++
	return h
}

// Get returns the list for h, or nil if h was not returned by Create.
func (x *Table[L]) Get(h Handle) *L {
	if !x.Valid(h) {
		return nil
	}
	return &x.lists[h]
}

// Valid reports whether h refers to a created list.
func (x *Table[L]) Valid(h Handle) bool {
	return x != nil && h >= 0 && int(h) < x.n
}

// Len returns the number of created lists.
func (x *Table[L]) Len() int {
	if x == nil {
		return 0
	}
	return x.n
}

// Cap returns the capacity of the table.
func (x *Table[L]) Cap() int {
	if x == nil {
		return 0
	}
	return len(x.lists)
}

// Next returns the member linked after this one, or the zero value.
func (x *SLink[E]) Next() E { return x.next }

// Linked reports whether the member is on a list.
func (x *SLink[E]) Linked() bool { return x.linked }

// Next returns the member linked after this one, or the zero value.
func (x *DLink[E]) Next() E { return x.next }

// Prev returns the member linked before this one, or the zero value.
func (x *DLink[E]) Prev() E { return x.prev }

// Linked reports whether the member is on a list.
func (x *DLink[E]) Linked() bool { return x.linked }
