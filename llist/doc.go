// Package llist implements intrusive linked lists over caller-owned objects.
//
// Members reserve a link header ([SLink] or [DLink]) and expose it through an
// accessor method, which is how the lists thread them together. The lists
// never allocate or free member storage, and a member may be linked into at
// most one list (per header) at a time.
//
// Two variants are provided, as distinct types:
//
//   - [Singly] stores one pointer per member and per list; AddLast and Remove
//     are O(n).
//   - [Doubly] stores two pointers per member and caches the tail; AddLast
//     and Remove are O(1).
//
// A [Table] models the fixed-capacity table of list headers, addressed by
// [Handle].
package llist
