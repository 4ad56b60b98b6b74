// Package mempool implements a fixed-block memory pool with constant time
// allocation and release.
//
// A [Pool] carves a single arena into equal blocks when it is created. Free
// blocks are threaded onto an intrusive free list through the link header
// every [Block] carries, the same header a message queue uses to link an
// allocated block, so a block is always on at most one list.
package mempool

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-mss/llist"
)

type (
	// Pool is a fixed-size pool of equal-size blocks. It is not safe for
	// concurrent use; callers provide their own critical section.
	Pool struct {
		arena     []byte
		blocks    []Block
		free      llist.Doubly[*Block]
		blockSize int
	}

	// Block is one allocation unit of a [Pool].
	Block struct {
		link      llist.DLink[*Block]
		pool      *Pool
		index     int
		allocated bool
		// Data is the block's storage, with len and cap equal to the
		// pool's block size.
		Data []byte
	}
)

var (
	// ErrInvalidSize is returned by [New] for non-positive dimensions.
	ErrInvalidSize = errors.New(`mempool: block size and block count must be positive`)

	// ErrDoubleFree is returned by [Pool.Free] for a block that is already
	// free.
	ErrDoubleFree = errors.New(`mempool: block is already free`)

	// ErrForeignBlock is returned by [Pool.Free] for a block that was not
	// allocated from the pool.
	ErrForeignBlock = errors.New(`mempool: block does not belong to this pool`)

	// ErrBlockLinked is returned by [Pool.Free] for an allocated block that
	// is still linked onto a caller list.
	ErrBlockLinked = errors.New(`mempool: block is still linked`)
)

// New creates a pool of numBlocks blocks of blockSize bytes, all free.
func New(blockSize, numBlocks int) (*Pool, error) {
	if blockSize <= 0 || numBlocks <= 0 {
		return nil, fmt.Errorf(`%w: block size %d, block count %d`, ErrInvalidSize, blockSize, numBlocks)
	}
	x := &Pool{
		arena:     make([]byte, blockSize*numBlocks),
		blocks:    make([]Block, numBlocks),
		blockSize: blockSize,
	}
	for i := range x.blocks {
		b := &x.blocks[i]
		b.pool = x
		b.index = i
		b.Data = x.arena[i*blockSize : (i+1)*blockSize : (i+1)*blockSize]
		x.free.AddLast(b)
	}
	return x, nil
}

// Alloc pops the head of the free list, returning nil if the pool is
// exhausted.
func (x *Pool) Alloc() *Block {
	b := x.free.GetFirst()
	if b == nil {
		return nil
	}
	b.allocated = true
	return b
}

// Free pushes b back onto the head of the free list.
func (x *Pool) Free(b *Block) error {
	if b == nil || b.pool != x || b.index < 0 || b.index >= len(x.blocks) || &x.blocks[b.index] != b {
		return ErrForeignBlock
	}
	if !b.allocated {
		return ErrDoubleFree
	}
	if b.link.Linked() {
		return ErrBlockLinked
	}
	b.allocated = false
	x.free.AddFirst(b)
	return nil
}

// Available returns the number of free blocks.
func (x *Pool) Available() int { return x.free.Len() }

// InUse returns the number of allocated blocks.
func (x *Pool) InUse() int { return len(x.blocks) - x.free.Len() }

// Cap returns the total number of blocks, which never changes.
func (x *Pool) Cap() int { return len(x.blocks) }

// BlockSize returns the size of each block, in bytes.
func (x *Pool) BlockSize() int { return x.blockSize }

// DLink exposes the block's link header, which threads it onto the pool's
// free list while free, or onto a single caller list while allocated.
func (x *Block) DLink() *llist.DLink[*Block] { return &x.link }

// Allocated reports whether the block is currently allocated.
func (x *Block) Allocated() bool { return x.allocated }

// Index returns the block's position within its pool.
func (x *Block) Index() int { return x.index }
