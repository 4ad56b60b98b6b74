package mss

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-mss/mempool"
)

// MemHandle identifies a memory pool.
type MemHandle int

// InvalidMem is returned by MemCreate once the pool table is full.
const InvalidMem MemHandle = -1

// MemCreate allocates a pool of numBlocks blocks of blockSize bytes.
func (s *Scheduler) MemCreate(blockSize, numBlocks int) MemHandle {
	pool, err := mempool.New(blockSize, numBlocks)
	if err != nil {
		s.fatal(`mem create`, NoTask, fmt.Errorf(`%w: %w`, ErrInvalidArgument, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pools) == cap(s.pools) {
		return InvalidMem
	}
	s.pools = append(s.pools, pool)
	return MemHandle(len(s.pools) - 1)
}

// MemAlloc takes a free block, returning nil if the pool is exhausted. It may
// be called from any goroutine, and from interrupt context.
func (s *Scheduler) MemAlloc(h MemHandle) *mempool.Block {
	pool := s.pool(`mem alloc`, h)
	s.mu.Lock()
	b := pool.Alloc()
	s.mu.Unlock()
	if b == nil {
		s.poolExhausted(h, pool)
	}
	return b
}

// MemFree returns a block to its pool. The block must not be queued.
func (s *Scheduler) MemFree(h MemHandle, b *mempool.Block) {
	const op = `mem free`
	pool := s.pool(op, h)
	s.mu.Lock()
	err := pool.Free(b)
	s.mu.Unlock()
	switch {
	case errors.Is(err, mempool.ErrDoubleFree), errors.Is(err, mempool.ErrBlockLinked):
		s.fatal(op, NoTask, fmt.Errorf(`%w: %w`, ErrBlockState, err))
	case err != nil:
		s.fatal(op, NoTask, err)
	}
}

// MemAvailable returns the number of free blocks in a pool.
func (s *Scheduler) MemAvailable(h MemHandle) int {
	pool := s.pool(`mem available`, h)
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool.Available()
}

func (s *Scheduler) pool(op string, h MemHandle) *mempool.Pool {
	s.mu.Lock()
	var pool *mempool.Pool
	if h >= 0 && int(h) < len(s.pools) {
		pool = s.pools[h]
	}
	s.mu.Unlock()
	if pool == nil {
		s.fatal(op, NoTask, ErrInvalidHandle)
	}
	return pool
}

func (s *Scheduler) poolExhausted(h MemHandle, pool *mempool.Pool) {
	s.metrics.exhausted()
	if _, ok := s.exhausted.Allow(h); !ok {
		return
	}
	s.logger.Warning().
		Int(`pool`, int(h)).
		Int(`blocks`, pool.Cap()).
		Int(`block_size`, pool.BlockSize()).
		Err(errPoolExhausted).
		Limit().
		Log(`memory pool exhausted`)
}

var errPoolExhausted = errors.New(`mss: memory pool exhausted`)
