package mempool

import (
	"math/rand/v2"
	"testing"

	"github.com/joeycumines/go-mss/llist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_invalid(t *testing.T) {
	for _, tc := range []struct{ size, count int }{{0, 1}, {1, 0}, {-1, 4}} {
		p, err := New(tc.size, tc.count)
		assert.ErrorIs(t, err, ErrInvalidSize)
		assert.Nil(t, p)
	}
}

func TestPool_allocUntilExhausted(t *testing.T) {
	p, err := New(16, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, p.Cap())
	assert.Equal(t, 16, p.BlockSize())

	seen := make(map[*Block]struct{})
	for i := 0; i < 4; i++ {
		b := p.Alloc()
		require.NotNil(t, b)
		assert.True(t, b.Allocated())
		assert.Len(t, b.Data, 16)
		assert.Equal(t, 16, cap(b.Data))
		_, dup := seen[b]
		assert.False(t, dup)
		seen[b] = struct{}{}
	}
	assert.Nil(t, p.Alloc())
	assert.Zero(t, p.Available())
	assert.Equal(t, 4, p.InUse())
}

func TestPool_blocksDoNotOverlap(t *testing.T) {
	p, err := New(8, 3)
	require.NoError(t, err)
	a, b, c := p.Alloc(), p.Alloc(), p.Alloc()
	for i := range a.Data {
		a.Data[i], b.Data[i], c.Data[i] = 1, 2, 3
	}
	// writes through a full slice must not spill into a neighbour
	a.Data = append(a.Data, 9)
	assert.Equal(t, byte(2), b.Data[0])
	assert.Equal(t, byte(3), c.Data[0])
}

func TestPool_freeIsLIFO(t *testing.T) {
	p, err := New(4, 2)
	require.NoError(t, err)
	a := p.Alloc()
	b := p.Alloc()
	require.NoError(t, p.Free(a))
	require.NoError(t, p.Free(b))
	assert.Same(t, b, p.Alloc())
	assert.Same(t, a, p.Alloc())
}

func TestPool_Free_misuse(t *testing.T) {
	p, err := New(4, 2)
	require.NoError(t, err)
	other, err := New(4, 2)
	require.NoError(t, err)

	b := p.Alloc()
	require.NoError(t, p.Free(b))
	assert.ErrorIs(t, p.Free(b), ErrDoubleFree)
	assert.ErrorIs(t, p.Free(other.Alloc()), ErrForeignBlock)
	assert.ErrorIs(t, p.Free(nil), ErrForeignBlock)
	assert.ErrorIs(t, p.Free(&Block{pool: p}), ErrForeignBlock)
	assert.Equal(t, 2, p.Available())
}

func TestPool_conservation(t *testing.T) {
	const n = 8
	p, err := New(32, n)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(1, 2))
	var held []*Block
	for i := 0; i < 1000; i++ {
		if rng.IntN(2) == 0 {
			if b := p.Alloc(); b != nil {
				held = append(held, b)
			} else {
				assert.Len(t, held, n)
			}
		} else if len(held) > 0 {
			j := rng.IntN(len(held))
			require.NoError(t, p.Free(held[j]))
			held = append(held[:j], held[j+1:]...)
		}
		require.Equal(t, n, p.Available()+p.InUse())
		require.Equal(t, len(held), p.InUse())
	}
}

func TestPool_Free_linked(t *testing.T) {
	p, err := New(4, 2)
	require.NoError(t, err)
	b := p.Alloc()
	require.NotNil(t, b)
	var queue llist.Doubly[*Block]
	queue.AddLast(b)
	assert.ErrorIs(t, p.Free(b), ErrBlockLinked)
	assert.True(t, b.Allocated())
	assert.Equal(t, 1, p.Available())
	assert.Equal(t, 1, queue.Len())

	queue.Remove(b)
	require.NoError(t, p.Free(b))
	assert.Equal(t, 2, p.Available())
}
