package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocGrowsWall(t *testing.T) {
	b := NewBlock(8)
	off1 := b.Alloc(4)
	off2 := b.Alloc(4)
	require.NotEqual(t, off1, off2)
	require.Equal(t, uint32(minClassSize*2), b.Size())
}

func TestFreeThenAllocReuses(t *testing.T) {
	b := NewBlock(8)
	off := b.Alloc(4)
	wallBefore := b.Size()
	b.Free(off, 4)
	reused := b.Alloc(4)
	require.Equal(t, off, reused)
	require.Equal(t, wallBefore, b.Size(), "reusing a freed slot must not move the wall")
}

func TestAllocBeyondInitialCapacityGrowsBackingStore(t *testing.T) {
	b := NewBlock(8)
	for i := 0; i < 100; i++ {
		b.Alloc(16)
	}
	require.GreaterOrEqual(t, len(b.buf), int(b.Size()))
}

func TestResizeReturnsZeroDeltaAndOffsetsStayValid(t *testing.T) {
	b := NewBlock(8)
	off := b.Alloc(4)
	b.PutUint32(off, 0xCAFEF00D)
	delta := b.Resize(1 << 16)
	require.Equal(t, int64(0), delta)
	require.Equal(t, uint32(0xCAFEF00D), b.Uint32(off))
}

func TestReallocSameClassKeepsOffset(t *testing.T) {
	b := NewBlock(64)
	off := b.Alloc(5)
	newOff, delta := b.Realloc(off, 5, 7)
	require.Equal(t, off, newOff)
	require.Equal(t, int64(0), delta)
}

func TestReallocDifferentClassMovesAndCopies(t *testing.T) {
	b := NewBlock(64)
	off := b.Alloc(4)
	b.PutUint32(off, 42)
	newOff, delta := b.Realloc(off, 4, 1000)
	require.Equal(t, int64(0), delta)
	require.Equal(t, uint32(42), b.Uint32(newOff))
}

func TestResetClearsWallAndFreeList(t *testing.T) {
	b := NewBlock(64)
	off := b.Alloc(8)
	b.Free(off, 8)
	b.Reset()
	require.Equal(t, uint32(0), b.Size())
	require.Equal(t, uint32(0), b.FreeBytes())
}

func TestFreeBytesAccounting(t *testing.T) {
	b := NewBlock(64)
	a := b.Alloc(8)
	_ = b.Alloc(8)
	b.Free(a, 8)
	require.Equal(t, uint32(minClassSize), b.FreeBytes())
}

func TestClassSizeRoundsUpToPowerOfTwo(t *testing.T) {
	require.Equal(t, uint32(minClassSize), classSize(1))
	require.Equal(t, uint32(16), classSize(9))
	require.Equal(t, uint32(32), classSize(17))
}

func TestPassthroughAllocatorNeverReuses(t *testing.T) {
	var p PassthroughAllocator
	off := p.Alloc(8)
	p.Free(off, 8)
	next := p.Alloc(8)
	require.NotEqual(t, off, next)
	require.Equal(t, uint32(0), p.FreeBytes())
}
