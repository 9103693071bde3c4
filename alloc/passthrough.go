package alloc

// Allocator is the interface satisfied by both Block (the real size-class
// arena, which the MCTS arena uses directly as *Block) and
// PassthroughAllocator (a reference/test double with no reuse).
type Allocator interface {
	Alloc(size uint32) uint32
	Free(offset, size uint32)
	Realloc(offset, oldSize, newSize uint32) (newOffset uint32, delta int64)
	Reset()
	MemoryUntilWall() uint32
	FreeBytes() uint32
}

// PassthroughAllocator never reuses freed space; every Alloc bumps the
// wall. It mirrors memmanager.h's DefaultMemoryManager (a straight malloc
// passthrough with no recycling) and is useful in tests that want to assert
// on allocation counts without the size-class bucketing noise.
type PassthroughAllocator struct {
	wall uint32
}

var _ Allocator = (*PassthroughAllocator)(nil)
var _ Allocator = (*Block)(nil)

// Alloc bumps the wall by size and returns the prior wall as the offset.
func (p *PassthroughAllocator) Alloc(size uint32) uint32 {
	off := p.wall
	p.wall += size
	return off
}

// Free is a no-op: PassthroughAllocator never recycles.
func (p *PassthroughAllocator) Free(offset, size uint32) {}

// Realloc always moves to a fresh allocation at the end of the arena.
func (p *PassthroughAllocator) Realloc(offset, oldSize, newSize uint32) (uint32, int64) {
	return p.Alloc(newSize), 0
}

// Reset rewinds the wall to zero.
func (p *PassthroughAllocator) Reset() { p.wall = 0 }

// MemoryUntilWall has no meaning for an unbounded passthrough arena; it
// always reports zero.
func (p *PassthroughAllocator) MemoryUntilWall() uint32 { return 0 }

// FreeBytes is always zero: nothing is ever recycled.
func (p *PassthroughAllocator) FreeBytes() uint32 { return 0 }
