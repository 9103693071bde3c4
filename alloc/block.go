// Package alloc implements the size-class block allocator backing the MCTS
// arena's packed child-record regions (spec.md §3.5/§4.1). It is grounded on
// _examples/original_source/backend/memmanager.{h,cpp} (MemoryBlock's
// malloc_/realloc_/free_/resize/reset over a size-class free list), adapted
// from raw-pointer to offset addressing.
package alloc

import "encoding/binary"

// minClassSize is the smallest size class; anything smaller is rounded up
// to it (mirrors memmanager's precalculate floor).
const minClassSize = 8

// maxClassShift names 1<<maxClassShift bytes as the largest size class the
// packed node's regions need (spec.md §3.4's region sizes are all well
// under this). classSize does not enforce it: larger requests still get a
// power-of-two class.
const maxClassShift = 20

// Block is a growable byte arena addressed entirely by uint32 offset from
// its own base, never by absolute pointer. Because offsets are relative,
// Resize (growing the backing slice) never invalidates an offset handed out
// earlier — there is no pointer-fixup step, unlike the C++ original this is
// grounded on.
type Block struct {
	buf      []byte
	wall     uint32
	freeList map[uint32][]uint32 // size-class byte size -> free offsets
}

// NewBlock allocates a Block with the given initial capacity.
func NewBlock(initialCapacity uint32) *Block {
	if initialCapacity < minClassSize {
		initialCapacity = minClassSize
	}
	return &Block{
		buf:      make([]byte, initialCapacity),
		freeList: make(map[uint32][]uint32),
	}
}

// classSize rounds size up to the smallest size class that holds it,
// reproducing MemoryBlock::get_piece_size's power-of-two precalculate
// table.
func classSize(size uint32) uint32 {
	if size <= minClassSize {
		return minClassSize
	}
	class := uint32(minClassSize)
	for class < size {
		class <<= 1
	}
	return class
}

// Alloc reserves size bytes and returns their offset. A matching free-list
// entry is reused first; otherwise the arena grows past its current wall.
func (b *Block) Alloc(size uint32) uint32 {
	class := classSize(size)
	if list := b.freeList[class]; len(list) > 0 {
		off := list[len(list)-1]
		b.freeList[class] = list[:len(list)-1]
		return off
	}
	off := b.wall
	b.growTo(off + class)
	b.wall = off + class
	return off
}

// Free returns the size bytes at offset to the free list for reuse.
func (b *Block) Free(offset, size uint32) {
	class := classSize(size)
	b.freeList[class] = append(b.freeList[class], offset)
}

// Realloc resizes an existing allocation in place when it already fits in
// its size class, or moves it to a freshly allocated one and copies the
// old bytes otherwise. The returned delta is always 0 (see Block):
// offsets never need fixing up.
func (b *Block) Realloc(offset, oldSize, newSize uint32) (newOffset uint32, delta int64) {
	if classSize(oldSize) == classSize(newSize) {
		return offset, 0
	}
	newOffset = b.Alloc(newSize)
	copy(b.buf[newOffset:newOffset+oldSize], b.buf[offset:offset+oldSize])
	b.Free(offset, oldSize)
	return newOffset, 0
}

// Resize grows the arena's backing storage by at least additional bytes of
// headroom past the current wall. It returns the byte delta callers would
// need to apply to previously issued offsets to keep them valid — always 0,
// since offsets already address relative to the block's own base.
func (b *Block) Resize(additional uint32) int64 {
	b.growTo(b.wall + additional)
	return 0
}

// Reset discards every allocation and free-list entry, retaining the
// backing storage's capacity for reuse (MemoryBlock::reset).
func (b *Block) Reset() {
	b.wall = 0
	for k := range b.freeList {
		delete(b.freeList, k)
	}
}

// MemoryUntilWall reports how many bytes remain in the backing storage
// before the wall (bump pointer) would need to grow it.
func (b *Block) MemoryUntilWall() uint32 {
	return uint32(len(b.buf)) - b.wall
}

// FreeBytes sums the reusable capacity currently sitting in free lists.
func (b *Block) FreeBytes() uint32 {
	var total uint32
	for class, offs := range b.freeList {
		total += class * uint32(len(offs))
	}
	return total
}

// Size reports the number of bytes below the wall (i.e. bytes that have
// ever been allocated, free or not).
func (b *Block) Size() uint32 { return b.wall }

func (b *Block) growTo(minLen uint32) {
	if uint32(len(b.buf)) >= minLen {
		return
	}
	newCap := uint32(len(b.buf))
	if newCap == 0 {
		newCap = minClassSize
	}
	for newCap < minLen {
		newCap <<= 1
	}
	grown := make([]byte, newCap)
	copy(grown, b.buf)
	b.buf = grown
}

// Bytes returns the slice of the arena covering [offset, offset+n).
func (b *Block) Bytes(offset, n uint32) []byte {
	return b.buf[offset : offset+n]
}

// PutByte, PutUint16 and PutUint32 write a little-endian value at offset.
func (b *Block) PutByte(offset uint32, v byte)     { b.buf[offset] = v }
func (b *Block) PutUint16(offset uint32, v uint16) { binary.LittleEndian.PutUint16(b.buf[offset:], v) }
func (b *Block) PutUint32(offset uint32, v uint32) { binary.LittleEndian.PutUint32(b.buf[offset:], v) }

// Byte, Uint16 and Uint32 read a little-endian value at offset.
func (b *Block) Byte(offset uint32) byte     { return b.buf[offset] }
func (b *Block) Uint16(offset uint32) uint16 { return binary.LittleEndian.Uint16(b.buf[offset:]) }
func (b *Block) Uint32(offset uint32) uint32 { return binary.LittleEndian.Uint32(b.buf[offset:]) }
