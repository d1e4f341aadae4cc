package abi

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"unsafe"

	domainerrors "github.com/reglet-dev/theme-sdk/domain/errors"
)

// MaxTotalAllocations is the maximum total memory that can be allocated through
// the bridge. This prevents unbounded memory growth in WASM linear memory.
const MaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

var (
	// ErrInvalidLayout is returned when align is not a non-zero power of two
	// or size+align overflows.
	ErrInvalidLayout = errors.New("abi: invalid layout")

	// ErrUnknownPointer is returned when a pointer is not a live allocation.
	// Freeing the same pointer twice yields this error the second time.
	ErrUnknownPointer = errors.New("abi: pointer is not a live allocation")

	// ErrLayoutMismatch is returned when deallocate is called with a size or
	// alignment different from the one used at allocation time.
	ErrLayoutMismatch = errors.New("abi: layout does not match allocation")

	// ErrOutOfBounds is returned when a view exceeds the allocation's capacity.
	ErrOutOfBounds = errors.New("abi: range exceeds allocation")
)

type allocation struct {
	buf   []byte // pinned backing slice
	off   int    // offset of the aligned pointer within buf
	size  uint32
	align uint32
}

// Allocator hands out pinned, aligned blocks of memory and tracks every live
// block by its address. Keeping the backing slice in the table prevents the
// Go GC from collecting memory the host still owns.
type Allocator struct {
	live  map[uintptr]allocation
	total int
	limit int
	mu    sync.Mutex
}

// NewAllocator creates an Allocator with the default MaxTotalAllocations limit.
func NewAllocator() *Allocator {
	return NewAllocatorWithLimit(MaxTotalAllocations)
}

// NewAllocatorWithLimit creates an Allocator that refuses to hold more than
// limit bytes at once.
func NewAllocatorWithLimit(limit int) *Allocator {
	return &Allocator{
		live:  make(map[uintptr]allocation),
		limit: limit,
	}
}

// Allocate reserves size bytes aligned to align and returns their address.
// A zero size returns a zero address and no error.
func (a *Allocator) Allocate(size, align uint32) (uintptr, error) {
	if align == 0 || align&(align-1) != 0 {
		return 0, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, align)
	}
	if uint64(size)+uint64(align)-1 > math.MaxUint32 {
		return 0, fmt.Errorf("%w: size %d with alignment %d overflows", ErrInvalidLayout, size, align)
	}
	if size == 0 {
		return 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Alignment padding is reserved memory and counts against the limit.
	padded := int(size) + int(align) - 1
	if a.total+padded > a.limit {
		return 0, &domainerrors.MemoryError{Requested: padded, Current: a.total, Limit: a.limit}
	}

	buf := make([]byte, padded)
	//nolint:gosec // G103: address of pinned Go memory is the WASM linear-memory pointer
	base := uintptr(unsafe.Pointer(&buf[0]))
	off := int((uintptr(align) - base%uintptr(align)) % uintptr(align))
	ptr := base + uintptr(off)

	a.live[ptr] = allocation{buf: buf, off: off, size: size, align: align}
	a.total += padded
	return ptr, nil
}

// Deallocate frees a block previously returned by Allocate. size and align
// must be exactly the values used at allocation time; a mismatch leaves the
// block allocated and returns ErrLayoutMismatch.
func (a *Allocator) Deallocate(ptr uintptr, size, align uint32) error {
	if ptr == 0 && size == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	alloc, ok := a.live[ptr]
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownPointer, ptr)
	}
	if alloc.size != size || alloc.align != align {
		return fmt.Errorf("%w: 0x%x allocated as (%d, %d), freed as (%d, %d)",
			ErrLayoutMismatch, ptr, alloc.size, alloc.align, size, align)
	}

	delete(a.live, ptr)
	a.total -= len(alloc.buf)
	return nil
}

// Bytes returns a view of the first length bytes of the live allocation at
// ptr. The view aliases the allocation; copy it if it must outlive it.
func (a *Allocator) Bytes(ptr uintptr, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	alloc, ok := a.live[ptr]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%x", ErrUnknownPointer, ptr)
	}
	if length > alloc.size {
		return nil, fmt.Errorf("%w: requested %d bytes, allocation holds %d", ErrOutOfBounds, length, alloc.size)
	}
	return alloc.buf[alloc.off : alloc.off+int(length)], nil
}

// Stats returns the number of live allocations and the bytes they reserve,
// alignment padding included.
func (a *Allocator) Stats() (count, totalBytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live), a.total
}

// FreeAll drops every tracked allocation.
// This is typically called on module reset to prevent leaks.
func (a *Allocator) FreeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for ptr := range a.live {
		delete(a.live, ptr)
	}
	a.total = 0
}
