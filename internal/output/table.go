// Package output tracks rendered documents handed to the host until the host
// releases them.
package output

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reglet-dev/theme-sdk/internal/abi"
)

// ErrUnknownHandle is returned when a handle does not name a live buffer,
// including a handle that has already been released.
var ErrUnknownHandle = errors.New("output: unknown or released handle")

// Handle identifies a published buffer. Zero is never a valid handle.
type Handle uint32

// Buffer is the host-visible view of a published output.
type Buffer struct {
	Ptr    uintptr
	Len    uint32
	Handle Handle
}

type entry struct {
	release func() error
	buf     Buffer
}

// Table owns every published output. Each entry carries a release action
// bound to its own allocation, so releasing one handle can never free a
// different buffer.
type Table struct {
	alloc   *abi.Allocator
	live    map[Handle]entry
	next    Handle
	current Handle
	mu      sync.Mutex
}

// NewTable creates a Table whose buffers are allocated from alloc.
func NewTable(alloc *abi.Allocator) *Table {
	return &Table{
		alloc: alloc,
		live:  make(map[Handle]entry),
	}
}

// Publish copies s into freshly allocated memory, records it under a new
// handle and makes it the current output. Previously published buffers stay
// live until released.
func (t *Table) Publish(s string) (Buffer, error) {
	size := uint32(len(s)) //nolint:gosec // G115: rendered output is bounded by the engine limit

	ptr, err := t.alloc.Allocate(size, 1)
	if err != nil {
		return Buffer{}, fmt.Errorf("failed to allocate output buffer: %w", err)
	}
	if size > 0 {
		view, err := t.alloc.Bytes(ptr, size)
		if err != nil {
			_ = t.alloc.Deallocate(ptr, size, 1)
			return Buffer{}, fmt.Errorf("failed to map output buffer: %w", err)
		}
		copy(view, s)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	if t.next == 0 {
		t.next = 1
	}
	buf := Buffer{Ptr: ptr, Len: size, Handle: t.next}
	t.live[buf.Handle] = entry{
		buf: buf,
		release: func() error {
			return t.alloc.Deallocate(ptr, size, 1)
		},
	}
	t.current = buf.Handle
	return buf, nil
}

// Current returns the most recently published buffer that is still live.
func (t *Table) Current() (Buffer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.live[t.current]
	return e.buf, ok
}

// Lookup returns the live buffer for h.
func (t *Table) Lookup(h Handle) (Buffer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.live[h]
	return e.buf, ok
}

// Release runs the release action bound to h exactly once.
func (t *Table) Release(h Handle) error {
	t.mu.Lock()
	e, ok := t.live[h]
	if ok {
		delete(t.live, h)
		if t.current == h {
			t.current = 0
		}
	}
	t.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return e.release()
}

// ReleaseCurrent releases the current output and clears the slot.
func (t *Table) ReleaseCurrent() error {
	t.mu.Lock()
	h := t.current
	t.mu.Unlock()

	if h == 0 {
		return fmt.Errorf("%w: no current output", ErrUnknownHandle)
	}
	return t.Release(h)
}

// Len returns the number of live buffers.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// Reset releases every live buffer.
func (t *Table) Reset() {
	t.mu.Lock()
	entries := t.live
	t.live = make(map[Handle]entry)
	t.current = 0
	t.mu.Unlock()

	for _, e := range entries {
		_ = e.release()
	}
}
