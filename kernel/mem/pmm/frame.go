// Package pmm is the physical frame allocator: three logical pools
// (low, normal, high) each backed by a stack of free frames, plus a
// small emergency reserve that critical allocation paths can draw from
// under memory pressure.
package pmm

import (
	"math"

	"aasvogel/kernel/mem"
)

// Frame identifies a physical page-sized, page-aligned region of
// memory by its frame index (address >> mem.FrameShift).
type Frame uintptr

// InvalidFrame is the sentinel returned by allocation paths that fail;
// it is chosen to be distinguishable from any real frame index.
const InvalidFrame = Frame(math.MaxUint32)

// Valid reports whether f is a real frame rather than InvalidFrame.
func (f Frame) Valid() bool { return f != InvalidFrame }

// Address returns the physical address this frame starts at.
func (f Frame) Address() uintptr { return uintptr(f) << mem.FrameShift }

// FrameFromAddress returns the frame containing the given physical
// address, rounding down to the enclosing frame boundary.
func FrameFromAddress(addr uintptr) Frame {
	return Frame(addr >> mem.FrameShift)
}
