// Package mem defines the low-level units shared by every memory
// management package: byte sizes, the frame/page quantum, and a pair
// of allocation-free Memset/Memcopy helpers usable before the Go
// allocator is bootstrapped.
package mem

// Size represents a quantity of memory in bytes.
type Size uint32

// Common size multiples.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

// PointerShift is log2(unsafe.Sizeof(uintptr)) on this (386) target.
const PointerShift = uintptr(2)

// PageShift is log2(PageSize); FrameShift is its physical-memory twin.
// The two are always equal since frames back pages 1:1.
const (
	PageShift  = uintptr(12)
	FrameShift = PageShift
)

// PageSize/FrameSize are the system's virtual page and physical frame
// granularity, in bytes.
const (
	PageSize  = Size(1 << PageShift)
	FrameSize = PageSize
)
