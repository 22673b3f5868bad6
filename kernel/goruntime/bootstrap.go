// Package goruntime bootstraps the Go runtime features the rest of the
// kernel depends on. The runtime's allocator normally obtains memory
// from the host OS via sysReserve/sysAlloc/sysMap; here those hooks are
// rerouted onto the kernel's own virtual-region and frame allocators so
// that make, slices, maps and interface boxing work once Init has run.
package goruntime

import (
	"sync/atomic"
	"unsafe"

	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/mem/vmm"
)

// The hooks indirect through package vars so the reserve/map arithmetic
// below is host-testable without a live kernel address space.
var (
	reserveFn    = globalReserve
	mapFn        = globalMap
	frameAllocFn = frameAlloc
)

func globalReserve(numPages int) (uintptr, bool) {
	return vmm.Kernel().GlobalReserve(numPages)
}

func globalMap(addr uintptr, frame pmm.Frame, flags vmm.Flags) bool {
	return vmm.Kernel().Map(addr, frame, flags)
}

func frameAlloc() pmm.Frame {
	return pmm.Alloc(0)
}

// initDone flips once Init has verified the allocator plumbing; the
// sys hooks panic if the runtime reaches them earlier.
var initDone bool

// Init marks the runtime allocator hooks live. It must run after the
// kernel address space and the frame allocator are both up; before
// this point only allocation-free code may execute.
func Init() {
	if vmm.Kernel() == nil {
		panic("goruntime: Init before the kernel address space exists")
	}
	initDone = true
}

// sysReserve reserves address space without allocating any memory or
// establishing any page mappings.
//
// This function replaces runtime.sysReserve and is required for
// initializing the Go allocator.
//
//go:redirect-from runtime.sysReserve
//go:nosplit
func sysReserve(_ unsafe.Pointer, size uintptr) unsafe.Pointer {
	if !initDone {
		panic("goruntime: sysReserve before Init")
	}
	addr, ok := reserveFn(reservePages(size))
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}
	return unsafe.Pointer(addr)
}

// sysMap backs a region previously handed out by sysReserve with
// physical frames and makes it accessible.
//
// This function replaces runtime.sysMap and is required for
// initializing the Go allocator.
//
//go:redirect-from runtime.sysMap
//go:nosplit
func sysMap(virtAddr unsafe.Pointer, size uintptr, sysStat *uint64) unsafe.Pointer {
	if !initDone {
		panic("goruntime: sysMap before Init")
	}
	addr := uintptr(virtAddr) &^ (uintptr(mem.PageSize) - 1)
	pageCount := reservePages(size)

	if !mapRange(addr, pageCount) {
		return unsafe.Pointer(uintptr(0))
	}

	statAdd(sysStat, uintptr(pageCount)*uintptr(mem.PageSize))
	return unsafe.Pointer(addr)
}

// sysAlloc reserves enough physical frames to satisfy the allocation
// request and establishes a contiguous virtual mapping for them,
// returning the virtual region start.
//
// This function replaces runtime.sysAlloc and is required for
// initializing the Go allocator.
//
//go:redirect-from runtime.sysAlloc
//go:nosplit
func sysAlloc(size uintptr, sysStat *uint64) unsafe.Pointer {
	if !initDone {
		panic("goruntime: sysAlloc before Init")
	}
	pageCount := reservePages(size)
	addr, ok := reserveFn(pageCount)
	if !ok {
		return unsafe.Pointer(uintptr(0))
	}

	if !mapRange(addr, pageCount) {
		return unsafe.Pointer(uintptr(0))
	}

	statAdd(sysStat, uintptr(pageCount)*uintptr(mem.PageSize))
	return unsafe.Pointer(addr)
}

func mapRange(addr uintptr, pageCount int) bool {
	flags := vmm.FlagPresent | vmm.FlagWritable | vmm.FlagNoExecute
	for i := 0; i < pageCount; i++ {
		frame := frameAllocFn()
		if !frame.Valid() {
			return false
		}
		if !mapFn(addr+uintptr(i)*uintptr(mem.PageSize), frame, flags) {
			return false
		}
	}
	return true
}

func reservePages(size uintptr) int {
	return int((size + uintptr(mem.PageSize) - 1) >> mem.PageShift)
}

func statAdd(stat *uint64, n uintptr) {
	if stat != nil {
		atomic.AddUint64(stat, uint64(n))
	}
}

func init() {
	// Dummy references so the compiler does not discard the hook
	// functions before the runtime redirect binds them.
	var stat uint64
	_ = sysReserve
	_ = sysMap
	_ = sysAlloc
	_ = stat
}
