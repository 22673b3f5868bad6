package pool

import (
	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/sync"
)

// genericSizes are the fixed pool classes the generic allocator
// dispatches to; anything larger goes straight to the page allocator.
var genericSizes = [5]uint32{16, 32, 64, 128, 256}

var genericPools [5]SmallPool

// InitGeneric registers the five fixed-size pools backing GenericAlloc.
// Must run once, after SetGlobalAllocator.
func InitGeneric() {
	names := [5]string{"generic_16", "generic_32", "generic_64", "generic_128", "generic_256"}
	for i, size := range genericSizes {
		genericPools[i].Init(names[i], size, 4, 0)
	}
}

type sideKind int

const (
	sideKindNone sideKind = iota
	sideKindSmall
	sideKindFrames
)

type sideEntry struct {
	kind      sideKind
	pool      *SmallPool
	numFrames int
	base      uintptr
}

var (
	sideTableLock sync.Spinlock
	sideTable     = map[uintptr]sideEntry{}
)

func pageAlign(addr uintptr) uintptr {
	return addr &^ (uintptr(mem.PageSize) - 1)
}

func setSideEntry(addr uintptr, e sideEntry) {
	flags := sideTableLock.Acquire()
	defer sideTableLock.Release(flags)
	sideTable[pageAlign(addr)] = e
}

func clearSideEntry(addr uintptr) {
	flags := sideTableLock.Acquire()
	defer sideTableLock.Release(flags)
	delete(sideTable, pageAlign(addr))
}

func getSideEntry(addr uintptr) (sideEntry, bool) {
	flags := sideTableLock.Acquire()
	defer sideTableLock.Release(flags)
	e, ok := sideTable[pageAlign(addr)]
	return e, ok
}

func poolFor(size uint32) *SmallPool {
	for i, limit := range genericSizes {
		if size <= limit {
			return &genericPools[i]
		}
	}
	return nil
}

// GenericAlloc serves size bytes from the smallest sufficient fixed
// pool, or directly from the page allocator when size exceeds every
// fixed class.
func GenericAlloc(size uint32, flags pmm.AllocFlags) (uintptr, bool) {
	if p := poolFor(size); p != nil {
		addr, ok := p.Alloc(flags)
		if !ok {
			return 0, false
		}
		setSideEntry(addr, sideEntry{kind: sideKindSmall, pool: p})
		return addr, true
	}

	numPages := int((size + uint32(mem.PageSize) - 1) / uint32(mem.PageSize))
	if globalAlloc == nil {
		return 0, false
	}
	addr, ok := globalAlloc(numPages, flags)
	if !ok {
		return 0, false
	}
	for i := 0; i < numPages; i++ {
		setSideEntry(addr+uintptr(i)*uintptr(mem.PageSize), sideEntry{kind: sideKindFrames, numFrames: numPages, base: addr})
	}
	return addr, true
}

// GenericFree dispatches to the fixed pool or the page allocator based
// on what the side table recorded at alloc time.
func GenericFree(addr uintptr) {
	e, ok := getSideEntry(addr)
	if !ok || e.kind == sideKindNone {
		panic("pool: free of an address not tracked by the generic allocator")
	}

	switch e.kind {
	case sideKindSmall:
		// The entry stays: it records the page's owning pool, and other
		// objects carved from the same page are still live. A recycled
		// page's next GenericAlloc overwrites it.
		e.pool.Free(addr)
	case sideKindFrames:
		for i := 0; i < e.numFrames; i++ {
			clearSideEntry(e.base + uintptr(i)*uintptr(mem.PageSize))
		}
		if globalFree != nil {
			globalFree(e.base, e.numFrames)
		}
	}
}
