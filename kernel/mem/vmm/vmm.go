package vmm

import (
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/mem/vreg"
)

// KernelVirtualBase is the lowest virtual address considered part of
// the shared higher half. Every address space maps the kernel image,
// its heap, and the global_tables/global_alloc regions identically
// above this boundary; everything below it is private per address
// space.
const KernelVirtualBase = 0xC0000000

// usePae, pgeSupported and nxSupported record what Init chose; they are fixed once
// at boot and never changes afterwards.
var (
	usePae       bool
	pgeSupported bool
	nxSupported  bool
	initDone     bool
)

// Init selects the page-table format for the lifetime of the kernel.
// It must run once, after cpu.Probe, before any AddressSpace is
// created.
func Init(info cpu.Info, allowPAE, allowNX bool) {
	usePae = allowPAE && info.SupportsPAE()
	pgeSupported = info.SupportsPGE()
	nxSupported = usePae && allowNX && info.SupportsNX()
	initDone = true
}

func newFormat() format {
	if !initDone {
		panic("vmm: address space created before Init selected a format")
	}
	if usePae {
		return newPaeFormat(pgeSupported, nxSupported)
	}
	return newLegacyFormat(pmm.InvalidFrame, pgeSupported)
}

// AddressSpace is a process's (or the kernel's) virtual memory
// mapping. It hides which wire format is active behind the format
// interface; nothing above this layer may depend on the legacy/PAE
// choice.
type AddressSpace struct {
	impl format

	alloc tableAllocator
	free  func(pmm.Frame)

	refs int

	isKernel bool

	// regions backs GlobalAlloc/GlobalFree; only the kernel address
	// space has one, since global_alloc always carves out of the
	// shared kernel virtual range.
	regions *vreg.Manager
}

var kernelSpace *AddressSpace

// Kernel returns the address space built by NewKernelAddressSpace.
// Callers that need to back a kernel-only allocation (a thread stack,
// a driver buffer) when no process-specific address space applies use
// this instead of threading the kernel AddressSpace through every
// layer.
func Kernel() *AddressSpace {
	return kernelSpace
}

// NewKernelAddressSpace builds the one address space every other
// address space clones its higher-half mappings from. alloc is used to
// materialize new page-table levels (the global_tables bump allocator
// before pmm is up, pmm.Alloc afterwards); free releases them. regions
// is the virtual-region allocator GlobalAlloc/GlobalFree draw from.
func NewKernelAddressSpace(alloc tableAllocator, free func(pmm.Frame), regions *vreg.Manager) *AddressSpace {
	as := &AddressSpace{impl: newFormat(), alloc: alloc, free: free, refs: 1, isKernel: true, regions: regions}
	kernelSpace = as
	return as
}

// NewAddressSpace creates a user address space, cloning the kernel's
// higher-half entries so kernel code and data remain mapped identically
// in every process.
func NewAddressSpace(alloc tableAllocator, free func(pmm.Frame)) *AddressSpace {
	as := &AddressSpace{impl: newFormat(), alloc: alloc, free: free, refs: 1}
	if kernelSpace != nil {
		kernelSpace.impl.cloneKernelEntries(as.impl)
	}
	return as
}

// Get reports the frame and flags mapped at addr, if any.
func (as *AddressSpace) Get(addr uintptr) (pmm.Frame, Flags, bool) {
	return as.impl.get(alignDown(addr))
}

// Map installs a mapping from addr to frame with the given flags,
// allocating any missing intermediate page-table levels. It returns
// false if an allocation failed partway through.
func (as *AddressSpace) Map(addr uintptr, frame pmm.Frame, flags Flags) bool {
	if !nxSupported {
		flags &^= FlagNoExecute
	}
	if !pgeSupported {
		flags &^= FlagGlobal
	}
	return as.impl.mapAddr(alignDown(addr), frame, flags, as.alloc)
}

// Unmap clears the mapping at addr, if present.
func (as *AddressSpace) Unmap(addr uintptr) {
	as.impl.unmapAddr(alignDown(addr))
}

// cr4PGE is the CR4 bit enabling global-page TLB entries.
const cr4PGE = 1 << 7

// FlushOne invalidates a single TLB entry for addr, for use after a
// single Map/Unmap targeting the currently loaded address space. On
// CPUs without global-page support the whole (non-global-free) TLB is
// flushed by reloading CR3 instead.
func FlushOne(addr uintptr) {
	if pgeSupported {
		cpu.InvalidatePage(alignDown(addr))
		return
	}
	cpu.WriteCR3(cpu.ReadCR3())
}

// FlushRegion invalidates every TLB entry spanning [addr, addr+size).
func FlushRegion(addr uintptr, size mem.Size) {
	if !pgeSupported {
		cpu.WriteCR3(cpu.ReadCR3())
		return
	}
	start := alignDown(addr)
	end := alignDown(addr + uintptr(size) + uintptr(mem.PageSize) - 1)
	for p := start; p < end; p += uintptr(mem.PageSize) {
		cpu.InvalidatePage(p)
	}
}

// FlushAll discards every TLB entry. A plain CR3 reload spares global
// entries, so when PGE is active it is toggled off and back on in CR4,
// which dumps those too; without PGE the reload alone suffices.
func FlushAll() {
	if pgeSupported {
		cr4 := cpu.ReadCR4()
		cpu.WriteCR4(cr4 &^ cr4PGE)
		cpu.WriteCR4(cr4)
		return
	}
	cpu.WriteCR3(cpu.ReadCR3())
}

// GlobalAlloc reserves numPages of kernel virtual address space,
// backs every page with a freshly allocated physical frame, and maps
// them with flags. On any failure (no virtual region big enough, or
// physical frames exhausted) it unwinds whatever it already committed
// and returns ok=false.
func (as *AddressSpace) GlobalAlloc(flags Flags, allocFlags pmm.AllocFlags, numPages int) (uintptr, bool) {
	if as.regions == nil || numPages <= 0 {
		return 0, false
	}
	addr, ok := as.regions.Alloc(uint32(numPages))
	if !ok {
		return 0, false
	}

	mapped := 0
	for ; mapped < numPages; mapped++ {
		page := addr + uintptr(mapped)*uintptr(mem.PageSize)
		frame := pmm.Alloc(allocFlags)
		if !frame.Valid() {
			break
		}
		if !as.impl.mapAddr(page, frame, flags, as.alloc) {
			pmm.Free(frame)
			break
		}
	}

	if mapped < numPages {
		as.unmapGlobalRange(addr, mapped)
		as.regions.Free(addr, uint32(numPages))
		return 0, false
	}

	FlushRegion(addr, mem.Size(numPages)*mem.PageSize)
	return addr, true
}

// GlobalReserve carves numPages of kernel virtual address space out of
// the region allocator without backing or mapping anything. Callers
// that want backed memory use GlobalAlloc; this exists for the Go
// runtime bootstrap, whose sysReserve contract is address space only.
func (as *AddressSpace) GlobalReserve(numPages int) (uintptr, bool) {
	if as.regions == nil || numPages <= 0 {
		return 0, false
	}
	return as.regions.Alloc(uint32(numPages))
}

// GlobalFree releases a GlobalAlloc'd range: unmaps every page,
// returns its physical frame, and returns the virtual range to the
// region allocator.
func (as *AddressSpace) GlobalFree(addr uintptr, numPages int) {
	as.unmapGlobalRange(addr, numPages)
	FlushRegion(addr, mem.Size(numPages)*mem.PageSize)
	if as.regions != nil {
		as.regions.Free(addr, uint32(numPages))
	}
}

func (as *AddressSpace) unmapGlobalRange(addr uintptr, numPages int) {
	for i := 0; i < numPages; i++ {
		page := addr + uintptr(i)*uintptr(mem.PageSize)
		if frame, _, ok := as.impl.get(page); ok {
			pmm.Free(frame)
		}
		as.impl.unmapAddr(page)
	}
}

// Retain increments the address space's reference count; each holder
// drops its reference with Release.
func (as *AddressSpace) Retain() {
	as.refs++
}

// Release decrements the reference count and, if it drops to zero,
// destroys the address space. It returns true if destruction occurred.
func (as *AddressSpace) Release() bool {
	as.refs--
	if as.refs > 0 {
		return false
	}
	as.Destroy()
	return true
}

// Destroy frees every user-owned page-table frame in this address
// space. It is a fatal error to destroy the kernel address space.
func (as *AddressSpace) Destroy() {
	if as.isKernel {
		panic("vmm: attempted to destroy the kernel address space")
	}
	as.impl.releaseUserTables(as.free)
}

func alignDown(addr uintptr) uintptr {
	return addr &^ (uintptr(mem.PageSize) - 1)
}
