package vmm

import "aasvogel/kernel/mem/pmm"

// pageOffsetBits describes how a virtual address decomposes on this target: 12 bits of in-page offset, the rest
// split across the active format's directory/table levels.
const pageOffsetBits = 12

// tableAllocator supplies backing storage for a newly needed
// intermediate page-table level. The kernel address space's allocator
// draws from the permanently reserved global_tables region (satisfied
// by the boot bump allocator before the frame allocator exists, and by
// pmm afterwards); a user address space's allocator draws from pmm
// directly. Returning pmm.InvalidFrame signals allocation failure.
type tableAllocator func() pmm.Frame

// format is the per-variant page-table implementation. Exactly one of
// legacyFormat or paeFormat backs every AddressSpace, chosen once at
// boot by Init and never exposed above this package.
type format interface {
	// get walks the hierarchy for addr, returning the mapped frame and
	// flags, or ok=false if any level (or the leaf) is absent.
	get(addr uintptr) (frame pmm.Frame, flags Flags, ok bool)

	// mapAddr ensures every intermediate level exists (allocating via
	// alloc when missing) and writes the leaf entry.
	mapAddr(addr uintptr, frame pmm.Frame, flags Flags, alloc tableAllocator) bool

	// unmapAddr clears the leaf entry for addr, if present.
	unmapAddr(addr uintptr)

	// cloneKernelEntries copies the top-level entries that cover the
	// higher-half kernel range into a freshly created user address
	// space's top-level table, so kernel mappings stay structurally
	// shared without walking the whole hierarchy.
	cloneKernelEntries(into format)

	// releaseUserTables frees every page-table-level frame this format
	// allocated below the kernel boundary (but never the shared kernel
	// tables), used by AddressSpace.Destroy.
	releaseUserTables(free func(pmm.Frame))
}
