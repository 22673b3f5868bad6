package boot

import (
	"unsafe"

	"aasvogel/kernel/mem/vmm"
)

const (
	legacyDirEntries = 1024
	legacyTblEntries = 1024
	legacyFrameMask  = uint32(0xfffff000)
)

type legacyPD [legacyDirEntries]uint32
type legacyPT [legacyTblEntries]uint32

// legacyTables is the 2-level format's static bootstrap pair: one page
// directory and the single page table it needs to cover mappedPages.
type legacyTables struct {
	pd legacyPD
	pt legacyPT
}

func encodeLegacyEntry(phys uint32, flags vmm.Flags) uint32 {
	var bits uint32
	if flags.Has(vmm.FlagPresent) {
		bits |= 1 << 0
	}
	if flags.Has(vmm.FlagWritable) {
		bits |= 1 << 1
	}
	// Legacy 32-bit entries have no bit position for NX; it is silently
	// dropped here the same way vmm's own legacy format drops it.
	bits |= phys & legacyFrameMask
	return bits
}

// build maps the first mappedPages physical pages identically at both
// 0x00000000 and vmm.KernelVirtualBase, sharing the one page table
// between both directory slots.
func (t *legacyTables) build(flagsAt func(phys uint32) vmm.Flags) {
	ptPhys := addrOf(unsafe.Pointer(&t.pt))
	pde := (ptPhys & legacyFrameMask) | 1<<0 | 1<<1 // present, writable

	t.pd[0] = pde
	t.pd[legacyKernelDirIndex] = pde

	for i := 0; i < mappedPages; i++ {
		phys := uint32(i * pageSize)
		t.pt[i] = encodeLegacyEntry(phys, flagsAt(phys))
	}
}
