package vmm

import "aasvogel/kernel/mem/pmm"

// legacyDirEntries/legacyTblEntries are the fixed 1024-entry width of
// both levels of the legacy 2-level format.
const (
	legacyDirEntries = 1024
	legacyTblEntries = 1024
	legacyDirShift   = 22
	legacyTblShift   = 12
	legacyIndexMask  = 0x3ff

	// legacyKernelDirIndex is the directory index of
	// KernelVirtualBase (0xC0000000 >> 22 == 768): every directory
	// index at or above this is part of the shared higher half.
	legacyKernelDirIndex = KernelVirtualBase >> legacyDirShift
)

// legacyEntry is a native 32-bit legacy page-table/directory entry:
// flag bits in the low 12 bits, frame address in the high 20.
type legacyEntry uint32

const legacyFrameMask = uint32(0xfffff000)

func (e legacyEntry) present() bool   { return e&1 != 0 }
func (e legacyEntry) frame() pmm.Frame { return pmm.FrameFromAddress(uintptr(uint32(e) & legacyFrameMask)) }

func (e legacyEntry) flags() Flags {
	var f Flags
	if e&(1<<0) != 0 {
		f |= FlagPresent
	}
	if e&(1<<1) != 0 {
		f |= FlagWritable
	}
	if e&(1<<2) != 0 {
		f |= FlagUser
	}
	if e&(1<<3) != 0 {
		f |= FlagWriteThrough
	}
	if e&(1<<4) != 0 {
		f |= FlagCacheDisable
	}
	if e&(1<<5) != 0 {
		f |= FlagAccessed
	}
	if e&(1<<6) != 0 {
		f |= FlagDirty
	}
	if e&(1<<8) != 0 {
		f |= FlagGlobal
	}
	// Legacy 32-bit entries have no bit position for NX: it is always
	// masked off; no-execute needs the PAE entry width.
	return f
}

func encodeLegacyEntry(frame pmm.Frame, flags Flags, pgeSupported bool) legacyEntry {
	var bits uint32
	if flags.Has(FlagPresent) {
		bits |= 1 << 0
	}
	if flags.Has(FlagWritable) {
		bits |= 1 << 1
	}
	if flags.Has(FlagUser) {
		bits |= 1 << 2
	}
	if flags.Has(FlagWriteThrough) {
		bits |= 1 << 3
	}
	if flags.Has(FlagCacheDisable) {
		bits |= 1 << 4
	}
	if flags.Has(FlagAccessed) {
		bits |= 1 << 5
	}
	if flags.Has(FlagDirty) {
		bits |= 1 << 6
	}
	if pgeSupported && flags.Has(FlagGlobal) {
		bits |= 1 << 8
	}
	bits |= uint32(frame.Address()) & legacyFrameMask
	return legacyEntry(bits)
}

// legacyTable is one 1024-entry page directory or page table.
type legacyTable [legacyDirEntries]legacyEntry

// legacyFormat implements format for the 2-level legacy hierarchy.
// dir is the top-level page directory; tables holds a virtual pointer
// to each directory slot's backing table, so walks never depend on a
// recursive self-mapping of the directory.
type legacyFormat struct {
	dirFrame pmm.Frame
	dir      *legacyTable
	tables   [legacyDirEntries]*legacyTable

	pgeSupported bool
}

func newLegacyFormat(dirFrame pmm.Frame, pgeSupported bool) *legacyFormat {
	return &legacyFormat{dirFrame: dirFrame, dir: new(legacyTable), pgeSupported: pgeSupported}
}

func splitLegacy(addr uintptr) (dirIdx, tblIdx int) {
	dirIdx = int((addr >> legacyDirShift) & legacyIndexMask)
	tblIdx = int((addr >> legacyTblShift) & legacyIndexMask)
	return
}

func (f *legacyFormat) get(addr uintptr) (pmm.Frame, Flags, bool) {
	dirIdx, tblIdx := splitLegacy(addr)
	tbl := f.tables[dirIdx]
	if tbl == nil || !f.dir[dirIdx].present() {
		return pmm.InvalidFrame, 0, false
	}
	entry := tbl[tblIdx]
	if !entry.present() {
		return pmm.InvalidFrame, 0, false
	}
	return entry.frame(), entry.flags(), true
}

func (f *legacyFormat) mapAddr(addr uintptr, frame pmm.Frame, flags Flags, alloc tableAllocator) bool {
	dirIdx, tblIdx := splitLegacy(addr)
	if f.tables[dirIdx] == nil {
		tblFrame := alloc()
		if !tblFrame.Valid() {
			return false
		}
		f.tables[dirIdx] = new(legacyTable)
		f.dir[dirIdx] = encodeLegacyEntry(tblFrame, FlagPresent|FlagWritable, f.pgeSupported)
	}
	f.tables[dirIdx][tblIdx] = encodeLegacyEntry(frame, flags, f.pgeSupported)
	return true
}

func (f *legacyFormat) unmapAddr(addr uintptr) {
	dirIdx, tblIdx := splitLegacy(addr)
	if f.tables[dirIdx] == nil {
		return
	}
	f.tables[dirIdx][tblIdx] = 0
}

func (f *legacyFormat) cloneKernelEntries(into format) {
	dst, ok := into.(*legacyFormat)
	if !ok {
		return
	}
	for i := legacyKernelDirIndex; i < legacyDirEntries; i++ {
		dst.dir[i] = f.dir[i]
		dst.tables[i] = f.tables[i]
	}
}

func (f *legacyFormat) releaseUserTables(free func(pmm.Frame)) {
	for i := 0; i < legacyKernelDirIndex; i++ {
		if f.tables[i] == nil {
			continue
		}
		free(f.dir[i].frame())
		f.tables[i] = nil
		f.dir[i] = 0
	}
}
