package boot

import (
	"unsafe"

	"aasvogel/kernel/cpu"
	"aasvogel/kernel/hal/multiboot"
	"aasvogel/kernel/mem/vmm"
)

const (
	pageSize = 4096

	// mappedPages bounds the trampoline's identity/higher-half alias to
	// the first 2 MiB of physical memory: enough for this core's own
	// image, the multiboot info block and the VGA framebuffer, with
	// room to spare. The real, full-sized mapping is built by vmm once
	// pmm's allocator is up, and supersedes this one.
	mappedPages = 512

	legacyKernelDirIndex = vmm.KernelVirtualBase >> 22
	paeKernelPDPTIndex   = vmm.KernelVirtualBase >> 30
)

func addrOf(p unsafe.Pointer) uint32 { return uint32(uintptr(p)) }

// Trampoline owns the static page tables built before pmm/vmm exist.
// Build fills them from the kernel's own ELF section headers; Activate
// loads them and turns paging on.
type Trampoline struct {
	pae    bool
	legacy legacyTables
	paeTbl paeTables
}

// activateHook indirects through activate so Build/Activate can be
// exercised from a host test without executing privileged
// instructions, matching kernel/gdt's flushHook.
var activateHook = activate

// Build selects PAE or the legacy format (honoring opts.NoPAE and
// opts.NoNX) and fills the static tables with an identity mapping of
// the first mappedPages physical pages, aliased again at
// vmm.KernelVirtualBase, with per-page protection taken from the
// kernel's own ELF section headers.
func (t *Trampoline) Build(info cpu.Info, opts Options) {
	t.pae = info.SupportsPAE() && !opts.NoPAE
	nxSupported := t.pae && !opts.NoNX && info.SupportsNX()

	flagsAt := func(phys uint32) vmm.Flags {
		return sectionFlagsAt(phys, nxSupported)
	}

	if t.pae {
		t.paeTbl.build(nxSupported, flagsAt)
	} else {
		t.legacy.build(flagsAt)
	}
}

// UsesPAE reports which format the last Build call selected.
func (t *Trampoline) UsesPAE() bool { return t.pae }

// Activate loads the tables Build produced and enables paging. Once it
// returns, every address Build mapped (including wherever the caller's
// own code and stack live) resolves through the new tables; nothing
// else needs to change for execution to continue.
func (t *Trampoline) Activate() {
	var tablePhys, pae uint32
	if t.pae {
		tablePhys, pae = addrOf(unsafe.Pointer(&t.paeTbl.pdpt)), 1
	} else {
		tablePhys = addrOf(unsafe.Pointer(&t.legacy.pd))
	}
	activateHook(tablePhys, pae)
}

// sectionFlagsAt returns the mapping flags for the page containing
// phys, derived from whichever kernel ELF section (if any) covers it.
// Pages outside every section (the multiboot info block, the VGA
// framebuffer) default to present+writable+no-execute: safe for data,
// since nothing legitimately executes out of them.
func sectionFlagsAt(phys uint32, nxSupported bool) vmm.Flags {
	flags := vmm.FlagPresent | vmm.FlagWritable
	if nxSupported {
		flags |= vmm.FlagNoExecute
	}

	multiboot.VisitElfSections(func(_ string, secFlags multiboot.ElfSectionFlag, addr uintptr, size uint32) {
		if secFlags&multiboot.ElfSectionAllocated == 0 {
			return
		}
		start := uint32(addr)
		if phys < start || phys >= start+size {
			return
		}

		flags = vmm.FlagPresent
		if secFlags&multiboot.ElfSectionWritable != 0 {
			flags |= vmm.FlagWritable
		}
		if nxSupported && secFlags&multiboot.ElfSectionExecutable == 0 {
			flags |= vmm.FlagNoExecute
		}
	})
	return flags
}
