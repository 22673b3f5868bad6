package pmm

import (
	"aasvogel/kernel/hal/multiboot"
	"aasvogel/kernel/kfmt"
	"aasvogel/kernel/mem"
)

// bootAllocator is a rudimentary bump allocator used to reserve frames
// before Init populates the permanent pools: it walks the
// bootloader-reported memory map and
// hands out the next unused frame, skipping the range occupied by the
// kernel image itself. It cannot free; once Init runs, every frame it
// handed out is excluded from the permanent pools by way of
// lastAllocFrame tracking the boot-time high-water mark.
type bootAllocator struct {
	lastAllocFrame  Frame
	haveAllocated   bool
	kernelStart     Frame
	kernelEnd       Frame
	kernelStartAddr uintptr
	kernelEndAddr   uintptr
}

var boot bootAllocator

// InitBoot records the kernel image's physical extent so the boot
// allocator (and later Init) can skip over it.
func InitBoot(kernelStart, kernelEnd uintptr) {
	pageMask := uintptr(mem.PageSize - 1)
	boot.kernelStartAddr = kernelStart
	boot.kernelEndAddr = kernelEnd
	boot.kernelStart = Frame((kernelStart &^ pageMask) >> mem.PageShift)
	boot.kernelEnd = Frame(((kernelEnd+pageMask)&^pageMask)>>mem.PageShift) - 1
}

// BootAlloc reserves the next available frame using the boot-time bump
// allocator. Used only before Init brings up the permanent pools (e.g.
// for the legacy/PAE boot page tables themselves).
func BootAlloc() Frame {
	var found Frame = InvalidFrame

	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		if region.Type != multiboot.MemAvailable || region.Length < uint64(mem.PageSize) {
			return true
		}

		pageMask := uint64(mem.PageSize - 1)
		regionStart := Frame(((region.PhysAddress + pageMask) &^ pageMask) >> mem.PageShift)
		regionEnd := Frame(((region.PhysAddress+region.Length)&^pageMask)>>mem.PageShift) - 1

		if boot.haveAllocated && boot.lastAllocFrame >= regionEnd {
			return true
		}

		switch {
		case (boot.lastAllocFrame <= regionStart && boot.kernelStart == regionStart) ||
			(boot.haveAllocated && boot.lastAllocFrame <= regionEnd && boot.lastAllocFrame+1 == boot.kernelStart):
			boot.lastAllocFrame = boot.kernelEnd + 1
		case !boot.haveAllocated || boot.lastAllocFrame < regionStart:
			boot.lastAllocFrame = regionStart
		default:
			boot.lastAllocFrame++
		}

		if boot.lastAllocFrame > regionEnd {
			return true
		}

		found = boot.lastAllocFrame
		return false
	})

	if found.Valid() {
		boot.haveAllocated = true
	}
	return found
}

// bootConsumedUpTo reports the boot allocator's high-water mark so
// Init knows which frames were already handed out during boot.
func bootConsumedUpTo() (Frame, bool) {
	return boot.lastAllocFrame, boot.haveAllocated
}

// LogMemoryMap prints the bootloader-reported memory map and a summary
// of the kernel image's footprint.
func LogMemoryMap() {
	kfmt.Printf("[pmm] system memory map:\n")
	var total mem.Size
	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		kfmt.Printf("  [0x%x - 0x%x) size=%d type=%s\n", region.PhysAddress, region.PhysAddress+region.Length, region.Length, region.Type.String())
		if region.Type == multiboot.MemAvailable {
			total += mem.Size(region.Length)
		}
		return true
	})
	kfmt.Printf("[pmm] available memory: %dKb\n", uint64(total/mem.Kb))
	kfmt.Printf("[pmm] kernel image: 0x%x - 0x%x\n", boot.kernelStartAddr, boot.kernelEndAddr)
}
