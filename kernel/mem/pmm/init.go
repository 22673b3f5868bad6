package pmm

import (
	"aasvogel/kernel/hal/multiboot"
	"aasvogel/kernel/kfmt"
	"aasvogel/kernel/mem"
)

// Init walks the bootloader memory map and pushes every available
// frame not already consumed by the boot allocator into the
// appropriate pool (low/normal/high, the last only when paeEnabled).
// It must run after InitBoot and after every BootAlloc call the boot
// sequence is going to make, since frames already handed out must be
// excluded.
func Init(paeEnabled bool) {
	SetHighPoolEnabled(paeEnabled)
	lastBootFrame, bootHasRun := bootConsumedUpTo()

	multiboot.VisitMemRegions(func(region *multiboot.MemoryMapEntry) bool {
		if region.Type != multiboot.MemAvailable {
			return true
		}

		pageMask := uint64(mem.PageSize - 1)
		start := Frame(((region.PhysAddress + pageMask) &^ pageMask) >> mem.PageShift)
		if region.Length < uint64(mem.PageSize) {
			return true
		}
		end := Frame(((region.PhysAddress+region.Length)&^pageMask)>>mem.PageShift) - 1

		for f := start; f <= end; f++ {
			if f >= boot.kernelStart && f <= boot.kernelEnd {
				continue
			}
			if bootHasRun && f <= lastBootFrame && f >= start {
				continue
			}
			if !highPoolEnabled && f.Address() >= highPoolFloor {
				continue
			}
			addFree(f)
		}
		return true
	})

	kfmt.Printf("[pmm] frames: low=%d normal=%d high=%d (total=%d, free=%d)\n",
		lowPool.total, normalPool.total, highPool.total,
		lowPool.total+normalPool.total+highPool.total,
		FreeCount())
}
