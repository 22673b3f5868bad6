package boot

// activate loads CR3 with tablePhysAddr, optionally sets CR4.PAE when
// enablePAE is nonzero, then sets CR0.PG, turning paging on. The very
// next instruction fetch after CR0.PG resolves through the new
// tables, which Build always arranges to cover the caller's own
// code and stack, so no far jump to a new address is needed; the
// near JMP that follows only discards instructions prefetched before
// the switch.
func activate(tablePhysAddr uint32, enablePAE uint32)
