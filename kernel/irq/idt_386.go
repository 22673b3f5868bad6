package irq

import "unsafe"

// idtFlush loads IDTR from ptr (LIDT), implemented in idt_386.s.
func idtFlush(ptr *idtPointer)

// stubTableAddr returns the address of the assembly-side table mapping
// each vector number to its generated entry stub. The table lives in
// idt_386.s so its entries can name the stub symbols directly.
func stubTableAddr() uintptr

func stubAddr(n int) uint32 {
	tbl := (*[numEntries]uint32)(unsafe.Pointer(stubTableAddr()))
	return tbl[n]
}
