package ksym

import "unsafe"

// maxStackDepth bounds StackTrace: a corrupted frame-pointer chain
// has no other way to know when to stop.
const maxStackDepth = 32

// StackTrace walks the EBP frame-pointer chain starting at ebp,
// invoking visit once per return address, until it walks off the
// stack (a zero return address), loops or goes backwards (a saved EBP
// that doesn't advance), or reaches maxStackDepth. It has no way to
// tell a valid frame from garbage.
func StackTrace(ebp uint32, visit func(pc uint32)) {
	for i := 0; i < maxStackDepth && ebp != 0; i++ {
		savedEBP := *(*uint32)(unsafe.Pointer(uintptr(ebp)))
		retAddr := *(*uint32)(unsafe.Pointer(uintptr(ebp + 4)))
		if retAddr == 0 {
			return
		}
		visit(retAddr)
		if savedEBP <= ebp {
			return
		}
		ebp = savedEBP
	}
}
