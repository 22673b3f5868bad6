package mem

import (
	"reflect"
	"unsafe"
)

// Memset fills size bytes starting at addr with value. It overlays a
// byte slice on top of the raw address and doubles the filled region
// on each pass (log2(size) copies) rather than looping byte by byte,
// which matters here since addr is frequently a full page.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := rawSlice(addr, size)
	target[0] = value
	for filled := uintptr(1); filled < size; filled *= 2 {
		copy(target[filled:], target[:filled])
	}
}

// Memcopy copies size bytes from src to dst. The two regions must not
// overlap.
func Memcopy(src, dst uintptr, size uintptr) {
	if size == 0 {
		return
	}

	copy(rawSlice(dst, size), rawSlice(src, size))
}

// rawSlice overlays a []byte on top of an arbitrary physical/virtual
// address. This bypasses the type system and is only safe because
// every caller in this package operates on memory the kernel itself
// owns (frames, page tables, pool slabs).
func rawSlice(addr, size uintptr) []byte {
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  int(size),
		Cap:  int(size),
	}))
}
