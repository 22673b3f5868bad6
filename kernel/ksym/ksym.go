// Package ksym resolves a runtime address to the kernel symbol that
// contains it and walks the stack frame-pointer chain, the two pieces
// the panic path and the page-fault handler need to print
// "name+0xoffset" and a stack trace instead of bare hex numbers.
package ksym

import "aasvogel/kernel/hal/multiboot"

type symbol struct {
	name    string
	address uintptr
	size    uint32
}

// maxSymbols bounds the static table: symbols beyond this count are
// dropped from Resolve, never from the crash message itself, which
// always has the bare address to fall back on.
const maxSymbols = 4096

var (
	symbols    [maxSymbols]symbol
	numSymbols int
)

// Load populates the symbol table from the bootloader-supplied ELF
// section headers. It must run once, after multiboot.SetInfoPtr and
// before any panic path can resolve names.
func Load() {
	numSymbols = 0
	multiboot.VisitElfSymbols(func(name string, value uintptr, size uint32, isFunc bool) {
		if numSymbols >= maxSymbols {
			return
		}
		symbols[numSymbols] = symbol{name: name, address: value, size: size}
		numSymbols++
	})
}

// Resolve finds the symbol containing addr and returns its name and
// the offset of addr within it. ok is false if no symbol covers addr.
func Resolve(addr uintptr) (name string, offset uint32, ok bool) {
	return lookup(addr, false)
}

// ResolveReturn behaves like Resolve but treats addr as a return
// address: a symbol matches when addr falls in (start, start+size]
// rather than [start, start+size), since a return address points just
// past the call instruction and may land exactly on the boundary of
// the following symbol.
func ResolveReturn(addr uintptr) (name string, offset uint32, ok bool) {
	return lookup(addr, true)
}

func lookup(addr uintptr, isReturn bool) (string, uint32, bool) {
	for i := 0; i < numSymbols; i++ {
		s := &symbols[i]
		if s.size == 0 {
			continue
		}
		var match bool
		if isReturn {
			match = addr > s.address && addr <= s.address+uintptr(s.size)
		} else {
			match = addr >= s.address && addr < s.address+uintptr(s.size)
		}
		if match {
			return s.name, uint32(addr - s.address), true
		}
	}
	return "", 0, false
}
