package goruntime

import (
	"testing"
	"unsafe"

	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/mem/vmm"
)

func mockHooks(t *testing.T, reserve func(int) (uintptr, bool), mapPage func(uintptr, pmm.Frame, vmm.Flags) bool, frames func() pmm.Frame) {
	t.Helper()
	origReserve, origMap, origFrames := reserveFn, mapFn, frameAllocFn
	origInit := initDone
	t.Cleanup(func() {
		reserveFn, mapFn, frameAllocFn = origReserve, origMap, origFrames
		initDone = origInit
	})
	reserveFn, mapFn, frameAllocFn = reserve, mapPage, frames
	initDone = true
}

func TestSysReserveRoundsUpToPages(t *testing.T) {
	var gotPages int
	mockHooks(t,
		func(pages int) (uintptr, bool) { gotPages = pages; return 0x400000, true },
		func(uintptr, pmm.Frame, vmm.Flags) bool { t.Fatal("reserve must not map"); return false },
		func() pmm.Frame { t.Fatal("reserve must not allocate frames"); return pmm.InvalidFrame },
	)

	got := sysReserve(nil, uintptr(mem.PageSize)+1)
	if uintptr(got) != 0x400000 {
		t.Fatalf("got %#x, want the reserved base", uintptr(got))
	}
	if gotPages != 2 {
		t.Fatalf("reserved %d pages, want 2", gotPages)
	}
}

func TestSysAllocBacksEveryPage(t *testing.T) {
	var mapped []uintptr
	next := pmm.Frame(100)
	mockHooks(t,
		func(pages int) (uintptr, bool) { return 0x400000, true },
		func(addr uintptr, frame pmm.Frame, flags vmm.Flags) bool {
			if flags&vmm.FlagNoExecute == 0 {
				t.Fatal("runtime heap pages must be non-executable")
			}
			mapped = append(mapped, addr)
			return true
		},
		func() pmm.Frame { f := next; next++; return f },
	)

	got := sysAlloc(3*uintptr(mem.PageSize), nil)
	if uintptr(got) != 0x400000 {
		t.Fatalf("got %#x, want the reserved base", uintptr(got))
	}
	want := []uintptr{0x400000, 0x400000 + uintptr(mem.PageSize), 0x400000 + 2*uintptr(mem.PageSize)}
	if len(mapped) != len(want) {
		t.Fatalf("mapped %d pages, want %d", len(mapped), len(want))
	}
	for i := range want {
		if mapped[i] != want[i] {
			t.Fatalf("page %d mapped at %#x, want %#x", i, mapped[i], want[i])
		}
	}
}

func TestSysAllocFailsWhenFramesRunOut(t *testing.T) {
	mockHooks(t,
		func(pages int) (uintptr, bool) { return 0x400000, true },
		func(uintptr, pmm.Frame, vmm.Flags) bool { return true },
		func() pmm.Frame { return pmm.InvalidFrame },
	)

	if got := sysAlloc(uintptr(mem.PageSize), nil); unsafe.Pointer(uintptr(0)) != got {
		t.Fatal("expected a nil result when no frame is available")
	}
}

func TestSysMapAccountsSysStat(t *testing.T) {
	mockHooks(t,
		func(pages int) (uintptr, bool) { return 0x400000, true },
		func(uintptr, pmm.Frame, vmm.Flags) bool { return true },
		func() pmm.Frame { return pmm.Frame(7) },
	)

	var stat uint64
	sysMap(unsafe.Pointer(uintptr(0x400000)), 2*uintptr(mem.PageSize), &stat)
	if stat != 2*uint64(mem.PageSize) {
		t.Fatalf("sysStat = %d, want %d", stat, 2*uint64(mem.PageSize))
	}
}
