package gdt

import "testing"

func TestEncodeEntryPacksLimitAndBase(t *testing.T) {
	e := encodeEntry(0x12345678, 0xabcde, 0x9a, 0xc)

	if e.baseLow != 0x5678 || e.baseMid != 0x34 || e.baseHigh != 0x12 {
		t.Fatalf("base not packed correctly: %+v", e)
	}
	if e.limitLow != 0xbcde {
		t.Fatalf("limit low not packed correctly: %#x", e.limitLow)
	}
	if e.access != 0x9a {
		t.Fatalf("access byte not preserved: %#x", e.access)
	}
	if e.limitHigh&0xf != 0xa {
		t.Fatalf("limit high nibble wrong: %#x", e.limitHigh&0xf)
	}
	if e.limitHigh>>4 != 0xc {
		t.Fatalf("flags nibble wrong: %#x", e.limitHigh>>4)
	}
}

func TestEncodeEntryZeroBaseAndLimit(t *testing.T) {
	e := encodeEntry(0, 0, 0, 0)
	if e != (entry{}) {
		t.Fatalf("expected all-zero entry, got %+v", e)
	}
}

func TestSelectorsMatchFixedLayout(t *testing.T) {
	if KernelCode != 0x08 {
		t.Fatalf("KernelCode = %#x, want 0x08", KernelCode)
	}
	if KernelData != 0x10 {
		t.Fatalf("KernelData = %#x, want 0x10", KernelData)
	}
	if UserCode != 0x1b {
		t.Fatalf("UserCode = %#x, want 0x1b", UserCode)
	}
	if UserData != 0x23 {
		t.Fatalf("UserData = %#x, want 0x23", UserData)
	}
}

func TestInitBuildsFlatDescriptorsAndSetsKernelStack(t *testing.T) {
	origFlush, origLoadTSS := flushHook, loadTSSHook
	var flushedPtr *pointer
	var loadedSelector uint16
	flushHook = func(p *pointer) { flushedPtr = p }
	loadTSSHook = func(sel uint16) { loadedSelector = sel }
	t.Cleanup(func() { flushHook, loadTSSHook = origFlush, origLoadTSS })

	Init(0xdeadbeef)

	if table.esp0 != 0xdeadbeef {
		t.Fatalf("esp0 = %#x, want 0xdeadbeef", table.esp0)
	}
	if table.ss0 != KernelData {
		t.Fatalf("ss0 = %#x, want KernelData", table.ss0)
	}
	if entries[1].access != accessPresent|accessCodeData|accessExec|accessReadWrite {
		t.Fatalf("kernel code access byte wrong: %#x", entries[1].access)
	}
	if entries[3].access&accessDPL3 == 0 {
		t.Fatalf("user code entry missing DPL3: %#x", entries[3].access)
	}
	if flushedPtr == nil || flushedPtr.limit != numEntries*8-1 {
		t.Fatalf("flush not called with expected pointer: %+v", flushedPtr)
	}
	if loadedSelector != tssSelector {
		t.Fatalf("loadTSS selector = %#x, want %#x", loadedSelector, tssSelector)
	}
}

func TestSetKernelStackUpdatesEsp0Only(t *testing.T) {
	table = tss{ss0: KernelData, esp0: 1}
	SetKernelStack(2)
	if table.esp0 != 2 {
		t.Fatalf("esp0 = %d, want 2", table.esp0)
	}
	if table.ss0 != KernelData {
		t.Fatal("ss0 should be untouched by SetKernelStack")
	}
}
