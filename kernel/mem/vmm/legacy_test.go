package vmm

import (
	"testing"

	"aasvogel/kernel/mem/pmm"
)

func testAllocator(next *pmm.Frame) tableAllocator {
	return func() pmm.Frame {
		f := *next
		*next += 1
		return f
	}
}

func TestLegacyMapThenGet(t *testing.T) {
	next := pmm.Frame(10)
	f := newLegacyFormat(pmm.InvalidFrame, true)

	const addr = 0x00401000
	frame := pmm.Frame(5)
	if !f.mapAddr(addr, frame, FlagPresent|FlagWritable, testAllocator(&next)) {
		t.Fatal("expected mapAddr to succeed")
	}

	got, flags, ok := f.get(addr)
	if !ok {
		t.Fatal("expected get to find the mapping")
	}
	if got != frame {
		t.Fatalf("expected frame %v, got %v", frame, got)
	}
	if !flags.Has(FlagPresent | FlagWritable) {
		t.Fatalf("expected Present|Writable, got %v", flags)
	}
}

func TestLegacyGetAbsentReturnsNotOk(t *testing.T) {
	f := newLegacyFormat(pmm.InvalidFrame, true)
	if _, _, ok := f.get(0x1000); ok {
		t.Fatal("expected get on unmapped address to fail")
	}
}

func TestLegacyUnmapClearsEntry(t *testing.T) {
	next := pmm.Frame(10)
	f := newLegacyFormat(pmm.InvalidFrame, true)
	const addr = 0x500000
	f.mapAddr(addr, pmm.Frame(7), FlagPresent, testAllocator(&next))

	f.unmapAddr(addr)
	if _, _, ok := f.get(addr); ok {
		t.Fatal("expected unmap to clear the mapping")
	}
}

func TestLegacyCloneKernelEntries(t *testing.T) {
	next := pmm.Frame(10)
	src := newLegacyFormat(pmm.InvalidFrame, true)
	kernelAddr := uintptr(KernelVirtualBase + 0x1000)
	src.mapAddr(kernelAddr, pmm.Frame(42), FlagPresent|FlagWritable, testAllocator(&next))

	dst := newLegacyFormat(pmm.InvalidFrame, true)
	src.cloneKernelEntries(dst)

	got, _, ok := dst.get(kernelAddr)
	if !ok || got != pmm.Frame(42) {
		t.Fatalf("expected cloned kernel mapping, got frame=%v ok=%v", got, ok)
	}
}

func TestLegacyReleaseUserTablesSparesKernelRange(t *testing.T) {
	next := pmm.Frame(10)
	f := newLegacyFormat(pmm.InvalidFrame, true)
	userAddr := uintptr(0x400000)
	kernelAddr := uintptr(KernelVirtualBase + 0x2000)
	f.mapAddr(userAddr, pmm.Frame(1), FlagPresent, testAllocator(&next))
	f.mapAddr(kernelAddr, pmm.Frame(2), FlagPresent, testAllocator(&next))

	var freed []pmm.Frame
	f.releaseUserTables(func(fr pmm.Frame) { freed = append(freed, fr) })

	if _, _, ok := f.get(userAddr); ok {
		t.Fatal("expected user mapping to be released")
	}
	if _, _, ok := f.get(kernelAddr); !ok {
		t.Fatal("expected kernel mapping to survive releaseUserTables")
	}
	if len(freed) == 0 {
		t.Fatal("expected at least one page-table frame to be freed")
	}
}

func TestLegacyEntryFlagRoundTrip(t *testing.T) {
	frame := pmm.Frame(0x123)
	want := FlagPresent | FlagWritable | FlagUser | FlagGlobal
	e := encodeLegacyEntry(frame, want, true)

	if e.frame() != frame {
		t.Fatalf("expected frame round trip, got %v", e.frame())
	}
	if got := e.flags(); got != want {
		t.Fatalf("expected flags %v, got %v", want, got)
	}
}

func TestLegacyEntryGlobalDroppedWithoutPGE(t *testing.T) {
	e := encodeLegacyEntry(pmm.Frame(1), FlagPresent|FlagGlobal, false)
	if e.flags().Has(FlagGlobal) {
		t.Fatal("expected Global to be dropped when PGE is unsupported")
	}
}
