package pmm

import "testing"

// resetPools wipes all package-level pool state so tests don't see
// frames left behind by other tests, and restores it afterwards.
func resetPools(t *testing.T) {
	t.Helper()
	origLow, origNormal, origHigh := lowPool, normalPool, highPool
	origHighEnabled := highPoolEnabled
	origWait := waitForFrameFn

	lowPool = pool{}
	normalPool = pool{}
	highPool = pool{}
	highPoolEnabled = false
	waitForFrameFn = nil

	t.Cleanup(func() {
		lowPool, normalPool, highPool = origLow, origNormal, origHigh
		highPoolEnabled = origHighEnabled
		waitForFrameFn = origWait
	})
}

func TestAllocFreeRoundTrip(t *testing.T) {
	resetPools(t)

	const base = Frame(1000) // well above the low-pool ceiling
	for i := Frame(0); i < 1200; i++ {
		addFree(base + i)
	}
	before := FreeCount()

	const n = 1000
	frames := make([]Frame, n)
	for i := range frames {
		frames[i] = Alloc(0)
		if !frames[i].Valid() {
			t.Fatalf("unexpected allocation failure at %d (free was %d)", i, before)
		}
	}
	for _, f := range frames {
		Free(f)
	}

	if got := FreeCount(); got != before {
		t.Fatalf("expected free count to return to %d, got %d", before, got)
	}
}

func TestAllocExhaustionReturnsInvalidFrame(t *testing.T) {
	resetPools(t)
	// A sub-1MiB frame lands in the low pool, which keeps no emergency
	// reserve, so the single frame is immediately allocatable.
	addFree(Frame(0x10))

	f := Alloc(0)
	if !f.Valid() {
		t.Fatal("expected first allocation to succeed")
	}
	if got := Alloc(0); got.Valid() {
		t.Fatalf("expected exhausted pool to return InvalidFrame, got %v", got)
	}
}

func TestAllocEmergencyReserve(t *testing.T) {
	resetPools(t)
	// First emergencyReserve frames added to the normal pool become the
	// reserve; the pool's regular stack stays empty.
	for i := 0; i < emergencyReserve; i++ {
		addFree(Frame(0x200 + uintptr(i)))
	}
	if normalPool.free != 0 {
		t.Fatalf("expected regular stack to stay empty, free=%d", normalPool.free)
	}

	if got := Alloc(0); got.Valid() {
		t.Fatalf("expected non-emergency alloc to fail when only reserve is populated, got %v", got)
	}

	got := Alloc(FlagEmergency)
	if !got.Valid() {
		t.Fatal("expected FlagEmergency alloc to succeed")
	}
}

func TestAllocWaitRetriesUntilFreed(t *testing.T) {
	resetPools(t)
	addFree(Frame(0x20)) // low pool: no emergency reserve in the way
	first := Alloc(0)
	if !first.Valid() {
		t.Fatal("expected first alloc to succeed")
	}

	waited := false
	SetWaitForFrame(func() {
		if !waited {
			waited = true
			Free(first)
		}
	})

	got := Alloc(FlagWait)
	if !got.Valid() {
		t.Fatal("expected FlagWait alloc to eventually succeed")
	}
	if !waited {
		t.Fatal("expected waitForFrameFn to be invoked")
	}
}

func TestHighPoolSkippedWhenDisabled(t *testing.T) {
	resetPools(t)
	highPoolEnabled = false
	highFrame := FrameFromAddress(highPoolFloor)
	addFree(highFrame)

	if got := Alloc(0); got.Valid() {
		t.Fatalf("expected high-pool frame to be unreachable without PAE, got %v", got)
	}
}
