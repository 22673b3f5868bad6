package sched

import "testing"

// withMockYield swaps yieldFn for fn, restoring the original after the
// test. It also saves/restores currentThread, since every blocking
// primitive reads that package global directly.
func withMockYield(t *testing.T, fn func()) {
	t.Helper()
	origYield, origThread := yieldFn, currentThread
	yieldFn = fn
	t.Cleanup(func() { yieldFn, currentThread = origYield, origThread })
}

func TestMutexUncontendedAcquireRelease(t *testing.T) {
	withMockYield(t, func() { t.Fatal("unexpected yield on an uncontended mutex") })

	m := &Mutex{}
	a := &Thread{status: StatusRunning}
	currentThread = a

	m.Acquire()
	if m.owner != a {
		t.Fatalf("expected a to own the mutex, got %v", m.owner)
	}
	if a.heldMutexes != m {
		t.Fatal("expected m linked into a's held-mutex list")
	}

	m.Release()
	if m.owner != nil {
		t.Fatal("expected no owner after release")
	}
	if a.heldMutexes != nil {
		t.Fatal("expected a's held-mutex list cleared")
	}
}

func TestMutexTryAcquireFailsWhenTaken(t *testing.T) {
	m := &Mutex{}
	a := &Thread{}
	currentThread = a
	defer func() { currentThread = nil }()

	if !m.TryAcquire() {
		t.Fatal("expected first TryAcquire to succeed")
	}

	b := &Thread{}
	currentThread = b
	if m.TryAcquire() {
		t.Fatal("expected second TryAcquire to fail while held")
	}
}

func TestMutexRecursiveAcquirePanics(t *testing.T) {
	m := &Mutex{}
	a := &Thread{}
	currentThread = a
	defer func() { currentThread = nil }()
	m.Acquire()

	defer func() {
		if recover() == nil {
			t.Fatal("expected recursive Acquire to panic")
		}
	}()
	m.Acquire()
}

func TestMutexBlockingAcquireHandsOffOnRelease(t *testing.T) {
	m := &Mutex{}
	a := &Thread{status: StatusRunning}
	currentThread = a
	m.Acquire()

	b := &Thread{status: StatusRunning}
	currentThread = b

	withMockYield(t, func() {
		// Simulate thread a releasing the mutex from its own context
		// while b is parked in Acquire's blocking loop.
		saved := currentThread
		currentThread = a
		m.Release()
		currentThread = saved
	})

	m.Acquire()
	if m.owner != b {
		t.Fatalf("expected mutex handed directly to b, got %v", m.owner)
	}
	if b.heldMutexes != m {
		t.Fatal("expected m linked into b's held-mutex list after hand-off")
	}
}

func TestMutexGrantsQueuedWaitersInFIFOOrder(t *testing.T) {
	m := &Mutex{}
	holder := &Thread{status: StatusRunning}
	currentThread = holder
	defer func() { currentThread = nil }()
	m.Acquire()

	waiters := []*Thread{
		{status: StatusBlocking}, {status: StatusBlocking},
		{status: StatusBlocking}, {status: StatusBlocking},
	}
	for _, w := range waiters {
		m.waitQueue.enqueue(w)
	}

	for i, want := range waiters {
		m.Release()
		if m.owner != want {
			t.Fatalf("release %d granted the mutex to the wrong waiter", i+1)
		}
		currentThread = want
	}
}

func TestMutexReleaseByNonOwnerPanics(t *testing.T) {
	m := &Mutex{}
	a := &Thread{}
	currentThread = a
	defer func() { currentThread = nil }()
	m.Acquire()

	b := &Thread{}
	currentThread = b
	defer func() {
		if recover() == nil {
			t.Fatal("expected release by non-owner to panic")
		}
	}()
	m.Release()
}

func TestMutexReleaseOutOfLIFOOrderPanics(t *testing.T) {
	m1, m2 := &Mutex{}, &Mutex{}
	a := &Thread{}
	currentThread = a
	defer func() { currentThread = nil }()

	m1.Acquire()
	m2.Acquire()

	defer func() {
		if recover() == nil {
			t.Fatal("expected out-of-order release to panic")
		}
	}()
	m1.Release() // m2 was acquired last; must be released first
}
