package sched

import "testing"

func TestSemaphoreTryWait(t *testing.T) {
	s := NewSemaphore(1)
	if !s.TryWait() {
		t.Fatal("expected TryWait to succeed with slack available")
	}
	if s.TryWait() {
		t.Fatal("expected TryWait to fail once exhausted")
	}
}

func TestSemaphoreWaitUncontended(t *testing.T) {
	withMockYield(t, func() { t.Fatal("unexpected yield with slack available") })
	s := NewSemaphore(2)
	s.Wait()
	if s.value != 1 {
		t.Fatalf("value = %d, want 1", s.value)
	}
}

func TestSemaphoreWaitBlocksAndEnqueues(t *testing.T) {
	s := NewSemaphore(0)
	a := &Thread{status: StatusRunning}
	currentThread = a
	defer func() { currentThread = nil }()

	yielded := false
	withMockYield(t, func() { yielded = true })

	s.Wait()
	if s.value != -1 {
		t.Fatalf("value = %d, want -1", s.value)
	}
	if !yielded {
		t.Fatal("expected Wait to yield when no slack is available")
	}
	if a.status != StatusBlocking {
		t.Fatalf("status = %v, want StatusBlocking", a.status)
	}
}

func TestSemaphoreSignalWakesOneWaiter(t *testing.T) {
	s := &Semaphore{value: -1}
	a := &Thread{status: StatusBlocking}
	s.waitQueue.enqueue(a)

	s.Signal()
	if s.value != 0 {
		t.Fatalf("value = %d, want 0", s.value)
	}
	if a.status != StatusReady {
		t.Fatalf("expected a woken to StatusReady, got %v", a.status)
	}
}

func TestSemaphoreSignalWithNoWaitersJustIncrements(t *testing.T) {
	s := &Semaphore{value: 3}
	s.Signal()
	if s.value != 4 {
		t.Fatalf("value = %d, want 4", s.value)
	}
}
