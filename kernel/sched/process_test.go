package sched

import "testing"

func resetProcessState(t *testing.T) {
	t.Helper()
	resetSchedState(t)
	origFirst, origNext := firstProcess, nextPID
	t.Cleanup(func() {
		firstProcess, nextPID = origFirst, origNext
	})
	firstProcess = nil
	processRunQueue = ProcessQueue{}
}

func TestAllocInitProcessLinksAndEnqueues(t *testing.T) {
	resetProcessState(t)

	p := allocInitProcess("a")
	q := allocInitProcess("b")

	if firstProcess != q || q.next != p {
		t.Fatal("expected the process list to be newest-first")
	}
	if processRunQueue.first != p || processRunQueue.last != q {
		t.Fatal("expected both processes FIFO-ordered on the run queue")
	}
	if q.PID != p.PID+1 {
		t.Fatalf("expected monotonically increasing PIDs, got %d then %d", p.PID, q.PID)
	}
}

func TestFindProcess(t *testing.T) {
	resetProcessState(t)

	p := allocInitProcess("target")
	allocInitProcess("other")

	if FindProcess(p.PID) != p {
		t.Fatal("expected FindProcess to locate the process by pid")
	}
	if FindProcess(p.PID+100) != nil {
		t.Fatal("expected FindProcess to miss an unknown pid")
	}
}

func TestProcessDestroyUnlinksEverything(t *testing.T) {
	resetProcessState(t)

	keeper := allocInitProcess("keeper")
	doomed := allocInitProcess("doomed")

	t1 := allocInitThread(doomed)
	t2 := allocInitThread(doomed)

	ProcessDestroy(doomed)

	if t1.status != StatusDead || t2.status != StatusDead {
		t.Fatal("expected every thread of the destroyed process dead")
	}
	if doomed.firstThread != nil {
		t.Fatal("expected the thread list emptied")
	}
	if doomed.inQueue != nil {
		t.Fatal("expected the process off the run queue")
	}
	if firstProcess != keeper || keeper.next != nil {
		t.Fatal("expected only the surviving process on the global list")
	}
	if FindProcess(doomed.PID) != nil {
		t.Fatal("expected the destroyed process unfindable")
	}

	// The run queue must still round-robin cleanly over the survivor.
	flags := processRunQueue.lock.Acquire()
	got := processRunQueue.dequeue()
	processRunQueue.lock.Release(flags)
	if got != keeper {
		t.Fatal("expected the surviving process still schedulable")
	}
}

func TestProcessDestroyOfCurrentProcessPanics(t *testing.T) {
	resetProcessState(t)

	p := allocInitProcess("self")
	currentProcess = p

	defer func() {
		if recover() == nil {
			t.Fatal("expected destroying the current process to panic")
		}
	}()
	ProcessDestroy(p)
}

func TestProcessDestroyOfKernelProcessPanics(t *testing.T) {
	resetProcessState(t)
	nextPID = 0

	kern := allocInitProcess("kernel")

	defer func() {
		if recover() == nil {
			t.Fatal("expected destroying the kernel process to panic")
		}
	}()
	ProcessDestroy(kern)
}

func TestThreadEndMarksCallerDead(t *testing.T) {
	resetProcessState(t)

	a := &Thread{status: StatusRunning}
	currentThread = a

	// ThreadEnd loops on Yield forever; bail out of the mock once the
	// status change has been observed.
	type bail struct{}
	withMockYield(t, func() { panic(bail{}) })

	defer func() {
		if _, ok := recover().(bail); !ok {
			t.Fatal("expected ThreadEnd to yield after marking the caller dead")
		}
		if a.status != StatusDead {
			t.Fatalf("status = %v, want StatusDead", a.status)
		}
	}()
	ThreadEnd()
}
