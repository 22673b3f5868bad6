package sched

import (
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/irq"
)

// SwitchThread switches execution to next, which must be StatusReady.
// f and r are the live interrupt frame/registers the caller (the PIT
// tick handler or the yield handler) is about to IRET through; they
// are overwritten in place with next's saved state.
//
// The registersDirty flag is set while a thread's snapshot is stale
// (the thread is running, or a remote CPU is mid-save) and cleared
// once the snapshot is valid. On a single CPU the spin below never
// iterates, but it is what makes this path correct once a second CPU
// can be preempting next at the same moment.
func SwitchThread(next *Thread, f *irq.Frame, r *irq.Registers) {
	if next == currentThread {
		// Round-robin handed us back the thread that voluntarily
		// re-enqueued itself (Sleep(0)); there is nothing to switch.
		next.status = StatusRunning
		return
	}
	if next.status != StatusReady {
		panic("sched: SwitchThread target is not ready")
	}

	saveCurrent(f, r)

	if next.process != nil {
		currentProcess = next.process
	}
	currentThread = next

	for next.registersDirty {
		cpu.Pause()
	}
	next.status = StatusRunning
	flags := next.registersLock.Acquire()
	next.registersDirty = true
	next.registersLock.Release(flags)
	loadFrame(next, f, r)
}

// saveCurrent records the outgoing thread's context into its own
// snapshot and clears its dirty flag. A thread that is still
// StatusRunning got here by preemption and goes back on its process's
// run queue; one that already parked itself somewhere (Blocking on a
// wait queue, Sleeping on the sleep queue, or re-enqueued by Sleep(0))
// keeps the state its caller set. Dead threads have nothing worth
// saving.
func saveCurrent(f *irq.Frame, r *irq.Registers) {
	old := currentThread
	if old == nil || old.status == StatusDead {
		return
	}

	saveFrame(old, f, r)
	flags := old.registersLock.Acquire()
	old.registersDirty = false
	old.registersLock.Release(flags)

	if old.status == StatusRunning {
		old.status = StatusReady
		if old.process != nil {
			qflags := old.process.threadRunQueue.lock.Acquire()
			old.process.threadRunQueue.enqueue(old)
			old.process.threadRunQueue.lock.Release(qflags)
		}
	}
}

// switchIdle parks the CPU on the idle thread. currentThread becomes
// nil rather than idleThread: the idle thread is not schedulable state,
// and a nil current tells the next tick to go straight back into
// SwitchAny. The idle snapshot is never saved, so every entry restarts
// idle() from the top of its own stack.
func switchIdle(f *irq.Frame, r *irq.Registers) {
	saveCurrent(f, r)
	currentThread = nil
	loadFrame(idleThread, f, r)
}

// SwitchAny round-robins the process run queue looking for a ready
// thread, falling back to the idle thread if every process's run
// queue is empty.
func SwitchAny(f *irq.Frame, r *irq.Registers) {
	var start *Process

	for {
		flags := processRunQueue.lock.Acquire()
		proc := processRunQueue.dequeue()
		if proc != nil {
			processRunQueue.enqueue(proc)
		}
		processRunQueue.lock.Release(flags)

		if proc == nil {
			break
		}
		if start == nil {
			start = proc
		} else if proc == start {
			break
		}

		tflags := proc.threadRunQueue.lock.Acquire()
		next := proc.threadRunQueue.dequeue()
		proc.threadRunQueue.lock.Release(tflags)

		if next != nil {
			SwitchThread(next, f, r)
			ticksUntilPreempt = ticksBeforePreempt
			return
		}
	}

	switchIdle(f, r)
	ticksUntilPreempt = 1
}

func saveFrame(t *Thread, f *irq.Frame, r *irq.Registers) {
	flags := t.registersLock.Acquire()
	t.registers = savedRegisters{
		EAX: r.EAX, EBX: r.EBX, ECX: r.ECX, EDX: r.EDX,
		ESI: r.ESI, EDI: r.EDI,
		DS: r.DS, ES: r.ES, FS: r.FS, GS: r.GS,
		EIP: f.EIP, CS: f.CS, EFlags: f.EFlags, ESP: f.ESP, SS: f.SS,
	}
	t.registersLock.Release(flags)
}

func loadFrame(t *Thread, f *irq.Frame, r *irq.Registers) {
	flags := t.registersLock.Acquire()
	sr := t.registers
	t.registersLock.Release(flags)

	r.EAX, r.EBX, r.ECX, r.EDX = sr.EAX, sr.EBX, sr.ECX, sr.EDX
	r.ESI, r.EDI = sr.ESI, sr.EDI
	r.DS, r.ES, r.FS, r.GS = sr.DS, sr.ES, sr.FS, sr.GS
	f.EIP, f.CS, f.EFlags, f.ESP, f.SS = sr.EIP, sr.CS, sr.EFlags, sr.ESP, sr.SS
}

// yieldFn indirects through raiseContextSwitch so the blocking
// primitives (Mutex, Semaphore, CondVar, RWLock) can be exercised from
// host tests without executing a real software interrupt.
var yieldFn = raiseContextSwitch

// Yield raises the context-switch software interrupt, handing control
// back to SwitchAny at the next opportunity.
func Yield() {
	yieldFn()
}

func yieldHandler(f *irq.Frame, r *irq.Registers) {
	SwitchAny(f, r)
}

func pitTickHandler(f *irq.Frame, r *irq.Registers) {
	ticks++

	for {
		flags := sleepQueue.lock.Acquire()
		t := sleepQueue.first
		if t == nil || t.sleepUntil > ticks {
			sleepQueue.lock.Release(flags)
			break
		}
		sleepQueue.dequeue()
		sleepQueue.lock.Release(flags)

		t.status = StatusReady
		if t.process != nil {
			tflags := t.process.threadRunQueue.lock.Acquire()
			t.process.threadRunQueue.enqueue(t)
			t.process.threadRunQueue.lock.Release(tflags)
		}
	}

	// The CPU is idling; don't wait out a preempt window that no
	// running thread is consuming.
	if currentThread == nil {
		SwitchAny(f, r)
		return
	}

	if ticksUntilPreempt > 0 {
		ticksUntilPreempt--
	}
	if ticksUntilPreempt == 0 {
		SwitchAny(f, r)
	}
}

// Ticks reports the number of PIT ticks since boot.
func Ticks() uint64 {
	return ticks
}

// Sleep blocks the current thread for ms milliseconds rounded down to
// whole PIT ticks (millisecondsPerTick each). A duration under one tick
// still yields once, without ever touching the sleep queue.
func Sleep(ms uint64) {
	nticks := ms / millisecondsPerTick
	if nticks == 0 {
		t := currentThread
		t.status = StatusReady
		if t.process != nil {
			flags := t.process.threadRunQueue.lock.Acquire()
			t.process.threadRunQueue.enqueue(t)
			t.process.threadRunQueue.lock.Release(flags)
		}
		Yield()
		return
	}

	t := currentThread
	t.status = StatusSleeping
	t.sleepUntil = ticks + nticks

	flags := sleepQueue.lock.Acquire()
	insertSleepSorted(t)
	sleepQueue.lock.Release(flags)

	Yield()
}

// insertSleepSorted inserts t into sleepQueue ordered by sleepUntil
// ascending, so pitTickHandler only ever needs to look at the head.
func insertSleepSorted(t *Thread) {
	if sleepQueue.first == nil || sleepQueue.first.sleepUntil >= t.sleepUntil {
		t.nextInQueue = sleepQueue.first
		sleepQueue.first = t
		if sleepQueue.last == nil {
			sleepQueue.last = t
		}
		t.inQueue = &sleepQueue
		return
	}
	cur := sleepQueue.first
	for cur.nextInQueue != nil && cur.nextInQueue.sleepUntil < t.sleepUntil {
		cur = cur.nextInQueue
	}
	t.nextInQueue = cur.nextInQueue
	cur.nextInQueue = t
	if cur == sleepQueue.last {
		sleepQueue.last = t
	}
	t.inQueue = &sleepQueue
}
