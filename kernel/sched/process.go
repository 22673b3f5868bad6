package sched

import (
	"sync/atomic"

	"aasvogel/kernel/mem/vmm"
	"aasvogel/kernel/sync"
)

// Process groups one or more threads that share an address space. The
// kernel process (pid 0) is created by Init and owns every kernel
// thread, including the idle thread's siblings once user processes
// exist.
//
// Process and Thread are ordinary Go-heap values reached through plain
// pointers rather than kernel/mem/pool blocks: their intrusive
// next/queue pointers must stay visible to the garbage collector, the
// same reasoning that keeps kernel/mem/vreg's region records off the
// pool allocator.
type Process struct {
	lock sync.Spinlock

	PID          uint64
	Name         string
	AddressSpace *vmm.AddressSpace

	nextTID        uint64
	firstThread    *Thread
	threadRunQueue ThreadQueue

	inQueue     *ProcessQueue
	nextInQueue *Process
	next        *Process
}

var (
	nextPID         uint64
	firstProcessMu  sync.Spinlock
	firstProcess    *Process
	processRunQueue ProcessQueue
)

// allocInitProcess allocates a process, assigns it the next PID, links
// it into the global process list, and enqueues it on the run queue.
func allocInitProcess(name string) *Process {
	p := &Process{
		PID:  atomic.AddUint64(&nextPID, 1) - 1,
		Name: name,
	}

	flags := firstProcessMu.Acquire()
	p.next = firstProcess
	firstProcess = p
	firstProcessMu.Release(flags)

	flags = processRunQueue.lock.Acquire()
	processRunQueue.enqueue(p)
	processRunQueue.lock.Release(flags)

	return p
}

// FindProcess searches the global process list for pid.
func FindProcess(pid uint64) *Process {
	flags := firstProcessMu.Acquire()
	defer firstProcessMu.Release(flags)
	for p := firstProcess; p != nil; p = p.next {
		if p.PID == pid {
			return p
		}
	}
	return nil
}

// ProcessCreate allocates a new process with its own address space. It
// does not create an initial thread; callers follow up with
// ThreadCreate.
func ProcessCreate(name string, as *vmm.AddressSpace) *Process {
	p := allocInitProcess(name)
	p.AddressSpace = as
	return p
}

// ProcessDestroy tears down p: every remaining thread is destroyed, p
// is pulled off the run queue and the global process list, and its
// address-space reference is dropped. Destroying the process that owns
// the calling thread is fatal, as is destroying the kernel process.
func ProcessDestroy(p *Process) {
	if p == currentProcess {
		panic("sched: ProcessDestroy of the current process")
	}
	if p.PID == 0 {
		panic("sched: ProcessDestroy of the kernel process")
	}

	for {
		flags := p.lock.Acquire()
		t := p.firstThread
		p.lock.Release(flags)
		if t == nil {
			break
		}
		ThreadDestroy(t)
	}

	forceDequeueProcess(p)

	flags := firstProcessMu.Acquire()
	if firstProcess == p {
		firstProcess = p.next
	} else {
		for cur := firstProcess; cur != nil; cur = cur.next {
			if cur.next == p {
				cur.next = p.next
				break
			}
		}
	}
	firstProcessMu.Release(flags)

	if p.AddressSpace != nil {
		p.AddressSpace.Release()
		p.AddressSpace = nil
	}
}
