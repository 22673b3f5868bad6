package sched

import (
	"reflect"
	"unsafe"

	"aasvogel/kernel/gdt"
	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/mem/vmm"
	"aasvogel/kernel/sync"
)

// Status is a thread's scheduling state.
type Status uint32

const (
	StatusRunning Status = iota
	StatusReady
	StatusBlocking
	StatusSleeping
	// StatusDead marks a thread whose stack and struct are about to be
	// reclaimed; it never re-enters a run queue.
	StatusDead Status = 0xdeaddead
)

// savedRegisters mirrors the CPU's general-purpose and segment
// registers as recorded in a Thread's own storage (as opposed to the
// live irq.Registers/irq.Frame pair, which exists only while that
// thread is the one actually running). It carries exactly the fields
// idt_386.s's commonStub saves; this kernel's interrupt stub never
// captures EBP, so a context switch does not preserve it either.
type savedRegisters struct {
	EAX, EBX, ECX, EDX uint32
	ESI, EDI           uint32
	DS, ES, FS, GS     uint32
	EIP, CS, EFlags, ESP, SS uint32
}

// threadEFlags is the initial EFLAGS value every new thread starts
// with: bit 1 (always set, reserved) and bit 9 (IF, interrupts
// enabled).
const threadEFlags = (1 << 1) | (1 << 9)

// threadStackSize is the size of the stack ThreadCreate allocates for
// a new thread.
const threadStackSize = 0x40000

// Thread is one schedulable execution context. A Thread with a nil
// process is disconnected from any process's thread list; only the
// idle thread is created this way.
type Thread struct {
	process *Process
	TID     uint64

	status     Status
	sleepUntil uint64

	registersLock  sync.Spinlock
	registersDirty bool
	registers      savedRegisters

	stackLow, stackHigh uintptr

	nextInProcess *Thread

	inQueue     *ThreadQueue
	nextInQueue *Thread

	heldMutexes *Mutex
}

// allocInitThread allocates a thread, binds it to p (unless p is nil,
// used only for the idle thread), and enqueues it on the process's
// thread run queue.
func allocInitThread(p *Process) *Thread {
	t := &Thread{process: p, status: StatusReady}

	if p != nil {
		flags := p.lock.Acquire()
		t.TID = p.nextTID
		p.nextTID++
		t.nextInProcess = p.firstThread
		p.firstThread = t
		p.lock.Release(flags)

		flags = p.threadRunQueue.lock.Acquire()
		p.threadRunQueue.enqueue(t)
		p.threadRunQueue.lock.Release(flags)
	}

	return t
}

func initRegisters(r *savedRegisters, stack, entry uint32) {
	r.GS, r.FS, r.ES, r.DS, r.SS = uint32(gdt.KernelData), uint32(gdt.KernelData), uint32(gdt.KernelData), uint32(gdt.KernelData), uint32(gdt.KernelData)
	r.CS = uint32(gdt.KernelCode)
	r.EDI, r.ESI, r.EBX, r.EDX, r.ECX, r.EAX = 0, 0, 0, 0, 0, 0
	r.EFlags = threadEFlags
	r.EIP = entry
	r.ESP = stack
}

// allocThreadStack reserves and maps a fresh kernel stack for a new
// thread, returning its [low, high) bounds.
func allocThreadStack(as *vmm.AddressSpace) (low, high uintptr, ok bool) {
	numPages := int(threadStackSize / mem.PageSize)
	addr, ok := as.GlobalAlloc(vmm.FlagPresent|vmm.FlagWritable|vmm.FlagNoExecute, pmm.FlagWait, numPages)
	if !ok {
		return 0, 0, false
	}
	return addr, addr + uintptr(threadStackSize), true
}

// ThreadCreate allocates a stack for a new thread of p and arranges
// for it to begin executing entry(arg) the first time it is switched
// to. entry never legitimately returns; a thread that is done calls
// ThreadEnd.
func ThreadCreate(p *Process, entry func(arg uintptr), arg uintptr) *Thread {
	as := p.AddressSpace
	if as == nil {
		as = vmm.Kernel()
	}
	low, high, ok := allocThreadStack(as)
	if !ok {
		return nil
	}

	t := allocInitThread(p)
	t.stackLow, t.stackHigh = low, high

	// Reserve the top two stack slots a Go ABI0 function expects at
	// entry: a zero return address at 0(SP), then the argument, so a
	// stray RET inside entry faults on address zero instead of running
	// off into unmapped memory.
	ptrSize := uintptr(1) << mem.PointerShift
	top := high - 2*ptrSize
	*(*uint32)(unsafe.Pointer(top)) = 0
	*(*uint32)(unsafe.Pointer(top + ptrSize)) = uint32(arg)

	initRegisters(&t.registers, uint32(top), entryPC(entry))
	return t
}

// entryPC returns fn's code address. Go gives no portable way to turn
// a function value into a bare PC; reflect.Value.Pointer is the
// established trick. kernel/hal/multiboot likewise leans on reflect
// (StringHeader) for its unsafe string views.
func entryPC(fn interface{}) uint32 {
	return uint32(reflect.ValueOf(fn).Pointer())
}

func kernelAddressSpace() *vmm.AddressSpace {
	return vmm.Kernel()
}

// ThreadDestroy force-dequeues t from wherever it is currently parked,
// frees its stack, unlinks it from its process's thread list, and
// marks it dead. Nothing here or in SwitchThread checks whether t is
// the current thread.
func ThreadDestroy(t *Thread) {
	forceDequeue(t)

	if t.process != nil {
		as := t.process.AddressSpace
		if as == nil {
			as = vmm.Kernel()
		}
		if t.stackHigh != 0 {
			as.GlobalFree(t.stackLow, int(threadStackSize/mem.PageSize))
		}

		flags := t.process.lock.Acquire()
		if t.process.firstThread == t {
			t.process.firstThread = t.nextInProcess
		} else {
			for cur := t.process.firstThread; cur != nil; cur = cur.nextInProcess {
				if cur.nextInProcess == t {
					cur.nextInProcess = t.nextInProcess
					break
				}
			}
		}
		t.process.lock.Release(flags)
	}

	t.status = StatusDead
}

// ThreadEnd terminates the calling thread and never returns. The
// thread is only marked dead here: its stack cannot be freed while
// this function is still executing on it, so the record and stack are
// reclaimed by whoever later calls ThreadDestroy. SwitchThread skips
// saving dead threads and never re-enqueues them.
func ThreadEnd() {
	currentThread.status = StatusDead
	for {
		Yield()
	}
}

// FindThread searches p's thread list for tid.
func FindThread(p *Process, tid uint64) *Thread {
	flags := p.lock.Acquire()
	defer p.lock.Release(flags)
	for t := p.firstThread; t != nil; t = t.nextInProcess {
		if t.TID == tid {
			return t
		}
	}
	return nil
}
