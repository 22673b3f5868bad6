// Package sched implements cooperative-preemptive round-robin
// scheduling of kernel threads: process/thread bookkeeping, a PIT-driven
// tick handler, voluntary yield via a software interrupt, timed sleep,
// and the mutex/semaphore/condition-variable/rwlock primitives threads
// block on.
package sched

import (
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/irq"
	"aasvogel/kernel/mem/pmm"
)

const (
	ticksPerSecond      = 250
	ticksBeforePreempt  = 10
	pitTickDivisor      = 1193182 / ticksPerSecond
	millisecondsPerTick = 1000 / ticksPerSecond

	pitIRQ = 0

	pitCommandPort = 0x43
	pitChannel0    = 0x40
	pitModeCommand = 0x36
)

var (
	currentProcess *Process
	currentThread  *Thread
	idleThread     *Thread

	ticks             uint64
	ticksUntilPreempt uint64

	sleepQueue ThreadQueue
)

// portOut indirects through cpu.Outb so pitInit's register programming
// is host-testable without real I/O ports, the same style irq uses for
// portIn/portOut.
var portOut = cpu.Outb

// CurrentProcess returns the process of the thread currently running
// on this CPU.
func CurrentProcess() *Process { return currentProcess }

// CurrentThread returns the thread currently running on this CPU.
func CurrentThread() *Thread { return currentThread }

// Init creates the kernel process and its first thread (the one
// executing Init itself), creates the idle thread, and wires the PIT
// and the voluntary-yield software interrupt into irq.
func Init() {
	currentProcess = allocInitProcess("kernel")
	currentThread = allocInitThread(currentProcess)
	currentThread.status = StatusRunning
	currentThread.registersDirty = true
	// This thread is already running; it has no business sitting on
	// its own process's ready queue.
	forceDequeue(currentThread)

	idleThread = allocInitThread(nil)
	low, high, ok := allocThreadStack(kernelAddressSpace())
	if !ok {
		panic("sched: failed to allocate idle thread stack")
	}
	idleThread.stackLow, idleThread.stackHigh = low, high
	initRegisters(&idleThread.registers, uint32(high), entryPC(idle))

	irq.HandleIRQ(pitIRQ, pitTickHandler)
	irq.HandleExt(irq.ContextSwitch, yieldHandler)

	pitInit(pitTickDivisor)

	// A thread that loses the race for the last free frame spins here
	// via ordinary yields until pmm.Free makes one available again.
	pmm.SetWaitForFrame(Yield)
}

func pitInit(divisor uint16) {
	portOut(pitCommandPort, pitModeCommand)
	portOut(pitChannel0, uint8(divisor&0xff))
	portOut(pitChannel0, uint8(divisor>>8))
}

// idle never returns; SwitchAny falls back to it whenever no thread is
// ready to run.
func idle() {
	for {
		cpu.Halt()
	}
}

