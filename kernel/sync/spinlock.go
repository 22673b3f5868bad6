// Package sync provides the kernel's lowest-level mutual-exclusion
// primitive: a spinlock that disables interrupts for its duration. It
// depends on nothing but cpu's flag save/restore, so every other
// subsystem (frame allocator, page tables, pools, and the scheduler's
// own queues) can build on it without creating an import cycle; the
// richer blocking primitives (mutex, semaphore, condition variable,
// reader/writer lock) live in kernel/sched instead, since they need to
// block and wake threads.
package sync

import (
	"sync/atomic"

	"aasvogel/kernel/cpu"
)

// Spinlock is an IRQ-safe busy-wait lock. It records no owner: on a
// single CPU the only thing a spinlock excludes is interrupt-context
// code, but the acquire/release shape is written to remain correct
// once a second CPU exists.
type Spinlock struct {
	taken uint32
}

// yieldFn is invoked between failed acquire attempts. In production it
// is cpu.Pause, which only eases bus traffic while spinning; tests swap
// it out to avoid burning CPU while exercising contention.
var yieldFn = cpu.Pause

// Acquire disables interrupts and spins until the lock is taken,
// returning the EFLAGS value captured just before interrupts were
// disabled. Callers MUST pass the returned value to the matching
// Release call so the caller's prior interrupt state is restored
// rather than unconditionally re-enabled.
func (l *Spinlock) Acquire() uint32 {
	flags := cpu.SaveFlags()
	cpu.DisableInterrupts()
	for !atomic.CompareAndSwapUint32(&l.taken, 0, 1) {
		yieldFn()
	}
	return flags
}

// TryAcquire attempts a non-blocking acquire. On success it disables
// interrupts and returns (flags, true); on failure interrupt state is
// left untouched and it returns (0, false).
func (l *Spinlock) TryAcquire() (uint32, bool) {
	flags := cpu.SaveFlags()
	cpu.DisableInterrupts()
	if atomic.CompareAndSwapUint32(&l.taken, 0, 1) {
		return flags, true
	}
	cpu.RestoreFlags(flags)
	return 0, false
}

// Release clears the taken flag and restores the interrupt state
// captured by the matching Acquire/TryAcquire call.
func (l *Spinlock) Release(flags uint32) {
	atomic.StoreUint32(&l.taken, 0)
	cpu.RestoreFlags(flags)
}

// Held reports whether the lock is currently taken, for use in assert
// checks (e.g. "spinlock holders must not reach a suspension point").
func (l *Spinlock) Held() bool {
	return atomic.LoadUint32(&l.taken) != 0
}
