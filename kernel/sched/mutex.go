package sched

import "sync/atomic"

// Mutex is an owned, recursive-lock-detecting sleep lock. Unlike
// sync.Spinlock it parks non-owner waiters (status StatusBlocking) on
// a wait queue and yields, rather than busy-waiting.
type Mutex struct {
	taken uint32
	owner *Thread

	// ownerNext threads this mutex into the owning thread's
	// heldMutexes list, enforcing LIFO release order the same way the
	// original does.
	ownerNext *Mutex

	waitQueue ThreadQueue
}

// TryAcquire attempts the non-blocking fast path only: CAS taken
// 0->1. It still panics on a recursive self-lock; failing silently
// there would hide a guaranteed deadlock.
func (m *Mutex) TryAcquire() bool {
	if m.owner == currentThread {
		panic("sched: recursive Mutex.Acquire by owner")
	}
	if atomic.CompareAndSwapUint32(&m.taken, 0, 1) {
		m.claim(currentThread)
		return true
	}
	return false
}

// Acquire blocks until the mutex is held by the caller.
func (m *Mutex) Acquire() {
	if m.owner == currentThread {
		panic("sched: recursive Mutex.Acquire by owner")
	}

	if atomic.CompareAndSwapUint32(&m.taken, 0, 1) {
		m.claim(currentThread)
		return
	}

	for {
		flags := m.waitQueue.lock.Acquire()
		if atomic.CompareAndSwapUint32(&m.taken, 0, 1) {
			m.waitQueue.lock.Release(flags)
			m.claim(currentThread)
			return
		}

		t := currentThread
		t.status = StatusBlocking
		m.waitQueue.enqueue(t)
		m.waitQueue.lock.Release(flags)
		Yield()

		if m.owner == currentThread {
			return
		}
	}
}

// claim records t as the new owner and links m into its held-mutex
// list.
func (m *Mutex) claim(t *Thread) {
	m.owner = t
	m.ownerNext = t.heldMutexes
	t.heldMutexes = m
}

// Release hands ownership directly to the next waiter if one exists,
// without ever clearing taken; otherwise it clears owner/taken. It
// panics if the caller isn't the owner, or releases out of LIFO order
// against its other held mutexes.
func (m *Mutex) Release() {
	t := currentThread
	if m.owner != t {
		panic("sched: Mutex.Release by non-owner")
	}
	if t.heldMutexes != m {
		panic("Kernel mutexes released in wrong order!")
	}
	t.heldMutexes = m.ownerNext
	m.ownerNext = nil

	flags := m.waitQueue.lock.Acquire()
	next := m.waitQueue.dequeue()
	if next != nil {
		m.claim(next)
		m.waitQueue.lock.Release(flags)
		wake(next)
		return
	}
	m.owner = nil
	atomic.StoreUint32(&m.taken, 0)
	m.waitQueue.lock.Release(flags)
}

// wake moves a blocked thread back onto its process's run queue.
func wake(t *Thread) {
	if t.status != StatusBlocking {
		panic("sched: wake of a thread that isn't blocking")
	}
	t.status = StatusReady
	if t.process != nil {
		flags := t.process.threadRunQueue.lock.Acquire()
		t.process.threadRunQueue.enqueue(t)
		t.process.threadRunQueue.lock.Release(flags)
	}
}
