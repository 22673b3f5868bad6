package sched

import "aasvogel/kernel/sync"

// CondVar is a condition variable guarded by a Mutex: callers must
// hold lock before calling Wait, Signal or Broadcast.
type CondVar struct {
	Lock      *Mutex
	waitQueue ThreadQueue
}

// Wait releases the associated mutex, blocks until woken, then
// reacquires it before returning. It panics if the caller doesn't
// currently hold Lock.
func (c *CondVar) Wait() {
	if c.Lock.owner != currentThread {
		panic("sched: CondVar.Wait without holding its mutex")
	}

	flags := c.waitQueue.lock.Acquire()
	t := currentThread
	t.status = StatusBlocking
	c.waitQueue.enqueue(t)
	c.waitQueue.lock.Release(flags)

	c.Lock.Release()
	Yield()
	c.Lock.Acquire()
}

// Signal wakes one waiter, if any.
func (c *CondVar) Signal() {
	if c.Lock.owner != currentThread {
		panic("sched: CondVar.Signal without holding its mutex")
	}
	flags := c.waitQueue.lock.Acquire()
	t := c.waitQueue.dequeue()
	c.waitQueue.lock.Release(flags)
	if t != nil {
		wake(t)
	}
}

// Broadcast wakes every waiter.
func (c *CondVar) Broadcast() {
	if c.Lock.owner != currentThread {
		panic("sched: CondVar.Broadcast without holding its mutex")
	}
	for {
		flags := c.waitQueue.lock.Acquire()
		t := c.waitQueue.dequeue()
		c.waitQueue.lock.Release(flags)
		if t == nil {
			return
		}
		wake(t)
	}
}

// CondVarS is the spinlock-backed condition variable: it is guarded by
// a plain sync.Spinlock instead of a Mutex, and Wait optionally also
// releases/reacquires a caller-supplied Mutex around the yield, for
// code that needs both a short spinlock-held critical section and a
// longer-held mutex invariant.
type CondVarS struct {
	Lock      *sync.Spinlock
	waitQueue ThreadQueue
}

// Wait releases c.Lock (and m, if non-nil) for the duration of the
// block, reacquiring both (m first) before returning.
func (c *CondVarS) Wait(heldFlags uint32, m *Mutex) uint32 {
	flags := c.waitQueue.lock.Acquire()
	t := currentThread
	t.status = StatusBlocking
	c.waitQueue.enqueue(t)
	c.waitQueue.lock.Release(flags)

	c.Lock.Release(heldFlags)
	if m != nil {
		m.Release()
	}

	Yield()

	if m != nil {
		m.Acquire()
	}
	return c.Lock.Acquire()
}

// Signal wakes one waiter, if any.
func (c *CondVarS) Signal() {
	flags := c.waitQueue.lock.Acquire()
	t := c.waitQueue.dequeue()
	c.waitQueue.lock.Release(flags)
	if t != nil {
		wake(t)
	}
}
