package sched

import "aasvogel/kernel/sync"

// ThreadQueue is an intrusive FIFO of threads linked through each
// thread's own nextInQueue field, guarded by its own spinlock so
// producers and consumers on different CPUs never race.
type ThreadQueue struct {
	lock        sync.Spinlock
	first, last *Thread
}

func (q *ThreadQueue) enqueue(t *Thread) {
	if q.first == nil {
		q.first = t
	} else {
		q.last.nextInQueue = t
	}
	t.nextInQueue = nil
	t.inQueue = q
	q.last = t
}

func (q *ThreadQueue) dequeue() *Thread {
	t := q.first
	if t == nil {
		return nil
	}
	q.first = t.nextInQueue
	t.inQueue = nil
	if q.last == t {
		q.last = nil
	}
	return t
}

// forceDequeue removes t from whatever queue it is currently linked
// into, even if that is not q. Used when destroying a thread that may
// be parked on a mutex/semaphore/condvar wait queue rather than a run
// queue.
func forceDequeue(t *Thread) {
	for {
		q := t.inQueue
		if q == nil {
			return
		}
		flags := q.lock.Acquire()
		if t.inQueue == q {
			if q.first == t {
				q.first = t.nextInQueue
				if q.last == t {
					q.last = nil
				}
			} else {
				prev := q.first
				for prev != nil && prev.nextInQueue != t {
					prev = prev.nextInQueue
				}
				if prev != nil {
					prev.nextInQueue = t.nextInQueue
				}
				if q.last == t {
					q.last = prev
				}
			}
			t.inQueue = nil
			q.lock.Release(flags)
			return
		}
		q.lock.Release(flags)
	}
}

// forceDequeueProcess removes p from whatever queue it is linked into,
// the process-level counterpart of forceDequeue. Used by
// ProcessDestroy to pull a process off the run queue.
func forceDequeueProcess(p *Process) {
	for {
		q := p.inQueue
		if q == nil {
			return
		}
		flags := q.lock.Acquire()
		if p.inQueue == q {
			if q.first == p {
				q.first = p.nextInQueue
				if q.last == p {
					q.last = nil
				}
			} else {
				prev := q.first
				for prev != nil && prev.nextInQueue != p {
					prev = prev.nextInQueue
				}
				if prev != nil {
					prev.nextInQueue = p.nextInQueue
				}
				if q.last == p {
					q.last = prev
				}
			}
			p.inQueue = nil
			q.lock.Release(flags)
			return
		}
		q.lock.Release(flags)
	}
}

// ProcessQueue is the process-level equivalent of ThreadQueue, used
// only for the single global run queue of processes.
type ProcessQueue struct {
	lock        sync.Spinlock
	first, last *Process
}

func (q *ProcessQueue) enqueue(p *Process) {
	if q.first == nil {
		q.first = p
	} else {
		q.last.nextInQueue = p
	}
	p.nextInQueue = nil
	p.inQueue = q
	q.last = p
}

func (q *ProcessQueue) dequeue() *Process {
	p := q.first
	if p == nil {
		return nil
	}
	q.first = p.nextInQueue
	p.inQueue = nil
	if q.last == p {
		q.last = nil
	}
	return p
}
