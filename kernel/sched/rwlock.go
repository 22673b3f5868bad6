package sched

import "aasvogel/kernel/sync"

// RWLock is a write-preferring reader/writer lock: a waiting writer
// blocks new readers from being granted, and on release every queued
// reader is woken before any later writer gets another turn only if no
// writer is waiting.
type RWLock struct {
	lock sync.Spinlock

	readers uint32
	writers uint32

	readQueue  ThreadQueue
	writeQueue ThreadQueue
}

// AcquireRead blocks until a read lock is available.
func (rw *RWLock) AcquireRead() {
	flags := rw.lock.Acquire()
	if rw.writers == 0 {
		rw.readers++
		rw.lock.Release(flags)
		return
	}

	t := currentThread
	t.status = StatusBlocking
	rw.readQueue.enqueue(t)
	rw.lock.Release(flags)
	Yield()
}

// TryAcquireRead is the non-blocking fast path.
func (rw *RWLock) TryAcquireRead() bool {
	flags := rw.lock.Acquire()
	defer rw.lock.Release(flags)
	if rw.writers != 0 {
		return false
	}
	rw.readers++
	return true
}

// AcquireWrite blocks until a write lock is available. It reserves a
// writer slot immediately (incrementing writers before checking
// whether it can proceed), which is what makes this lock
// write-preferring: once any writer is waiting, new readers block.
func (rw *RWLock) AcquireWrite() {
	flags := rw.lock.Acquire()
	rw.writers++
	if rw.writers == 1 && rw.readers == 0 {
		rw.lock.Release(flags)
		return
	}

	t := currentThread
	t.status = StatusBlocking
	rw.writeQueue.enqueue(t)
	rw.lock.Release(flags)
	Yield()
}

// TryAcquireWrite is the non-blocking fast path. Unlike AcquireWrite
// it checks that no writer and no reader is active before incrementing,
// since there is no queued-reservation concept on the non-blocking path.
func (rw *RWLock) TryAcquireWrite() bool {
	flags := rw.lock.Acquire()
	defer rw.lock.Release(flags)
	if rw.writers != 0 || rw.readers != 0 {
		return false
	}
	rw.writers++
	return true
}

// ReleaseRead releases a read lock, waking one queued writer if this
// was the last active reader.
func (rw *RWLock) ReleaseRead() {
	flags := rw.lock.Acquire()
	if rw.readers == 0 {
		rw.lock.Release(flags)
		panic("sched: RWLock.ReleaseRead with no active reader")
	}
	rw.readers--
	var nextWriter *Thread
	if rw.readers == 0 {
		nextWriter = rw.writeQueue.dequeue()
	}
	rw.lock.Release(flags)

	if nextWriter != nil {
		wake(nextWriter)
	}
}

// ReleaseWrite releases a write lock. If another writer is queued it
// is woken (write-preferring); otherwise every queued reader is woken.
func (rw *RWLock) ReleaseWrite() {
	flags := rw.lock.Acquire()
	if rw.readers != 0 || rw.writers == 0 {
		rw.lock.Release(flags)
		panic("sched: RWLock.ReleaseWrite with no active writer")
	}
	rw.writers--

	if nextWriter := rw.writeQueue.dequeue(); nextWriter != nil {
		rw.lock.Release(flags)
		wake(nextWriter)
		return
	}

	var readersToWake []*Thread
	for {
		r := rw.readQueue.dequeue()
		if r == nil {
			break
		}
		rw.readers++
		readersToWake = append(readersToWake, r)
	}
	rw.lock.Release(flags)

	for _, r := range readersToWake {
		wake(r)
	}
}
