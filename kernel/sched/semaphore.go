package sched

import "aasvogel/kernel/sync"

// Semaphore is a counting semaphore. A positive value is available
// slack; a negative value is the (negated) count of threads parked on
// waitQueue.
type Semaphore struct {
	lock      sync.Spinlock
	value     int
	waitQueue ThreadQueue
}

// NewSemaphore returns a semaphore initialized to initial.
func NewSemaphore(initial int) *Semaphore {
	return &Semaphore{value: initial}
}

// Wait decrements the semaphore, blocking if the value goes negative.
func (s *Semaphore) Wait() {
	flags := s.lock.Acquire()
	s.value--
	block := s.value < 0
	var t *Thread
	if block {
		t = currentThread
		t.status = StatusBlocking
		s.waitQueue.enqueue(t)
	}
	s.lock.Release(flags)

	if block {
		Yield()
	}
}

// TryWait attempts a non-blocking decrement, succeeding only if a
// positive value was available.
func (s *Semaphore) TryWait() bool {
	flags := s.lock.Acquire()
	defer s.lock.Release(flags)
	if s.value <= 0 {
		return false
	}
	s.value--
	return true
}

// Signal increments the semaphore, waking exactly one waiter if the
// pre-increment value was negative.
func (s *Semaphore) Signal() {
	flags := s.lock.Acquire()
	wasNegative := s.value < 0
	s.value++
	var next *Thread
	if wasNegative {
		next = s.waitQueue.dequeue()
	}
	s.lock.Release(flags)

	if next != nil {
		wake(next)
	}
}
