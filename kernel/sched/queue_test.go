package sched

import "testing"

func TestThreadQueueFIFOOrder(t *testing.T) {
	var q ThreadQueue
	a, b, c := &Thread{}, &Thread{}, &Thread{}
	q.enqueue(a)
	q.enqueue(b)
	q.enqueue(c)

	if got := q.dequeue(); got != a {
		t.Fatalf("expected a first, got %v", got)
	}
	if got := q.dequeue(); got != b {
		t.Fatalf("expected b second, got %v", got)
	}
	if got := q.dequeue(); got != c {
		t.Fatalf("expected c third, got %v", got)
	}
	if got := q.dequeue(); got != nil {
		t.Fatalf("expected empty queue, got %v", got)
	}
}

func TestThreadQueueTracksInQueue(t *testing.T) {
	var q ThreadQueue
	a := &Thread{}
	q.enqueue(a)
	if a.inQueue != &q {
		t.Fatal("expected enqueue to set inQueue")
	}
	q.dequeue()
	if a.inQueue != nil {
		t.Fatal("expected dequeue to clear inQueue")
	}
}

func TestForceDequeueRemovesFromMiddle(t *testing.T) {
	var q ThreadQueue
	a, b, c := &Thread{}, &Thread{}, &Thread{}
	q.enqueue(a)
	q.enqueue(b)
	q.enqueue(c)

	forceDequeue(b)
	if b.inQueue != nil {
		t.Fatal("expected b's inQueue cleared")
	}

	if got := q.dequeue(); got != a {
		t.Fatalf("expected a, got %v", got)
	}
	if got := q.dequeue(); got != c {
		t.Fatalf("expected c (b was removed), got %v", got)
	}
}

func TestForceDequeueRemovesTail(t *testing.T) {
	var q ThreadQueue
	a, b := &Thread{}, &Thread{}
	q.enqueue(a)
	q.enqueue(b)

	forceDequeue(b)
	if q.last != a {
		t.Fatalf("expected last to fall back to a, got %v", q.last)
	}

	c := &Thread{}
	q.dequeue()
	q.enqueue(c)
	if q.last != c {
		t.Fatal("expected queue to remain usable after removing the tail")
	}
}

func TestForceDequeueOfUnqueuedThreadIsNoop(t *testing.T) {
	a := &Thread{}
	forceDequeue(a) // must not panic
}

func TestProcessQueueFIFOOrder(t *testing.T) {
	var q ProcessQueue
	a, b := &Process{}, &Process{}
	q.enqueue(a)
	q.enqueue(b)
	if got := q.dequeue(); got != a {
		t.Fatalf("expected a first, got %v", got)
	}
	if got := q.dequeue(); got != b {
		t.Fatalf("expected b second, got %v", got)
	}
}
