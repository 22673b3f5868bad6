package pmm

import "testing"

func TestFrameStackPushPopOrdering(t *testing.T) {
	var s frameStack
	const n = framesPerNode*2 + 3 // spans multiple nodes

	for i := 0; i < n; i++ {
		s.push(Frame(i))
	}
	if s.len() != n {
		t.Fatalf("expected len %d, got %d", n, s.len())
	}

	for i := n - 1; i >= 0; i-- {
		f, ok := s.pop()
		if !ok {
			t.Fatalf("expected pop to succeed at i=%d", i)
		}
		if f != Frame(i) {
			t.Fatalf("expected LIFO order: want %d, got %d", i, f)
		}
	}

	if _, ok := s.pop(); ok {
		t.Fatal("expected pop on empty stack to fail")
	}
	if s.len() != 0 {
		t.Fatalf("expected empty stack, len=%d", s.len())
	}
}

func TestFrameStackRoundTripIsNullOp(t *testing.T) {
	var s frameStack
	for i := 0; i < framesPerNode+5; i++ {
		s.push(Frame(i))
	}
	before := s.len()

	f, _ := s.pop()
	s.push(f)

	if s.len() != before {
		t.Fatalf("round trip changed length: before=%d after=%d", before, s.len())
	}
}
