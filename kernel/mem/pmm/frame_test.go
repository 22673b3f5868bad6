package pmm

import (
	"aasvogel/kernel/mem"
	"testing"
)

func TestFrameMethods(t *testing.T) {
	for i := uintptr(0); i < 128; i++ {
		f := Frame(i)
		if !f.Valid() {
			t.Fatalf("expected frame %d to be valid", i)
		}
		if got, exp := f.Address(), i<<mem.PageShift; got != exp {
			t.Fatalf("expected address %#x, got %#x", exp, got)
		}
	}

	if InvalidFrame.Valid() {
		t.Fatal("expected InvalidFrame.Valid() to be false")
	}
}

func TestFrameFromAddress(t *testing.T) {
	specs := []struct {
		addr uintptr
		want Frame
	}{
		{0, 0},
		{4095, 0},
		{4096, 1},
		{8200, 2},
	}
	for _, spec := range specs {
		if got := FrameFromAddress(spec.addr); got != spec.want {
			t.Fatalf("FrameFromAddress(%#x) = %d, want %d", spec.addr, got, spec.want)
		}
	}
}
