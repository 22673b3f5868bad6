package console

import "testing"

// withFakeFB installs a host-heap-backed framebuffer for the duration
// of the test, so a hosted test binary never touches the physical
// 0xB8000 mapping.
func withFakeFB(t *testing.T) {
	t.Helper()
	origFB, origFg, origBg, origX, origY := fb, fg, bg, curX, curY
	var ports []uint16
	origPortOutb := portOutb
	portOutb = func(port uint16, val uint8) { ports = append(ports, port) }

	fb = make([]uint16, Width*Height)
	fg, bg = LightGrey, Black
	curX, curY = 0, 0

	t.Cleanup(func() {
		fb, fg, bg, curX, curY = origFB, origFg, origBg, origX, origY
		portOutb = origPortOutb
	})
}

func TestClearFillsEveryCellWithSpace(t *testing.T) {
	withFakeFB(t)
	fb[42] = 0xdead

	Clear()

	want := cellAttr()<<8 | uint16(' ')
	for i, c := range fb {
		if c != want {
			t.Fatalf("cell %d = %#x, want %#x", i, c, want)
		}
	}
}

func TestWriteAtRespectsBounds(t *testing.T) {
	withFakeFB(t)
	WriteAt('!', 100, 0)
	for _, c := range fb {
		if c != 0 {
			t.Fatal("expected out-of-bounds WriteAt to be a no-op")
		}
	}

	WriteAt('!', 0, 0)
	want := cellAttr()<<8 | uint16('!')
	if fb[0] != want {
		t.Fatalf("fb[0] = %#x, want %#x", fb[0], want)
	}
}

func TestWriteAdvancesCursorAndWrapsLines(t *testing.T) {
	withFakeFB(t)
	Write([]byte("hi\n!"))

	if fb[0] != cellAttr()<<8|uint16('h') || fb[1] != cellAttr()<<8|uint16('i') {
		t.Fatal("expected 'hi' written to the first row")
	}
	if fb[Width] != cellAttr()<<8|uint16('!') {
		t.Fatal("expected '!' written to the start of the second row after \\n")
	}
}

func TestWriteScrollsOnOverflow(t *testing.T) {
	withFakeFB(t)
	for y := 0; y < Height; y++ {
		Write([]byte("x"))
		curX, curY = 0, curY+1
	}
	Write([]byte("y"))

	if fb[(Height-1)*Width] != cellAttr()<<8|uint16('y') {
		t.Fatal("expected the last write to land on the bottom row after scrolling")
	}
}

func TestEnterCrashModeSetsWhiteOnRedAndHidesCursor(t *testing.T) {
	withFakeFB(t)
	EnterCrashMode()

	if fg != White || bg != Red {
		t.Fatalf("fg/bg = %v/%v, want White/Red", fg, bg)
	}
	want := cellAttr()<<8 | uint16(' ')
	if fb[0] != want {
		t.Fatal("expected EnterCrashMode to clear the screen in the crash colors")
	}
}
