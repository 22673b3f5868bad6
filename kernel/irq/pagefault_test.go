package irq

import "testing"

func TestPageFaultHandlerIsRegisteredAtVector14(t *testing.T) {
	if isrHandlers[vectorPageFault] == nil {
		t.Fatal("expected init to register a vector-14 handler")
	}
}

func TestPageFaultHandlerForwardsCR2AndErrCode(t *testing.T) {
	origCR2, origPanic := readCR2, panicPageFault
	t.Cleanup(func() { readCR2, panicPageFault = origCR2, origPanic })

	readCR2 = func() uint32 { return 0xcafebabe }
	var gotAddr, gotErr uint32
	panicPageFault = func(addr, errCode uint32) { gotAddr, gotErr = addr, errCode }

	pageFaultHandler(&Frame{Vector: vectorPageFault, ErrCode: 0x2}, &Registers{})

	if gotAddr != 0xcafebabe || gotErr != 0x2 {
		t.Fatalf("pageFaultHandler forwarded (%#x, %#x), want (0xcafebabe, 0x2)", gotAddr, gotErr)
	}
}
