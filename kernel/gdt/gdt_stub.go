//go:build !386

package gdt

// Hosted fallbacks: descriptor-table loads have no hosted equivalent,
// and tests substitute flushHook/loadTSSHook before calling Init.

func flush(ptr *pointer) { panic("gdt: LGDT on a hosted build") }

func loadTSS(selector uint16) { panic("gdt: LTR on a hosted build") }
