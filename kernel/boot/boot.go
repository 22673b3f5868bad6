// Package boot builds the purely static page tables that take the CPU
// from the bootloader's flat, paging-disabled protected-mode state to
// a mapping the rest of the kernel can run under, with per-section
// read/write/execute protection taken from the kernel's own ELF
// section headers. Everything here runs before pmm/vmm exist, so
// nothing in this package may allocate: every table is a fixed-size
// package-level array in the image's own data section.
package boot

import (
	"aasvogel/kernel/console"
	"aasvogel/kernel/console/serial"
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/hal"
	"aasvogel/kernel/kfmt"
)

// Options are the boot-time policy choices read off the multiboot
// command line, before any other part of the kernel is initialized.
type Options struct {
	// NoPAE forces the legacy 2-level page-table format even when the
	// CPU supports PAE.
	NoPAE bool
	// NoNX disables the no-execute bit even under PAE.
	NoNX bool
	// PreinitSerial asks Fail to also report a boot error to COM1, for
	// setups where the screen isn't watched (serial console, CI).
	PreinitSerial bool
}

// ParseOptions reads no_pae, no_nx and preinit_serial off the
// multiboot command line via kernel/hal's typed accessors.
func ParseOptions() Options {
	return Options{
		NoPAE:         hal.BoolFlag("no_pae"),
		NoNX:          hal.BoolFlag("no_nx"),
		PreinitSerial: hal.BoolFlag("preinit_serial"),
	}
}

// Fail reports a fatal boot-time error and halts. It writes directly
// to the VGA framebuffer and, if PreinitSerial is set, to COM1: this
// runs too early to trust kernel.Panic's richer crash UI, which
// depends on the symbol table and a working heap that haven't been
// brought up yet.
func Fail(msg string, opts Options) {
	console.Init()
	console.EnterCrashMode()
	kfmt.SetOutputSink(console.Out)
	kfmt.Printf("Boot failed: %s\n", msg)

	if opts.PreinitSerial {
		port := serial.Open(serial.COM1)
		kfmt.Fprintf(port, "Boot failed: %s\n", msg)
	}

	cpu.DisableInterrupts()
	for {
		cpu.Halt()
	}
}
