// Package cpu probes the running CPU's identity and feature bits, and
// exposes the handful of privileged instructions the rest of the
// kernel needs (port I/O, flags, CR2/CR3, TLB invalidation, CPUID,
// RDMSR/WRMSR). The actual instructions are implemented in a small
// Plan 9 assembly file (cpu_386.s) and declared here as bodiless Go
// functions.
package cpu

// EnableInterrupts sets the interrupt flag (STI).
func EnableInterrupts()

// DisableInterrupts clears the interrupt flag (CLI).
func DisableInterrupts()

// SaveFlags returns the current EFLAGS register without modifying
// interrupt state. Spinlock.Acquire uses this to remember whether
// interrupts were enabled before it disabled them, so Release can
// restore the caller's prior state instead of unconditionally
// re-enabling interrupts.
func SaveFlags() uint32

// RestoreFlags loads flags back into EFLAGS (POPF semantics), used to
// undo a prior DisableInterrupts when the caller's interrupt state is
// not known to be "always enabled".
func RestoreFlags(flags uint32)

// Halt stops instruction execution until the next interrupt (HLT).
func Halt()

// Pause emits a PAUSE instruction, used by the idle thread's spin loop
// to reduce power draw and memory-bus contention between HLTs.
func Pause()

// Inb reads a byte from the given I/O port.
func Inb(port uint16) uint8

// Outb writes a byte to the given I/O port.
func Outb(port uint16, val uint8)

// Inw reads a 16-bit word from the given I/O port.
func Inw(port uint16) uint16

// Outw writes a 16-bit word to the given I/O port.
func Outw(port uint16, val uint16)

// ReadCR2 returns the faulting address recorded by the last page
// fault.
func ReadCR2() uint32

// ReadCR3 returns the physical address of the currently active
// top-level page table.
func ReadCR3() uint32

// WriteCR3 loads a new top-level page table address, flushing all
// non-global TLB entries as a side effect.
func WriteCR3(addr uint32)

// ReadCR4 returns the CR4 control register.
func ReadCR4() uint32

// WriteCR4 loads a new CR4 control register value.
func WriteCR4(val uint32)

// InvalidatePage flushes a single TLB entry (INVLPG) for addr.
func InvalidatePage(addr uintptr)

// ReadEBP returns the caller's frame-pointer chain head, used by the
// panic path to walk the stack without any cooperation from the Go
// runtime's own (disabled on this target) frame-pointer convention.
func ReadEBP() uint32

// id is the raw CPUID instruction: executes CPUID with EAX=leaf (and
// ECX=subleaf for leaves that use it) and returns EAX, EBX, ECX, EDX.
func id(leaf, subleaf uint32) (uint32, uint32, uint32, uint32)

// ReadMSR reads the model-specific register numbered by msr. Callers
// must first confirm Features.MSR is set; reading an MSR when the
// feature is absent is undefined behaviour on real hardware.
func ReadMSR(msr uint32) uint64

// WriteMSR writes val to the model-specific register numbered by msr.
func WriteMSR(msr uint32, val uint64)
