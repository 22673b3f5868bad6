// Package gdt builds the kernel's Global Descriptor Table: a flat
// kernel code/data pair at DPL0, a flat user code/data pair at DPL3,
// and one TSS entry used only to hold the ring-0 stack pointer loaded
// on every privilege-level change.
package gdt

import "unsafe"

// Selector values, fixed by entry order: NULL, kernel code, kernel
// data, user code, user data, TSS.
const (
	KernelCode = 0x08
	KernelData = 0x10
	UserCode   = 0x18 | 3 // RPL 3
	UserData   = 0x20 | 3
	tssSelector = 0x28
)

const numEntries = 6

// entry is the packed 8-byte GDT descriptor format.
type entry struct {
	limitLow  uint16
	baseLow   uint16
	baseMid   uint8
	access    uint8
	limitHigh uint8 // low nibble limit bits 16-19, high nibble flags
	baseHigh  uint8
}

func encodeEntry(base, limit uint32, access, flags uint8) entry {
	return entry{
		limitLow:  uint16(limit & 0xffff),
		baseLow:   uint16(base & 0xffff),
		baseMid:   uint8((base >> 16) & 0xff),
		access:    access,
		limitHigh: uint8((limit>>16)&0xf) | (flags&0xf)<<4,
		baseHigh:  uint8((base >> 24) & 0xff),
	}
}

// tss is the 32-bit Task State Segment. Only link/esp0/ss0 are ever
// touched by software; the rest exists because the CPU's task-switch
// hardware (unused here beyond ring transitions) expects the full
// layout.
type tss struct {
	link                             uint32
	esp0, ss0, esp1, ss1, esp2, ss2  uint32
	cr3, eip, eflags                 uint32
	eax, ecx, edx, ebx, esp, ebp, esi, edi uint32
	es, cs, ss, ds, fs, gs           uint32
	ldt                              uint32
	trapOnSwitch                     uint16
	iopbOffset                       uint16
}

const (
	accessPresent  = 1 << 7
	accessUser     = 0 // DPL 0
	accessDPL3     = 3 << 5
	accessCodeData = 1 << 4
	accessExec     = 1 << 3
	accessReadWrite = 1 << 1
	accessTSSAvail = 0x9

	flagsGranularity4K = 1 << 3
	flagsSize32        = 1 << 2
)

var (
	entries [numEntries]entry
	table   tss
)

type pointer struct {
	limit uint16
	base  uint32
}

// flushHook/loadTSSHook indirect through the asm-backed functions so
// tests can run on the host without executing privileged instructions,
// matching the mock-function-variable style used in kernel/cpu.
var (
	flushHook   = flush
	loadTSSHook = loadTSS
)

// Init builds the flat GDT and loads it. kernelStack0 is the ESP to
// use whenever a ring-3 thread takes an interrupt or trap (always the
// top of that thread's kernel stack).
func Init(kernelStack0 uint32) {
	entries[0] = entry{}
	entries[1] = encodeEntry(0, 0xfffff, accessPresent|accessCodeData|accessExec|accessReadWrite, flagsGranularity4K|flagsSize32)
	entries[2] = encodeEntry(0, 0xfffff, accessPresent|accessCodeData|accessReadWrite, flagsGranularity4K|flagsSize32)
	entries[3] = encodeEntry(0, 0xfffff, accessPresent|accessDPL3|accessCodeData|accessExec|accessReadWrite, flagsGranularity4K|flagsSize32)
	entries[4] = encodeEntry(0, 0xfffff, accessPresent|accessDPL3|accessCodeData|accessReadWrite, flagsGranularity4K|flagsSize32)

	table = tss{}
	table.ss0 = KernelData
	SetKernelStack(kernelStack0)

	entries[5] = encodeEntry(uint32(tssAddr()), uint32(tssSize()), accessPresent|accessDPL3|accessTSSAvail, 0)

	ptr := pointer{limit: uint16(numEntries*8 - 1), base: uint32(tableAddr())}
	flushHook(&ptr)
	loadTSSHook(tssSelector)
}

// SetKernelStack updates the ring-0 stack the TSS hands the CPU on the
// next privilege-level-raising interrupt. Init calls it; the scheduler
// does not.
func SetKernelStack(esp0 uint32) {
	table.esp0 = esp0
}

func tssAddr() uintptr {
	return uintptr(unsafe.Pointer(&table))
}

func tssSize() uintptr {
	return unsafe.Sizeof(table) - 1
}

func tableAddr() uintptr {
	return uintptr(unsafe.Pointer(&entries[0]))
}
