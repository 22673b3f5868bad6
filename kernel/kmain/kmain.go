// Package kmain drives the boot sequence: it is the first (and only)
// Go code the bootstrap assembly hands control to, and it brings every
// subsystem up in dependency order before enabling interrupts.
package kmain

import (
	"unsafe"

	"aasvogel/kernel"
	"aasvogel/kernel/boot"
	"aasvogel/kernel/console"
	"aasvogel/kernel/console/serial"
	"aasvogel/kernel/cpu"
	"aasvogel/kernel/errors"
	"aasvogel/kernel/gdt"
	"aasvogel/kernel/goruntime"
	"aasvogel/kernel/hal"
	"aasvogel/kernel/hal/multiboot"
	"aasvogel/kernel/irq"
	"aasvogel/kernel/kfmt"
	"aasvogel/kernel/ksym"
	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/mem/pool"
	"aasvogel/kernel/mem/vmm"
	"aasvogel/kernel/mem/vreg"
	"aasvogel/kernel/sched"
)

const (
	// globalAllocBase..globalAllocTop is the kernel virtual range lent
	// out by global_alloc: above the higher-half image alias, below the
	// fixed scratch windows at the very top of the address space.
	globalAllocBase = vmm.KernelVirtualBase + 0x01000000
	globalAllocTop  = 0xFF400000
)

var errKmainReturned = &kernel.Error{Module: "kmain", Kind: errors.Invalid, Message: "Kmain returned"}

// tss0Stack backs the TSS's ring-0 stack slot. No ring transition
// happens until userland exists, but the descriptor must still point
// at valid memory.
var tss0Stack [16 * 1024]byte

// pmmUp flips once pmm.Init has populated the permanent pools;
// kernelTableFrame switches allocators on it.
var pmmUp bool

// kernelTableFrame supplies backing frames for new kernel page-table
// levels: the boot bump allocator until the permanent pools exist,
// pmm.Alloc with FlagEmergency afterwards, which falls back to the
// emergency reserve once the regular stacks are empty (page tables are
// exactly the critical path the reserve is held back for).
func kernelTableFrame() pmm.Frame {
	if !pmmUp {
		return pmm.BootAlloc()
	}
	return pmm.Alloc(pmm.FlagEmergency)
}

// Kmain is the only Go symbol visible to the bootstrap assembly, which
// invokes it after setting up a minimal stack. It receives the
// physical address of the multiboot info payload and the kernel
// image's physical extent.
//
// Kmain is not expected to return; if it does, the bootstrap halts the
// CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	console.Init()
	console.Clear()
	kfmt.SetOutputSink(console.Out)

	opts := boot.ParseOptions()
	info := cpu.Probe()
	kfmt.Printf("[cpu] %s family=%d model=%d stepping=%d\n", string(info.Vendor), info.Family, info.Model, info.Step)

	// Leave the bootloader's flat physical world: build the static
	// higher-half tables and turn paging on.
	var tramp boot.Trampoline
	tramp.Build(info, opts)
	tramp.Activate()

	gdt.Init(uint32(uintptr(unsafe.Pointer(&tss0Stack[0]))) + uint32(len(tss0Stack)))
	irq.Init(gdt.KernelCode)

	pmm.InitBoot(kernelStart, kernelEnd)
	pmm.LogMemoryMap()

	vmm.Init(info, !opts.NoPAE, !opts.NoNX)

	regions := vreg.NewManager()
	regions.AddFree(globalAllocBase, uint32((globalAllocTop-globalAllocBase)/uintptr(mem.PageSize)))
	vmm.NewKernelAddressSpace(kernelTableFrame, pmm.Free, regions)

	// Promote every frame the boot allocator didn't consume into the
	// permanent pools; from here on kernelTableFrame draws from them.
	pmm.Init(tramp.UsesPAE())
	pmmUp = true

	goruntime.Init()

	pool.SetGlobalAllocator(globalAlloc, globalFree)
	pool.InitGeneric()

	ksym.Load()
	initKlog(opts)

	sched.Init()
	cpu.EnableInterrupts()

	// This thread is now the kernel process's first thread; collaborators
	// (VFS, TTY, drivers) take over from here. Use kernel.Panic rather
	// than panic so the crash path stays linked into the image.
	kernel.Panic(errKmainReturned)
}

// globalAlloc/globalFree adapt the kernel address space's
// global_alloc/global_free to the object-pool layer's narrower
// signature: pool memory is always writable, never executable kernel
// data.
func globalAlloc(numPages int, flags pmm.AllocFlags) (uintptr, bool) {
	return vmm.Kernel().GlobalAlloc(vmm.FlagPresent|vmm.FlagWritable|vmm.FlagNoExecute, flags, numPages)
}

func globalFree(addr uintptr, numPages int) {
	vmm.Kernel().GlobalFree(addr, numPages)
}

// initKlog wires the leveled logger's sinks and thresholds from the
// klog_console_level, klog_serial_level and klog_serial_port boot
// tokens, and mirrors crash output to the same serial port.
func initKlog(opts boot.Options) {
	consoleLevel := kfmt.Level(hal.IntFlag("klog_console_level", int(kfmt.LevelInfo)))
	serialLevel := kfmt.Level(hal.IntFlag("klog_serial_level", int(kfmt.LevelWarning)))

	ports := [...]uint16{serial.COM1, serial.COM2, serial.COM3, serial.COM4}
	portIdx := hal.IntFlag("klog_serial_port", 0)
	if portIdx < 0 || portIdx >= len(ports) {
		portIdx = 0
	}
	port := serial.Open(ports[portIdx])

	kfmt.SetLevelThresholds(consoleLevel, serialLevel)
	kfmt.SetLevelSinks(console.Out, port)
	kernel.SetCrashSerial(port)
}
