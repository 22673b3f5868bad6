// Package pool implements fixed-size slab pools and the generic
// small-object allocator built on top of them. Each pool carves the
// pages it gets from the global allocator into equal-size slots,
// threading free slots into a list by writing a pointer directly into
// the (currently unused) object bytes.
package pool

import (
	"unsafe"

	"aasvogel/kernel/mem"
	"aasvogel/kernel/mem/pmm"
	"aasvogel/kernel/sync"
)

// GlobalAllocFn/GlobalFreeFn match vmm.AddressSpace.GlobalAlloc/GlobalFree's
// shape without importing vmm directly, decoupling this package from
// its memory supplier. kmain wires these to the kernel address space
// at boot.
type GlobalAllocFn func(numPages int, flags pmm.AllocFlags) (uintptr, bool)
type GlobalFreeFn func(addr uintptr, numPages int)

var (
	globalAlloc GlobalAllocFn
	globalFree  GlobalFreeFn
)

// SetGlobalAllocator registers the page supplier every pool in this
// package draws from.
func SetGlobalAllocator(alloc GlobalAllocFn, free GlobalFreeFn) {
	globalAlloc = alloc
	globalFree = free
}

// freeSlot overlays a free object's bytes: the first word of every
// unused slot is this package's own free-list pointer.
type freeSlot struct {
	next *freeSlot
}

// part is the per-allocation header, placed at the very start of the
// memory it manages; the object slots immediately follow it (after
// alignment padding).
type part struct {
	pool      *SmallPool
	nextPart  *part
	numFree   uint32
	firstFree *freeSlot
}

func partAt(addr uintptr) *part {
	return (*part)(unsafe.Pointer(addr))
}

// SmallPool is one fixed-size slab class.
type SmallPool struct {
	lock sync.Spinlock
	name string

	objSize       uint32
	objAlign      uint32
	framesPerPart uint32
	frameFlags    pmm.AllocFlags

	headerSize uint32 // sizeof(part), rounded up to objAlign

	numTotal uint32
	numFree  uint32

	partsEmpty   *part
	partsPartial *part
	partsFull    *part

	next *SmallPool
}

var (
	smallPoolListLock sync.Spinlock
	smallPoolList     *SmallPool
)

const minObjSize = uint32(unsafe.Sizeof(freeSlot{}))

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// Init registers pool with the given object size/alignment, ready for
// Alloc. Every pool created this way is tracked so CompactAll can sweep
// it.
func (p *SmallPool) Init(name string, objSize, objAlign uint32, frameFlags pmm.AllocFlags) {
	if objSize < minObjSize {
		objSize = minObjSize
	}
	objSize = alignUp(objSize, objAlign)

	p.name = name
	p.objSize = objSize
	p.objAlign = objAlign
	p.framesPerPart = 1
	p.frameFlags = frameFlags
	p.headerSize = alignUp(uint32(unsafe.Sizeof(part{})), objAlign)

	flags := smallPoolListLock.Acquire()
	p.next = smallPoolList
	smallPoolList = p
	smallPoolListLock.Release(flags)
}

func (p *SmallPool) partCapacity() uint32 {
	avail := p.framesPerPart*uint32(mem.PageSize) - p.headerSize
	return avail / p.objSize
}

func (p *SmallPool) allocPart() *part {
	if globalAlloc == nil {
		return nil
	}
	addr, ok := globalAlloc(int(p.framesPerPart), p.frameFlags)
	if !ok {
		return nil
	}

	np := partAt(addr)
	*np = part{pool: p}

	n := p.partCapacity()
	np.numFree = n
	p.numTotal += n
	p.numFree += n

	slotBase := addr + uintptr(p.headerSize)
	var s *freeSlot
	for i := uint32(0); i < n; i++ {
		cur := (*freeSlot)(unsafe.Pointer(slotBase + uintptr(i)*uintptr(p.objSize)))
		if i == n-1 {
			cur.next = nil
		} else {
			cur.next = (*freeSlot)(unsafe.Pointer(slotBase + uintptr(i+1)*uintptr(p.objSize)))
		}
		if i == 0 {
			s = cur
		}
	}
	np.firstFree = s

	np.nextPart = p.partsEmpty
	p.partsEmpty = np
	return np
}

func (p *SmallPool) freePart(target, prev *part) {
	if prev != nil {
		prev.nextPart = target.nextPart
	} else {
		p.partsEmpty = target.nextPart
	}
	p.numTotal -= uint32(p.partCapacity())
	p.numFree -= uint32(p.partCapacity())
	if globalFree != nil {
		globalFree(uintptr(unsafe.Pointer(target)), int(p.framesPerPart))
	}
}

// Alloc returns one object from the pool, growing it with a fresh part
// if every existing part is full.
func (p *SmallPool) Alloc(flags pmm.AllocFlags) (uintptr, bool) {
	lockFlags := p.lock.Acquire()
	defer p.lock.Release(lockFlags)

	var target *part
	if p.partsPartial != nil {
		target = p.partsPartial
	} else {
		if p.partsEmpty == nil {
			if p.allocPart() == nil {
				return 0, false
			}
		}
		target = p.partsEmpty
		if target == nil {
			return 0, false
		}
		p.partsEmpty = target.nextPart
		target.nextPart = p.partsPartial
		p.partsPartial = target
	}

	s := target.firstFree
	target.firstFree = s.next
	target.numFree--
	p.numFree--

	if target.numFree == 0 {
		p.partsPartial = target.nextPart
		target.nextPart = p.partsFull
		p.partsFull = target
	}

	return uintptr(unsafe.Pointer(s)), true
}

func (p *SmallPool) findPart(head *part, addr uintptr) (target, prev *part) {
	span := uintptr(p.framesPerPart) * uintptr(mem.PageSize)
	for cur, pr := head, (*part)(nil); cur != nil; pr, cur = cur, cur.nextPart {
		base := uintptr(unsafe.Pointer(cur))
		if addr >= base && addr < base+span {
			return cur, pr
		}
	}
	return nil, nil
}

// Free returns obj to its owning part, promoting the part between the
// empty/partial/full lists as its occupancy changes.
func (p *SmallPool) Free(obj uintptr) {
	lockFlags := p.lock.Acquire()
	defer p.lock.Release(lockFlags)

	target, prev := p.findPart(p.partsPartial, obj)
	fromFull := false
	if target == nil {
		target, prev = p.findPart(p.partsFull, obj)
		fromFull = true
	}
	if target == nil {
		panic("pool: free of object not owned by this pool")
	}

	s := (*freeSlot)(unsafe.Pointer(obj))
	s.next = target.firstFree
	target.firstFree = s
	target.numFree++
	p.numFree++

	full := target.numFree == p.partCapacity()
	switch {
	case target.numFree == 1 && fromFull:
		if prev == nil {
			p.partsFull = target.nextPart
		} else {
			prev.nextPart = target.nextPart
		}
		target.nextPart = p.partsPartial
		p.partsPartial = target
	case full && !fromFull:
		if prev == nil {
			p.partsPartial = target.nextPart
		} else {
			prev.nextPart = target.nextPart
		}
		target.nextPart = p.partsEmpty
		p.partsEmpty = target
	}
}

// Compact returns every fully empty part to the global allocator.
func (p *SmallPool) Compact() {
	lockFlags := p.lock.Acquire()
	defer p.lock.Release(lockFlags)
	for p.partsEmpty != nil {
		p.freePart(p.partsEmpty, nil)
	}
}

// CompactAll sweeps every registered small pool.
func CompactAll() {
	flags := smallPoolListLock.Acquire()
	defer smallPoolListLock.Release(flags)
	for p := smallPoolList; p != nil; p = p.next {
		p.Compact()
	}
}
