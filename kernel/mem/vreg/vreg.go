// Package vreg tracks free virtual address ranges above the kernel's
// permanently reserved region, handing out and reclaiming page-aligned
// spans for GlobalAlloc and user-space mappings. Free spans live in two
// intrusive singly-linked lists over the same set of region records:
// one kept in address order (for coalescing adjacent frees) and one
// kept in descending size order (for best-fit allocation), linked
// through the records themselves rather than through a separate
// index.
package vreg

import (
	"aasvogel/kernel/mem"
	"aasvogel/kernel/sync"
)

// region describes one free virtual address span, in pages.
type region struct {
	addr  uintptr
	pages uint32

	nextAddr *region
	nextSize *region
}

// regionsPerBatch free_region records are carved out of one Go-heap
// batch at a time; growing the free-record list an allocation at a
// time would thrash the allocator on every Free call.
const regionsPerBatch = 64

// Manager is one free-region tracker; the kernel keeps exactly one
// (for GlobalAlloc/GlobalFree) but the type takes no global state so
// a future per-address-space instance is possible.
type Manager struct {
	lock sync.Spinlock

	firstAddr   *region
	firstSize   *region
	freeRecords *region // recycled nodes, linked through nextAddr
}

// NewManager returns an empty region tracker; call AddFree to seed it
// with the address ranges it is allowed to hand out.
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) allocRecord() *region {
	if m.freeRecords == nil {
		batch := make([]region, regionsPerBatch)
		for i := 0; i < regionsPerBatch-1; i++ {
			batch[i].nextAddr = &batch[i+1]
		}
		m.freeRecords = &batch[0]
	}
	r := m.freeRecords
	m.freeRecords = r.nextAddr
	*r = region{}
	return r
}

func (m *Manager) releaseRecord(r *region) {
	r.nextAddr = m.freeRecords
	m.freeRecords = r
}

func (m *Manager) removeAddr(r *region) {
	if m.firstAddr == r {
		m.firstAddr = r.nextAddr
		return
	}
	for p := m.firstAddr; p != nil; p = p.nextAddr {
		if p.nextAddr == r {
			p.nextAddr = r.nextAddr
			return
		}
	}
}

func (m *Manager) removeSize(r *region) {
	if m.firstSize == r {
		m.firstSize = r.nextSize
		return
	}
	for p := m.firstSize; p != nil; p = p.nextSize {
		if p.nextSize == r {
			p.nextSize = r.nextSize
			return
		}
	}
}

// insertSize threads r into the descending-by-size list; equal-sized
// regions are inserted ahead of existing ones of the same size.
func (m *Manager) insertSize(r *region) {
	if m.firstSize == nil || m.firstSize.pages <= r.pages {
		r.nextSize = m.firstSize
		m.firstSize = r
		return
	}
	p := m.firstSize
	for p.nextSize != nil && p.nextSize.pages > r.pages {
		p = p.nextSize
	}
	r.nextSize = p.nextSize
	p.nextSize = r
}

// bestFit scans the descending size list for the smallest region that
// is still at least pages long, returning it and its predecessor (nil
// if it is the head).
func (m *Manager) bestFit(pages uint32) (r, pred *region) {
	r = m.firstSize
	for r != nil && r.nextSize != nil && r.nextSize.pages >= pages {
		pred = r
		r = r.nextSize
	}
	if r != nil && r.pages < pages {
		return nil, nil
	}
	return r, pred
}

func pageBytes(pages uint32) uintptr {
	return uintptr(pages) * uintptr(mem.PageSize)
}

// AddFree introduces a span as available for allocation. It is meant
// for boot-time setup (seeding the initial free ranges) before more
// than one thread can reach the manager; concurrent callers must go
// through Free instead.
func (m *Manager) AddFree(addr uintptr, pages uint32) {
	m.insertFree(addr, pages)
}

// Alloc reserves a best-fit span of the given length and returns its
// base address, or ok=false if no span is long enough.
func (m *Manager) Alloc(pages uint32) (uintptr, bool) {
	flags := m.lock.Acquire()
	defer m.lock.Release(flags)

	r, pred := m.bestFit(pages)
	if r == nil {
		return 0, false
	}

	addr := r.addr
	if r.pages == pages {
		if pred == nil {
			m.firstSize = r.nextSize
		} else {
			pred.nextSize = r.nextSize
		}
		m.removeAddr(r)
		m.releaseRecord(r)
	} else {
		if pred == nil {
			m.firstSize = r.nextSize
		} else {
			pred.nextSize = r.nextSize
		}
		r.addr += pageBytes(pages)
		r.pages -= pages
		m.insertSize(r)
	}
	return addr, true
}

// Free returns a previously allocated span, coalescing it with
// immediately adjacent free spans.
func (m *Manager) Free(addr uintptr, pages uint32) {
	flags := m.lock.Acquire()
	defer m.lock.Release(flags)
	m.insertFree(addr, pages)
}

func (m *Manager) insertFree(addr uintptr, pages uint32) {
	p := m.firstAddr
	if p != nil && addr < p.addr {
		p = nil
	}
	for p != nil && p.nextAddr != nil && p.nextAddr.addr <= addr {
		p = p.nextAddr
	}

	size := pageBytes(pages)

	switch {
	case p != nil && addr < p.addr+pageBytes(p.pages):
		// Overlaps an already-free span: never a legitimate caller.
		panic("vreg: freed span overlaps an already-free region")

	case p != nil && addr == p.addr+pageBytes(p.pages):
		p.pages += pages
		if p.nextAddr != nil && p.nextAddr.addr == addr+size {
			next := p.nextAddr
			p.pages += next.pages
			m.removeSize(next)
			p.nextAddr = next.nextAddr
			m.releaseRecord(next)
		}
		m.removeSize(p)
		m.insertSize(p)

	case p != nil && p.nextAddr != nil && p.nextAddr.addr == addr+size:
		p.nextAddr.addr = addr
		p.nextAddr.pages += pages
		m.removeSize(p.nextAddr)
		m.insertSize(p.nextAddr)

	case p == nil && m.firstAddr != nil && m.firstAddr.addr == addr+size:
		m.firstAddr.addr = addr
		m.firstAddr.pages += pages
		m.removeSize(m.firstAddr)
		m.insertSize(m.firstAddr)

	default:
		nr := m.allocRecord()
		nr.addr = addr
		nr.pages = pages
		if p == nil {
			nr.nextAddr = m.firstAddr
			m.firstAddr = nr
		} else {
			nr.nextAddr = p.nextAddr
			p.nextAddr = nr
		}
		m.insertSize(nr)
	}
}
