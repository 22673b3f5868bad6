package pmm

import "aasvogel/kernel/sync"

// AllocFlags modify how Alloc chooses and waits for a frame.
type AllocFlags uint8

const (
	// Flag32Bit restricts the allocation to the low+normal pools (below
	// 4 GiB), e.g. for DMA-capable buffers on hardware without a bounce
	// buffer.
	Flag32Bit AllocFlags = 1 << iota

	// FlagEmergency permits drawing from the normal pool's emergency
	// reserve once the regular free stack is exhausted.
	FlagEmergency

	// FlagWait blocks the caller (via the scheduler) until a frame is
	// freed, instead of returning InvalidFrame immediately.
	FlagWait
)

// emergencyReserve bounds the flat array of frames withheld from the
// normal pool for FlagEmergency callers.
const emergencyReserve = 128

// kind identifies which logical pool a frame belongs to.
type kind uint8

const (
	kindLow kind = iota
	kindNormal
	kindHigh
)

// lowPoolCeiling / highPoolFloor split physical memory across the
// three pools: low is below 1 MiB (legacy DMA territory), high is
// at/above 4 GiB (only ever populated when PAE is enabled).
const (
	lowPoolCeiling = 1 << 20
	highPoolFloor  = 1 << 32
)

// pool is one of the three free-frame stacks (low, normal, high). It
// also records, for the normal pool only, the flat emergency reserve
// array carved out from its own frames.
type pool struct {
	lock  sync.Spinlock
	stack frameStack

	free  int
	total int

	// emergency holds frames withheld from the free count above (they
	// still count toward total) and is only populated on the normal pool.
	emergency    [emergencyReserve]Frame
	emergencyLen int
}

var (
	lowPool    pool
	normalPool pool
	highPool   pool

	// highPoolEnabled mirrors whether PAE is active; the high pool
	// (physical addresses >= 4 GiB) is meaningless under legacy
	// 32-bit paging, which cannot address it.
	highPoolEnabled bool

	// waitForFrameFn is invoked by Alloc when FlagWait is set and every
	// pool is exhausted. It is nil until the scheduler installs a real
	// implementation via SetWaitForFrame; pmm cannot import kernel/sched
	// directly without creating an import cycle (sched itself allocates
	// frames for thread stacks), so the scheduler injects it through a
	// function variable instead.
	waitForFrameFn func()
)

// SetWaitForFrame installs the function Alloc calls to block the
// current thread until some other thread frees a frame. The scheduler
// calls this once during boot.
func SetWaitForFrame(fn func()) {
	waitForFrameFn = fn
}

// SetHighPoolEnabled records whether the high (>= 4 GiB) pool is usable
// on this boot; called once after the CPU/PAE probe.
func SetHighPoolEnabled(enabled bool) {
	highPoolEnabled = enabled
}

// Alloc reserves a single frame according to flags, returning
// InvalidFrame if none is available (and FlagWait was not set, or
// waiting produced nothing).
func Alloc(flags AllocFlags) Frame {
	for {
		if flags&Flag32Bit == 0 && highPoolEnabled {
			if f := tryPool(&highPool, flags); f.Valid() {
				return f
			}
		}
		if f := tryPool(&normalPool, flags); f.Valid() {
			return f
		}
		if f := tryPool(&lowPool, flags); f.Valid() {
			return f
		}

		if flags&FlagWait == 0 || waitForFrameFn == nil {
			return InvalidFrame
		}
		waitForFrameFn()
	}
}

// tryPool attempts one allocation from p, including its emergency
// reserve when flags requests it. It does not itself implement
// FlagWait; that is the caller's retry loop.
func tryPool(p *pool, flags AllocFlags) Frame {
	eflags := p.lock.Acquire()
	defer p.lock.Release(eflags)

	if f, ok := p.stack.pop(); ok {
		p.free--
		return f
	}

	if flags&FlagEmergency != 0 && p.emergencyLen > 0 {
		p.emergencyLen--
		return p.emergency[p.emergencyLen]
	}

	return InvalidFrame
}

// Free returns a frame to the pool matching its physical address.
func Free(f Frame) {
	p := poolFor(f)
	eflags := p.lock.Acquire()
	p.stack.push(f)
	p.free++
	p.lock.Release(eflags)
}

// AllocMany performs up to n single allocations, one Alloc call (with
// its own lock acquisitions) per frame, returning however many frames it
// actually managed to reserve. Partial success is allowed; the caller
// is responsible for freeing the partial result if it decides not to
// use it.
func AllocMany(flags AllocFlags, n int, out []Frame) int {
	count := 0
	for count < n {
		f := Alloc(flags &^ FlagWait)
		if !f.Valid() {
			if flags&FlagWait != 0 && waitForFrameFn != nil {
				waitForFrameFn()
				continue
			}
			break
		}
		out[count] = f
		count++
	}
	return count
}

// FreeMany frees every frame in frames.
func FreeMany(frames []Frame) {
	for _, f := range frames {
		Free(f)
	}
}

// FreeCount returns the number of frames immediately available (not
// counting the emergency reserve) across all pools.
func FreeCount() int {
	return lowPool.free + normalPool.free + highPool.free
}

// poolFor returns the pool that owns frame f, chosen by its physical
// address range.
func poolFor(f Frame) *pool {
	addr := f.Address()
	switch {
	case addr < lowPoolCeiling:
		return &lowPool
	case addr >= highPoolFloor:
		return &highPool
	default:
		return &normalPool
	}
}

// addFree registers a brand-new (never-before-seen) frame as available,
// used only during Init. Unlike Free, it also grows total and can seed
// the normal pool's emergency reserve before falling through to the
// regular stack.
func addFree(f Frame) {
	p := poolFor(f)
	if p == &normalPool && p.emergencyLen < emergencyReserve {
		p.emergency[p.emergencyLen] = f
		p.emergencyLen++
		p.total++
		return
	}
	p.stack.push(f)
	p.free++
	p.total++
}
