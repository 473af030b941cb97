// Package mem implements the physical frame allocator (coremap): one
// entry per physical frame, single-page and contiguous multi-page
// allocation, guarded by a single spinlock.
package mem

import (
	"sync"

	"osteach/internal/oommsg"
	"osteach/internal/util"
)

const (
	PGSHIFT = 12
	PGSIZE  = 1 << PGSHIFT // 4096
)

// Pa_t is a physical address: a frame number shifted by PGSHIFT.
type Pa_t uintptr

// cmentry_t is one coremap slot. block_size is meaningful only on the
// first frame of an allocation.
type cmentry_t struct {
	free      bool
	blockSize int
}

// Physmem_t is the coremap allocator's state: the entry array, a single
// guarding spinlock, and the bootstrap bounds of the simulated RAM.
type Physmem_t struct {
	mu         sync.Mutex
	cm         []cmentry_t
	frames     [][PGSIZE]uint8 // simulated physical RAM, one array per frame
	firstPaddr Pa_t
	totalPages int
	ready      bool
}

// Phys_init bootstraps the coremap over a simulated RAM region of
// ramBytes. It steals the frames the coremap array itself needs, records
// first_paddr as the first frame after that, and marks the remainder
// free. Mirrors vm_bootstrap's page-align / size / steal / mark sequence.
func Phys_init(ramBytes int) *Physmem_t {
	total := util.Rounddown(ramBytes, PGSIZE) / PGSIZE
	if total <= 0 {
		panic("not enough ram to bootstrap coremap")
	}

	pm := &Physmem_t{
		cm:         make([]cmentry_t, total),
		frames:     make([][PGSIZE]uint8, total),
		totalPages: total,
	}

	// The coremap "steals" the frames backing its own metadata from the
	// low end of RAM, exactly as coremap_bootstrap computes cm_size and
	// advances first_paddr past it. In this simulation the metadata lives
	// in Go-managed memory, so we reserve a single frame to stand in for
	// it and keep the accounting honest.
	reserved := 1
	for i := 0; i < reserved; i++ {
		pm.cm[i] = cmentry_t{free: false, blockSize: 1}
	}
	pm.firstPaddr = Pa_t(reserved * PGSIZE)
	for i := reserved; i < total; i++ {
		pm.cm[i] = cmentry_t{free: true}
	}
	pm.ready = true
	return pm
}

func (pm *Physmem_t) idx(pa Pa_t) int {
	return int(pa) / PGSIZE
}

// AllocPage returns the physical address of the first free frame and
// marks it {free=false, block_size=1}, or 0 on exhaustion.
func (pm *Physmem_t) AllocPage() Pa_t {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for i := pm.idx(pm.firstPaddr); i < pm.totalPages; i++ {
		if pm.cm[i].free {
			pm.cm[i] = cmentry_t{free: false, blockSize: 1}
			clear(pm.frames[i][:])
			return Pa_t(i * PGSIZE)
		}
	}
	oommsg.Notify(1)
	return 0
}

// AllocKpages performs a linear first-fit scan for n contiguous free
// frames and returns a kernel virtual address for them (the direct-mapped
// segment, here simply the physical address), or 0 on failure. The head
// frame records block_size=n; interior frames are {free=false,
// block_size=0}.
func (pm *Physmem_t) AllocKpages(n int) uintptr {
	if n <= 0 {
		panic("bad page count")
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	start := pm.idx(pm.firstPaddr)
	run := 0
	for i := start; i < pm.totalPages; i++ {
		if pm.cm[i].free {
			run++
			if run == n {
				head := i - n + 1
				pm.cm[head] = cmentry_t{free: false, blockSize: n}
				for j := head + 1; j <= i; j++ {
					pm.cm[j] = cmentry_t{free: false, blockSize: 0}
					clear(pm.frames[j][:])
				}
				clear(pm.frames[head][:])
				return pm.Dmap_v2p(Pa_t(head * PGSIZE))
			}
			continue
		}
		run = 0
	}
	oommsg.Notify(n)
	return 0
}

// FreePage requires pa >= first_paddr and a single-frame head
// (block_size==1), then flips it to free. Addresses below first_paddr are
// silently ignored, per the allocator's contract.
func (pm *Physmem_t) FreePage(pa Pa_t) {
	if pa < pm.firstPaddr {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	i := pm.idx(pa)
	if pm.cm[i].free || pm.cm[i].blockSize != 1 {
		panic("free_page: not a single-frame allocation head")
	}
	pm.cm[i] = cmentry_t{free: true}
}

// FreeKpages translates a kernel virtual address back to a physical
// address, locates the allocation's head, and frees exactly block_size
// consecutive frames. A zero or unrecognized head block_size is a
// programmer error, not something to paper over by scanning forward to
// find a head.
func (pm *Physmem_t) FreeKpages(kva uintptr) {
	pa := pm.Dmap_v2p_rev(kva)
	if pa < pm.firstPaddr {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	i := pm.idx(pa)
	n := pm.cm[i].blockSize
	if n <= 0 {
		panic("free_kpages: head has no recorded block_size")
	}
	for j := i; j < i+n; j++ {
		pm.cm[j] = cmentry_t{free: true}
	}
}

// Dmap returns a byte slice view of the frame at pa, standing in for the
// direct-mapped kernel segment.
func (pm *Physmem_t) Dmap(pa Pa_t) []uint8 {
	i := pm.idx(pa)
	return pm.frames[i][:]
}

// Dmap_v2p converts a physical address to its simulated kernel virtual
// address (here identical to the physical address); Dmap_v2p_rev is the
// inverse. Kept distinct from Pa_t even though this simulation's "direct
// map" is the identity function.
func (pm *Physmem_t) Dmap_v2p(pa Pa_t) uintptr {
	return uintptr(pa)
}

func (pm *Physmem_t) Dmap_v2p_rev(kva uintptr) Pa_t {
	return Pa_t(kva)
}

// Accounting reports the live-frame count and the sum of head block
// sizes, exposed so callers can cross-check them against each other.
func (pm *Physmem_t) Accounting() (usedFrames, sumHeadBlocks int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, e := range pm.cm {
		if !e.free {
			usedFrames++
		}
		if e.blockSize > 0 {
			sumHeadBlocks += e.blockSize
		}
	}
	return
}
