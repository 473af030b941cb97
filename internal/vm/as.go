package vm

import (
	"sync"

	"osteach/internal/defs"
	"osteach/internal/mem"
)

// As_t is a process's virtual address space: region list, two-level page
// table, heap/stack bounds, the loading flag, and a TLB. Grounded on
// kern/vm/addrspace.c.
type As_t struct {
	mu sync.Mutex // "Lock_pmap"; guards regions + l1 + bounds

	regions []*Region_t
	l1      [L1Entries]*l2table_t

	heapBase, heapEnd   uintptr
	stackBase, stackEnd uintptr
	loading             bool

	tlb Tlb_t
	pm  *mem.Physmem_t
}

// Lock_pmap / Unlock_pmap give address-space mutation an explicit named
// locking idiom, as opposed to a bare embedded mutex.
func (as *As_t) Lock_pmap()   { as.mu.Lock() }
func (as *As_t) Unlock_pmap() { as.mu.Unlock() }

// Create returns an empty address space: empty region list, empty page
// table, zero heap/stack bounds, loading false.
func Create(pm *mem.Physmem_t) *As_t {
	return &As_t{pm: pm}
}

// DefineStack sets stack_base = USERSTACK, stack_end = USERSTACK -
// PAGE_SIZE, and returns USERSTACK as the initial stack pointer.
func (as *As_t) DefineStack(userStack uintptr) uintptr {
	as.Lock_pmap()
	defer as.Unlock_pmap()
	as.stackBase = userStack
	as.stackEnd = userStack - PageSize
	return userStack
}

// PrepareLoad sets the loading flag, temporarily granting write
// permission to all regions so the ELF loader can populate them.
func (as *As_t) PrepareLoad() {
	as.Lock_pmap()
	as.loading = true
	as.Unlock_pmap()
}

// CompleteLoad clears the loading flag and flushes the TLB by activating.
func (as *As_t) CompleteLoad() {
	as.Lock_pmap()
	as.loading = false
	as.Unlock_pmap()
	as.Activate()
}

// Activate flushes the entire TLB, as if executed with interrupts off.
func (as *As_t) Activate() {
	as.Lock_pmap()
	defer as.Unlock_pmap()
	as.tlb.Flush()
}

// Deactivate is a no-op, matching the source.
func (as *As_t) Deactivate() {}

// HeapBounds returns the current heap_base/heap_end.
func (as *As_t) HeapBounds() (base, end uintptr) {
	as.Lock_pmap()
	defer as.Unlock_pmap()
	return as.heapBase, as.heapEnd
}

// Sbrk implements the heap-growth half of the sbrk syscall: it validates
// and updates heap_end, returning the pre-call value. No physical frames
// are allocated here; page faults populate them lazily.
func (as *As_t) Sbrk(amount int) (oldBreak uintptr, err defs.Err_t) {
	as.Lock_pmap()
	defer as.Unlock_pmap()

	old := as.heapEnd
	if amount == 0 {
		return old, 0
	}
	newEnd := uintptr(int64(old) + int64(amount))
	if amount < 0 && newEnd > old {
		return 0, defs.EINVAL // unsigned wraparound
	}
	if newEnd < as.heapBase {
		return 0, defs.EINVAL
	}
	if newEnd >= as.stackEnd && as.stackEnd != 0 {
		return 0, defs.ENOMEM // collision with the stack region
	}
	as.heapEnd = newEnd
	return old, 0
}

// Copy deep-copies regions (new list) and every live page-table entry by
// allocating a fresh frame and byte-copying the page's contents, copies
// heap/stack metadata and loading. Partial failure aborts and destroys
// the new space.
func (as *As_t) Copy() (*As_t, defs.Err_t) {
	as.Lock_pmap()
	defer as.Unlock_pmap()

	na := Create(as.pm)
	for _, r := range as.regions {
		cp := *r
		na.regions = append(na.regions, &cp)
	}
	na.heapBase, na.heapEnd = as.heapBase, as.heapEnd
	na.stackBase, na.stackEnd = as.stackBase, as.stackEnd
	na.loading = as.loading

	for i, l2 := range as.l1 {
		if l2 == nil {
			continue
		}
		for j, pa := range l2 {
			if pa == 0 {
				continue
			}
			npa := na.pm.AllocPage()
			if npa == 0 {
				na.destroyLocked()
				return nil, defs.ENOMEM
			}
			copy(na.pm.Dmap(npa), as.pm.Dmap(pa))
			nl2 := na.ensureL2(uintptr(i)<<L1Shift | uintptr(j)<<L2Shift)
			nl2[j] = npa
		}
	}
	return na, 0
}

// Destroy frees every allocated user frame and every level-2 table, then
// the region list, then the address-space record. This simulation has no
// notion of a currently active address space, so proc.Kernel_t.Destroy
// calls it directly without a deactivate step.
func (as *As_t) Destroy() {
	as.Lock_pmap()
	defer as.Unlock_pmap()
	as.destroyLocked()
}

func (as *As_t) destroyLocked() {
	for i, l2 := range as.l1 {
		if l2 == nil {
			continue
		}
		for _, pa := range l2 {
			if pa != 0 {
				as.pm.FreePage(pa)
			}
		}
		as.l1[i] = nil
	}
	as.regions = nil
}
