// Package vm implements the per-process virtual address space: a region
// list, a two-level page table, a software-managed TLB, and the page-
// fault handler that ties them together.
package vm

import "osteach/internal/util"

const PageSize = 4096

// Region_t is a contiguous, page-aligned range of virtual addresses with
// uniform read/write/execute flags. Region lists are unordered; a slice
// stands in for the source's singly linked list since insertion order
// carries no meaning.
type Region_t struct {
	Base       uintptr
	Npages     int
	Readable   bool
	Writable   bool
	Executable bool
}

func (r *Region_t) end() uintptr {
	return r.Base + uintptr(r.Npages)*PageSize
}

func (r *Region_t) contains(va uintptr) bool {
	return va >= r.Base && va < r.end()
}

// DefineRegion page-aligns base and length, prepends a region, and
// extends heap_base/heap_end to the maximum end-of-region observed.
func (as *As_t) DefineRegion(base uintptr, length int, readable, writable, executable bool) *Region_t {
	alignedBase := util.Rounddown(base, uintptr(PageSize))
	alignedEnd := util.Roundup(base+uintptr(length), uintptr(PageSize))
	npages := int((alignedEnd - alignedBase) / PageSize)

	r := &Region_t{
		Base:       alignedBase,
		Npages:     npages,
		Readable:   readable,
		Writable:   writable,
		Executable: executable,
	}
	as.regions = append(as.regions, r)

	if r.end() > as.heapBase {
		as.heapBase = r.end()
		if as.heapEnd < as.heapBase {
			as.heapEnd = as.heapBase
		}
	}
	return r
}
