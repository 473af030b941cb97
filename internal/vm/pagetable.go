package vm

import "osteach/internal/mem"

// Two-level page table geometry: bits 31..22 select L1, bits 21..12
// select L2, bits 11..0 are the page offset.
const (
	L1Shift    = 22
	L2Shift    = 12
	IndexMask  = 0x3ff // 10 bits
	L1Entries  = 1 << 10
	L2Entries  = 1 << 10
)

// l2table_t holds 2^10 physical-frame addresses; zero means "not mapped,
// allocate on first touch".
type l2table_t [L2Entries]mem.Pa_t

func l1index(va uintptr) int {
	return int((va >> L1Shift) & IndexMask)
}

func l2index(va uintptr) int {
	return int((va >> L2Shift) & IndexMask)
}

// lookup returns the mapped frame for va, or 0 if unmapped (including when
// no level-2 table exists yet for its L1 slot).
func (as *As_t) lookup(va uintptr) mem.Pa_t {
	l2 := as.l1[l1index(va)]
	if l2 == nil {
		return 0
	}
	return l2[l2index(va)]
}

// ensureL2 returns the level-2 table for va's L1 slot, allocating a
// zeroed one on first use.
func (as *As_t) ensureL2(va uintptr) *l2table_t {
	i := l1index(va)
	if as.l1[i] == nil {
		as.l1[i] = &l2table_t{}
	}
	return as.l1[i]
}

// install maps va to pa in the two-level table, allocating the level-2
// table on first use.
func (as *As_t) install(va uintptr, pa mem.Pa_t) {
	l2 := as.ensureL2(va)
	l2[l2index(va)] = pa
}

// PageFor returns the backing byte slice for the frame mapping va's page,
// or nil if va is unmapped. Used by the ELF loader to populate a page
// directly once the fault handler has allocated it (the loader writes
// into kernel-visible memory, not through a user-facing copy path).
func (as *As_t) PageFor(va uintptr) []uint8 {
	as.Lock_pmap()
	defer as.Unlock_pmap()
	pa := as.lookup(va)
	if pa == 0 {
		return nil
	}
	return as.pm.Dmap(pa)
}
