package vm

// NumTlb is the number of fully-associative TLB slots. A miss on lookup
// causes the page-fault trap (simulated by callers invoking As_t.Fault,
// in fault.go, directly instead of trapping).
const NumTlb = 64

// TlbEntry_t mirrors a MIPS-style TLB entry: a virtual page number tagged
// valid/dirty against a physical frame, in the shape of a COP0 TLB
// entry.
type TlbEntry_t struct {
	Valid bool
	Dirty bool // writable
	Vpn   uintptr
	Pfn   uintptr
}

// Tlb_t is the software-managed TLB belonging to one address space. Real
// hardware TLBs are per-CPU; this single-CPU simulation ties one to each
// As_t and flushes it on activate.
type Tlb_t struct {
	slots [NumTlb]TlbEntry_t
	rng   uint32 // xorshift state for random eviction
}

func (t *Tlb_t) nextRandom() uint32 {
	x := t.rng
	if x == 0 {
		x = 0x9e3779b9
	}
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	t.rng = x
	return x
}

// Flush writes INVALID to every slot, as activate does under
// interrupts-off.
func (t *Tlb_t) Flush() {
	for i := range t.slots {
		t.slots[i] = TlbEntry_t{}
	}
}

// Insert installs an entry into the first invalid slot, or evicts a
// uniformly random slot if none is free.
func (t *Tlb_t) Insert(vpn, pfn uintptr, dirty bool) {
	for i := range t.slots {
		if !t.slots[i].Valid {
			t.slots[i] = TlbEntry_t{Valid: true, Dirty: dirty, Vpn: vpn, Pfn: pfn}
			return
		}
	}
	victim := int(t.nextRandom() % NumTlb)
	t.slots[victim] = TlbEntry_t{Valid: true, Dirty: dirty, Vpn: vpn, Pfn: pfn}
}

// Lookup returns the entry mapping vpn, if any, and whether it was found.
func (t *Tlb_t) Lookup(vpn uintptr) (TlbEntry_t, bool) {
	for _, e := range t.slots {
		if e.Valid && e.Vpn == vpn {
			return e, true
		}
	}
	return TlbEntry_t{}, false
}
