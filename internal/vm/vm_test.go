package vm

import (
	"testing"

	"osteach/internal/defs"
	"osteach/internal/mem"
)

func newAs(t *testing.T) *As_t {
	t.Helper()
	pm := mem.Phys_init(1 << 20)
	return Create(pm)
}

func TestFaultOutsideAllRegionsIsEFAULT(t *testing.T) {
	as := newAs(t)
	if err := as.Fault(FaultRead, 0x1000); err != defs.EFAULT {
		t.Fatalf("got %v, want EFAULT", err)
	}
}

func TestFaultReadOnlyRegionRejectsWriteWithoutLoading(t *testing.T) {
	as := newAs(t)
	as.DefineRegion(0x400000, PageSize, true, false, true)

	if err := as.Fault(FaultReadOnly, 0x400000); err != defs.EFAULT {
		t.Fatalf("got %v, want EFAULT", err)
	}
}

func TestFaultReadOnlyRegionAllowsWriteWhileLoading(t *testing.T) {
	as := newAs(t)
	as.DefineRegion(0x400000, PageSize, true, false, true)
	as.PrepareLoad()

	if err := as.Fault(FaultReadOnly, 0x400000); err != 0 {
		t.Fatalf("got %v, want success while loading", err)
	}
}

func TestFaultAllocatesAndZeroesFrame(t *testing.T) {
	as := newAs(t)
	as.DefineRegion(0x400000, PageSize, true, true, false)

	if err := as.Fault(FaultWrite, 0x400000); err != 0 {
		t.Fatalf("fault failed: %v", err)
	}
	pa := as.lookup(0x400000)
	if pa == 0 {
		t.Fatal("fault did not install a mapping")
	}
	for _, b := range as.pm.Dmap(pa) {
		if b != 0 {
			t.Fatal("newly faulted frame is not zeroed")
		}
	}
}

func TestSbrkMonotonicity(t *testing.T) {
	as := newAs(t)
	as.heapBase = 0x500000
	as.heapEnd = 0x500000
	as.stackEnd = 0x700000000

	h0 := as.heapBase
	old, err := as.Sbrk(0)
	if err != 0 || old != h0 {
		t.Fatalf("sbrk(0) = %v, %v; want %v, 0", old, err, h0)
	}

	old, err = as.Sbrk(PageSize)
	if err != 0 || old != h0 {
		t.Fatalf("sbrk(PageSize) = %v, %v; want %v, 0", old, err, h0)
	}
	old2, err := as.Sbrk(0)
	if err != 0 || old2 != h0+PageSize {
		t.Fatalf("sbrk(0) after growth = %v; want %v", old2, h0+PageSize)
	}

	if _, err := as.Sbrk(-(PageSize + 1)); err != defs.EINVAL {
		t.Fatalf("sbrk shrink below heap_base = %v; want EINVAL", err)
	}
	if _, err := as.Sbrk(1 << 40); err != defs.ENOMEM {
		t.Fatalf("gigantic sbrk = %v; want ENOMEM", err)
	}
}

func TestFaultInHeapAllocatesLazily(t *testing.T) {
	as := newAs(t)
	as.heapBase = 0x500000
	as.heapEnd = 0x500000
	as.stackEnd = 1 << 40

	if _, err := as.Sbrk(PageSize); err != 0 {
		t.Fatalf("sbrk failed: %v", err)
	}
	if err := as.Fault(FaultWrite, as.heapBase); err != 0 {
		t.Fatalf("fault in grown heap failed: %v", err)
	}
}

func TestCopyDeepCopiesPages(t *testing.T) {
	as := newAs(t)
	as.DefineRegion(0x400000, PageSize, true, true, false)
	if err := as.Fault(FaultWrite, 0x400000); err != 0 {
		t.Fatalf("fault failed: %v", err)
	}
	pa := as.lookup(0x400000)
	as.pm.Dmap(pa)[0] = 0x42

	cp, err := as.Copy()
	if err != 0 {
		t.Fatalf("copy failed: %v", err)
	}
	cpa := cp.lookup(0x400000)
	if cpa == 0 {
		t.Fatal("copy did not preserve mapping")
	}
	if cpa == pa {
		t.Fatal("copy shares the parent's frame instead of deep-copying")
	}
	if cp.pm.Dmap(cpa)[0] != 0x42 {
		t.Fatal("copy did not preserve page contents")
	}

	as.pm.Dmap(pa)[0] = 0x99
	if cp.pm.Dmap(cpa)[0] != 0x42 {
		t.Fatal("parent write leaked into the copy")
	}
}
