package fd

import (
	"testing"

	"osteach/internal/defs"
	"osteach/internal/mem"
	"osteach/internal/ustr"
	"osteach/internal/vfs"
)

func TestFileTableInsertCloseRefcount(t *testing.T) {
	pm := mem.Phys_init(1 << 20)
	v := vfs.MkVFS(pm)
	vn, err := v.Open(v.Root(), ustr.Ustr("/a.txt"), vfs.O_CREAT|vfs.O_RDWR, 0644)
	if err != 0 {
		t.Fatalf("open failed: %v", err)
	}
	of := CreateOpenFile(vn, vfs.O_RDWR)
	ft := CreateFileTable(16)

	fd0, err := ft.Insert(of)
	if err != 0 || fd0 != 0 {
		t.Fatalf("insert failed: fd=%d err=%v", fd0, err)
	}

	got, err := ft.Get(fd0)
	if err != 0 || got != of {
		t.Fatalf("get failed: %v %v", got, err)
	}
	got.Decref() // undo the Get-side incref

	if err := ft.Close(fd0); err != 0 {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := ft.Get(fd0); err != defs.EBADF {
		t.Fatalf("get after close = %v, want EBADF", err)
	}
}

func TestFileTableCopySharesObjects(t *testing.T) {
	pm := mem.Phys_init(1 << 20)
	v := vfs.MkVFS(pm)
	vn, _ := v.Open(v.Root(), ustr.Ustr("/a.txt"), vfs.O_CREAT|vfs.O_RDWR, 0644)
	of := CreateOpenFile(vn, vfs.O_RDWR)
	ft := CreateFileTable(4)
	fd0, _ := ft.Insert(of)

	child := ft.Copy()
	childOf, err := child.Get(fd0)
	if err != 0 {
		t.Fatalf("child get failed: %v", err)
	}
	if childOf != of {
		t.Fatal("fork copy does not share the same open-file object")
	}
	childOf.Decref()
}

func TestDestroyDecrefsBeforeClearing(t *testing.T) {
	pm := mem.Phys_init(1 << 20)
	v := vfs.MkVFS(pm)
	vn, _ := v.Open(v.Root(), ustr.Ustr("/a.txt"), vfs.O_CREAT|vfs.O_RDWR, 0644)
	of := CreateOpenFile(vn, vfs.O_RDWR)
	ft := CreateFileTable(4)
	ft.Insert(of)

	// Destroy must not panic (a decref-after-clear bug would decref a nil
	// pointer here).
	ft.Destroy()
	if of.refs != 0 {
		t.Fatalf("refcount after destroy = %d, want 0", of.refs)
	}
}
