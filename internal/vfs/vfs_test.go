package vfs

import (
	"testing"

	"osteach/internal/defs"
	"osteach/internal/mem"
	"osteach/internal/ustr"
)

type bufUio struct {
	data []uint8
	off  int
}

func (b *bufUio) Uioread(dst []uint8) (int, defs.Err_t) {
	n := copy(dst, b.data[b.off:])
	b.off += n
	return n, 0
}
func (b *bufUio) Uiowrite(src []uint8) (int, defs.Err_t) {
	b.data = append(b.data, src...)
	return len(src), 0
}
func (b *bufUio) Remain() int  { return len(b.data) - b.off }
func (b *bufUio) Totalsz() int { return len(b.data) }

func TestCreateWriteReadRoundTrip(t *testing.T) {
	pm := mem.Phys_init(1 << 20)
	v := MkVFS(pm)

	vn, err := v.Open(v.Root(), ustr.Ustr("/hello.txt"), O_CREAT|O_RDWR, 0644)
	if err != 0 {
		t.Fatalf("open/create failed: %v", err)
	}

	w := &bufUio{data: []byte("hello world")}
	n, err := vn.WriteAt(w, 0)
	if err != 0 || n != 11 {
		t.Fatalf("write failed: n=%d err=%v", n, err)
	}

	r := &bufUio{}
	n, err = vn.ReadAt(r, 0)
	if err != 0 || n != 11 {
		t.Fatalf("read failed: n=%d err=%v", n, err)
	}
	if string(r.data) != "hello world" {
		t.Fatalf("round trip mismatch: got %q", r.data)
	}
}

func TestChdirAndDotDot(t *testing.T) {
	pm := mem.Phys_init(1 << 20)
	v := MkVFS(pm)

	if _, err := v.Open(v.Root(), ustr.Ustr("/a/b/c.txt"), O_CREAT, 0644); err != 0 {
		t.Fatalf("nested create failed: %v", err)
	}
	dir, err := v.Chdir(v.Root(), ustr.Ustr("/a/b"))
	if err != 0 {
		t.Fatalf("chdir failed: %v", err)
	}
	back, err := v.Chdir(dir, ustr.Ustr(".."))
	if err != 0 {
		t.Fatalf("chdir .. failed: %v", err)
	}
	if _, err := v.Open(back, ustr.Ustr("b/c.txt"), O_RDONLY, 0); err != 0 {
		t.Fatalf("relative open after chdir .. failed: %v", err)
	}
}

func TestConsoleWriteRead(t *testing.T) {
	pm := mem.Phys_init(1 << 20)
	v := MkVFS(pm)

	con := v.OpenConsole()
	w := &bufUio{data: []byte("hi\n")}
	if _, err := con.WriteAt(w, 0); err != 0 {
		t.Fatalf("console write failed: %v", err)
	}
	if con.VOP_ISSEEKABLE() {
		t.Fatal("console reports seekable")
	}
}
