package sys

import (
	"testing"

	"osteach/internal/defs"
	"osteach/internal/limits"
	"osteach/internal/mem"
	"osteach/internal/proc"
	"osteach/internal/vfs"
	"osteach/internal/vm"
)

func newTestKernel(t *testing.T) (*Kernel_t, *proc.Proc_t) {
	t.Helper()
	pm := mem.Phys_init(8 << 20)
	pk := &proc.Kernel_t{Pids: proc.MkPidTable(limits.PidMax), VFS: vfs.MkVFS(pm)}
	k := NewKernel(pm, pk, limits.Default())

	p, err := pk.CreateRunprogram("init", nil, limits.OpenMax)
	if err != 0 {
		t.Fatalf("CreateRunprogram: %v", err)
	}
	p.As = vm.Create(pm)
	p.As.DefineRegion(0x400000, vm.PageSize, true, true, true)
	p.As.DefineStack(limits.UserStack)
	return k, p
}

func TestOpenWriteReadCloseRoundTrip(t *testing.T) {
	k, p := newTestKernel(t)

	fdno, err := k.Open(p, "hello.txt", vfs.O_CREAT|vfs.O_RDWR, 0644)
	if err != 0 {
		t.Fatalf("open: %v", err)
	}

	n, err := k.Write(p, fdno, []uint8("hello"))
	if err != 0 || n != 5 {
		t.Fatalf("write = %d, %v", n, err)
	}

	if _, err := k.Lseek(p, fdno, 0, SeekSet); err != 0 {
		t.Fatalf("lseek: %v", err)
	}

	buf := make([]uint8, 16)
	n, err = k.Read(p, fdno, buf)
	if err != 0 || string(buf[:n]) != "hello" {
		t.Fatalf("read = %q, %v", buf[:n], err)
	}

	if err := k.Close(p, fdno); err != 0 {
		t.Fatalf("close: %v", err)
	}
	if _, err := k.Read(p, fdno, buf); err != defs.EBADF {
		t.Fatalf("read after close = %v, want EBADF", err)
	}
}

func TestDup2SharesOffset(t *testing.T) {
	k, p := newTestKernel(t)

	fdno, _ := k.Open(p, "f", vfs.O_CREAT|vfs.O_RDWR, 0644)
	k.Write(p, fdno, []uint8("abcdef"))

	newfd := 50
	if _, err := k.Dup2(p, fdno, newfd); err != 0 {
		t.Fatalf("dup2: %v", err)
	}

	// Seeking through the dup'd descriptor must move the shared offset
	// seen by the original, since dup2 shares the open-file object.
	if _, err := k.Lseek(p, newfd, 0, SeekSet); err != 0 {
		t.Fatalf("lseek via dup: %v", err)
	}
	buf := make([]uint8, 3)
	n, err := k.Read(p, fdno, buf)
	if err != 0 || n != 3 || string(buf) != "abc" {
		t.Fatalf("read via original after seek via dup = %q, %v", buf[:n], err)
	}
}

func TestLseekRejectsConsole(t *testing.T) {
	k, p := newTestKernel(t)
	if _, err := k.Lseek(p, 1, 0, SeekSet); err != defs.ESPIPE {
		t.Fatalf("lseek on console = %v, want ESPIPE", err)
	}
}

func TestBadFdIsEBADF(t *testing.T) {
	k, p := newTestKernel(t)
	buf := make([]uint8, 4)
	if _, err := k.Read(p, limits.OpenMax, buf); err != defs.EBADF {
		t.Fatalf("read at fd==OPEN_MAX = %v, want EBADF (fd >= OPEN_MAX bound check)", err)
	}
	if _, err := k.Read(p, -1, buf); err != defs.EBADF {
		t.Fatalf("read at fd==-1 = %v, want EBADF", err)
	}
}

func TestChdirAndGetcwd(t *testing.T) {
	k, p := newTestKernel(t)
	k.Open(p, "/sub/file", vfs.O_CREAT|vfs.O_RDWR, 0644)

	if err := k.Chdir(p, "/sub"); err != 0 {
		t.Fatalf("chdir: %v", err)
	}

	buf := make([]uint8, 64)
	n, err := k.Getcwd(p, buf)
	if err != 0 {
		t.Fatalf("getcwd: %v", err)
	}
	if string(buf[:n]) != "/sub" {
		t.Fatalf("getcwd = %q, want /sub", buf[:n])
	}
}

func TestGetpid(t *testing.T) {
	k, p := newTestKernel(t)
	if k.Getpid(p) != p.Pid {
		t.Fatalf("getpid mismatch")
	}
}

func TestSbrkGrowsHeapMonotonically(t *testing.T) {
	k, p := newTestKernel(t)
	_, before := p.As.HeapBounds()

	old, err := k.Sbrk(p, 4096)
	if err != 0 {
		t.Fatalf("sbrk: %v", err)
	}
	if old != before {
		t.Fatalf("sbrk returned %x, want previous break %x", old, before)
	}

	_, after := p.As.HeapBounds()
	if after != before+4096 {
		t.Fatalf("heap end = %x, want %x", after, before+4096)
	}
}

func TestForkSharesFileTableAndDeepCopiesAs(t *testing.T) {
	k, p := newTestKernel(t)

	fdno, _ := k.Open(p, "shared", vfs.O_CREAT|vfs.O_RDWR, 0644)
	k.Write(p, fdno, []uint8("parent"))
	k.Sbrk(p, 4096)

	childPid, err := k.Fork(p)
	if err != 0 {
		t.Fatalf("fork: %v", err)
	}
	child, ok := k.Procs.Pids.Get(childPid)
	if !ok {
		t.Fatalf("child not registered")
	}
	if child.Parent != p.Pid {
		t.Fatalf("child.Parent = %d, want %d", child.Parent, p.Pid)
	}

	// The file table is shared: seeking via the child must be visible to
	// the parent (same open-file object, bumped refcount).
	if _, err := k.Lseek(child, fdno, 0, SeekSet); err != 0 {
		t.Fatalf("lseek via child: %v", err)
	}
	buf := make([]uint8, 6)
	n, rerr := k.Read(p, fdno, buf)
	if rerr != 0 || string(buf[:n]) != "parent" {
		t.Fatalf("read via parent after child seek = %q, %v", buf[:n], rerr)
	}

	// The address space is deep-copied: growing the child's heap further
	// must not move the parent's.
	parentBase, parentEnd := p.As.HeapBounds()
	k.Sbrk(child, 4096)
	childBase, childEnd := child.As.HeapBounds()
	newParentBase, newParentEnd := p.As.HeapBounds()
	if newParentBase != parentBase || newParentEnd != parentEnd {
		t.Fatalf("parent heap bounds changed after child sbrk")
	}
	if childBase != parentBase || childEnd == parentEnd {
		t.Fatalf("child heap bounds not independent: base=%x end=%x", childBase, childEnd)
	}
}

func TestWaitpidReturnsPackedExitStatus(t *testing.T) {
	k, p := newTestKernel(t)
	childPid, err := k.Fork(p)
	if err != 0 {
		t.Fatalf("fork: %v", err)
	}
	child, _ := k.Procs.Pids.Get(childPid)

	done := make(chan struct{})
	go func() {
		k.Exit(child, 42)
		close(done)
	}()
	<-done

	pid, status, werr := k.Waitpid(p, childPid, 0)
	if werr != 0 {
		t.Fatalf("waitpid: %v", werr)
	}
	if pid != childPid {
		t.Fatalf("waitpid returned pid %d, want %d", pid, childPid)
	}
	if got := (status >> 8) & 0xff; got != 42 {
		t.Fatalf("exit status = %d, want 42", got)
	}
}

func TestWaitpidRejectsNonChild(t *testing.T) {
	k, p := newTestKernel(t)
	other, _ := k.Procs.Create("stranger")
	if _, _, err := k.Waitpid(p, other.Pid, 0); err != defs.ECHILD {
		t.Fatalf("waitpid on non-child = %v, want ECHILD", err)
	}
}

func TestExecvLoadsImageAndLaysOutArgv(t *testing.T) {
	k, p := newTestKernel(t)
	k.Open(p, "/bin/true", vfs.O_CREAT|vfs.O_RDWR, 0755)
	fdno, _ := k.Open(p, "/bin/true", vfs.O_RDWR, 0755)
	k.Write(p, fdno, []uint8{0xde, 0xad, 0xbe, 0xef})
	k.Close(p, fdno)

	entry, sp, err := k.Execv(p, "/bin/true", []string{"true"})
	if err != 0 {
		t.Fatalf("execv: %v", err)
	}
	if entry == 0 {
		t.Fatalf("entry point is zero")
	}
	if sp%8 != 0 {
		t.Fatalf("stack pointer %x is not 8-byte aligned", sp)
	}

	// argv[0] should point to a NUL-terminated "true" string, and
	// argv[1] must be a null pointer per the argv layout contract.
	argv0 := readUserPtr(t, p.As, sp)
	if argv0 == 0 {
		t.Fatalf("argv[0] is null")
	}
	argv1 := readUserPtr(t, p.As, sp+8)
	if argv1 != 0 {
		t.Fatalf("argv[1] = %x, want 0 (argc == 1)", argv1)
	}

	page := p.As.PageFor(argv0 &^ uintptr(vm.PageSize-1))
	if page == nil {
		t.Fatalf("argv[0] string page not mapped")
	}
	off := argv0 % uintptr(vm.PageSize)
	got := string(page[off : off+4])
	if got != "true" {
		t.Fatalf("argv[0] string = %q, want \"true\"", got)
	}
}

func TestExecvRejectsOverlongPath(t *testing.T) {
	k, p := newTestKernel(t)
	longPath := "/" + string(make([]byte, k.Limits.PathMax+1))
	if _, _, err := k.Execv(p, longPath, []string{"x"}); err != defs.ENAMETOOLONG {
		t.Fatalf("execv with over-long path = %v, want ENAMETOOLONG", err)
	}
}

func TestExecvRejectsArgvOverBudget(t *testing.T) {
	k, p := newTestKernel(t)
	k.Open(p, "/bin/true", vfs.O_CREAT|vfs.O_RDWR, 0755)

	huge := make([]string, 0, k.Limits.ArgMax)
	for total := 0; total < k.Limits.ArgMax+8; total += 8 {
		huge = append(huge, "a")
	}
	if _, _, err := k.Execv(p, "/bin/true", huge); err != defs.E2BIG {
		t.Fatalf("execv with argv over ARG_MAX = %v, want E2BIG", err)
	}
}

func TestExecvRejectsSingleOverlongArg(t *testing.T) {
	k, p := newTestKernel(t)
	k.Open(p, "/bin/true", vfs.O_CREAT|vfs.O_RDWR, 0755)

	single := string(make([]byte, k.Limits.ArgMax+1))
	if _, _, err := k.Execv(p, "/bin/true", []string{single}); err != defs.E2BIG {
		t.Fatalf("execv with single over-long arg = %v, want E2BIG", err)
	}
}

func readUserPtr(t *testing.T, as *vm.As_t, va uintptr) uintptr {
	t.Helper()
	page := as.PageFor(va &^ uintptr(vm.PageSize-1))
	if page == nil {
		t.Fatalf("page at %x not mapped", va)
	}
	off := va % uintptr(vm.PageSize)
	var v uintptr
	for i := 0; i < 8; i++ {
		v |= uintptr(page[off+uintptr(i)]) << (8 * i)
	}
	return v
}
