package proc

import (
	"testing"

	"osteach/internal/defs"
	"osteach/internal/limits"
	"osteach/internal/mem"
	"osteach/internal/vfs"
)

func newKernel(t *testing.T) *Kernel_t {
	t.Helper()
	pm := mem.Phys_init(1 << 20)
	return &Kernel_t{
		Pids: MkPidTable(limits.PidMax),
		VFS:  vfs.MkVFS(pm),
	}
}

func TestCreateAssignsDistinctPids(t *testing.T) {
	k := newKernel(t)
	p1, err := k.Create("a")
	if err != 0 {
		t.Fatalf("create p1 failed: %v", err)
	}
	p2, err := k.Create("b")
	if err != 0 {
		t.Fatalf("create p2 failed: %v", err)
	}
	if p1.Pid == p2.Pid {
		t.Fatalf("pid collision: %d", p1.Pid)
	}
}

func TestDestroyFreesPidForReuse(t *testing.T) {
	k := newKernel(t)
	p, _ := k.Create("a")
	pid := p.Pid
	k.Destroy(p)

	p2, err := k.Create("b")
	if err != 0 {
		t.Fatalf("create after destroy failed: %v", err)
	}
	if p2.Pid != pid {
		t.Fatalf("freed pid %d was not reused, got %d", pid, p2.Pid)
	}
}

func TestCreateRunprogramPopulatesStdFds(t *testing.T) {
	k := newKernel(t)
	p, err := k.CreateRunprogram("init", nil, limits.OpenMax)
	if err != 0 {
		t.Fatalf("CreateRunprogram failed: %v", err)
	}
	for fd := 0; fd < 3; fd++ {
		if _, err := p.FT.Get(fd); err != 0 {
			t.Fatalf("fd %d not populated: %v", fd, err)
		}
	}
}

func TestExitWaitRendezvous(t *testing.T) {
	k := newKernel(t)
	p, _ := k.Create("child")

	const parentTid, childTid defs.Tid_t = 100, 200
	done := make(chan int)
	go func() {
		done <- p.WaitExited(parentTid)
	}()

	p.Exit(7, childTid)

	status := <-done
	if got := WexitStatus(status); got != 7 {
		t.Fatalf("exit status = %d, want 7", got)
	}
}

func TestProcAllocpidExhaustionSentinelNotPid(t *testing.T) {
	k := &Kernel_t{Pids: MkPidTable(int(limits.PidMin) + 2)}
	for {
		_, err := k.Create("x")
		if err != 0 {
			if err != defs.ENPROC {
				t.Fatalf("exhaustion returned %v, want ENPROC", err)
			}
			break
		}
	}
}
