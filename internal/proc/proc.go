package proc

import (
	"sync"

	"osteach/internal/accnt"
	"osteach/internal/defs"
	"osteach/internal/fd"
	"osteach/internal/synch"
	"osteach/internal/vfs"
	"osteach/internal/vm"
)

// Proc_t is the process abstraction: name, PID, parent link, exit state,
// the wait rendezvous, owning threads, address space, CWD, and file
// table. Grounded on kern/proc/proc.c's struct proc.
type Proc_t struct {
	Name   string
	Pid    defs.Pid_t
	Parent defs.Pid_t // -1 until assigned

	waitLock *synch.Lock_t
	waitCV   *synch.Cv_t
	exited   bool
	exitCode int // packed status, _MKWAIT_EXIT(code & 0xff)

	threadsMu sync.Mutex // spinlock: guards Threads, never held across a block
	Threads   []defs.Tid_t

	As  *vm.As_t
	Cwd *fd.Cwd_t
	FT  *fd.FileTable_t

	Acc accnt.Accnt_t
}

// Kernel_t bundles the singleton kernel-wide state (PID table, VFS),
// threaded explicitly rather than hidden behind package globals.
type Kernel_t struct {
	Pids *PidTable_t
	VFS  *vfs.VFS_t
}

// Create allocates and initializes a process, reserving PID 1 for the
// kernel process (name "[kernel]") or scanning the PID table for the
// lowest free slot. Returns ENPROC if none is free; the process is never
// registered under limits.NoPid.
func (k *Kernel_t) Create(name string) (*Proc_t, defs.Err_t) {
	var pid defs.Pid_t
	if name == "[kernel]" {
		pid = KernelPid
	} else {
		pid = k.Pids.allocpid()
		if pid < 0 {
			return nil, defs.ENPROC
		}
	}

	p := &Proc_t{
		Name:     name,
		Pid:      pid,
		Parent:   -1,
		waitLock: synch.MkLock(),
		waitCV:   synch.MkCv(),
	}
	k.Pids.register(pid, p)
	return p, 0
}

// CreateRunprogram creates a process, inherits the current process's CWD,
// creates an empty file table, and pre-populates descriptors 0, 1, 2 by
// opening the console device three times (O_RDONLY, O_WRONLY, O_WRONLY).
func (k *Kernel_t) CreateRunprogram(name string, parentCwd *fd.Cwd_t, openMax int) (*Proc_t, defs.Err_t) {
	p, err := k.Create(name)
	if err != 0 {
		return nil, err
	}

	if parentCwd != nil {
		dir, path := parentCwd.Snapshot()
		p.Cwd = &fd.Cwd_t{Dir: dir, Path: path}
	} else {
		p.Cwd = fd.MkRootCwd(k.VFS.Root())
	}

	p.FT = fd.CreateFileTable(openMax)
	for i, flags := 0, []int{vfs.O_RDONLY, vfs.O_WRONLY, vfs.O_WRONLY}; i < 3; i++ {
		con := k.VFS.OpenConsole()
		of := fd.CreateOpenFile(con, flags[i])
		if _, err := p.FT.Insert(of); err != 0 {
			return nil, err
		}
	}
	return p, 0
}

// Destroy releases the CWD, destroys the address space, destroys the
// file table, frees the PID slot, and releases the proc record. The
// caller must hold the only reference.
//
// A real kernel guards this with "if this is curproc's address space,
// setas(nil); deactivate() first" because the same TLB/pmap state might
// be live on the running CPU. This package never models a scheduler, so
// there is no "currently active on a CPU" state distinct from this
// struct to guard against; As_t.Destroy is always safe to call directly.
func (k *Kernel_t) Destroy(p *Proc_t) {
	p.Cwd = nil
	if p.As != nil {
		p.As.Destroy()
		p.As = nil
	}
	if p.FT != nil {
		p.FT.Destroy()
		p.FT = nil
	}
	k.Pids.Freepid(p.Pid)
}

// AddThread appends tid to the process's thread array under its spinlock.
func (p *Proc_t) AddThread(tid defs.Tid_t) {
	p.threadsMu.Lock()
	p.Threads = append(p.Threads, tid)
	p.threadsMu.Unlock()
}

// RemThread removes tid from the process's thread array under its
// spinlock.
func (p *Proc_t) RemThread(tid defs.Tid_t) {
	p.threadsMu.Lock()
	defer p.threadsMu.Unlock()
	for i, t := range p.Threads {
		if t == tid {
			p.Threads = append(p.Threads[:i], p.Threads[i+1:]...)
			return
		}
	}
}

// Exit stores the packed exit status, marks the process exited, and
// broadcasts the wait CV, under the process's wait-lock.
func (p *Proc_t) Exit(code int, tid defs.Tid_t) {
	p.waitLock.Acquire(tid)
	p.exitCode = mkwaitExit(code)
	p.exited = true
	p.waitCV.Broadcast()
	p.waitLock.Release(tid)
}

// mkwaitExit packs a normal-exit status per the _MKWAIT_EXIT convention.
func mkwaitExit(code int) int {
	return (code & 0xff) << 8
}

// WexitStatus unpacks a status word produced by mkwaitExit.
func WexitStatus(status int) int {
	return (status >> 8) & 0xff
}

// WaitExited blocks the caller (identified by tid, used to satisfy the
// Mesa lock/CV discipline) until p has exited, and returns its packed
// exit status.
func (p *Proc_t) WaitExited(tid defs.Tid_t) int {
	p.waitLock.Acquire(tid)
	for !p.exited {
		p.waitCV.Wait(p.waitLock, tid)
	}
	status := p.exitCode
	p.waitLock.Release(tid)
	return status
}
