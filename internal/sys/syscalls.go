package sys

import (
	"osteach/internal/defs"
	"osteach/internal/elf"
	"osteach/internal/fd"
	"osteach/internal/limits"
	"osteach/internal/mem"
	"osteach/internal/proc"
	"osteach/internal/ustr"
	"osteach/internal/vfs"
	"osteach/internal/vm"
)

// Kernel_t is the syscall dispatcher: it bundles the kernel-wide
// singletons (PID table, physical allocator, VFS, ELF loader, limits),
// threaded explicitly instead of hidden behind package globals.
type Kernel_t struct {
	Procs  *proc.Kernel_t
	PM     *mem.Physmem_t
	Loader elf.Loader
	Limits limits.Config
}

// NewKernel returns a syscall dispatcher wired to the given subsystems.
func NewKernel(pm *mem.Physmem_t, procs *proc.Kernel_t, cfg limits.Config) *Kernel_t {
	return &Kernel_t{Procs: procs, PM: pm, Loader: elf.DefaultFlatLoader, Limits: cfg}
}

func tidOf(p *proc.Proc_t) defs.Tid_t { return defs.Tid_t(p.Pid) }

// Open copies path from user memory conceptually (this simulation keeps
// user and kernel memory unified, so path is already materialized),
// calls the VFS, wraps the vnode in a new open-file object, and inserts
// it into the lowest free descriptor slot.
func (k *Kernel_t) Open(p *proc.Proc_t, path string, flags, mode int) (int, defs.Err_t) {
	if len(path) > k.Limits.PathMax {
		return -1, defs.ENAMETOOLONG
	}
	dir, _ := p.Cwd.Snapshot()
	vn, err := k.Procs.VFS.Open(dir, ustr.Ustr(path), flags, mode)
	if err != 0 {
		return -1, err
	}
	of := fd.CreateOpenFile(vn, flags)
	fdno, err := p.FT.Insert(of)
	if err != 0 {
		of.Decref()
		return -1, defs.EMFILE
	}
	return fdno, 0
}

// Close clears the slot under the table lock, then drops a ref.
func (k *Kernel_t) Close(p *proc.Proc_t, fdno int) defs.Err_t {
	return p.FT.Close(fdno)
}

const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// withOfile implements the shared fd-syscall pattern: validate fd, bump
// the object refcount via the table, release the table lock, acquire
// the object lock, run fn, release the object lock, drop the refcount.
func (k *Kernel_t) withOfile(p *proc.Proc_t, fdno int, fn func(of *fd.Ofile_t) (int, defs.Err_t)) (int, defs.Err_t) {
	of, err := p.FT.Get(fdno)
	if err != 0 {
		return -1, err
	}
	of.Lock()
	n, ferr := fn(of)
	of.Unlock()
	of.Decref()
	return n, ferr
}

// Read checks the access-mode bit, builds an I/O descriptor over buf,
// calls VOP_READ at the object's offset, advances the offset by the
// bytes transferred, and returns the count (0 on EOF).
func (k *Kernel_t) Read(p *proc.Proc_t, fdno int, buf []uint8) (int, defs.Err_t) {
	return k.withOfile(p, fdno, func(of *fd.Ofile_t) (int, defs.Err_t) {
		if of.Flags()&vfs.O_WRONLY != 0 {
			return -1, defs.EBADF
		}
		uio := NewUio(buf)
		off := of.OffsetLocked()
		n, err := of.Vnode().ReadAt(uio, off)
		if err != 0 {
			return -1, err
		}
		of.SetOffsetLocked(off + n)
		return n, 0
	})
}

// Write checks the access-mode bit, re-stats for O_APPEND, calls
// VOP_WRITE, and advances the offset.
func (k *Kernel_t) Write(p *proc.Proc_t, fdno int, buf []uint8) (int, defs.Err_t) {
	return k.withOfile(p, fdno, func(of *fd.Ofile_t) (int, defs.Err_t) {
		flags := of.Flags()
		if flags&vfs.O_WRONLY == 0 && flags&vfs.O_RDWR == 0 {
			return -1, defs.EBADF
		}
		off := of.OffsetLocked()
		if flags&vfs.O_APPEND != 0 {
			st, err := of.Vnode().VOP_STAT()
			if err != 0 {
				return -1, err
			}
			off = int(st.Size())
		}
		uio := NewUio(buf)
		n, err := of.Vnode().WriteAt(uio, off)
		if err != 0 {
			return -1, err
		}
		of.SetOffsetLocked(off + n)
		return n, 0
	})
}

// Lseek adjusts the object's shared offset relative to 0 / current /
// stat.size, per whence, rejecting non-seekable vnodes and invalid
// results.
func (k *Kernel_t) Lseek(p *proc.Proc_t, fdno int, pos int, whence int) (int, defs.Err_t) {
	return k.withOfile(p, fdno, func(of *fd.Ofile_t) (int, defs.Err_t) {
		if !of.Vnode().VOP_ISSEEKABLE() {
			return -1, defs.ESPIPE
		}
		var base int
		switch whence {
		case SeekSet:
			base = 0
		case SeekCur:
			base = of.OffsetLocked()
		case SeekEnd:
			st, err := of.Vnode().VOP_STAT()
			if err != 0 {
				return -1, err
			}
			base = int(st.Size())
		default:
			return -1, defs.EINVAL
		}
		newOff := base + pos
		if newOff < 0 {
			return -1, defs.EINVAL
		}
		of.SetOffsetLocked(newOff)
		return newOff, 0
	})
}

// Dup2 bumps old's refcount, closes new if it was open, and installs
// old's object in new. A dup2 of a descriptor onto itself is a no-op
// that still returns new.
func (k *Kernel_t) Dup2(p *proc.Proc_t, oldfd, newfd int) (int, defs.Err_t) {
	if oldfd == newfd {
		of, err := p.FT.Get(oldfd)
		if err != 0 {
			return -1, err
		}
		of.Decref()
		return newfd, 0
	}
	of, err := p.FT.Get(oldfd)
	if err != 0 {
		return -1, err
	}
	old, err := p.FT.InsertAt(newfd, of)
	if err != 0 {
		of.Decref()
		return -1, err
	}
	if old != nil {
		old.Decref()
	}
	return newfd, 0
}

// Chdir resolves path and installs it as the process's CWD.
func (k *Kernel_t) Chdir(p *proc.Proc_t, path string) defs.Err_t {
	dir, _ := p.Cwd.Snapshot()
	newDir, err := k.Procs.VFS.Chdir(dir, ustr.Ustr(path))
	if err != 0 {
		return err
	}
	p.Cwd.Chdir(newDir, p.Cwd.Canonicalpath(ustr.Ustr(path)))
	return 0
}

// Getcwd wraps buf and returns buflen - residual as the length, matching
// __getcwd's contract.
func (k *Kernel_t) Getcwd(p *proc.Proc_t, buf []uint8) (int, defs.Err_t) {
	_, path := p.Cwd.Snapshot()
	uio := NewUio(buf)
	n, err := uio.Uiowrite(path)
	if err != 0 {
		return -1, err
	}
	return n, 0
}

// Getpid returns curproc.pid.
func (k *Kernel_t) Getpid(p *proc.Proc_t) defs.Pid_t {
	return p.Pid
}

// Sbrk delegates to the address space's heap-growth logic.
func (k *Kernel_t) Sbrk(p *proc.Proc_t, amount int) (uintptr, defs.Err_t) {
	return p.As.Sbrk(amount)
}

// Exit stores the packed exit status and broadcasts the wait CV.
func (k *Kernel_t) Exit(p *proc.Proc_t, code int) {
	p.Exit(code, tidOf(p))
}

// Waitpid validates options and parentage, waits on the target's exit
// rendezvous, reaps it, and returns its PID and packed exit status.
func (k *Kernel_t) Waitpid(parent *proc.Proc_t, pid defs.Pid_t, options int) (defs.Pid_t, int, defs.Err_t) {
	if options != 0 {
		return -1, 0, defs.EINVAL
	}
	child, ok := k.Procs.Pids.Get(pid)
	if !ok {
		return -1, 0, defs.ESRCH
	}
	if child.Parent != parent.Pid {
		return -1, 0, defs.ECHILD
	}
	status := child.WaitExited(tidOf(parent))
	k.Procs.Destroy(child)
	return pid, status, 0
}

// Fork creates a child proc, deep-copies the address space, shares the
// CWD, copies the file table, and sets the child's parent link. Returns
// the child PID. On any failure mid-way, earlier allocations are
// reversed in reverse order (address space, then the proc record).
func (k *Kernel_t) Fork(parent *proc.Proc_t) (defs.Pid_t, defs.Err_t) {
	child, err := k.Procs.Create(parent.Name)
	if err != 0 {
		return -1, err
	}

	newAs, err := parent.As.Copy()
	if err != 0 {
		k.Procs.Destroy(child)
		return -1, err
	}
	child.As = newAs

	dir, path := parent.Cwd.Snapshot()
	child.Cwd = &fd.Cwd_t{Dir: dir, Path: path}
	child.FT = parent.FT.Copy()
	child.Parent = parent.Pid
	return child.Pid, 0
}

// checkArgBudget enforces ARG_MAX over the packed argv image in two
// passes: first each string alone against the budget (an individual
// string that blows the whole budget by itself would otherwise surface
// as ENAMETOOLONG from a generic length check, but in the argv context
// it is remapped to E2BIG), then the combined stack layout (string
// table plus pointer array) against the same budget.
func checkArgBudget(argv []string, argMax int) defs.Err_t {
	for _, a := range argv {
		if (len(a)+1+7)&^7 > argMax {
			return defs.E2BIG
		}
	}
	if argStackLayout(argv) > argMax {
		return defs.E2BIG
	}
	return 0
}

// argStackLayout is the byte size, 8-byte-aligned, of the argv string
// table plus the null-terminated pointer array for argv.
func argStackLayout(argv []string) (total int) {
	total = (len(argv) + 1) * 8 // pointer array, argv[argc] == nil
	for _, a := range argv {
		n := len(a) + 1 // NUL terminator
		total += (n + 7) &^ 7
	}
	return total
}

// writeUserBytes faults in every page backing [va, va+len(data)) for
// writing, then copies data in directly through the mapped frames.
func writeUserBytes(as *vm.As_t, va uintptr, data []uint8) defs.Err_t {
	start := va &^ uintptr(vm.PageSize-1)
	end := va + uintptr(len(data))
	for pg := start; pg < end; pg += vm.PageSize {
		if err := as.Fault(vm.FaultWrite, pg); err != 0 {
			return err
		}
	}
	for i, b := range data {
		cur := va + uintptr(i)
		page := as.PageFor(cur &^ uintptr(vm.PageSize-1))
		if page == nil {
			return defs.EFAULT
		}
		page[cur%vm.PageSize] = b
	}
	return 0
}

// writeUserPtr writes a little-endian 8-byte pointer value at va.
func writeUserPtr(as *vm.As_t, va uintptr, val uintptr) defs.Err_t {
	var buf [8]uint8
	for i := 0; i < 8; i++ {
		buf[i] = uint8(val >> (8 * i))
	}
	return writeUserBytes(as, va, buf[:])
}

// Execv replaces p's address space with a fresh one loaded from image,
// lays out argv on the new user stack (at the 8-byte-aligned stack
// pointer, the pointer array argv[0..argc-1] followed by a null pointer;
// above it the strings, argv[0] lowest, each padded to 8 bytes), and
// returns the new
// entry point and initial stack pointer for the trap-return path to
// install. On any failure the process keeps its old address space,
// matching execv's "all-or-nothing" contract.
func (k *Kernel_t) Execv(p *proc.Proc_t, name string, argv []string) (entry, sp uintptr, err defs.Err_t) {
	if len(name) > k.Limits.PathMax {
		return 0, 0, defs.ENAMETOOLONG
	}
	if aerr := checkArgBudget(argv, k.Limits.ArgMax); aerr != 0 {
		return 0, 0, aerr
	}

	image, err := k.readWholeFile(p, name)
	if err != 0 {
		return 0, 0, err
	}

	newAs := vm.Create(k.PM)
	entry, err = k.Loader.Load(newAs, image)
	if err != 0 {
		return 0, 0, err
	}

	stackTop := newAs.DefineStack(limits.UserStack)
	layout := argStackLayout(argv)
	base := (stackTop - uintptr(layout)) &^ uintptr(7)

	strCursor := base + uintptr((len(argv)+1)*8)
	ptrs := make([]uintptr, len(argv))
	for i, a := range argv {
		b := append([]uint8(a), 0)
		if werr := writeUserBytes(newAs, strCursor, b); werr != 0 {
			return 0, 0, werr
		}
		ptrs[i] = strCursor
		n := len(b)
		strCursor += uintptr((n + 7) &^ 7)
	}
	for i, pv := range ptrs {
		if werr := writeUserPtr(newAs, base+uintptr(i*8), pv); werr != 0 {
			return 0, 0, werr
		}
	}
	if werr := writeUserPtr(newAs, base+uintptr(len(argv)*8), 0); werr != 0 {
		return 0, 0, werr
	}

	old := p.As
	p.As = newAs
	if old != nil {
		old.Destroy()
	}
	return entry, base, 0
}

// readWholeFile opens path relative to p's CWD and reads it to EOF; a
// stand-in for the trap layer's argument-copyin, since this simulation
// keeps binaries in the same in-memory VFS as regular files.
func (k *Kernel_t) readWholeFile(p *proc.Proc_t, path string) ([]uint8, defs.Err_t) {
	dir, _ := p.Cwd.Snapshot()
	vn, err := k.Procs.VFS.Open(dir, ustr.Ustr(path), vfs.O_RDONLY, 0)
	if err != 0 {
		return nil, err
	}
	defer vn.VOP_DECREF()

	var out []uint8
	buf := make([]uint8, vm.PageSize)
	off := 0
	for {
		uio := NewUio(buf)
		n, rerr := vn.ReadAt(uio, off)
		if rerr != 0 {
			return nil, rerr
		}
		if n == 0 {
			break
		}
		out = append(out, buf[:n]...)
		off += n
	}
	return out, 0
}
