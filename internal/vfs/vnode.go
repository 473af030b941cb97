// Package vfs is a minimal in-memory stand-in for a VFS/vnode layer
// (vfs_open, vfs_close, vfs_chdir, vfs_getcwd, VOP_READ, VOP_WRITE,
// VOP_STAT, VOP_ISSEEKABLE). A real kernel's VFS talks to an on-disk
// filesystem; this package gives the syscall layer something concrete
// to drive without specifying a disk format.
package vfs

import (
	"sync"

	"osteach/internal/defs"
	"osteach/internal/fdops"
	"osteach/internal/stat"
)

// Vnode_i is the narrow vnode operation set the syscall layer uses,
// mirroring the classic VOP_* call set.
type Vnode_i interface {
	VOP_READ(uio fdops.Userio_i) (int, defs.Err_t)
	VOP_WRITE(uio fdops.Userio_i) (int, defs.Err_t)
	VOP_STAT() (stat.Stat_t, defs.Err_t)
	VOP_ISSEEKABLE() bool
	VOP_INCREF()
	VOP_DECREF()
}

// File flags, matching the open(2) contract.
const (
	O_RDONLY = 0x0
	O_WRONLY = 0x1
	O_RDWR   = 0x2
	O_CREAT  = 0x40
	O_TRUNC  = 0x200
	O_APPEND = 0x400
)

// MemFile_t is a regular in-memory file: a growable byte slice behind a
// lock, refcounted by the directory entries/open-file objects that
// reference it.
type MemFile_t struct {
	mu      sync.Mutex
	data    []uint8
	refs    int32
}

func newMemFile() *MemFile_t {
	return &MemFile_t{refs: 1}
}

func (f *MemFile_t) VOP_READ(uio fdops.Userio_i) (int, defs.Err_t) {
	return f.vopReadAt(uio, 0)
}

func (f *MemFile_t) vopReadAt(uio fdops.Userio_i, off int) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= len(f.data) {
		return 0, 0
	}
	return uio.Uiowrite(f.data[off:])
}

func (f *MemFile_t) vopWriteAt(uio fdops.Userio_i, off int) (int, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := uio.Remain()
	if off+n > len(f.data) {
		grown := make([]uint8, off+n)
		copy(grown, f.data)
		f.data = grown
	}
	wrote, err := uio.Uioread(f.data[off : off+n])
	return wrote, err
}

func (f *MemFile_t) VOP_WRITE(uio fdops.Userio_i) (int, defs.Err_t) {
	return f.vopWriteAt(uio, 0)
}

func (f *MemFile_t) VOP_STAT() (stat.Stat_t, defs.Err_t) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var st stat.Stat_t
	st.Wsize(uint(len(f.data)))
	st.Wmode(0644)
	return st, 0
}

func (f *MemFile_t) VOP_ISSEEKABLE() bool { return true }

func (f *MemFile_t) VOP_INCREF() {
	f.mu.Lock()
	f.refs++
	f.mu.Unlock()
}

func (f *MemFile_t) VOP_DECREF() {
	f.mu.Lock()
	f.refs--
	f.mu.Unlock()
}

// ReadAt/WriteAt let the syscall layer drive an explicit offset (the
// open-file object, not the vnode, owns the offset).
type SeekableVnode_i interface {
	Vnode_i
	ReadAt(uio fdops.Userio_i, off int) (int, defs.Err_t)
	WriteAt(uio fdops.Userio_i, off int) (int, defs.Err_t)
}

func (f *MemFile_t) ReadAt(uio fdops.Userio_i, off int) (int, defs.Err_t) {
	return f.vopReadAt(uio, off)
}

func (f *MemFile_t) WriteAt(uio fdops.Userio_i, off int) (int, defs.Err_t) {
	return f.vopWriteAt(uio, off)
}
