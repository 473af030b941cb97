// Package fd implements the open-file object and the per-process file
// table: the object/table split, Cwd_t, and their helper shape.
package fd

import (
	"sync"

	"osteach/internal/vfs"
)

// Ofile_t is the kernel's shared, reference-counted handle describing a
// session on a vnode: vnode, offset, flags, refcount, and a per-object
// lock that also serializes offset updates across sharers.
type Ofile_t struct {
	mu     sync.Mutex
	vn     vfs.SeekableVnode_i
	offset int
	flags  int
	refs   int32
}

// CreateOpenFile returns a new open-file object at refcount 1, offset 0.
func CreateOpenFile(vn vfs.SeekableVnode_i, flags int) *Ofile_t {
	return &Ofile_t{vn: vn, flags: flags, refs: 1}
}

// Incref bumps the refcount, used by fork (sharing across processes) and
// dup2 (sharing across descriptors).
func (of *Ofile_t) Incref() {
	of.mu.Lock()
	of.refs++
	of.mu.Unlock()
}

// Decref drops the refcount; when it reaches zero the vnode is closed and
// true is returned so the caller knows the object is now dead.
func (of *Ofile_t) Decref() bool {
	of.mu.Lock()
	of.refs--
	dead := of.refs == 0
	of.mu.Unlock()
	if dead {
		of.vn.VOP_DECREF()
	}
	return dead
}

// Vnode returns the underlying vnode.
func (of *Ofile_t) Vnode() vfs.SeekableVnode_i { return of.vn }

// Flags returns the open flags the object was created with. The flags
// never change after creation, so no lock is taken and callers may hold
// the object lock while calling it.
func (of *Ofile_t) Flags() int {
	return of.flags
}

// Offset returns the current shared offset.
func (of *Ofile_t) Offset() int {
	of.mu.Lock()
	defer of.mu.Unlock()
	return of.offset
}

// Lock/Unlock expose the per-object lock directly to the syscall layer,
// which must hold it across "perform the VOP then update the offset".
func (of *Ofile_t) Lock()   { of.mu.Lock() }
func (of *Ofile_t) Unlock() { of.mu.Unlock() }

// SetOffsetLocked sets the offset; caller must hold the object lock.
func (of *Ofile_t) SetOffsetLocked(off int) { of.offset = off }

// OffsetLocked reads the offset; caller must hold the object lock.
func (of *Ofile_t) OffsetLocked() int { return of.offset }
