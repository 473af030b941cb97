// Package sys implements the system-call layer: fork, execv, exit,
// waitpid, getpid, sbrk, and the file syscalls. Grounded file-for-file on
// kern/syscall/*.c and kern/syscall/file_syscalls/*.c.
package sys

import "osteach/internal/defs"

// Uio_t is an I/O descriptor pointing at a buffer in the current address
// space. This simulation keeps user and kernel memory in the same Go
// heap, so Uio_t is simply a cursor over a byte slice instead of a real
// copyin/copyout shim, which stays out of scope.
type Uio_t struct {
	buf []uint8
	off int
}

// NewUio wraps buf for a read or write syscall.
func NewUio(buf []uint8) *Uio_t {
	return &Uio_t{buf: buf}
}

// Uioread copies from the wrapped buffer into dst, advancing the cursor.
// This is the "user is the source" half used by VOP_WRITE implementations
// pulling data to store.
func (u *Uio_t) Uioread(dst []uint8) (int, defs.Err_t) {
	n := copy(dst, u.buf[u.off:])
	u.off += n
	return n, 0
}

// Uiowrite copies src into the wrapped buffer, advancing the cursor. This
// is the "user is the destination" half used by VOP_READ implementations
// delivering data.
func (u *Uio_t) Uiowrite(src []uint8) (int, defs.Err_t) {
	n := copy(u.buf[u.off:], src)
	u.off += n
	return n, 0
}

// Remain returns how many bytes are left in the buffer.
func (u *Uio_t) Remain() int { return len(u.buf) - u.off }

// Totalsz returns the buffer's total size.
func (u *Uio_t) Totalsz() int { return len(u.buf) }

// Resid returns how many bytes were never transferred: the residual term
// of the syscall layer's "n - residual" bytes-transferred computation.
func (u *Uio_t) Resid() int { return u.Remain() }
