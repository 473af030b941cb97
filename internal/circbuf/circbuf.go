// Package circbuf implements a simple circular buffer used by the console
// device. Pages are allocated lazily as the buffer grows, backed by this
// kernel's concrete *mem.Physmem_t (only one allocator implementation
// exists in this module, so no allocator interface is needed).
package circbuf

import (
	"osteach/internal/defs"
	"osteach/internal/fdops"
	"osteach/internal/mem"
)

// Circbuf_t is not safe for concurrent use; callers serialize access (the
// console vnode holds its own lock).
type Circbuf_t struct {
	pm    *mem.Physmem_t
	buf   []uint8
	bufsz int
	head  int
	tail  int
	p_pg  mem.Pa_t
}

// Bufsz returns the configured buffer size.
func (cb *Circbuf_t) Bufsz() int { return cb.bufsz }

// Cb_init lazily allocates a backing page when required: it is easier to
// handle an allocation failure at read/write time than during Cb_init.
func (cb *Circbuf_t) Cb_init(sz int, pm *mem.Physmem_t) defs.Err_t {
	if sz <= 0 || sz > mem.PGSIZE {
		panic("bad circbuf size")
	}
	cb.pm = pm
	cb.bufsz = sz
	cb.head, cb.tail = 0, 0
	return 0
}

func (cb *Circbuf_t) ensure() defs.Err_t {
	if cb.buf != nil {
		return 0
	}
	if cb.bufsz == 0 {
		panic("circbuf not initialized")
	}
	pa := cb.pm.AllocPage()
	if pa == 0 {
		return defs.ENOMEM
	}
	cb.p_pg = pa
	cb.buf = cb.pm.Dmap(pa)[:cb.bufsz]
	cb.head, cb.tail = 0, 0
	return 0
}

// Full reports whether the buffer cannot accept more data.
func (cb *Circbuf_t) Full() bool { return cb.head-cb.tail == cb.bufsz }

// Empty reports whether the buffer contains any data.
func (cb *Circbuf_t) Empty() bool { return cb.head == cb.tail }

// Left returns the remaining capacity in bytes.
func (cb *Circbuf_t) Left() int { return cb.bufsz - (cb.head - cb.tail) }

// Used returns the current number of bytes in the buffer.
func (cb *Circbuf_t) Used() int { return cb.head - cb.tail }

// Copyin reads from src into the circular buffer.
func (cb *Circbuf_t) Copyin(src fdops.Userio_i) (int, defs.Err_t) {
	if err := cb.ensure(); err != 0 {
		return 0, err
	}
	if cb.Full() {
		return 0, 0
	}
	hi := cb.head % cb.bufsz
	ti := cb.tail % cb.bufsz
	c := 0
	if ti <= hi {
		dst := cb.buf[hi:]
		wrote, err := src.Uioread(dst)
		if err != 0 {
			return 0, err
		}
		if wrote != len(dst) {
			cb.head += wrote
			return wrote, 0
		}
		c += wrote
		hi = (cb.head + wrote) % cb.bufsz
	}
	if hi > ti {
		// entire buffer is now full; nothing left to fill on this pass
		cb.head += c
		return c, 0
	}
	dst := cb.buf[hi:ti]
	wrote, err := src.Uioread(dst)
	c += wrote
	if err != 0 {
		return c, err
	}
	cb.head += c
	return c, 0
}

// Copyout writes the entire buffer contents to dst.
func (cb *Circbuf_t) Copyout(dst fdops.Userio_i) (int, defs.Err_t) {
	return cb.CopyoutN(dst, 0)
}

// CopyoutN writes up to max bytes of the buffer to dst (0 means no limit).
func (cb *Circbuf_t) CopyoutN(dst fdops.Userio_i, max int) (int, defs.Err_t) {
	if err := cb.ensure(); err != 0 {
		return 0, err
	}
	if cb.Empty() {
		return 0, 0
	}
	hi := cb.head % cb.bufsz
	ti := cb.tail % cb.bufsz
	c := 0
	if hi <= ti {
		src := cb.buf[ti:]
		if max != 0 && max < len(src) {
			src = src[:max]
		}
		wrote, err := dst.Uiowrite(src)
		if err != 0 {
			return 0, err
		}
		if wrote != len(src) || wrote == max {
			cb.tail += wrote
			return wrote, 0
		}
		c += wrote
		if max != 0 {
			max -= c
		}
		ti = (cb.tail + wrote) % cb.bufsz
	}
	if ti > hi {
		cb.tail += c
		return c, 0
	}
	src := cb.buf[ti:hi]
	if max != 0 && max < len(src) {
		src = src[:max]
	}
	wrote, err := dst.Uiowrite(src)
	if err != 0 {
		return c, err
	}
	c += wrote
	cb.tail += c
	return c, 0
}
