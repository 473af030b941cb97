package vfs

import (
	"sync"

	"osteach/internal/circbuf"
	"osteach/internal/defs"
	"osteach/internal/fdops"
	"osteach/internal/mem"
	"osteach/internal/stat"
)

// Console_t is the in-memory stand-in for the console device opened as
// "con:" in proc_create_runprogram. A real console is a hardware
// device; this gives fds 0/1/2 somewhere real to read/write in tests.
// Writes accumulate in an output circular buffer; reads drain an input
// buffer that tests can pre-seed via Feed.
type Console_t struct {
	mu   sync.Mutex
	refs int32
	out  circbuf.Circbuf_t
	in   circbuf.Circbuf_t
}

// NewConsole returns an unbound console; Bind attaches it to a physical
// allocator.
func NewConsole() *Console_t {
	c := &Console_t{refs: 1}
	return c
}

// Bind initializes the console's circular buffers against pm; calls after
// the first are no-ops. MkVFS calls it right after NewConsole. The
// buffers' backing pages are allocated later, by circbuf, on first read
// or write.
func (c *Console_t) Bind(pm *mem.Physmem_t) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.out.Bufsz() == 0 {
		c.out.Cb_init(mem.PGSIZE, pm)
		c.in.Cb_init(mem.PGSIZE, pm)
	}
}

// Feed injects bytes as if typed at the console, for tests exercising
// console reads.
func (c *Console_t) Feed(data []uint8) defs.Err_t {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.in.Copyin(byteUio(data))
	return err
}

// Drain returns and clears everything written to the console so far, for
// tests exercising console writes.
func (c *Console_t) Drain() []uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []uint8
	c.out.Copyout(sinkUio{&out})
	return out
}

type byteUio []uint8

func (b byteUio) Uioread(dst []uint8) (int, defs.Err_t) {
	n := copy(dst, b)
	return n, 0
}
func (b byteUio) Uiowrite(src []uint8) (int, defs.Err_t) { panic("read-only") }
func (b byteUio) Remain() int                            { return len(b) }
func (b byteUio) Totalsz() int                           { return len(b) }

type sinkUio struct{ out *[]uint8 }

func (s sinkUio) Uioread(dst []uint8) (int, defs.Err_t) { panic("write-only") }
func (s sinkUio) Uiowrite(src []uint8) (int, defs.Err_t) {
	*s.out = append(*s.out, src...)
	return len(src), 0
}
func (s sinkUio) Remain() int  { return 1 << 30 }
func (s sinkUio) Totalsz() int { return 1 << 30 }

func (c *Console_t) VOP_READ(uio fdops.Userio_i) (int, defs.Err_t) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in.Copyout(uio)
}

func (c *Console_t) VOP_WRITE(uio fdops.Userio_i) (int, defs.Err_t) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Copyin(uio)
}

func (c *Console_t) ReadAt(uio fdops.Userio_i, off int) (int, defs.Err_t) {
	return c.VOP_READ(uio)
}

func (c *Console_t) WriteAt(uio fdops.Userio_i, off int) (int, defs.Err_t) {
	return c.VOP_WRITE(uio)
}

func (c *Console_t) VOP_STAT() (stat.Stat_t, defs.Err_t) {
	var st stat.Stat_t
	st.Wmode(0666)
	st.Wdev(uint(defs.Mkdev(defs.D_CONSOLE, 0)))
	return st, 0
}

func (c *Console_t) VOP_ISSEEKABLE() bool { return false }

func (c *Console_t) VOP_INCREF() {
	c.mu.Lock()
	c.refs++
	c.mu.Unlock()
}

func (c *Console_t) VOP_DECREF() {
	c.mu.Lock()
	c.refs--
	c.mu.Unlock()
}
