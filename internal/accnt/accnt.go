// Package accnt implements per-process CPU accounting counters. Each
// proc.Proc_t carries one (its Acc field); no code path in this module
// adds time to it, so its counters stay zero unless a caller uses
// Utadd, Systadd or Since.
package accnt

import (
	"sync"
	"sync/atomic"
	"time"

	"osteach/internal/util"
)

// Accnt_t accumulates per-process accounting information. Userns and
// Sysns store runtime in nanoseconds. The embedded mutex lets callers
// take a consistent snapshot when exporting usage statistics.
type Accnt_t struct {
	Userns int64
	Sysns  int64
	sync.Mutex
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt_t) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt_t) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// Add merges another accounting record into this one.
func (a *Accnt_t) Add(n *Accnt_t) {
	a.Lock()
	a.Userns += atomic.LoadInt64(&n.Userns)
	a.Sysns += atomic.LoadInt64(&n.Sysns)
	a.Unlock()
}

// Since records the wall time elapsed since start as system time.
func (a *Accnt_t) Since(start time.Time) {
	a.Systadd(int64(time.Since(start)))
}

// ToRusage converts the accounting data into a byte slice formatted as an
// rusage structure (two timeval pairs: user, then system).
func (a *Accnt_t) ToRusage() []uint8 {
	a.Lock()
	defer a.Unlock()
	ret := make([]uint8, 4*8)
	totv := func(nano int64) (int, int) {
		secs := int(nano / 1e9)
		usecs := int((nano % 1e9) / 1000)
		return secs, usecs
	}
	off := 0
	s, us := totv(a.Userns)
	util.Writen(ret, 8, off, s)
	off += 8
	util.Writen(ret, 8, off, us)
	off += 8
	s, us = totv(a.Sysns)
	util.Writen(ret, 8, off, s)
	off += 8
	util.Writen(ret, 8, off, us)
	return ret
}
