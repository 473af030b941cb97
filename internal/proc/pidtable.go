// Package proc implements the process abstraction and PID table.
// Grounded on kern/proc/proc.c.
package proc

import (
	"sync"

	"osteach/internal/defs"
	"osteach/internal/limits"
)

// KernelPid is reserved for the kernel process, as in the source's
// "[kernel]" special case.
const KernelPid defs.Pid_t = 1

// PidTable_t is a process-wide mapping from PID in [PidMin, PidMax) to
// the live Proc_t, protected by a single lock. Invariant: every live
// non-kernel process has exactly one slot; the slot is cleared at
// destroy, not at exit.
type PidTable_t struct {
	mu    sync.Mutex
	procs map[defs.Pid_t]*Proc_t
	pidMax defs.Pid_t
}

// MkPidTable returns an empty PID table sized to pidMax.
func MkPidTable(pidMax int) *PidTable_t {
	return &PidTable_t{
		procs:  make(map[defs.Pid_t]*Proc_t),
		pidMax: defs.Pid_t(pidMax),
	}
}

// allocpid scans the table under its lock for the lowest free slot in
// [PidMin, pidMax). On failure it returns limits.NoPid, never an error
// code disguised as a PID: callers must never register a process under
// an errno value misread as a pid_t.
func (pt *PidTable_t) allocpid() defs.Pid_t {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	for pid := defs.Pid_t(limits.PidMin); pid < pt.pidMax; pid++ {
		if _, taken := pt.procs[pid]; !taken {
			pt.procs[pid] = nil // reserve the slot before releasing the lock
			return pid
		}
	}
	return limits.NoPid
}

func (pt *PidTable_t) register(pid defs.Pid_t, p *Proc_t) {
	pt.mu.Lock()
	pt.procs[pid] = p
	pt.mu.Unlock()
}

// Get returns the live process for pid, if any.
func (pt *PidTable_t) Get(pid defs.Pid_t) (*Proc_t, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	p, ok := pt.procs[pid]
	return p, ok && p != nil
}

// List returns every live process currently registered, for
// introspection tools like kernelctl's ps subcommand.
func (pt *PidTable_t) List() []*Proc_t {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	out := make([]*Proc_t, 0, len(pt.procs))
	for _, p := range pt.procs {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Freepid releases pid's slot, making it available to future allocations.
func (pt *PidTable_t) Freepid(pid defs.Pid_t) {
	pt.mu.Lock()
	delete(pt.procs, pid)
	pt.mu.Unlock()
}
