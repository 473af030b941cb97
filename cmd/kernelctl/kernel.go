package main

import (
	log "github.com/sirupsen/logrus"

	"osteach/internal/limits"
	"osteach/internal/mem"
	"osteach/internal/proc"
	"osteach/internal/sys"
	"osteach/internal/vfs"
)

// sim_t bundles the live simulator state a one-shot subcommand needs:
// the physical allocator, the process/VFS kernel, the syscall dispatcher,
// and the two bootstrap processes every boot sequence creates.
type sim_t struct {
	pm    *mem.Physmem_t
	procs *proc.Kernel_t
	sys   *sys.Kernel_t
	kern  *proc.Proc_t
	init  *proc.Proc_t
}

// bootSim takes a loaded cfg, bootstraps the coremap and VFS, and creates the
// reserved kernel process (PID 1) followed by an init process, mirroring
// the source's kernel-entry sequence in kern/main.c.
func bootSim(cfg limits.Config) (*sim_t, error) {
	log.WithFields(log.Fields{
		"ram_bytes": cfg.RAMBytes,
		"page_size": cfg.PageSize,
		"open_max":  cfg.OpenMax,
		"pid_max":   cfg.PidMax,
	}).Info("bootstrapping coremap")
	pm := mem.Phys_init(cfg.RAMBytes)

	procs := &proc.Kernel_t{
		Pids: proc.MkPidTable(cfg.PidMax),
		VFS:  vfs.MkVFS(pm),
	}

	kern, err := procs.Create("[kernel]")
	if err != 0 {
		return nil, toError(err)
	}
	log.WithField("pid", kern.Pid).Debug("kernel process created")

	init_, err := procs.CreateRunprogram("init", nil, cfg.OpenMax)
	if err != 0 {
		return nil, toError(err)
	}
	log.WithField("pid", init_.Pid).Info("init process created")

	return &sim_t{
		pm:    pm,
		procs: procs,
		sys:   sys.NewKernel(pm, procs, cfg),
		kern:  kern,
		init:  init_,
	}, nil
}
