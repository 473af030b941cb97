package main

import (
	"testing"

	"github.com/spf13/cobra"

	"osteach/internal/limits"
)

func TestSubcommandsRegistered(t *testing.T) {
	root := NewRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"boot", "ps", "run"} {
		if !names[want] {
			t.Errorf("%q subcommand not registered on root command", want)
		}
	}
}

func TestBootSimCreatesKernelAndInit(t *testing.T) {
	cfg := limits.Default()
	cfg.RAMBytes = 1 << 20

	sim, err := bootSim(cfg)
	if err != nil {
		t.Fatalf("bootSim: %v", err)
	}
	if sim.kern.Name != "[kernel]" {
		t.Fatalf("kernel process name = %q", sim.kern.Name)
	}
	if sim.init.Pid == sim.kern.Pid {
		t.Fatalf("init and kernel share a pid: %d", sim.init.Pid)
	}

	procs := sim.procs.Pids.List()
	if len(procs) != 2 {
		t.Fatalf("pid table has %d entries, want 2", len(procs))
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig("/nonexistent/path/kernelctl.toml")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.PageSize != limits.PageSize {
		t.Fatalf("page size = %d, want default %d", cfg.PageSize, limits.PageSize)
	}
}
