package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addBootCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "boot",
		Short: "Bootstrap the simulator and report its configuration",
		Long:  "boot loads the config, bootstraps the coremap and VFS, creates the kernel and init processes, then exits — useful for sanity-checking a config file.",
		Args:  cobra.NoArgs,
		RunE:  runBoot,
	}
	parent.AddCommand(cmd)
}

func runBoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sim, err := bootSim(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("booted: ram=%d bytes page_size=%d open_max=%d pid_max=%d\n",
		cfg.RAMBytes, cfg.PageSize, cfg.OpenMax, cfg.PidMax)
	fmt.Printf("kernel pid=%d, init pid=%d\n", sim.kern.Pid, sim.init.Pid)
	return nil
}
