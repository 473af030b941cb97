package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func addPsCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "ps",
		Short: "Boot the simulator and list its processes",
		Long:  "ps boots a fresh simulator and prints the PID table: PID, parent, name, and accumulated CPU accounting.",
		Args:  cobra.NoArgs,
		RunE:  runPs,
	}
	parent.AddCommand(cmd)
}

func runPs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sim, err := bootSim(cfg)
	if err != nil {
		return err
	}

	procs := sim.procs.Pids.List()
	sort.Slice(procs, func(i, j int) bool { return procs[i].Pid < procs[j].Pid })

	fmt.Printf("%-6s %-6s %-10s %-12s %-12s\n", "PID", "PPID", "NAME", "USER_NS", "SYS_NS")
	for _, p := range procs {
		fmt.Printf("%-6d %-6d %-10s %-12d %-12d\n", p.Pid, p.Parent, p.Name, p.Acc.Userns, p.Acc.Sysns)
	}
	return nil
}
