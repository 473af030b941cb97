// Command kernelctl drives the in-process teaching-kernel simulator
// (internal/mem, internal/vm, internal/proc, internal/fd, internal/vfs,
// internal/sys) through one-shot subcommands: boot, ps, run.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kernelctl:", err)
		os.Exit(1)
	}
}
