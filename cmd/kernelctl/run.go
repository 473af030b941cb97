package main

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"osteach/internal/vfs"
)

func addRunCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "run <image-file> [args...]",
		Short: "Boot the simulator and execv a flat binary image in init",
		Long:  "run reads a local file, installs it in the in-memory VFS, execv's it into the init process (laying out argv on a fresh user stack), then forks a child and waits on it to exercise the full fork/exit/waitpid lifecycle.",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRun,
	}
	parent.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	sim, err := bootSim(cfg)
	if err != nil {
		return err
	}

	imagePath := args[0]
	argv := args
	image, ioerr := os.ReadFile(imagePath)
	if ioerr != nil {
		return fmt.Errorf("reading image: %w", ioerr)
	}

	vfsPath := "/bin/" + filepath.Base(imagePath)
	fdno, oerr := sim.sys.Open(sim.init, vfsPath, vfs.O_CREAT|vfs.O_RDWR, 0755)
	if oerr != 0 {
		return toError(oerr)
	}
	if _, oerr := sim.sys.Write(sim.init, fdno, image); oerr != 0 {
		return toError(oerr)
	}
	if oerr := sim.sys.Close(sim.init, fdno); oerr != 0 {
		return toError(oerr)
	}

	entry, sp, eerr := sim.sys.Execv(sim.init, vfsPath, argv)
	if eerr != 0 {
		return toError(eerr)
	}
	log.WithFields(log.Fields{"entry": fmt.Sprintf("0x%x", entry), "sp": fmt.Sprintf("0x%x", sp)}).
		Info("execv complete")
	fmt.Printf("execv %s: entry=0x%x sp=0x%x argc=%d\n", vfsPath, entry, sp, len(argv))

	childPid, ferr := sim.sys.Fork(sim.init)
	if ferr != 0 {
		return toError(ferr)
	}
	child, ok := sim.procs.Pids.Get(childPid)
	if !ok {
		return fmt.Errorf("forked child pid %d vanished", childPid)
	}
	sim.sys.Exit(child, 0)

	_, status, werr := sim.sys.Waitpid(sim.init, childPid, 0)
	if werr != 0 {
		return toError(werr)
	}
	fmt.Printf("child %d exited with status 0x%x\n", childPid, status)
	return nil
}
