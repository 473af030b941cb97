package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

// NewRootCmd assembles the kernelctl command tree: boot, ps, run. Mirrors
// dh-cli's NewRootCmd/addXCommand(parent) composition style.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kernelctl",
		Short:         "Drive the in-process teaching-kernel simulator",
		Long:          "kernelctl boots the simulated kernel (coremap, VFS, process table) in-process and drives it through one-shot subcommands.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.InfoLevel)
			}
			log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
		},
	}

	pflags := root.PersistentFlags()
	pflags.StringVar(&configPath, "config", "", "path to a TOML boot config (default: built-in limits)")
	pflags.BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	addBootCommand(root)
	addPsCommand(root)
	addRunCommand(root)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
