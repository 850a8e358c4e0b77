package main

import (
	"os"

	lockctlcmd "github.com/openidem/lockdown/pkg/lockctl/cmd"
)

func main() {
	root := lockctlcmd.NewRootCommand(lockctlcmd.DefaultConfig())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
