package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openidem/lockdown/pkg/system"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			rt := runtimeFromCommand(cmd)
			info := system.GetBuildInfo()
			fmt.Fprintf(rt.writer, "lockctl %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.GitCommit, info.BuildDate, info.GoVersion, info.Platform)
		},
	}
}
