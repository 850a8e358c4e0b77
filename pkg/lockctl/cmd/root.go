// Package cmd implements the lockctl command line client for the lockdown
// service. It drives the panic button endpoints from the terminal, for
// incident responders who are not in front of the admin UI.
package cmd

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
)

type Config struct {
	OutputWriter io.Writer
}

type runtimeState struct {
	server string
	token  string
	writer io.Writer
}

type runtimeKey struct{}

func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
	}
}

func NewRootCommand(cfg Config) *cobra.Command {
	rt := &runtimeState{writer: cfg.OutputWriter}

	root := &cobra.Command{
		Use:   "lockctl",
		Short: "Lockdown CLI",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}
			if rt.server == "" {
				rt.server = os.Getenv("LOCKCTL_SERVER")
			}
			if rt.token == "" {
				rt.token = os.Getenv("LOCKCTL_TOKEN")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&rt.server, "server", "", "Lockdown service base URL (or LOCKCTL_SERVER)")
	root.PersistentFlags().StringVar(&rt.token, "token", "", "Session token (or LOCKCTL_TOKEN)")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewTriggerCommand(),
		NewVersionCommand(),
	)

	return root
}

func runtimeFromCommand(cmd *cobra.Command) *runtimeState {
	rt, _ := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	return rt
}
