package main

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective settings with secrets masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.PrintSummary(cmd.OutOrStdout())
		},
	}
}
