package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oloid-qa/e2e/internal/browser"
)

func newInstallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the Playwright driver and the browsers of the configured projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := browser.Install(a.cfg.Projects); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "installed browsers for %v\n", a.cfg.ProjectNames())
			return nil
		},
	}
}
