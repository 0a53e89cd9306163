package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oloid-qa/e2e/internal/config"
)

// app is shared by the subcommands once the root has loaded settings.
type app struct {
	envFile      string
	settingsFile string
	cfg          *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "e2e",
		Short:         "End-to-end UI suite for the shop demo and the MNP admin portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file relative to the repository root (default .env)")
	root.PersistentFlags().StringVar(&a.settingsFile, "config", "", "YAML settings file relative to the repository root (default e2e.yaml when present)")

	root.AddCommand(newInstallCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// load reads settings and exports the file choices so go test children
// resolve the same configuration.
func (a *app) load() error {
	if a.envFile != "" {
		_ = os.Setenv("E2E_ENV_FILE", a.envFile)
	}
	if a.settingsFile != "" {
		_ = os.Setenv("E2E_CONFIG", a.settingsFile)
	}
	cfg, err := config.LoadWithOptions(config.Options{
		EnvFile:      a.envFile,
		SettingsFile: a.settingsFile,
	})
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}
