package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/obs"
	"github.com/oloid-qa/e2e/internal/report"
)

const defaultPackages = "./tests/..."

// goTestGrace lets go test outlive the run deadline long enough for the
// suites to record their results.
const goTestGrace = time.Minute

type runOptions struct {
	keepResults bool
	skipReport  bool
	verbose     bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := runOptions{}
	cmd := &cobra.Command{
		Use:   "run [packages]",
		Short: "Run scenario packages with go test, then write and publish the reports",
		Long: `Run executes the scenario packages (default ./tests/...) under one run id.
Workers map onto go test's -p and -parallel; the global timeout onto -timeout.
The exit status is the one go test returned.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.keepResults, "keep-results", false, "merge with results already in the report dir")
	cmd.Flags().BoolVar(&opts.skipReport, "no-report", false, "skip report writing, upload and notifications")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "pass -v to go test")
	return cmd
}

func (a *app) run(cmd *cobra.Command, pkgs []string, opts runOptions) error {
	cfg := a.cfg
	log := obs.Pkg("cmd.e2e")
	if cfg.RunID == "" {
		cfg.RunID = obs.NewRunID()
	}
	if !opts.keepResults {
		if err := report.Reset(cfg.ReportDir); err != nil {
			return err
		}
	}

	args := goTestArgs(cfg, pkgs, opts.verbose)
	log.Info("run_started", "run_id", cfg.RunID, "args", args)

	gotest := exec.CommandContext(cmd.Context(), "go", args...)
	gotest.Dir = cfg.Root
	gotest.Stdout = cmd.OutOrStdout()
	gotest.Stderr = cmd.ErrOrStderr()
	gotest.Env = append(os.Environ(), "E2E_RUN_ID="+cfg.RunID)

	code := 0
	if err := gotest.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("start go test: %w", err)
		}
		code = exitErr.ExitCode()
	}
	log.Info("run_finished", "run_id", cfg.RunID, "exit_code", code)

	if !opts.skipReport {
		if _, err := publish(cmd.Context(), cfg, cmd.OutOrStdout()); err != nil {
			if errors.Is(err, report.ErrNoResults) && code != 0 {
				log.Warn("no results to report", "exit_code", code)
			} else {
				return err
			}
		}
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// goTestArgs builds the go test invocation. A zero global timeout disables
// go test's own ten minute limit.
func goTestArgs(cfg *config.Config, pkgs []string, verbose bool) []string {
	args := []string{"test", "-count=1"}
	if cfg.GlobalTimeout > 0 {
		args = append(args, "-timeout", (cfg.GlobalTimeout + goTestGrace).String())
	} else {
		args = append(args, "-timeout", "0")
	}
	if cfg.Workers > 0 {
		n := strconv.Itoa(cfg.Workers)
		args = append(args, "-p", n, "-parallel", n)
	}
	if verbose {
		args = append(args, "-v")
	}
	if len(pkgs) == 0 {
		pkgs = []string{defaultPackages}
	}
	return append(args, pkgs...)
}
