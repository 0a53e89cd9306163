// Command e2e installs browsers, runs the scenario packages and publishes
// their reports.
//
// Usage:
//
//	go run ./cmd/e2e install
//	go run ./cmd/e2e run ./tests/...
//	go run ./cmd/e2e report
//	go run ./cmd/e2e config
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/oloid-qa/e2e/internal/obs"
)

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	obs.Init()
	err := newRootCmd().Execute()
	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}
