package main

import (
	"fmt"
	"os/exec"
	"runtime"
)

// openReport opens a local report in the desktop's default browser. Tests
// replace it.
var openReport = func(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		return fmt.Errorf("open report: unsupported platform %s", runtime.GOOS)
	}
	return cmd.Start()
}
