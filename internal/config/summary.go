package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/oloid-qa/e2e/internal/logutil"
)

// SummaryRows returns the effective settings as key/value rows with secrets
// masked.
func (c *Config) SummaryRows() [][]string {
	projects := make([]string, len(c.Projects))
	for i, p := range c.Projects {
		projects[i] = fmt.Sprintf("%s (%s, %s)", p.Name, p.Browser, p.Device)
	}
	workers := "auto"
	if c.Workers > 0 {
		workers = strconv.Itoa(c.Workers)
	}
	global := "disabled"
	if c.GlobalTimeout > 0 {
		global = c.GlobalTimeout.String()
	}
	bucket := "local only"
	if c.ArtifactsEnabled() {
		bucket = c.ArtifactBucket + "/" + c.ArtifactPrefix
	}

	return [][]string{
		{"target", c.Target},
		{"shop base url", c.ShopBaseURL},
		{"admin base url", c.AdminBaseURL},
		{"admin username", c.AdminUsername},
		{"admin password", logutil.MaskSecret(c.AdminPassword)},
		{"ci", strconv.FormatBool(c.CI)},
		{"projects", strings.Join(projects, ", ")},
		{"headless", strconv.FormatBool(c.Headless)},
		{"retries", strconv.Itoa(c.Retries)},
		{"workers", workers},
		{"test timeout", c.TestTimeout.String()},
		{"global timeout", global},
		{"action / navigation timeout", c.ActionTimeout.String() + " / " + c.NavigationTimeout.String()},
		{"screenshot / video / trace", c.Screenshot + " / " + c.Video + " / " + c.Trace},
		{"output dir", c.OutputDir},
		{"report dir", c.ReportDir},
		{"open report", strconv.FormatBool(c.OpenReport)},
		{"test data", c.TestDataFile},
		{"artifact bucket", bucket},
		{"slack webhook", logutil.MaskSecret(c.SlackWebhookURL)},
		{"report email", strings.Join(c.ReportEmailTo, ", ")},
	}
}

// Notes lists settings whose defaults are easy to misread: the run has no
// overall deadline unless GLOBAL_TIMEOUT is set, and local runs stay headless.
func (c *Config) Notes() []string {
	var notes []string
	if c.GlobalTimeout == 0 {
		notes = append(notes, "GLOBAL_TIMEOUT is 0, so the run has no overall deadline; set GLOBAL_TIMEOUT=60s to cap it")
	}
	if c.Headless && !c.CI {
		notes = append(notes, "browsers run headless outside CI too; set HEADLESS=false to watch them")
	}
	return notes
}

// PrintSummary writes a human-readable table of the effective settings
// followed by any notes.
func (c *Config) PrintSummary(w io.Writer) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("Setting", "Value")
	for _, row := range c.SummaryRows() {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	for _, note := range c.Notes() {
		if _, err := fmt.Fprintf(w, "note: %s\n", note); err != nil {
			return err
		}
	}
	return nil
}
