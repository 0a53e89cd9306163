package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/oloid-qa/e2e/internal/logutil"
)

// Report file names, relative to the report dir.
const (
	ListFile = "list-report.txt"
	JSONFile = "report.json"
	HTMLDir  = "ortoni-report"
	HTMLFile = "ortoni-report.html"
)

// maxErrorChars bounds error text in the list report.
const maxErrorChars = 120

// WriteList writes the plain-text table of results.
func WriteList(w io.Writer, s *Summary) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("Status", "Project", "Test", "Attempts", "Duration", "Error")
	for _, r := range s.Results {
		row := []string{
			statusMark(r.Status) + " " + string(r.Status),
			r.Project,
			r.Title(),
			fmt.Sprint(r.Attempts),
			formatDuration(r.Duration),
			logutil.TruncateForLog(firstLine(errorText(r)), maxErrorChars),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", CountsLine(s))
	return err
}

// CountsLine is the one-line tally, e.g. "3 passed, 1 failed (2m3s)".
func CountsLine(s *Summary) string {
	parts := []string{fmt.Sprintf("%d passed", s.Counts.Passed)}
	if s.Counts.Flaky > 0 {
		parts = append(parts, fmt.Sprintf("%d flaky", s.Counts.Flaky))
	}
	if s.Counts.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", s.Counts.Failed))
	}
	if s.Counts.Skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", s.Counts.Skipped))
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, ", "), formatDuration(s.Duration()))
}

// WriteJSON writes the summary as indented JSON.
func WriteJSON(w io.Writer, s *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Markdown renders the run summary as markdown. The HTML report, the email
// and the Slack message all start from this text.
func Markdown(s *Summary) string {
	var b strings.Builder
	title := s.Meta.Title
	if title == "" {
		title = "Test Run Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var meta []string
	for _, kv := range [][2]string{
		{"Project", s.Meta.Project},
		{"Release", s.Meta.Release},
		{"Platform", s.Meta.Platform},
		{"Test cycle", s.Meta.TestCycle},
		{"Author", s.Meta.Author},
		{"Run", s.RunID},
	} {
		if kv[1] != "" {
			meta = append(meta, fmt.Sprintf("**%s:** %s", kv[0], kv[1]))
		}
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "**Result:** %s\n\n", CountsLine(s))

	failures := s.Failures()
	if len(failures) == 0 {
		return b.String()
	}
	b.WriteString("## Failures\n\n")
	for _, r := range failures {
		fmt.Fprintf(&b, "- **%s** [%s]", r.Title(), r.Project)
		if r.ErrorKind != "" {
			fmt.Fprintf(&b, " _%s_", r.ErrorKind)
		}
		b.WriteString("\n")
		if msg := firstLine(errorText(r)); msg != "" {
			fmt.Fprintf(&b, "  `%s`\n", strings.ReplaceAll(msg, "`", "'"))
		}
		for _, a := range r.Artifacts {
			fmt.Fprintf(&b, "  - [%s](%s)\n", a.Name(), a.Link())
		}
	}
	return b.String()
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(md []byte) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse(md)

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	out := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowElements("pre", "code")
	policy.AllowAttrs("class").OnElements("code", "pre")
	return policy.SanitizeBytes(out)
}

type htmlRow struct {
	Result
	Mark      string
	Duration  string
	Message   string
	Artifacts []htmlArtifact
}

type htmlArtifact struct {
	Kind string
	Name string
	Link template.URL
	Size string
}

type htmlPage struct {
	Title     string
	Generated string
	Summary   template.HTML
	Counts    Counts
	Rows      []htmlRow
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; color: #222; margin: 0 auto; max-width: 1100px; padding: 24px; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #e5e5e5; padding: 6px 8px; text-align: left; vertical-align: top; font-size: 14px; }
.passed { color: #1a7f37; } .flaky { color: #9a6700; } .failed { color: #cf222e; } .skipped { color: #6e7781; }
.counts span { margin-right: 16px; font-weight: 600; }
pre { white-space: pre-wrap; margin: 0; font-size: 12px; }
</style>
</head>
<body>
<section class="summary">{{.Summary}}</section>
<p class="counts">
<span>Total {{.Counts.Total}}</span>
<span class="passed">Passed {{.Counts.Passed}}</span>
<span class="flaky">Flaky {{.Counts.Flaky}}</span>
<span class="failed">Failed {{.Counts.Failed}}</span>
<span class="skipped">Skipped {{.Counts.Skipped}}</span>
</p>
<table>
<thead><tr><th>Status</th><th>Project</th><th>Test</th><th>Attempts</th><th>Duration</th><th>Details</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="{{.Status}}">
<td>{{.Mark}} {{.Status}}</td>
<td>{{.Project}}</td>
<td>{{.Title}}</td>
<td>{{.Attempts}}</td>
<td>{{.Duration}}</td>
<td>{{if .Message}}<pre>{{.Message}}</pre>{{end}}{{range .Artifacts}}<div><a href="{{.Link}}">{{.Kind}}: {{.Name}}</a> ({{.Size}})</div>{{end}}</td>
</tr>
{{end}}</tbody>
</table>
<footer><small>Generated {{.Generated}}</small></footer>
</body>
</html>
`))

// WriteHTML writes the standalone HTML report.
func WriteHTML(w io.Writer, s *Summary) error {
	page := htmlPage{
		Title:     s.Meta.Title,
		Generated: time.Now().UTC().Format(time.RFC1123),
		Summary:   template.HTML(RenderMarkdown([]byte(Markdown(s)))),
		Counts:    s.Counts,
	}
	if page.Title == "" {
		page.Title = "Test Run Report"
	}
	for _, r := range s.Results {
		row := htmlRow{
			Result:   r,
			Mark:     statusMark(r.Status),
			Duration: formatDuration(r.Duration),
			Message:  errorText(r),
		}
		for _, a := range r.Artifacts {
			row.Artifacts = append(row.Artifacts, htmlArtifact{
				Kind: string(a.Kind),
				Name: a.Name(),
				Link: artifactHref(a.Link()),
				Size: humanize.Bytes(uint64(max(a.Size, 0))),
			})
		}
		page.Rows = append(page.Rows, row)
	}
	return htmlTemplate.Execute(w, page)
}

// WriteAll writes the list, JSON and HTML reports under reportDir and returns
// their paths.
func WriteAll(reportDir string, s *Summary) ([]string, error) {
	targets := []struct {
		path  string
		write func(io.Writer, *Summary) error
	}{
		{filepath.Join(reportDir, ListFile), WriteList},
		{filepath.Join(reportDir, JSONFile), WriteJSON},
		{filepath.Join(reportDir, HTMLDir, HTMLFile), WriteHTML},
	}

	var paths []string
	for _, t := range targets {
		var buf bytes.Buffer
		if err := t.write(&buf, s); err != nil {
			return paths, fmt.Errorf("render %s: %w", filepath.Base(t.path), err)
		}
		if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
			return paths, fmt.Errorf("create report dir: %w", err)
		}
		if err := os.WriteFile(t.path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", filepath.Base(t.path), err)
		}
		paths = append(paths, t.path)
	}
	return paths, nil
}

func statusMark(s Status) string {
	switch s {
	case Passed:
		return "✓"
	case Flaky:
		return "±"
	case Failed:
		return "✘"
	default:
		return "-"
	}
}

func errorText(r Result) string {
	if r.Status == Skipped {
		return r.Reason
	}
	return r.Error
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(100 * time.Millisecond).String()
	}
}

// artifactHref makes local paths usable as links from the report file.
// Links only ever come from artifact records the suite wrote itself.
func artifactHref(link string) template.URL {
	if strings.Contains(link, "://") {
		return template.URL(link)
	}
	if abs, err := filepath.Abs(link); err == nil {
		return template.URL("file://" + filepath.ToSlash(abs))
	}
	return template.URL(link)
}
