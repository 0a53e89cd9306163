package email

// Template selects the subject line and accent of a run mail.
type Template string

const (
	RunPassed Template = "run_passed"
	RunFailed Template = "run_failed"
)

// RunSummaryData contains data for run report emails.
type RunSummaryData struct {
	Title     string `json:"title"` // report title, e.g. "Oloid Test Run Report"
	RunID     string `json:"run_id"`
	Counts    string `json:"counts"`    // e.g. "3 passed, 1 failed (2m3s)"
	BodyHTML  string `json:"body_html"` // sanitized by the report renderer
	ReportURL string `json:"report_url,omitempty"`
}

func (d RunSummaryData) title() string {
	if d.Title == "" {
		return "Test Run Report"
	}
	return d.Title
}
