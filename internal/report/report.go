// Package report records scenario results while tests run and turns them into
// the list, JSON and HTML reports once the run is over.
//
// Every test binary writes one JSON file per result into a shared results
// directory, so packages run by separate `go test` processes can be merged
// afterwards without coordination.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oloid-qa/e2e/internal/artifacts"
	"github.com/oloid-qa/e2e/internal/config"
)

// Status is the outcome of one scenario in one project.
type Status string

const (
	Passed  Status = "passed"
	Flaky   Status = "flaky" // failed at least once, then passed on a retry
	Failed  Status = "failed"
	Skipped Status = "skipped"
)

// ResultsDir is the directory under the report dir that holds raw results.
const ResultsDir = "results"

// Result is one scenario's outcome in one project.
type Result struct {
	ID        string               `json:"id"`
	RunID     string               `json:"run_id"`
	Project   string               `json:"project"`
	Suite     string               `json:"suite"`
	Test      string               `json:"test"`
	Status    Status               `json:"status"`
	Attempts  int                  `json:"attempts"`
	StartedAt time.Time            `json:"started_at"`
	Duration  time.Duration        `json:"duration_ns"`
	Error     string               `json:"error,omitempty"`
	ErrorKind string               `json:"error_kind,omitempty"`
	Reason    string               `json:"reason,omitempty"`
	Artifacts []artifacts.Artifact `json:"artifacts,omitempty"`
}

// Title is the display name "<suite> › <test>".
func (r Result) Title() string {
	if r.Suite == "" {
		return r.Test
	}
	return r.Suite + " › " + r.Test
}

// Recorder persists results as they arrive. It is safe for concurrent use.
type Recorder struct {
	dir string

	mu      sync.Mutex
	results []Result
}

// NewRecorder returns a Recorder writing into <reportDir>/results.
func NewRecorder(reportDir string) (*Recorder, error) {
	dir := filepath.Join(reportDir, ResultsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	return &Recorder{dir: dir}, nil
}

// Dir is where result files are written.
func (r *Recorder) Dir() string {
	return r.dir
}

// Record assigns an id when missing and writes the result to disk.
func (r *Recorder) Record(res Result) error {
	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	payload, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(r.dir, res.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename result: %w", err)
	}

	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
	return nil
}

// Results returns what this process recorded so far.
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Counts tallies results by status.
type Counts struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Flaky   int `json:"flaky"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (c *Counts) add(s Status) {
	c.Total++
	switch s {
	case Passed:
		c.Passed++
	case Flaky:
		c.Flaky++
	case Failed:
		c.Failed++
	case Skipped:
		c.Skipped++
	}
}

// Summary is the merged view of a run.
type Summary struct {
	Meta       config.ReportMeta `json:"meta"`
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Counts     Counts            `json:"counts"`
	Results    []Result          `json:"results"`
}

// Duration is the wall time between the first start and the last finish.
func (s *Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.Before(s.StartedAt) {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// OK reports whether the run has no failed scenarios.
func (s *Summary) OK() bool {
	return s.Counts.Failed == 0
}

// Failures returns the failed results.
func (s *Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.Status == Failed {
			out = append(out, r)
		}
	}
	return out
}

// Artifacts returns every artifact across results.
func (s *Summary) Artifacts() []artifacts.Artifact {
	var out []artifacts.Artifact
	for _, r := range s.Results {
		out = append(out, r.Artifacts...)
	}
	return out
}

// SetArtifacts replaces each result's artifacts with the published copies,
// matched by local path.
func (s *Summary) SetArtifacts(published []artifacts.Artifact) {
	byPath := make(map[string]artifacts.Artifact, len(published))
	for _, a := range published {
		byPath[a.Path] = a
	}
	for i := range s.Results {
		for j, a := range s.Results[i].Artifacts {
			if p, ok := byPath[a.Path]; ok {
				s.Results[i].Artifacts[j] = p
			}
		}
	}
}

// Summarize builds a Summary from results. Results are ordered by suite, test
// and project so reports are stable across runs.
func Summarize(meta config.ReportMeta, results []Result) *Summary {
	s := &Summary{Meta: meta, Results: append([]Result(nil), results...)}
	sort.SliceStable(s.Results, func(i, j int) bool {
		a, b := s.Results[i], s.Results[j]
		if a.Suite != b.Suite {
			return a.Suite < b.Suite
		}
		if a.Test != b.Test {
			return a.Test < b.Test
		}
		return a.Project < b.Project
	})
	for _, r := range s.Results {
		s.Counts.add(r.Status)
		if s.RunID == "" {
			s.RunID = r.RunID
		}
		if !r.StartedAt.IsZero() && (s.StartedAt.IsZero() || r.StartedAt.Before(s.StartedAt)) {
			s.StartedAt = r.StartedAt
		}
		if end := r.StartedAt.Add(r.Duration); end.After(s.FinishedAt) {
			s.FinishedAt = end
		}
	}
	return s
}

// ErrNoResults is returned by Merge when no results were recorded for the run.
var ErrNoResults = errors.New("no results recorded")

// Merge reads the result files under <reportDir>/results that belong to
// runID. An empty runID selects the run of the most recently started result,
// so leftovers from earlier runs never leak into the report.
func Merge(reportDir string, meta config.ReportMeta, runID string) (*Summary, error) {
	dir := filepath.Join(reportDir, ResultsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("read results dir: %w", err)
	}

	var results []Result
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var r Result
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	if runID == "" {
		runID = latestRun(results)
	}
	results = filterRun(results, runID)
	if len(results) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNoResults)
	}
	return Summarize(meta, results), nil
}

func latestRun(results []Result) string {
	latest := results[0]
	for _, r := range results[1:] {
		if r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	return latest.RunID
}

func filterRun(results []Result, runID string) []Result {
	kept := results[:0]
	for _, r := range results {
		if r.RunID == runID {
			kept = append(kept, r)
		}
	}
	return kept
}

// Reset removes raw results from an earlier run.
func Reset(reportDir string) error {
	if err := os.RemoveAll(filepath.Join(reportDir, ResultsDir)); err != nil {
		return fmt.Errorf("reset results: %w", err)
	}
	return nil
}
