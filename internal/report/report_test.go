package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/oloid-qa/e2e/internal/artifacts"
	"github.com/oloid-qa/e2e/internal/config"
)

var meta = config.ReportMeta{
	Title:    "Oloid Test Run Report",
	Project:  "MNP",
	Platform: "linux",
}

func sampleResults(start time.Time) []Result {
	return []Result{
		{RunID: "run-1", Project: "firefox", Suite: "Login", Test: "valid credentials", Status: Passed, Attempts: 1, StartedAt: start, Duration: 2 * time.Second},
		{RunID: "run-1", Project: "chromium", Suite: "Login", Test: "valid credentials", Status: Flaky, Attempts: 2, StartedAt: start.Add(time.Second), Duration: 3 * time.Second},
		{
			RunID: "run-1", Project: "chromium", Suite: "Client", Test: "duplicate client", Status: Failed, Attempts: 3,
			StartedAt: start.Add(2 * time.Second), Duration: 4 * time.Second,
			Error: "failed to interact with Submit button after waiting\ncall log", ErrorKind: "timeout",
			Artifacts: []artifacts.Artifact{{Kind: artifacts.Screenshot, Path: "/tmp/out/failure-screenshot-1.png", Size: 2048}},
		},
		{RunID: "run-1", Project: "chromium", Suite: "Coverage", Test: "missing reference", Status: Skipped, Reason: "validation message not implemented", StartedAt: start},
	}
}

func TestSummarize_CountsAndOrder(t *testing.T) {
	start := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	s := Summarize(meta, sampleResults(start))

	assert.Equal(t, Counts{Total: 4, Passed: 1, Flaky: 1, Failed: 1, Skipped: 1}, s.Counts)
	assert.Equal(t, "run-1", s.RunID)
	assert.False(t, s.OK())
	assert.Equal(t, 6*time.Second, s.Duration())

	var order []string
	for _, r := range s.Results {
		order = append(order, r.Suite+"/"+r.Project)
	}
	assert.Equal(t, []string{"Client/chromium", "Coverage/chromium", "Login/chromium", "Login/firefox"}, order)

	require.Len(t, s.Failures(), 1)
	assert.Len(t, s.Artifacts(), 1)
}

func testSummarize_CountsAddUp(t *rapid.T) {
	statuses := []Status{Passed, Flaky, Failed, Skipped}
	n := rapid.IntRange(0, 30).Draw(t, "n")
	results := make([]Result, n)
	for i := range results {
		results[i] = Result{
			Project: rapid.SampledFrom([]string{"chromium", "firefox", "webkit"}).Draw(t, "project"),
			Test:    rapid.StringMatching(`[a-z ]{1,12}`).Draw(t, "test"),
			Status:  rapid.SampledFrom(statuses).Draw(t, "status"),
		}
	}
	s := Summarize(meta, results)
	c := s.Counts
	if c.Total != n || c.Passed+c.Flaky+c.Failed+c.Skipped != n {
		t.Fatalf("counts do not add up: %+v for %d results", c, n)
	}
	if s.OK() != (c.Failed == 0) {
		t.Fatalf("OK() disagrees with failed count %d", c.Failed)
	}
	if len(s.Failures()) != c.Failed {
		t.Fatalf("Failures() returned %d, want %d", len(s.Failures()), c.Failed)
	}
}

func TestSummarize_CountsAddUp(t *testing.T) {
	rapid.Check(t, testSummarize_CountsAddUp)
}

func TestRecorder_ConcurrentRecordThenMerge(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := Passed
			if i%5 == 0 {
				status = Failed
			}
			assert.NoError(t, rec.Record(Result{RunID: "run-2", Project: "chromium", Test: "t", Status: status, Attempts: 1}))
		}(i)
	}
	wg.Wait()
	assert.Len(t, rec.Results(), 20)

	s, err := Merge(dir, meta, "run-2")
	require.NoError(t, err)
	assert.Equal(t, 20, s.Counts.Total)
	assert.Equal(t, 4, s.Counts.Failed)

	seen := map[string]bool{}
	for _, r := range s.Results {
		assert.NotEmpty(t, r.ID)
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestMerge_EmptyAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	_, err := Merge(dir, meta, "")
	assert.True(t, errors.Is(err, ErrNoResults))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, ResultsDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResultsDir, "bad.json"), []byte("{"), 0o644))
	_, err = Merge(dir, meta, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")

	require.NoError(t, Reset(dir))
	_, err = Merge(dir, meta, "")
	assert.True(t, errors.Is(err, ErrNoResults))
}

func TestMerge_KeepsOneRun(t *testing.T) {
	dir := t.TempDir()
	rec, err := NewRecorder(dir)
	require.NoError(t, err)
	earlier := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)
	require.NoError(t, rec.Record(Result{RunID: "run-old", Project: "chromium", Test: "stale", Status: Failed, Attempts: 1, StartedAt: earlier}))
	require.NoError(t, rec.Record(Result{RunID: "run-new", Project: "chromium", Test: "fresh", Status: Passed, Attempts: 1, StartedAt: later}))
	require.NoError(t, rec.Record(Result{RunID: "run-new", Project: "webkit", Test: "fresh", Status: Passed, Attempts: 1, StartedAt: later}))

	s, err := Merge(dir, meta, "")
	require.NoError(t, err)
	assert.Equal(t, "run-new", s.RunID)
	assert.Equal(t, 2, s.Counts.Total)
	assert.True(t, s.OK())

	s, err = Merge(dir, meta, "run-old")
	require.NoError(t, err)
	require.Len(t, s.Results, 1)
	assert.Equal(t, "stale", s.Results[0].Test)

	_, err = Merge(dir, meta, "run-missing")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestSetArtifacts_ReplacesByPath(t *testing.T) {
	s := Summarize(meta, sampleResults(time.Now()))
	s.SetArtifacts([]artifacts.Artifact{{
		Kind: artifacts.Screenshot,
		Path: "/tmp/out/failure-screenshot-1.png",
		Size: 2048,
		URL:  "https://bucket.example/run-1/failure-screenshot-1.png",
	}})
	require.Len(t, s.Artifacts(), 1)
	assert.Equal(t, "https://bucket.example/run-1/failure-screenshot-1.png", s.Artifacts()[0].Link())
}

func TestWriteList(t *testing.T) {
	s := Summarize(meta, sampleResults(time.Now()))
	var buf bytes.Buffer
	require.NoError(t, WriteList(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "Client › duplicate client")
	assert.Contains(t, out, "failed to interact with Submit button after waiting")
	assert.NotContains(t, out, "call log", "only the first error line is listed")
	assert.Contains(t, out, "1 passed, 1 flaky, 1 failed, 1 skipped")
}

func TestMarkdown_FailuresSection(t *testing.T) {
	s := Summarize(meta, sampleResults(time.Now()))
	md := Markdown(s)
	assert.True(t, strings.HasPrefix(md, "# Oloid Test Run Report"))
	assert.Contains(t, md, "## Failures")
	assert.Contains(t, md, "[failure-screenshot-1.png](/tmp/out/failure-screenshot-1.png)")

	passing := Summarize(meta, sampleResults(time.Now())[:2])
	assert.NotContains(t, Markdown(passing), "## Failures")
}

func TestRenderMarkdown_Sanitizes(t *testing.T) {
	out := string(RenderMarkdown([]byte("# Title\n\n<script>alert(1)</script>\n\n`code`")))
	assert.Contains(t, out, "Title</h1>")
	assert.Contains(t, out, "<code>code</code>")
	assert.NotContains(t, out, "<script>")
}

func TestWriteHTML(t *testing.T) {
	results := sampleResults(time.Now())
	results[2].Error = "<img src=x onerror=alert(1)>"
	s := Summarize(meta, results)

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, s))
	out := buf.String()
	assert.Contains(t, out, "<title>Oloid Test Run Report</title>")
	assert.Contains(t, out, "2.0 kB")
	assert.Contains(t, out, "file:///tmp/out/failure-screenshot-1.png")
	assert.NotContains(t, out, "<img src=x")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	s := Summarize(meta, sampleResults(time.Now()))

	paths, err := WriteAll(dir, s)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, ListFile),
		filepath.Join(dir, JSONFile),
		filepath.Join(dir, HTMLDir, HTMLFile),
	}, paths)
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}
