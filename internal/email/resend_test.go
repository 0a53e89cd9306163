package email

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestRender_FollowsTemplate(t *testing.T) {
	t.Parallel()
	data := RunSummaryData{
		Title:     "Oloid Test Run Report",
		RunID:     "run-42",
		Counts:    "3 passed, 1 failed (2m3s)",
		BodyHTML:  "<h2>Failures</h2>",
		ReportURL: "https://bucket.example/run-42/ortoni-report.html",
	}

	subject, body, err := render(RunPassed, data)
	if err != nil {
		t.Fatalf("render passed: %v", err)
	}
	if !strings.HasPrefix(subject, "[PASS] Oloid Test Run Report") {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "<h2>Failures</h2>") || !strings.Contains(body, data.ReportURL) {
		t.Fatalf("body missing summary or report link")
	}

	subject, body, err = render(RunFailed, data)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasPrefix(subject, "[FAIL]") || !strings.Contains(subject, data.Counts) {
		t.Fatalf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "run-42") {
		t.Fatalf("body missing run id")
	}
}

func TestRender_EscapesTitleAndOmitsEmptyLink(t *testing.T) {
	t.Parallel()
	subject, body, err := render(RunPassed, RunSummaryData{Title: "<b>x</b>"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(body, "<b>x</b>") {
		t.Fatalf("title must be escaped")
	}
	if strings.Contains(body, "Open Report") {
		t.Fatalf("report button rendered without a URL")
	}
	if !strings.Contains(subject, "<b>x</b>") {
		t.Fatalf("subject is plain text and keeps the title: %q", subject)
	}

	_, _, err = render(RunPassed, RunSummaryData{})
	if err != nil {
		t.Fatalf("render without title: %v", err)
	}
}

func testRender_UnknownTemplateIsAnError(t *rapid.T) {
	name := rapid.StringMatching(`[a-z0-9._-]{1,32}`).Filter(func(s string) bool {
		return s != string(RunPassed) && s != string(RunFailed)
	}).Draw(t, "template")

	if _, _, err := render(Template(name), RunSummaryData{RunID: "r"}); err == nil {
		t.Fatalf("render(%q) should fail", name)
	}
}

func TestRender_UnknownTemplateIsAnError(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testRender_UnknownTemplateIsAnError)
}

func TestOutbox_KeepsAndWritesMessages(t *testing.T) {
	dir := t.TempDir()
	box := NewOutbox(dir)

	if err := box.Send("qa@example.com", RunPassed, RunSummaryData{RunID: "run-7", Counts: "1 passed (1s)"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := box.Send("lead@example.com", RunFailed, RunSummaryData{RunID: "run-7"}); err != nil {
		t.Fatalf("send: %v", err)
	}

	if n := len(box.Sent()); n != 2 {
		t.Fatalf("Sent() has %d messages, want 2", n)
	}
	last, ok := box.Last()
	if !ok || last.To != "lead@example.com" || last.Template != RunFailed {
		t.Fatalf("unexpected last message: %+v", last)
	}

	files, err := filepath.Glob(filepath.Join(dir, "run-7-*.json"))
	if err != nil || len(files) != 2 {
		t.Fatalf("outbox files = %v (err %v), want 2", files, err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "run-7-001-run_passed-qa@example.com.json"))
	if err != nil {
		t.Fatalf("read outbox: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode outbox: %v", err)
	}
	if msg.Data.Counts != "1 passed (1s)" {
		t.Fatalf("outbox message lost counts: %+v", msg)
	}

	box.Reset()
	if _, ok := box.Last(); ok {
		t.Fatalf("Reset kept messages")
	}
}

func TestOutbox_MemoryOnly(t *testing.T) {
	box := NewOutbox("")
	if err := box.Send("qa@example.com", RunPassed, RunSummaryData{}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(box.Sent()) != 1 {
		t.Fatalf("message not kept")
	}
}

func TestFileSafe(t *testing.T) {
	cases := map[string]string{
		"":               "none",
		"qa@example.com": "qa@example.com",
		"a b/c":          "a_b_c",
		"run:2026/10/17": "run_2026_10_17",
	}
	for in, want := range cases {
		if got := fileSafe(in); got != want {
			t.Errorf("fileSafe(%q) = %q, want %q", in, got, want)
		}
	}
}
