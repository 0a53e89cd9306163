package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// suiteEnvKeys are cleared before every loader test so the host environment
// cannot leak into expectations.
var suiteEnvKeys = []string{
	"CI", "E2E_TARGET", "BASE_URL", "ADMIN_BASE_URL", "ADMIN_USERNAME", "ADMIN_PASSWORD",
	"E2E_RUN_ID", "RETRIES", "WORKERS", "FULLY_PARALLEL", "GREP", "GREP_INVERT",
	"TEST_TIMEOUT", "GLOBAL_TIMEOUT", "ACTION_TIMEOUT", "NAVIGATION_TIMEOUT", "EXPECT_TIMEOUT",
	"CLICK_TIMEOUT", "VISIBLE_TIMEOUT", "HEADLESS", "SLOW_MO", "PROJECTS", "SCREENSHOT", "VIDEO",
	"TRACE", "OUTPUT_DIR", "REPORT_DIR", "REPORT_TITLE", "REPORT_AUTHOR", "REPORT_PROJECT",
	"REPORT_RELEASE", "REPORT_PLATFORM", "REPORT_TEST_CYCLE", "TEST_DATA_FILE", "ARTIFACT_BUCKET",
	"ARTIFACT_PREFIX", "AWS_ENDPOINT_URL_S3", "AWS_REGION", "AWS_ACCESS_KEY_ID",
	"AWS_SECRET_ACCESS_KEY", "S3_PUBLIC_URL", "SLACK_WEBHOOK_URL", "RESEND_API_KEY",
	"REPORT_EMAIL_FROM", "REPORT_EMAIL_TO", "NOTIFY_ON_SUCCESS", "E2E_ENV_FILE", "E2E_CONFIG",
	"OPEN_REPORT", "E2E_MAIL_OUTBOX_DIR",
}

func clearSuiteEnv(t *testing.T) {
	t.Helper()
	for _, key := range suiteEnvKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("Unsetenv %s: %v", key, err)
		}
	}
}

func validTestConfig() Config {
	return Config{
		Target:            TargetLive,
		ShopBaseURL:       DefaultShopBaseURL,
		AdminBaseURL:      DefaultAdminBaseURL,
		AdminUsername:     "admin",
		AdminPassword:     "admin@123",
		TestTimeout:       5 * time.Minute,
		ActionTimeout:     30 * time.Second,
		NavigationTimeout: 60 * time.Second,
		ExpectTimeout:     5 * time.Second,
		ClickTimeout:      10 * time.Second,
		VisibleTimeout:    30 * time.Second,
		Projects:          append([]ProjectSpec(nil), DefaultProjects...),
		Screenshot:        ModeOnlyOnFailure,
		Video:             ModeRetainOnFailure,
		Trace:             ModeOnFirstRetry,
	}
}

func TestLoad_DefaultsMirrorRunnerConfiguration(t *testing.T) {
	clearSuiteEnv(t)
	root := t.TempDir()

	cfg, err := LoadWithOptions(Options{Root: root})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}

	if cfg.TestTimeout != 5*time.Minute || cfg.ActionTimeout != 30*time.Second || cfg.NavigationTimeout != 60*time.Second {
		t.Fatalf("timeouts mismatch: %+v", cfg)
	}
	if cfg.Retries != 0 || cfg.Workers != 0 || cfg.CI {
		t.Fatalf("non-CI run control mismatch: retries=%d workers=%d ci=%v", cfg.Retries, cfg.Workers, cfg.CI)
	}
	if got := strings.Join(cfg.ProjectNames(), ","); got != "chromium,firefox,webkit" {
		t.Fatalf("projects mismatch: %s", got)
	}
	if cfg.Screenshot != ModeOnlyOnFailure || cfg.Video != ModeRetainOnFailure || cfg.Trace != ModeOnFirstRetry {
		t.Fatalf("artifact policy mismatch: %s %s %s", cfg.Screenshot, cfg.Video, cfg.Trace)
	}
	if cfg.OutputDir != filepath.Join(root, "test-results") {
		t.Fatalf("output dir not resolved against root: %s", cfg.OutputDir)
	}
	if cfg.TestDataFile != filepath.Join(root, "testdata", "qa", "testdata.csv") {
		t.Fatalf("test data path mismatch: %s", cfg.TestDataFile)
	}
	if cfg.Report.Title != "Oloid Test Run Report" {
		t.Fatalf("report title mismatch: %q", cfg.Report.Title)
	}
}

func TestLoad_CIChangesRetriesAndWorkers(t *testing.T) {
	clearSuiteEnv(t)
	t.Setenv("CI", "true")

	cfg, err := LoadWithOptions(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.Retries != 2 || cfg.Workers != 1 {
		t.Fatalf("CI run control mismatch: retries=%d workers=%d", cfg.Retries, cfg.Workers)
	}
}

func TestLoad_DotEnvAndSettingsFilePrecedence(t *testing.T) {
	clearSuiteEnv(t)
	root := t.TempDir()

	writeFile(t, filepath.Join(root, ".env"), "ADMIN_USERNAME=from-dotenv\nRETRIES=3\n")
	writeFile(t, filepath.Join(root, "e2e.yaml"), `
env:
  ADMIN_USERNAME: from-yaml
  WORKERS: "4"
projects:
  - name: mobile-chrome
    browser: chromium
    device: Pixel 5
report:
  title: Nightly regression
`)
	t.Setenv("RETRIES", "1")

	cfg, err := LoadWithOptions(Options{Root: root})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.AdminUsername != "from-dotenv" {
		t.Fatalf(".env should win over the settings file: %q", cfg.AdminUsername)
	}
	if cfg.Retries != 1 {
		t.Fatalf("process env should win over .env: %d", cfg.Retries)
	}
	if cfg.Workers != 4 {
		t.Fatalf("settings file env should apply: %d", cfg.Workers)
	}
	if len(cfg.Projects) != 1 || cfg.Projects[0].Device != "Pixel 5" {
		t.Fatalf("settings file projects not applied: %+v", cfg.Projects)
	}
	if cfg.Report.Title != "Nightly regression" {
		t.Fatalf("settings file report meta not applied: %q", cfg.Report.Title)
	}
}

func TestLoad_ExplicitSettingsFileMustExist(t *testing.T) {
	clearSuiteEnv(t)
	_, err := LoadWithOptions(Options{Root: t.TempDir(), SettingsFile: "missing.yaml"})
	if err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Fatalf("expected missing settings file error, got %v", err)
	}
}

func TestValidate_MinimalConfigPasses(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.ShopBaseURL = "automationexercise.com"
	cfg.Retries = -1
	cfg.Video = "sometimes"
	cfg.Projects = append(cfg.Projects, ProjectSpec{Name: "edge", Browser: "msedge"})
	cfg.ArtifactBucket = "artifacts"
	cfg.ReportEmailTo = []string{"qa@example.com"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, expected := range []string{
		"BASE_URL",
		"RETRIES",
		"VIDEO",
		`unknown browser "msedge"`,
		"AWS_ACCESS_KEY_ID",
		"RESEND_API_KEY",
	} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func TestValidate_LocalTargetSkipsURLChecks(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.Target = TargetLocal
	cfg.ShopBaseURL = ""
	cfg.AdminBaseURL = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("local target should not require URLs: %v", err)
	}
}

func testValidate_RejectsNonPositiveTimeouts(t *rapid.T) {
	cfg := validTestConfig()
	d := time.Duration(rapid.Int64Range(-int64(time.Hour), 0).Draw(t, "timeout"))
	field := rapid.SampledFrom([]string{"TEST_TIMEOUT", "ACTION_TIMEOUT", "NAVIGATION_TIMEOUT", "EXPECT_TIMEOUT", "CLICK_TIMEOUT", "VISIBLE_TIMEOUT"}).Draw(t, "field")
	switch field {
	case "TEST_TIMEOUT":
		cfg.TestTimeout = d
	case "ACTION_TIMEOUT":
		cfg.ActionTimeout = d
	case "NAVIGATION_TIMEOUT":
		cfg.NavigationTimeout = d
	case "EXPECT_TIMEOUT":
		cfg.ExpectTimeout = d
	case "CLICK_TIMEOUT":
		cfg.ClickTimeout = d
	case "VISIBLE_TIMEOUT":
		cfg.VisibleTimeout = d
	}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), field) {
		t.Fatalf("expected %s error, got %v", field, err)
	}
}

func TestValidate_RejectsNonPositiveTimeouts(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsNonPositiveTimeouts)
}

func TestParseProjects(t *testing.T) {
	t.Parallel()

	got := parseProjects(" webkit , chromium ")
	if len(got) != 2 || got[0].Device != "Desktop Safari" || got[1].Name != "chromium" {
		t.Fatalf("parseProjects mismatch: %+v", got)
	}
	if got := parseProjects(""); len(got) != len(DefaultProjects) {
		t.Fatalf("empty PROJECTS should yield defaults: %+v", got)
	}
}

func TestHelperParsers_DefaultOnBadInput(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-an-int")
	t.Setenv("CFG_TEST_BOOL", "perhaps")
	t.Setenv("CFG_TEST_DUR", "not-a-duration")
	env := &envReader{}
	if got := env.parseIntOrDefault("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("parseIntOrDefault fallback mismatch: got=%d want=7", got)
	}
	if got := env.parseBoolOrDefault("CFG_TEST_BOOL", true); !got {
		t.Fatal("parseBoolOrDefault fallback mismatch")
	}
	if got := env.parseDurationOrDefault("CFG_TEST_DUR", 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("parseDurationOrDefault fallback mismatch: got=%v want=%v", got, 2*time.Minute)
	}
	if len(env.problems) != 3 {
		t.Fatalf("expected 3 recorded problems, got %q", env.problems)
	}
	if !strings.Contains(env.problems[0], `CFG_TEST_INT must be an integer, got "not-an-int"`) {
		t.Fatalf("problem wording mismatch: %q", env.problems[0])
	}
}

func TestLoad_RejectsMalformedNumbers(t *testing.T) {
	clearSuiteEnv(t)
	t.Setenv("RETRIES", "two")
	t.Setenv("TEST_TIMEOUT", "300")
	t.Setenv("HEADLESS", "sometimes")

	_, err := LoadWithOptions(Options{Root: t.TempDir()})
	if err == nil {
		t.Fatal("expected validation error for malformed values")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}
	msg := err.Error()
	for _, key := range []string{"RETRIES", "TEST_TIMEOUT", "HEADLESS"} {
		if !strings.Contains(msg, key+" must be") {
			t.Fatalf("validation error missing %s:\n%s", key, msg)
		}
	}
}

func TestLoad_OpenReportFollowsCI(t *testing.T) {
	clearSuiteEnv(t)
	cfg, err := LoadWithOptions(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if !cfg.OpenReport {
		t.Fatal("OpenReport should default on outside CI")
	}

	t.Setenv("CI", "true")
	cfg, err = LoadWithOptions(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if cfg.OpenReport {
		t.Fatal("OpenReport should default off in CI")
	}

	t.Setenv("OPEN_REPORT", "true")
	cfg, err = LoadWithOptions(Options{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("LoadWithOptions: %v", err)
	}
	if !cfg.OpenReport {
		t.Fatal("OPEN_REPORT=true should win over CI")
	}
}

func TestGetEnvOrDefault_TrimsWhitespace(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "   value   ")
	if got := getEnvOrDefault("CFG_TEST_STR", "fallback"); got != "value" {
		t.Fatalf("getEnvOrDefault trim mismatch: got=%q want=%q", got, "value")
	}
}

func TestPrintSummary_MasksSecrets(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.AdminPassword = "super-secret-password"
	cfg.SlackWebhookURL = "https://hooks.slack.com/services/T000/B000/XXXXXXXX"

	var buf bytes.Buffer
	if err := cfg.PrintSummary(&buf); err != nil {
		t.Fatalf("PrintSummary: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "super-secret-password") || strings.Contains(out, "XXXXXXXX") {
		t.Fatalf("summary leaked a secret:\n%s", out)
	}
	if !strings.Contains(out, "chromium") || !strings.Contains(out, "only-on-failure") {
		t.Fatalf("summary missing settings:\n%s", out)
	}
}

func TestPrintSummary_NotesDeadlineAndHeadless(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.Headless = true

	var buf bytes.Buffer
	if err := cfg.PrintSummary(&buf); err != nil {
		t.Fatalf("PrintSummary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "note: GLOBAL_TIMEOUT is 0") || !strings.Contains(out, "note: browsers run headless outside CI") {
		t.Fatalf("summary missing notes:\n%s", out)
	}

	cfg.GlobalTimeout = time.Minute
	cfg.CI = true
	if notes := cfg.Notes(); len(notes) != 0 {
		t.Fatalf("expected no notes for a capped CI run, got %q", notes)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
