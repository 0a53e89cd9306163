// Package config provides centralized settings for the end-to-end suite.
// Settings come from, in order of precedence: process environment, a .env
// file, an optional YAML settings file (e2e.yaml) and built-in defaults that
// mirror the historical runner configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/oloid-qa/e2e/internal/urlutil"
)

const (
	TargetLive  = "live"
	TargetLocal = "local"

	DefaultShopBaseURL  = "https://www.automationexercise.com/"
	DefaultAdminBaseURL = "http://k8s-mnp-mnpadmin-caf79e8920-d292c5aedbf21a5e.elb.eu-west-2.amazonaws.com"
)

// Artifact policy values.
const (
	ModeOff             = "off"
	ModeOn              = "on"
	ModeOnlyOnFailure   = "only-on-failure"
	ModeRetainOnFailure = "retain-on-failure"
	ModeOnFirstRetry    = "on-first-retry"
)

// Config holds all suite configuration.
type Config struct {
	// Targets
	Target        string // live or local
	ShopBaseURL   string
	AdminBaseURL  string
	AdminUsername string
	AdminPassword string

	// Run control
	CI            bool
	RunID         string
	Retries       int
	Workers       int // 0 lets go test decide
	FullyParallel bool
	Grep          string
	GrepInvert    string

	// Timeouts
	TestTimeout       time.Duration
	GlobalTimeout     time.Duration // 0 disables the whole-run deadline
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
	ExpectTimeout     time.Duration
	ClickTimeout      time.Duration
	VisibleTimeout    time.Duration

	// Browsers
	Headless bool
	SlowMo   time.Duration
	Projects []ProjectSpec

	// Artifacts
	Screenshot string
	Video      string
	Trace      string
	OutputDir  string
	ReportDir  string
	Report     ReportMeta
	OpenReport bool // open the HTML report after publish; off in CI

	// Fixtures
	TestDataFile string

	// Artifact bucket (uses the standard AWS_ env vars)
	ArtifactBucket     string // ARTIFACT_BUCKET
	ArtifactPrefix     string // ARTIFACT_PREFIX
	AWSEndpointS3      string // AWS_ENDPOINT_URL_S3
	AWSRegion          string // AWS_REGION
	AWSAccessKeyID     string // AWS_ACCESS_KEY_ID
	AWSSecretAccessKey string // AWS_SECRET_ACCESS_KEY
	AWSPublicURL       string // S3_PUBLIC_URL

	// Notifications
	SlackWebhookURL string
	ResendAPIKey    string
	ReportEmailFrom string
	ReportEmailTo   []string
	NotifyOnSuccess bool

	// Root is the repository root that relative paths were resolved against.
	Root string

	parseErrors []string
}

// ReportMeta is the descriptive header of the HTML report.
type ReportMeta struct {
	Title     string `yaml:"title"`
	Author    string `yaml:"author"`
	Project   string `yaml:"project"`
	Release   string `yaml:"release"`
	Platform  string `yaml:"platform"`
	TestCycle string `yaml:"test_cycle"`
}

// ProjectSpec names one browser configuration the suite runs against.
type ProjectSpec struct {
	Name    string `yaml:"name"`
	Browser string `yaml:"browser"`
	Device  string `yaml:"device"`
}

// DefaultProjects are the desktop engines the suite targets.
var DefaultProjects = []ProjectSpec{
	{Name: "chromium", Browser: "chromium", Device: "Desktop Chrome"},
	{Name: "firefox", Browser: "firefox", Device: "Desktop Firefox"},
	{Name: "webkit", Browser: "webkit", Device: "Desktop Safari"},
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Options control where Load looks for settings.
type Options struct {
	// Root overrides repository root discovery.
	Root string
	// EnvFile is the dotenv file, relative to Root. Empty means ".env".
	EnvFile string
	// SettingsFile is the YAML settings file, relative to Root. Empty means
	// E2E_CONFIG, then "e2e.yaml" when present.
	SettingsFile string
}

// Load reads configuration with default options.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions loads .env, the settings file and environment variables,
// then validates the result.
func LoadWithOptions(opts Options) (*Config, error) {
	root := opts.Root
	if root == "" {
		root = FindRoot()
	}

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = getEnvOrDefault("E2E_ENV_FILE", ".env")
	}
	if err := loadDotEnv(resolvePath(root, envFile)); err != nil {
		return nil, err
	}

	settingsFile := opts.SettingsFile
	if settingsFile == "" {
		settingsFile = os.Getenv("E2E_CONFIG")
	}
	settings, err := loadSettingsFile(root, settingsFile)
	if err != nil {
		return nil, err
	}
	settings.exportEnv()

	cfg := fromEnv()
	cfg.Root = root
	settings.apply(cfg)
	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func fromEnv() *Config {
	cfg := &Config{}
	env := &envReader{}
	cfg.CI = strings.TrimSpace(os.Getenv("CI")) != "" && os.Getenv("CI") != "false"

	// Targets
	cfg.Target = strings.ToLower(getEnvOrDefault("E2E_TARGET", TargetLive))
	cfg.ShopBaseURL = getEnvOrDefault("BASE_URL", DefaultShopBaseURL)
	cfg.AdminBaseURL = strings.TrimRight(getEnvOrDefault("ADMIN_BASE_URL", DefaultAdminBaseURL), "/")
	cfg.AdminUsername = getEnvOrDefault("ADMIN_USERNAME", "admin")
	cfg.AdminPassword = getEnvOrDefault("ADMIN_PASSWORD", "admin@123")

	// Run control
	cfg.RunID = os.Getenv("E2E_RUN_ID")
	defaultRetries, defaultWorkers := 0, 0
	if cfg.CI {
		defaultRetries, defaultWorkers = 2, 1
	}
	cfg.Retries = env.parseIntOrDefault("RETRIES", defaultRetries)
	cfg.Workers = env.parseIntOrDefault("WORKERS", defaultWorkers)
	cfg.FullyParallel = env.parseBoolOrDefault("FULLY_PARALLEL", false)
	cfg.Grep = os.Getenv("GREP")
	cfg.GrepInvert = os.Getenv("GREP_INVERT")

	// Timeouts
	cfg.TestTimeout = env.parseDurationOrDefault("TEST_TIMEOUT", 5*time.Minute)
	cfg.GlobalTimeout = env.parseDurationOrDefault("GLOBAL_TIMEOUT", 0)
	cfg.ActionTimeout = env.parseDurationOrDefault("ACTION_TIMEOUT", 30*time.Second)
	cfg.NavigationTimeout = env.parseDurationOrDefault("NAVIGATION_TIMEOUT", 60*time.Second)
	cfg.ExpectTimeout = env.parseDurationOrDefault("EXPECT_TIMEOUT", 5*time.Second)
	cfg.ClickTimeout = env.parseDurationOrDefault("CLICK_TIMEOUT", 10*time.Second)
	cfg.VisibleTimeout = env.parseDurationOrDefault("VISIBLE_TIMEOUT", 30*time.Second)

	// Browsers
	cfg.Headless = env.parseBoolOrDefault("HEADLESS", true)
	cfg.SlowMo = env.parseDurationOrDefault("SLOW_MO", 0)
	cfg.Projects = parseProjects(os.Getenv("PROJECTS"))

	// Artifacts
	cfg.Screenshot = getEnvOrDefault("SCREENSHOT", ModeOnlyOnFailure)
	cfg.Video = getEnvOrDefault("VIDEO", ModeRetainOnFailure)
	cfg.Trace = getEnvOrDefault("TRACE", ModeOnFirstRetry)
	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", "test-results")
	cfg.ReportDir = getEnvOrDefault("REPORT_DIR", "reports")
	cfg.OpenReport = env.parseBoolOrDefault("OPEN_REPORT", !cfg.CI)
	cfg.Report = ReportMeta{
		Title:     getEnvOrDefault("REPORT_TITLE", "Oloid Test Run Report"),
		Author:    getEnvOrDefault("REPORT_AUTHOR", "QA Team"),
		Project:   getEnvOrDefault("REPORT_PROJECT", "MNP Admin Portal"),
		Release:   getEnvOrDefault("REPORT_RELEASE", "1.0.0"),
		Platform:  getEnvOrDefault("REPORT_PLATFORM", "web"),
		TestCycle: os.Getenv("REPORT_TEST_CYCLE"),
	}

	// Fixtures
	cfg.TestDataFile = getEnvOrDefault("TEST_DATA_FILE", filepath.Join("testdata", "qa", "testdata.csv"))

	// Artifact bucket
	cfg.ArtifactBucket = strings.TrimSpace(os.Getenv("ARTIFACT_BUCKET"))
	cfg.ArtifactPrefix = strings.Trim(getEnvOrDefault("ARTIFACT_PREFIX", "e2e"), "/")
	cfg.AWSEndpointS3 = strings.TrimSpace(os.Getenv("AWS_ENDPOINT_URL_S3"))
	cfg.AWSRegion = getEnvOrDefault("AWS_REGION", "us-east-1")
	cfg.AWSAccessKeyID = strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID"))
	cfg.AWSSecretAccessKey = strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY"))
	cfg.AWSPublicURL = strings.TrimSpace(os.Getenv("S3_PUBLIC_URL"))
	if cfg.AWSPublicURL == "" && cfg.AWSEndpointS3 != "" && cfg.ArtifactBucket != "" {
		cfg.AWSPublicURL = strings.TrimRight(cfg.AWSEndpointS3, "/") + "/" + cfg.ArtifactBucket
	}

	// Notifications
	cfg.SlackWebhookURL = strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))
	cfg.ResendAPIKey = strings.TrimSpace(os.Getenv("RESEND_API_KEY"))
	cfg.ReportEmailFrom = getEnvOrDefault("REPORT_EMAIL_FROM", "qa-reports@oloid.example")
	cfg.ReportEmailTo = splitList(os.Getenv("REPORT_EMAIL_TO"))
	cfg.NotifyOnSuccess = env.parseBoolOrDefault("NOTIFY_ON_SUCCESS", false)

	cfg.parseErrors = env.problems
	return cfg
}

func (c *Config) resolvePaths() {
	c.OutputDir = resolvePath(c.Root, c.OutputDir)
	c.ReportDir = resolvePath(c.Root, c.ReportDir)
	c.TestDataFile = resolvePath(c.Root, c.TestDataFile)
}

// Validate checks that all configuration is present and consistent.
func (c *Config) Validate() error {
	errs := append([]string(nil), c.parseErrors...)

	switch c.Target {
	case TargetLive:
		for name, raw := range map[string]string{"BASE_URL": c.ShopBaseURL, "ADMIN_BASE_URL": c.AdminBaseURL} {
			if !urlutil.IsHTTP(raw) {
				errs = append(errs, fmt.Sprintf("%s must be an absolute http(s) URL, got %q", name, raw))
			}
		}
	case TargetLocal:
	default:
		errs = append(errs, fmt.Sprintf("E2E_TARGET must be %q or %q, got %q", TargetLive, TargetLocal, c.Target))
	}

	if c.AdminUsername == "" {
		errs = append(errs, "ADMIN_USERNAME must not be empty")
	}

	if c.Retries < 0 {
		errs = append(errs, "RETRIES must not be negative")
	}
	if c.Workers < 0 {
		errs = append(errs, "WORKERS must not be negative")
	}

	for name, d := range map[string]time.Duration{
		"TEST_TIMEOUT":       c.TestTimeout,
		"ACTION_TIMEOUT":     c.ActionTimeout,
		"NAVIGATION_TIMEOUT": c.NavigationTimeout,
		"EXPECT_TIMEOUT":     c.ExpectTimeout,
		"CLICK_TIMEOUT":      c.ClickTimeout,
		"VISIBLE_TIMEOUT":    c.VisibleTimeout,
	} {
		if d <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}
	if c.GlobalTimeout < 0 {
		errs = append(errs, "GLOBAL_TIMEOUT must not be negative")
	}

	if len(c.Projects) == 0 {
		errs = append(errs, "PROJECTS must name at least one browser project")
	}
	seen := map[string]bool{}
	for _, p := range c.Projects {
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("duplicate project %q", p.Name))
		}
		seen[p.Name] = true
		switch p.Browser {
		case "chromium", "firefox", "webkit":
		default:
			errs = append(errs, fmt.Sprintf("project %q: unknown browser %q", p.Name, p.Browser))
		}
	}

	if !oneOf(c.Screenshot, ModeOff, ModeOn, ModeOnlyOnFailure) {
		errs = append(errs, fmt.Sprintf("SCREENSHOT must be off, on or only-on-failure, got %q", c.Screenshot))
	}
	if !oneOf(c.Video, ModeOff, ModeOn, ModeRetainOnFailure) {
		errs = append(errs, fmt.Sprintf("VIDEO must be off, on or retain-on-failure, got %q", c.Video))
	}
	if !oneOf(c.Trace, ModeOff, ModeOn, ModeOnFirstRetry, ModeRetainOnFailure) {
		errs = append(errs, fmt.Sprintf("TRACE must be off, on, on-first-retry or retain-on-failure, got %q", c.Trace))
	}

	if c.ArtifactBucket != "" {
		if c.AWSAccessKeyID == "" {
			errs = append(errs, "AWS_ACCESS_KEY_ID is required when ARTIFACT_BUCKET is set")
		}
		if c.AWSSecretAccessKey == "" {
			errs = append(errs, "AWS_SECRET_ACCESS_KEY is required when ARTIFACT_BUCKET is set")
		}
	}

	if len(c.ReportEmailTo) > 0 && c.ResendAPIKey == "" {
		errs = append(errs, "RESEND_API_KEY is required when REPORT_EMAIL_TO is set")
	}
	if c.SlackWebhookURL != "" && !urlutil.IsHTTP(c.SlackWebhookURL) {
		errs = append(errs, "SLACK_WEBHOOK_URL must be an absolute http(s) URL")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// IsLocal reports whether the suite targets the bundled local sites.
func (c *Config) IsLocal() bool {
	return c.Target == TargetLocal
}

// ArtifactsEnabled reports whether failure artifacts are uploaded to a bucket.
func (c *Config) ArtifactsEnabled() bool {
	return c.ArtifactBucket != ""
}

// ProjectNames returns the configured project names in order.
func (c *Config) ProjectNames() []string {
	names := make([]string, len(c.Projects))
	for i, p := range c.Projects {
		names[i] = p.Name
	}
	return names
}

// AdminURL joins path onto the admin portal base URL.
func (c *Config) AdminURL(path string) string {
	return urlutil.Join(c.AdminBaseURL, path)
}

// FindRoot walks up from the working directory to the directory holding go.mod.
// It falls back to the working directory.
func FindRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

func resolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) || root == "" {
		return path
	}
	return filepath.Join(root, path)
}

func parseProjects(raw string) []ProjectSpec {
	names := splitList(raw)
	if len(names) == 0 {
		return append([]ProjectSpec(nil), DefaultProjects...)
	}
	out := make([]ProjectSpec, 0, len(names))
	for _, name := range names {
		spec := ProjectSpec{Name: name, Browser: name}
		for _, def := range DefaultProjects {
			if def.Name == name {
				spec = def
			}
		}
		out = append(out, spec)
	}
	return out
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

// envReader parses typed environment values. A malformed value keeps the
// default and is recorded so Validate can report it.
type envReader struct {
	problems []string
}

func (r *envReader) reject(key, kind, value string) {
	r.problems = append(r.problems, fmt.Sprintf("%s must be %s, got %q", key, kind, value))
}

func (r *envReader) parseIntOrDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.reject(key, "an integer", value)
		return defaultValue
	}
	return parsed
}

func (r *envReader) parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.reject(key, "a boolean", value)
		return defaultValue
	}
	return parsed
}

func (r *envReader) parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.reject(key, "a duration such as 30s or 5m", value)
		return defaultValue
	}
	return parsed
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
