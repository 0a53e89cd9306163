// Package suite runs scenarios the way the browser runner did: once per
// configured project, with a fresh context per attempt, a per-test timeout,
// retries and a recorded result. Scenario packages call Main from TestMain and
// Run from their tests.
package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/oloid-qa/e2e/internal/artifacts"
	"github.com/oloid-qa/e2e/internal/browser"
	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/obs"
	"github.com/oloid-qa/e2e/internal/report"
	"github.com/oloid-qa/e2e/internal/testsite"
)

const (
	retryDelay   = 500 * time.Millisecond
	maxDirLength = 80
)

// Suite owns the browser driver and the result recorder for one test binary.
type Suite struct {
	Config *config.Config
	Sites  *testsite.Sites // set when the target is local

	manager  *browser.Manager
	recorder *report.Recorder
	filter   *Filter
	policy   browser.ArtifactPolicy
	startErr error
	deadline time.Time
	log      *slog.Logger
}

var current *Suite

// New prepares a Suite for cfg. The driver is started separately by Start.
func New(cfg *config.Config) (*Suite, error) {
	filter, err := NewFilter(cfg.Grep, cfg.GrepInvert)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "compile grep filters", err)
	}
	recorder, err := report.NewRecorder(cfg.ReportDir)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "create result recorder", err)
	}
	s := &Suite{
		Config:   cfg,
		manager:  browser.NewManager(browser.OptionsFromConfig(cfg)),
		recorder: recorder,
		filter:   filter,
		policy:   browser.PolicyFromConfig(cfg),
		log:      obs.Pkg("suite"),
	}
	if cfg.GlobalTimeout > 0 {
		s.deadline = time.Now().Add(cfg.GlobalTimeout)
	}
	return s, nil
}

// Start launches the Playwright driver. A failure is remembered rather than
// returned: scenarios then fail in CI and are skipped elsewhere.
func (s *Suite) Start() {
	if err := s.manager.Start(); err != nil {
		s.startErr = err
		s.log.Warn("playwright unavailable", "error", err)
	}
}

// Close stops the browsers and the local sites. Errors are logged.
func (s *Suite) Close() {
	if err := s.manager.Close(); err != nil {
		s.log.Warn("error closing browsers", "error", err)
	}
	if s.Sites != nil {
		s.Sites.Close()
	}
	s.log.Info("suite_closed", "results", len(s.recorder.Results()), "dir", s.recorder.Dir())
}

// Main is the body of a scenario package's TestMain.
func Main(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	obs.Init()
	log := obs.Pkg("suite")

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if cfg.RunID == "" {
		cfg.RunID = obs.NewRunID()
		_ = os.Setenv("E2E_RUN_ID", cfg.RunID)
	}

	var sites *testsite.Sites
	if cfg.IsLocal() {
		sites, err = testsite.Start(testsite.Options{
			AdminUsername: cfg.AdminUsername,
			AdminPassword: cfg.AdminPassword,
		})
		if err != nil {
			log.Error("failed to start local sites", "error", err)
			return 2
		}
		cfg.ShopBaseURL = sites.ShopURL
		cfg.AdminBaseURL = sites.AdminURL
	}

	s, err := New(cfg)
	if err != nil {
		log.Error("failed to prepare suite", "error", err)
		if sites != nil {
			sites.Close()
		}
		return 2
	}
	s.Sites = sites
	s.Start()

	current = s
	defer func() { current = nil }()
	log.Info("suite_started",
		"run_id", cfg.RunID,
		"target", cfg.Target,
		"projects", strings.Join(cfg.ProjectNames(), ","),
		"retries", cfg.Retries,
	)

	code := m.Run()
	s.Close()
	return code
}

// Run executes scenario once per project as subtests name/<project>.
func Run(t *testing.T, name string, scenario Scenario) {
	t.Helper()
	mustCurrent(t).Run(t, name, scenario)
}

// Skip records name as skipped in every project without running it.
func Skip(t *testing.T, name, reason string) {
	t.Helper()
	mustCurrent(t).Skip(t, name, reason)
}

func mustCurrent(t *testing.T) *Suite {
	t.Helper()
	if current == nil {
		t.Fatal("suite.Main must be called from TestMain")
	}
	return current
}

// Run executes scenario once per project.
func (s *Suite) Run(t *testing.T, name string, scenario Scenario) {
	t.Helper()
	suiteName := t.Name()
	t.Run(name, func(t *testing.T) {
		if s.Config.FullyParallel {
			t.Parallel()
		}
		for _, project := range s.Config.Projects {
			t.Run(project.Name, func(t *testing.T) {
				if s.Config.FullyParallel {
					t.Parallel()
				}
				s.runProject(t, suiteName, name, project, scenario)
			})
		}
	})
}

// Skip records a skipped scenario the way a declared-but-skipped test shows up
// in the runner's report.
func (s *Suite) Skip(t *testing.T, name, reason string) {
	t.Helper()
	suiteName := t.Name()
	t.Run(name, func(t *testing.T) {
		for _, project := range s.Config.Projects {
			t.Run(project.Name, func(t *testing.T) {
				if !s.filter.Match(title(suiteName, name, project.Name)) {
					t.Skip("filtered out")
				}
				s.record(t, report.Result{
					RunID:     s.Config.RunID,
					Project:   project.Name,
					Suite:     suiteName,
					Test:      name,
					Status:    report.Skipped,
					StartedAt: time.Now(),
					Reason:    reason,
				})
				t.Skip(reason)
			})
		}
	})
}

func (s *Suite) runProject(t *testing.T, suiteName, name string, project browser.Project, scenario Scenario) {
	full := title(suiteName, name, project.Name)
	if !s.filter.Match(full) {
		t.Skip("filtered out")
	}
	if testing.Short() {
		t.Skip("skipping browser scenario in short mode")
	}

	res := report.Result{
		RunID:     s.Config.RunID,
		Project:   project.Name,
		Suite:     suiteName,
		Test:      name,
		StartedAt: time.Now(),
	}

	if s.startErr != nil {
		res.Error = s.startErr.Error()
		res.ErrorKind = errs.Kind(errs.CodeOf(s.startErr))
		if s.Config.CI {
			res.Status = report.Failed
			s.record(t, res)
			t.Fatalf("playwright unavailable: %v", s.startErr)
		}
		res.Status = report.Skipped
		res.Reason = "playwright unavailable"
		s.record(t, res)
		t.Skipf("playwright not available: %v", s.startErr)
	}

	ctx := context.Background()
	if !s.deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, s.deadline)
		defer cancel()
	}

	var (
		attempts  int
		failures  int
		skipped   bool
		reason    string
		collected []artifacts.Artifact
	)
	err := retry.Do(
		func() error {
			attempts++
			arts, err := s.attempt(ctx, project, suiteName, name, attempts, scenario)
			collected = append(collected, arts...)
			if r, ok := skipReason(err); ok {
				skipped, reason = true, r
				return nil
			}
			if err != nil {
				failures++
			}
			return err
		},
		retry.Attempts(uint(s.Config.Retries+1)),
		retry.Delay(retryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errs.CodeOf(err) != errs.InvalidArgument
		}),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn("scenario_retry",
				"test", full,
				"failed_attempt", n+1,
				"error_kind", errs.Kind(errs.CodeOf(err)),
				"error", err,
			)
		}),
	)

	res.Attempts = attempts
	res.Duration = time.Since(res.StartedAt)
	res.Artifacts = collected
	res.Status = outcome(err, failures, skipped)
	res.Reason = reason
	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = errs.Kind(errs.CodeOf(err))
	}
	s.record(t, res)

	switch res.Status {
	case report.Failed:
		t.Fatalf("%s failed after %d attempt(s): %v", full, attempts, err)
	case report.Skipped:
		t.Skip(reason)
	case report.Flaky:
		t.Logf("%s passed on attempt %d", full, attempts)
	}
}

// sessionHeaders returns the correlation headers browser contexts send. Only
// the local sites read them, so live targets get none.
func (s *Suite) sessionHeaders(corr obs.Correlation) map[string]string {
	if !s.Config.IsLocal() {
		return nil
	}
	return obs.CorrelationHeaders(corr)
}

// attempt runs scenario in a fresh session. The session is aborted when the
// test timeout or the run deadline passes, which unblocks any pending call on
// the page.
func (s *Suite) attempt(parent context.Context, project browser.Project, suiteName, name string, n int, scenario Scenario) (arts []artifacts.Artifact, err error) {
	corr := obs.Correlation{
		RunID:   s.Config.RunID,
		Project: project.Name,
		Test:    title(suiteName, name, ""),
		Attempt: n,
	}
	ctx := obs.WithCorrelation(parent, corr)
	log := obs.From(ctx).With("pkg", "suite")

	dir := filepath.Join(s.Config.OutputDir, DirName(suiteName+"-"+name+"-"+project.Name), fmt.Sprintf("attempt-%d", n))
	sess, err := s.manager.NewSession(ctx, project, browser.SessionOptions{
		BaseURL:      s.Config.ShopBaseURL,
		Dir:          dir,
		Attempt:      n,
		Policy:       s.policy,
		ExtraHeaders: s.sessionHeaders(corr),
	})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.Config.TestTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, func() {
		sess.Abort(fmt.Sprintf("deadline reached: %v", context.Cause(ctx)))
	})
	defer stop()

	failed := true
	defer func() {
		arts = sess.Close(failed)
	}()

	start := time.Now()
	log.Info("scenario_started")
	sc := &Scope{
		Ctx:     ctx,
		Config:  s.Config,
		Session: sess,
		Page:    sess.Page,
		Log:     log,
		Project: project.Name,
		Attempt: n,
		Dir:     dir,
	}
	sc.Actor = newActor(sc)

	err = invoke(sc, scenario)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = errs.Wrap(errs.Timeout, fmt.Sprintf("test timeout of %s exceeded", s.Config.TestTimeout), err)
	}
	_, skippedByScenario := skipReason(err)
	failed = err != nil && !skippedByScenario

	if failed {
		log.Error("scenario_failed",
			"dur_ms", time.Since(start).Milliseconds(),
			"error_kind", errs.Kind(errs.CodeOf(err)),
			"error", err,
		)
	} else {
		log.Info("scenario_finished", "dur_ms", time.Since(start).Milliseconds())
	}
	return nil, err
}

func invoke(sc *Scope, scenario Scenario) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.New(errs.Internal, fmt.Sprintf("scenario panicked: %v", r))
		}
	}()
	return scenario(sc)
}

func (s *Suite) record(t *testing.T, res report.Result) {
	if err := s.recorder.Record(res); err != nil {
		t.Logf("could not record result: %v", err)
	}
}

// outcome maps an attempt history onto a report status.
func outcome(err error, failures int, skipped bool) report.Status {
	switch {
	case skipped:
		return report.Skipped
	case err != nil:
		return report.Failed
	case failures > 0:
		return report.Flaky
	default:
		return report.Passed
	}
}

// title is what grep patterns are matched against: the test function, the
// scenario and the project separated by spaces.
func title(suiteName, name, project string) string {
	parts := []string{suiteName, name}
	if project != "" {
		parts = append(parts, project)
	}
	return strings.Join(parts, " ")
}

// DirName turns a test title into a single path segment.
func DirName(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxDirLength {
		out = strings.TrimRight(out[:maxDirLength], "-")
	}
	if out == "" {
		return "test"
	}
	return out
}
