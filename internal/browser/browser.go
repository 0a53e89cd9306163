// Package browser owns the Playwright lifecycle of a suite run: the driver,
// one lazily launched browser per engine and an isolated context per test
// attempt.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/obs"
)

// Project is one browser configuration scenarios run against.
type Project = config.ProjectSpec

// Engines are the browser names Playwright can launch.
var Engines = []string{"chromium", "firefox", "webkit"}

// Install downloads the browsers the projects need.
func Install(projects []Project) error {
	seen := make(map[string]bool)
	var browsers []string
	for _, p := range projects {
		if !seen[p.Browser] {
			seen[p.Browser] = true
			browsers = append(browsers, p.Browser)
		}
	}
	if len(browsers) == 0 {
		browsers = Engines
	}
	obs.Pkg("browser").Info("installing browsers", "browsers", browsers)
	if err := playwright.Install(&playwright.RunOptions{Browsers: browsers}); err != nil {
		return errs.Wrap(errs.Unavailable, "install playwright browsers", err)
	}
	return nil
}

// Options configure every browser and page a Manager creates.
type Options struct {
	Headless          bool
	SlowMo            time.Duration
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
}

// OptionsFromConfig maps suite settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Headless:          cfg.Headless,
		SlowMo:            cfg.SlowMo,
		ActionTimeout:     cfg.ActionTimeout,
		NavigationTimeout: cfg.NavigationTimeout,
	}
}

// Manager starts the driver once and hands out sessions. It is safe for
// concurrent use by parallel tests.
type Manager struct {
	opts Options
	log  *slog.Logger

	mu       sync.Mutex
	pw       *playwright.Playwright
	browsers map[string]playwright.Browser
}

// NewManager returns a Manager that has not started the driver yet.
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		log:      obs.Pkg("browser"),
		browsers: make(map[string]playwright.Browser),
	}
}

// Start launches the Playwright driver. Calling it again is a no-op.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked()
}

func (m *Manager) startLocked() error {
	if m.pw != nil {
		return nil
	}
	pw, err := playwright.Run()
	if err != nil {
		return errs.Wrap(errs.Unavailable, "start playwright driver", err)
	}
	m.pw = pw
	m.log.Info("playwright driver started")
	return nil
}

// Browser returns the browser for project, launching it on first use.
func (m *Manager) Browser(project Project) (playwright.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if b, ok := m.browsers[project.Browser]; ok && b.IsConnected() {
		return b, nil
	}
	if err := m.startLocked(); err != nil {
		return nil, err
	}

	var bt playwright.BrowserType
	switch project.Browser {
	case "chromium":
		bt = m.pw.Chromium
	case "firefox":
		bt = m.pw.Firefox
	case "webkit":
		bt = m.pw.WebKit
	default:
		return nil, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown browser %q for project %s", project.Browser, project.Name))
	}

	start := time.Now()
	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(m.opts.Headless),
		SlowMo:   playwright.Float(float64(m.opts.SlowMo.Milliseconds())),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "launch "+project.Browser, err)
	}
	m.browsers[project.Browser] = b
	m.log.Info("browser launched",
		"browser", project.Browser,
		"version", b.Version(),
		"headless", m.opts.Headless,
		"dur_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// SessionOptions describe one test attempt's context.
type SessionOptions struct {
	BaseURL      string
	Dir          string // attempt output directory for screenshots, video and trace
	Attempt      int
	Policy       ArtifactPolicy
	ExtraHeaders map[string]string
}

// NewSession creates an isolated context and page for one attempt.
func (m *Manager) NewSession(ctx context.Context, project Project, so SessionOptions) (*Session, error) {
	b, err := m.Browser(project)
	if err != nil {
		return nil, err
	}
	if so.Dir != "" {
		if err := os.MkdirAll(so.Dir, 0o755); err != nil {
			return nil, errs.Wrap(errs.Internal, "create attempt output dir", err)
		}
	}

	m.mu.Lock()
	devices := m.pw.Devices
	m.mu.Unlock()

	options, err := contextOptions(devices, project, so)
	if err != nil {
		return nil, err
	}
	bctx, err := b.NewContext(options)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "create browser context", err)
	}
	m.applyTimeouts(bctx)

	s := &Session{
		Project: project,
		Context: bctx,
		Dir:     so.Dir,
		attempt: so.Attempt,
		policy:  so.Policy,
		options: options,
		browser: b,
		timeout: m.applyTimeouts,
		log:     obs.From(ctx).With("pkg", "browser"),
	}

	if so.Policy.StartTrace(so.Attempt) {
		err := bctx.Tracing().Start(playwright.TracingStartOptions{
			Screenshots: playwright.Bool(true),
			Snapshots:   playwright.Bool(true),
			Sources:     playwright.Bool(true),
		})
		if err != nil {
			s.log.Warn("could not start tracing", "error", err)
		} else {
			s.tracing = true
		}
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, errs.Wrap(errs.Unavailable, "create page", err)
	}
	page.SetDefaultTimeout(float64(m.opts.ActionTimeout.Milliseconds()))
	page.SetDefaultNavigationTimeout(float64(m.opts.NavigationTimeout.Milliseconds()))
	s.Page = page
	return s, nil
}

func (m *Manager) applyTimeouts(bctx playwright.BrowserContext) {
	if m.opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(float64(m.opts.ActionTimeout.Milliseconds()))
	}
	if m.opts.NavigationTimeout > 0 {
		bctx.SetDefaultNavigationTimeout(float64(m.opts.NavigationTimeout.Milliseconds()))
	}
}

// contextOptions builds the context settings for project: device emulation,
// base URL, downloads and optional video.
func contextOptions(devices map[string]*playwright.DeviceDescriptor, project Project, so SessionOptions) (playwright.BrowserNewContextOptions, error) {
	opts := playwright.BrowserNewContextOptions{
		AcceptDownloads: playwright.Bool(true),
	}
	if project.Device != "" {
		d, ok := devices[project.Device]
		if !ok || d == nil {
			return opts, errs.New(errs.InvalidArgument, fmt.Sprintf("unknown device %q for project %s", project.Device, project.Name))
		}
		opts.UserAgent = playwright.String(d.UserAgent)
		opts.Viewport = d.Viewport
		opts.DeviceScaleFactor = playwright.Float(d.DeviceScaleFactor)
		opts.IsMobile = playwright.Bool(d.IsMobile)
		opts.HasTouch = playwright.Bool(d.HasTouch)
	}
	if so.BaseURL != "" {
		opts.BaseURL = playwright.String(so.BaseURL)
	}
	if len(so.ExtraHeaders) > 0 {
		opts.ExtraHttpHeaders = so.ExtraHeaders
	}
	if so.Policy.RecordVideo() && so.Dir != "" {
		opts.RecordVideo = &playwright.RecordVideo{Dir: so.Dir}
	}
	return opts, nil
}

// Close closes every browser and then the driver. Failures are logged and
// joined; closing continues past them.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errList []error
	for name, b := range m.browsers {
		if err := b.Close(); err != nil {
			m.log.Warn("error closing browser", "browser", name, "error", err)
			errList = append(errList, fmt.Errorf("close %s: %w", name, err))
		}
		delete(m.browsers, name)
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil {
			m.log.Warn("error stopping playwright driver", "error", err)
			errList = append(errList, fmt.Errorf("stop driver: %w", err))
		}
		m.pw = nil
	}
	return errors.Join(errList...)
}
