package browser

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/artifacts"
	"github.com/oloid-qa/e2e/internal/errs"
)

// TraceFile is the trace archive name inside an attempt directory.
const TraceFile = "trace.zip"

// Session is one attempt's browser context and main page.
type Session struct {
	Project Project
	Context playwright.BrowserContext
	Page    playwright.Page
	Dir     string

	attempt int
	policy  ArtifactPolicy
	tracing bool
	options playwright.BrowserNewContextOptions
	browser playwright.Browser
	timeout func(playwright.BrowserContext)
	log     *slog.Logger

	mu        sync.Mutex
	extra     []playwright.BrowserContext
	artifacts []artifacts.Artifact
	closed    bool
}

// Attempt is the 1-based attempt number the session was created for.
func (s *Session) Attempt() int {
	return s.attempt
}

// NewIsolatedPage opens a page in a second context of the same browser. It
// shares nothing with the main page and is closed with the session.
func (s *Session) NewIsolatedPage() (playwright.Page, error) {
	opts := s.options
	opts.RecordVideo = nil
	bctx, err := s.browser.NewContext(opts)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "create isolated context", err)
	}
	if s.timeout != nil {
		s.timeout(bctx)
	}
	s.mu.Lock()
	s.extra = append(s.extra, bctx)
	s.mu.Unlock()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "create isolated page", err)
	}
	return page, nil
}

// AddArtifact records a file the scenario produced, such as a download.
func (s *Session) AddArtifact(a artifacts.Artifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts = append(s.artifacts, a)
}

// Abort closes the context without collecting artifacts so that calls blocked
// on the page return immediately. Close still runs afterwards.
func (s *Session) Abort(reason string) {
	s.log.Warn("aborting browser session", "reason", reason)
	if err := s.Context.Close(); err != nil {
		s.log.Warn("error closing context on abort", "error", err)
	}
}

// Close finishes the attempt: screenshot, trace, page and context teardown,
// then the video decision. Every step is attempted; failures are logged and
// never returned, so teardown cannot mask the scenario's own error.
func (s *Session) Close(failed bool) []artifacts.Artifact {
	s.mu.Lock()
	if s.closed {
		out := append([]artifacts.Artifact(nil), s.artifacts...)
		s.mu.Unlock()
		return out
	}
	s.closed = true
	extra := s.extra
	s.extra = nil
	s.mu.Unlock()

	pageOpen := s.Page != nil && !s.Page.IsClosed()

	if pageOpen && s.policy.TakeScreenshot(failed) {
		name := "screenshot.png"
		if failed {
			name = fmt.Sprintf("failure-screenshot-%d.png", time.Now().UnixMilli())
		}
		path := filepath.Join(s.Dir, name)
		if _, err := s.Page.Screenshot(playwright.PageScreenshotOptions{
			Path:     playwright.String(path),
			FullPage: playwright.Bool(true),
		}); err != nil {
			s.log.Warn("could not capture screenshot", "error", err)
		} else {
			s.collect(artifacts.Screenshot, path)
		}
	}

	if s.tracing {
		if s.policy.KeepTrace(s.attempt, failed) {
			path := filepath.Join(s.Dir, TraceFile)
			if err := s.Context.Tracing().Stop(path); err != nil {
				s.log.Warn("could not save trace", "error", err)
			} else {
				s.collect(artifacts.Trace, path)
			}
		} else if err := s.Context.Tracing().Stop(); err != nil {
			s.log.Debug("could not stop trace", "error", err)
		}
	}

	var video playwright.Video
	if s.Page != nil {
		video = s.Page.Video()
	}

	for _, c := range extra {
		if err := c.Close(); err != nil {
			s.log.Warn("error closing isolated context", "error", err)
		}
	}
	if pageOpen {
		if err := s.Page.Close(); err != nil {
			s.log.Warn("error closing page", "error", err)
		}
	}
	if err := s.Context.Close(); err != nil {
		s.log.Debug("error closing context (may be already closed)", "error", err)
	}

	if video != nil {
		if s.policy.KeepVideo(failed) {
			if path, err := video.Path(); err != nil {
				s.log.Warn("could not resolve video path", "error", err)
			} else {
				s.collect(artifacts.Video, path)
			}
		} else if err := video.Delete(); err != nil {
			s.log.Debug("could not delete video", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]artifacts.Artifact(nil), s.artifacts...)
}

func (s *Session) collect(kind artifacts.Kind, path string) {
	a, err := artifacts.FromFile(kind, path)
	if err != nil {
		s.log.Warn("artifact missing on disk", "kind", kind, "path", path, "error", err)
		return
	}
	s.AddArtifact(a)
}
