package suite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/artifacts"
	"github.com/oloid-qa/e2e/internal/browser"
	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/ui"
)

// Scenario is a test body. It returns an error instead of failing the test
// so the runner can retry it.
type Scenario func(sc *Scope) error

// Scope is what one attempt of a scenario works with.
type Scope struct {
	Ctx     context.Context
	Config  *config.Config
	Session *browser.Session
	Page    playwright.Page
	Actor   *ui.Actor
	Log     *slog.Logger
	Project string
	Attempt int
	Dir     string // attempt output directory
}

// Timeouts maps the configured waits onto the ui helpers.
func Timeouts(cfg *config.Config) ui.Timeouts {
	return ui.Timeouts{
		Visible:    cfg.VisibleTimeout,
		Click:      cfg.ClickTimeout,
		Expect:     cfg.ExpectTimeout,
		Navigation: cfg.NavigationTimeout,
	}
}

func newActor(sc *Scope) *ui.Actor {
	return ui.NewActor(sc.Page, Timeouts(sc.Config), sc.Log)
}

// ShopURL is the shop base URL.
func (sc *Scope) ShopURL() string {
	return sc.Config.ShopBaseURL
}

// AdminURL joins path onto the admin portal base URL.
func (sc *Scope) AdminURL(path string) string {
	return sc.Config.AdminURL(path)
}

// NewIsolatedActor opens a page in a separate browser context, for
// scenarios that need two independent users.
func (sc *Scope) NewIsolatedActor() (*ui.Actor, error) {
	page, err := sc.Session.NewIsolatedPage()
	if err != nil {
		return nil, err
	}
	return ui.NewActor(page, Timeouts(sc.Config), sc.Log.With("page", "isolated")), nil
}

// AddDownload attaches a file the scenario downloaded to the result.
func (sc *Scope) AddDownload(path string) {
	a, err := artifacts.FromFile(artifacts.Download, path)
	if err != nil {
		sc.Log.Warn("download missing on disk", "path", path, "error", err)
		return
	}
	sc.Session.AddArtifact(a)
}

// Fail builds an assertion error for checks the page objects do not cover.
func (sc *Scope) Fail(format string, args ...any) error {
	return errs.New(errs.Assertion, fmt.Sprintf(format, args...))
}

// Skip ends the scenario as skipped. Return its result from the scenario.
func (sc *Scope) Skip(reason string) error {
	return &skipError{reason: reason}
}

type skipError struct {
	reason string
}

func (e *skipError) Error() string {
	return "skipped: " + e.reason
}

func skipReason(err error) (string, bool) {
	var s *skipError
	if errors.As(err, &s) {
		return s.reason, true
	}
	return "", false
}
