// Package browsertest provides the shared Playwright environment used by
// package tests that need a real browser. Tests call Setup(t); the package's
// TestMain calls Cleanup after m.Run.
package browsertest

import (
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	// Package tests drive local pages only, so no wait needs more than this.
	MaxTimeoutMS = 5000
	MaxTimeout   = 5 * time.Second
)

var (
	fixtureMu sync.Mutex
	shared    *Env
)

// Env owns one driver and one Chromium instance shared by every test in the
// process.
type Env struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// Setup returns the shared environment, launching Chromium on first use.
// The test is skipped in -short mode or when Playwright is not installed.
func Setup(t *testing.T) *Env {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests are skipped in -short mode")
	}

	fixtureMu.Lock()
	defer fixtureMu.Unlock()

	if shared != nil {
		return shared
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Skip("Playwright not available:", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		t.Skip("Could not launch browser:", err)
	}
	shared = &Env{pw: pw, browser: browser}
	return shared
}

// Cleanup closes the shared browser and driver.
func Cleanup() {
	fixtureMu.Lock()
	defer fixtureMu.Unlock()
	if shared == nil {
		return
	}
	if shared.browser != nil {
		_ = shared.browser.Close()
	}
	if shared.pw != nil {
		_ = shared.pw.Stop()
	}
	shared = nil
}

// Playwright returns the running driver.
func (env *Env) Playwright() *playwright.Playwright {
	return env.pw
}

// Browser returns the shared Chromium instance.
func (env *Env) Browser() playwright.Browser {
	return env.browser
}

// NewContext creates an isolated context that is closed when the test ends.
func (env *Env) NewContext(t *testing.T, options ...playwright.BrowserNewContextOptions) playwright.BrowserContext {
	t.Helper()

	ctx, err := env.browser.NewContext(options...)
	if err != nil {
		t.Fatalf("could not create browser context: %v", err)
	}
	ctx.SetDefaultTimeout(MaxTimeoutMS)
	ctx.SetDefaultNavigationTimeout(MaxTimeoutMS)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx
}

// NewPage creates a page in a fresh context with the default 5s timeouts.
func (env *Env) NewPage(t *testing.T) playwright.Page {
	t.Helper()

	page, err := env.NewContext(t).NewPage()
	if err != nil {
		t.Fatalf("could not create page: %v", err)
	}
	page.SetDefaultTimeout(MaxTimeoutMS)
	page.SetDefaultNavigationTimeout(MaxTimeoutMS)
	return page
}

// SetContent replaces the page document with html.
func SetContent(t *testing.T, page playwright.Page, html string) {
	t.Helper()
	if err := page.SetContent(html); err != nil {
		t.Fatalf("could not set page content: %v", err)
	}
}

// Navigate navigates to a path on baseURL and waits for DOMContentLoaded.
func Navigate(t *testing.T, page playwright.Page, baseURL, path string) {
	t.Helper()

	_, err := page.Goto(baseURL+path, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(MaxTimeoutMS),
	})
	if err != nil {
		t.Fatalf("Failed to navigate to %s: %v", path, err)
	}
}

// WaitForSelector waits for an element to be visible and returns its locator.
func WaitForSelector(t *testing.T, page playwright.Page, selector string) playwright.Locator {
	t.Helper()

	first := page.Locator(selector).First()
	err := first.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(MaxTimeoutMS),
	})
	if err != nil {
		title, _ := page.Title()
		content, _ := page.Content()
		if len(content) > 500 {
			content = content[:500] + "..."
		}
		t.Logf("Current URL: %s", page.URL())
		t.Logf("Current title: %s", title)
		t.Logf("Content preview: %s", content)
		t.Fatalf("Failed to wait for selector %s: %v", selector, err)
	}
	return first
}
