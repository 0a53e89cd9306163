package ui

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/logutil"
)

const pagePreviewChars = 500

// Actor performs waited interactions on one page.
type Actor struct {
	page     playwright.Page
	timeouts Timeouts
	log      *slog.Logger
	expect   playwright.PlaywrightAssertions
}

// NewActor binds an Actor to page. Zero timeouts fall back to DefaultTimeouts.
func NewActor(page playwright.Page, timeouts Timeouts, log *slog.Logger) *Actor {
	if log == nil {
		log = slog.Default()
	}
	timeouts = timeouts.withDefaults()
	return &Actor{
		page:     page,
		timeouts: timeouts,
		log:      log.With("pkg", "ui"),
		expect:   playwright.NewPlaywrightAssertions(float64(timeouts.Expect.Milliseconds())),
	}
}

// Page returns the underlying page.
func (a *Actor) Page() playwright.Page {
	return a.page
}

// Timeouts returns the effective waits.
func (a *Actor) Timeouts() Timeouts {
	return a.timeouts
}

// Within returns a copy of a whose expectations wait up to d.
func (a *Actor) Within(d time.Duration) *Actor {
	cp := *a
	cp.timeouts.Expect = d
	return &cp
}

// Click waits for target to be visible and clicks it.
func (a *Actor) Click(target Target, description string) error {
	a.log.Info(fmt.Sprintf("Waiting for and clicking: %s (%s)", description, target.Label(description)))

	loc := target.Resolve(a.page)
	err := a.waitVisible(loc)
	if err == nil {
		err = loc.Click(playwright.LocatorClickOptions{Timeout: ms(a.timeouts.Click)})
	}
	if err != nil {
		a.failure("click", target, description, err)
		return errs.FromPlaywright(errs.Interaction, fmt.Sprintf("failed to interact with %s after waiting", description), err)
	}
	return nil
}

// Fill waits for target to be visible and replaces its value. Values of
// sensitive fields are redacted in the log line.
func (a *Actor) Fill(target Target, value, description string) error {
	a.log.Info(fmt.Sprintf("Waiting for and filling: %s (%s) with value: %s",
		description, target.Label(description), logutil.RedactValue(description, value)))

	loc := target.Resolve(a.page)
	err := a.waitVisible(loc)
	if err == nil {
		err = loc.Fill(value, playwright.LocatorFillOptions{Timeout: ms(a.timeouts.Click)})
	}
	if err != nil {
		a.failure("fill", target, description, err)
		return errs.FromPlaywright(errs.Interaction, fmt.Sprintf("failed to fill %s after waiting", description), err)
	}
	return nil
}

// Check ticks a checkbox or radio button.
func (a *Actor) Check(target Target, description string) error {
	return a.setChecked(target, description, true)
}

// Uncheck clears a checkbox.
func (a *Actor) Uncheck(target Target, description string) error {
	return a.setChecked(target, description, false)
}

func (a *Actor) setChecked(target Target, description string, checked bool) error {
	a.log.Info(fmt.Sprintf("Waiting for and setting %s (%s) checked=%t", description, target.Label(description), checked))

	loc := target.Resolve(a.page)
	err := a.waitVisible(loc)
	if err == nil {
		if checked {
			err = loc.Check(playwright.LocatorCheckOptions{Timeout: ms(a.timeouts.Click)})
		} else {
			err = loc.Uncheck(playwright.LocatorUncheckOptions{Timeout: ms(a.timeouts.Click)})
		}
	}
	if err != nil {
		a.failure("check", target, description, err)
		return errs.FromPlaywright(errs.Interaction, fmt.Sprintf("failed to interact with %s after waiting", description), err)
	}
	return nil
}

// SelectNative picks the option labelled label in a native <select>.
func (a *Actor) SelectNative(target Target, label, description string) error {
	a.log.Info(fmt.Sprintf("Waiting for and selecting: %s (%s) option: %s", description, target.Label(description), label))

	loc := target.Resolve(a.page)
	err := a.waitVisible(loc)
	if err == nil {
		_, err = loc.SelectOption(playwright.SelectOptionValues{Labels: &[]string{label}},
			playwright.LocatorSelectOptionOptions{Timeout: ms(a.timeouts.Click)})
	}
	if err != nil {
		a.failure("select", target, description, err)
		return errs.FromPlaywright(errs.Interaction, fmt.Sprintf("failed to select %q in %s after waiting", label, description), err)
	}
	return nil
}

// Press sends key to target, for example "Enter" in a search box.
func (a *Actor) Press(target Target, key, description string) error {
	loc := target.Resolve(a.page)
	err := a.waitVisible(loc)
	if err == nil {
		err = loc.Press(key, playwright.LocatorPressOptions{Timeout: ms(a.timeouts.Click)})
	}
	if err != nil {
		a.failure("press", target, description, err)
		return errs.FromPlaywright(errs.Interaction, fmt.Sprintf("failed to press %s in %s", key, description), err)
	}
	return nil
}

// PressKey sends key to whatever has focus. Used to dismiss date pickers.
func (a *Actor) PressKey(key string) error {
	if err := a.page.Keyboard().Press(key); err != nil {
		return errs.FromPlaywright(errs.Interaction, "failed to press "+key, err)
	}
	return nil
}

// Goto navigates to url and waits for waitUntil (DOMContentLoaded when nil).
func (a *Actor) Goto(url string, waitUntil *playwright.WaitUntilState) error {
	if waitUntil == nil {
		waitUntil = playwright.WaitUntilStateDomcontentloaded
	}
	a.log.Info("navigate", "url", url, "wait_until", *waitUntil)
	_, err := a.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: waitUntil,
		Timeout:   ms(a.timeouts.Navigation),
	})
	if err != nil {
		a.log.Error("navigation failed", "url", url, "error", err)
		return errs.FromPlaywright(errs.Navigation, "failed to navigate to "+url, err)
	}
	return nil
}

// ExpectText asserts that target contains text.
func (a *Actor) ExpectText(target Target, text, description string) error {
	err := a.expect.Locator(target.Resolve(a.page)).ToContainText(text,
		playwright.LocatorAssertionsToContainTextOptions{Timeout: ms(a.timeouts.Expect)})
	if err != nil {
		a.failure("expect text", target, description, err)
		return errs.Wrap(errs.Assertion, fmt.Sprintf("expected %s to contain %q", description, text), err)
	}
	return nil
}

// ExpectVisible asserts that target becomes visible.
func (a *Actor) ExpectVisible(target Target, description string) error {
	err := a.expect.Locator(target.Resolve(a.page)).ToBeVisible(
		playwright.LocatorAssertionsToBeVisibleOptions{Timeout: ms(a.timeouts.Expect)})
	if err != nil {
		a.failure("expect visible", target, description, err)
		return errs.Wrap(errs.Assertion, fmt.Sprintf("expected %s to be visible", description), err)
	}
	return nil
}

// ExpectValue asserts that the input target holds value.
func (a *Actor) ExpectValue(target Target, value, description string) error {
	err := a.expect.Locator(target.Resolve(a.page)).ToHaveValue(value,
		playwright.LocatorAssertionsToHaveValueOptions{Timeout: ms(a.timeouts.Expect)})
	if err != nil {
		a.failure("expect value", target, description, err)
		return errs.Wrap(errs.Assertion, fmt.Sprintf("expected %s to hold %q", description, value), err)
	}
	return nil
}

// ExpectURL asserts that the page URL matches pattern.
func (a *Actor) ExpectURL(pattern *regexp.Regexp) error {
	err := a.expect.Page(a.page).ToHaveURL(pattern,
		playwright.PageAssertionsToHaveURLOptions{Timeout: ms(a.timeouts.Expect)})
	if err != nil {
		a.log.Error("url expectation failed", "want", pattern.String(), "url", a.page.URL())
		return errs.Wrap(errs.Assertion, fmt.Sprintf("expected url to match %s, got %s", pattern, a.page.URL()), err)
	}
	return nil
}

// Visible reports whether target is visible right now, without waiting.
func (a *Actor) Visible(target Target) bool {
	ok, err := target.Resolve(a.page).First().IsVisible()
	return err == nil && ok
}

func (a *Actor) waitVisible(loc playwright.Locator) error {
	return loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(a.timeouts.Visible),
	})
}

// failure logs the action error together with the page state it happened in.
func (a *Actor) failure(action string, target Target, description string, err error) {
	attrs := []any{
		"action", action,
		"target", description,
		"selector", target.Label(description),
		"error", err,
	}
	if a.page != nil && !a.page.IsClosed() {
		title, _ := a.page.Title()
		content, _ := a.page.Content()
		attrs = append(attrs,
			"url", a.page.URL(),
			"title", title,
			"content_preview", logutil.TruncateForLog(content, pagePreviewChars),
		)
	}
	a.log.Error("ui_action_failed", attrs...)
}
