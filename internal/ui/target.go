// Package ui holds the wait-then-act helpers every page object is built on.
// An Actor waits for an element to become visible before touching it, logs
// what it is about to do and turns framework failures into coded errors.
package ui

import (
	"time"

	"github.com/playwright-community/playwright-go"
)

// Target is either a raw selector string or an already-built locator.
type Target struct {
	selector string
	locator  playwright.Locator
}

// Sel targets a selector such as "data-testid=username" or "#client-drpdwn svg".
func Sel(selector string) Target {
	return Target{selector: selector}
}

// Loc targets an existing locator.
func Loc(l playwright.Locator) Target {
	return Target{locator: l}
}

// Resolve returns the locator for page.
func (t Target) Resolve(page playwright.Page) playwright.Locator {
	if t.locator != nil {
		return t.locator
	}
	return page.Locator(t.selector)
}

// Label is what log lines show for the target: the selector when there is one,
// otherwise the caller's description.
func (t Target) Label(description string) string {
	if t.selector != "" {
		return t.selector
	}
	return description
}

// IsZero reports whether the target was never set.
func (t Target) IsZero() bool {
	return t.selector == "" && t.locator == nil
}

// Timeouts bounds each kind of wait an Actor performs.
type Timeouts struct {
	Visible    time.Duration
	Click      time.Duration
	Expect     time.Duration
	Navigation time.Duration
}

// DefaultTimeouts are the waits used against the live sites.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Visible:    30 * time.Second,
		Click:      10 * time.Second,
		Expect:     5 * time.Second,
		Navigation: 60 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	def := DefaultTimeouts()
	if t.Visible <= 0 {
		t.Visible = def.Visible
	}
	if t.Click <= 0 {
		t.Click = def.Click
	}
	if t.Expect <= 0 {
		t.Expect = def.Expect
	}
	if t.Navigation <= 0 {
		t.Navigation = def.Navigation
	}
	return t
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
