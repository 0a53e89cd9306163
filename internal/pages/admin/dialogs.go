package admin

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/ui"
)

// Dialogs covers the success modal every create step ends in and the
// Problem popup rejected requests raise.
type Dialogs struct {
	a *ui.Actor
}

func NewDialogs(a *ui.Actor) *Dialogs {
	return &Dialogs{a: a}
}

// ExpectSuccess asserts the success modal labelled label shows message.
func (d *Dialogs) ExpectSuccess(label, message string) error {
	modal := d.a.Page().GetByLabel(label, playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)})
	return d.a.ExpectText(ui.Loc(modal), message, label+" success modal")
}

// ExpectModalText asserts the open success modal shows message, whatever its label.
func (d *Dialogs) ExpectModalText(message string) error {
	return d.a.ExpectText(ui.Sel(selSuccessModal), message, "success modal")
}

// Continue follows the success modal to the next step.
func (d *Dialogs) Continue(entity string) error {
	return d.a.Click(button(d.a.Page(), "Continue on "+entity), "Continue on "+entity)
}

// Succeeded is ExpectSuccess followed by Continue.
func (d *Dialogs) Succeeded(label, message, entity string) error {
	if err := d.ExpectSuccess(label, message); err != nil {
		return err
	}
	return d.Continue(entity)
}

// problemTitle is the popup heading. The popup has no stable container, so
// it is recognised by this text alone.
func (d *Dialogs) problemTitle() playwright.Locator {
	return d.a.Page().GetByText(ProblemTitle, playwright.PageGetByTextOptions{Exact: playwright.Bool(true)})
}

// ExpectProblem asserts the Problem popup is up and message is on the page.
func (d *Dialogs) ExpectProblem(message string) error {
	if err := d.a.ExpectVisible(ui.Loc(d.problemTitle()), "Problem title"); err != nil {
		return err
	}
	return d.ExpectPageText(message)
}

// ExpectPageText asserts message appears anywhere in the page body.
func (d *Dialogs) ExpectPageText(message string) error {
	return d.a.ExpectText(ui.Sel(selBody), message, "page text")
}

// Dismiss closes the Problem popup with its button and waits for it to go.
func (d *Dialogs) Dismiss(label string) error {
	if err := d.a.Click(button(d.a.Page(), label), label+" on Problem popup"); err != nil {
		return err
	}
	err := d.problemTitle().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateHidden,
		Timeout: playwright.Float(float64(d.a.Timeouts().Expect.Milliseconds())),
	})
	if err != nil {
		return errs.FromPlaywright(errs.Assertion, "Problem popup still open after "+label, err)
	}
	return nil
}

// Confirm accepts an inline confirmation dialog whose body contains text.
func (d *Dialogs) Confirm(text string) error {
	dialog := d.a.Page().GetByRole(*playwright.AriaRoleDialog).Filter(playwright.LocatorFilterOptions{HasText: text})
	if err := d.a.ExpectVisible(ui.Loc(dialog), "confirmation dialog"); err != nil {
		return err
	}
	return d.a.Click(ui.Loc(dialog.GetByRole(*playwright.AriaRoleButton, playwright.LocatorGetByRoleOptions{
		Name:  "OK",
		Exact: playwright.Bool(true),
	})), "OK on confirmation")
}
