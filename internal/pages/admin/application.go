package admin

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/ui"
)

const (
	ApplicationFormTitle  = "Create Application"
	ApplicationEditTitle  = "Edit Application"
	ApplicationListHeader = "Client Application Information"
	ApplicationCreated    = "Application Created Successfully !"
	ApplicationUpdated    = "Application Updated Successfully !"
	applicationLabel      = "Application"
)

// ApplicationForm is the Create Application modal.
type ApplicationForm struct {
	a *ui.Actor
	d *Dialogs
}

func NewApplicationForm(a *ui.Actor) *ApplicationForm {
	return &ApplicationForm{a: a, d: NewDialogs(a)}
}

// Fill picks the client when app names one, then types the rest. The date
// picker is closed afterwards so it cannot cover the submit button.
func (f *ApplicationForm) Fill(app fixtures.Application) error {
	if app.ClientName != "" {
		if err := f.a.Choose(dropdown("Client", dropClient), app.ClientName); err != nil {
			return err
		}
	}
	if err := f.a.Fill(testID(tidUsername), app.Username, "Username"); err != nil {
		return err
	}
	if err := f.a.Fill(testID(tidName), app.Name, "Application Name"); err != nil {
		return err
	}
	return f.a.FillDate(ui.Sel(selEffectiveDate), app.EffectiveDate, "Effective Date")
}

// Submit saves the form.
func (f *ApplicationForm) Submit() error {
	return f.a.Click(testID(tidSubmit), "Save Application button")
}

// Create saves app and continues past the success modal.
func (f *ApplicationForm) Create(app fixtures.Application) error {
	if err := f.Fill(app); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	return f.d.Succeeded(applicationLabel, ApplicationCreated, applicationLabel)
}

// SubmitRejected saves app expecting a Problem popup with message and
// dismisses it with Exit. The form stays open.
func (f *ApplicationForm) SubmitRejected(app fixtures.Application, message string) error {
	if err := f.Fill(app); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	if err := f.d.ExpectProblem(message); err != nil {
		return err
	}
	return f.d.Dismiss("Exit")
}

// ApplicationList is the Client Application Information page.
type ApplicationList struct {
	a *ui.Actor
	p *Portal
}

func NewApplicationList(a *ui.Actor) *ApplicationList {
	return &ApplicationList{a: a, p: NewPortal(a)}
}

// FilterByClient narrows the list to one client through the page's only
// dropdown. The page reloads on pick.
func (l *ApplicationList) FilterByClient(client string) error {
	return l.a.Choose(nthDropdown("Client filter", 0), client)
}

// Search filters the list by query.
func (l *ApplicationList) Search(query string) error {
	return l.p.Search(query)
}

func (l *ApplicationList) row(name string) playwright.Locator {
	return l.a.Page().Locator("tbody tr").Filter(playwright.LocatorFilterOptions{HasText: name}).First()
}

// ExpectRow asserts the row of application name shows every value.
func (l *ApplicationList) ExpectRow(name string, values ...string) error {
	row := l.row(name)
	if err := l.a.ExpectVisible(ui.Loc(row), "application row "+name); err != nil {
		return err
	}
	for _, v := range values {
		if err := l.a.ExpectText(ui.Loc(row), v, "application row "+name); err != nil {
			return err
		}
	}
	return nil
}

// Edit opens the edit form of application name.
func (l *ApplicationList) Edit(name string) error {
	edit := l.row(name).Locator("[data-testid^='btn-edit-']")
	if err := l.a.Click(ui.Loc(edit), "Edit "+name); err != nil {
		return err
	}
	return l.a.ExpectText(testID(tidModalTitle), ApplicationEditTitle, "form title")
}

// ApplicationEdit is the Edit Application modal.
type ApplicationEdit struct {
	a *ui.Actor
	d *Dialogs
}

func NewApplicationEdit(a *ui.Actor) *ApplicationEdit {
	return &ApplicationEdit{a: a, d: NewDialogs(a)}
}

// SetEnabled flips the Enabled box, records comment and saves through the
// reconfirmation dialog the toggle raises.
func (e *ApplicationEdit) SetEnabled(enabled bool, comment string) error {
	enabledBox := checkbox(e.a.Page(), "Enabled")
	var err error
	if enabled {
		err = e.a.Check(enabledBox, "Enabled checkbox")
	} else {
		err = e.a.Uncheck(enabledBox, "Enabled checkbox")
	}
	if err != nil {
		return err
	}
	if err := e.a.Fill(testID(tidUpdateComment), comment, "update comment"); err != nil {
		return err
	}
	if err := e.a.Click(testID(tidSubmit), "Update button"); err != nil {
		return err
	}
	if err := e.d.Confirm(ToggleConfirmText); err != nil {
		return err
	}
	return e.d.Succeeded(applicationLabel, ApplicationUpdated, applicationLabel)
}
