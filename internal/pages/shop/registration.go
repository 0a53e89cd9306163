package shop

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/ui"
)

type field struct {
	target ui.Target
	value  string
	desc   string
}

// RegistrationPage is the Enter Account Information form that follows a
// successful sign-up.
type RegistrationPage struct {
	a *ui.Actor
}

func NewRegistrationPage(a *ui.Actor) *RegistrationPage {
	return &RegistrationPage{a: a}
}

func (p *RegistrationPage) label(name string) ui.Target {
	return ui.Loc(p.a.Page().GetByLabel(name, playwright.PageGetByLabelOptions{Exact: playwright.Bool(true)}))
}

func (p *RegistrationPage) fill(fields ...field) error {
	for _, f := range fields {
		if err := p.a.Fill(f.target, f.value, f.desc); err != nil {
			return err
		}
	}
	return nil
}

// FillRegistrationDetails types rec into the form and creates the account.
// The city field's accessible name includes the zipcode label the site
// attaches to it as well.
func (p *RegistrationPage) FillRegistrationDetails(rec fixtures.Registration) error {
	page := p.a.Page()
	if err := p.a.ExpectVisible(ui.Sel("#days"), "account information form"); err != nil {
		return err
	}
	if err := p.a.Check(role(page, playwright.AriaRoleRadio, "Mr.", true), "Mr. title"); err != nil {
		return err
	}
	if err := p.fill(field{p.label("Password *"), rec.Password, "Password"}); err != nil {
		return err
	}
	for _, s := range []field{
		{ui.Sel("#days"), rec.Day, "birth day"},
		{ui.Sel("#months"), rec.Month, "birth month"},
		{ui.Sel("#years"), rec.Year, "birth year"},
	} {
		if err := p.a.SelectNative(s.target, s.value, s.desc); err != nil {
			return err
		}
	}
	if err := p.a.Check(role(page, playwright.AriaRoleCheckbox, "Sign up for our newsletter!", false), "newsletter"); err != nil {
		return err
	}
	err := p.fill(
		field{role(page, playwright.AriaRoleTextbox, "First name *", false), rec.FirstName, "First name"},
		field{role(page, playwright.AriaRoleTextbox, "Last name *", false), rec.LastName, "Last name"},
		field{role(page, playwright.AriaRoleTextbox, "Company", true), rec.Company, "Company"},
		field{role(page, playwright.AriaRoleTextbox, "Address * (Street address, P.", false), rec.Address, "Address"},
	)
	if err != nil {
		return err
	}
	if err := p.a.SelectNative(p.label("Country *"), rec.Country, "Country"); err != nil {
		return err
	}
	err = p.fill(
		field{role(page, playwright.AriaRoleTextbox, "State *", false), rec.State, "State"},
		field{role(page, playwright.AriaRoleTextbox, "City * Zipcode *", false), rec.City, "City"},
		field{ui.Sel("#zipcode"), rec.Zipcode, "Zipcode"},
		field{role(page, playwright.AriaRoleTextbox, "Mobile Number *", false), rec.Mobile, "Mobile Number"},
	)
	if err != nil {
		return err
	}
	return p.a.Click(role(page, playwright.AriaRoleButton, "Create Account", false), "Create Account button")
}
