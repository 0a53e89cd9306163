package admin

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/ui"
)

const (
	ClientFormTitle   = "Create Client"
	ClientListHeader  = "Client Information"
	ClientCreated     = "Client Created Successfully!"
	clientModalLabel  = "Client"
	clientDismissName = "OK"
)

// ClientForm is the Create Client modal.
type ClientForm struct {
	a *ui.Actor
	d *Dialogs
}

func NewClientForm(a *ui.Actor) *ClientForm {
	return &ClientForm{a: a, d: NewDialogs(a)}
}

// Fill types every field of c. Currency is picked from the menu, country is
// typed and accepted with Enter. Neither dropdown carries an id; currency is
// the first on the form and country the second.
func (f *ClientForm) Fill(c fixtures.Client) error {
	if err := f.a.Fill(testID(tidName), c.Name, "Client Name"); err != nil {
		return err
	}
	if err := f.a.Fill(testID("address"), c.Address, "Address"); err != nil {
		return err
	}
	if err := f.a.Fill(testID("post_code"), c.PostCode, "Post Code"); err != nil {
		return err
	}
	if err := f.a.Choose(nthDropdown("Currency", 0), c.Currency); err != nil {
		return err
	}
	if err := f.a.Search(nthDropdown("Country", 1), c.Country); err != nil {
		return err
	}
	if err := f.a.Fill(testID("registration_number"), c.RegistrationNumber, "Registration Number"); err != nil {
		return err
	}

	contacts := []struct {
		prefix string
		c      fixtures.Contact
	}{
		{"billing", c.Billing},
		{"support", c.Support},
		{"technical", c.Technical},
	}
	for _, ct := range contacts {
		if err := f.a.Fill(testID(ct.prefix+"_contact_name"), ct.c.Name, ct.prefix+" contact name"); err != nil {
			return err
		}
		if err := f.a.Fill(testID(ct.prefix+"_email_address"), ct.c.Email, ct.prefix+" email address"); err != nil {
			return err
		}
		if err := f.a.Fill(testID(ct.prefix+"_phone_number"), ct.c.Phone, ct.prefix+" phone number"); err != nil {
			return err
		}
	}
	return f.a.Fill(testID("account_manager"), c.AccountManager, "Account Manager")
}

// Submit saves the form.
func (f *ClientForm) Submit() error {
	return f.a.Click(testID(tidSubmit), "Save Client button")
}

// Create fills and saves c, then continues past the success modal.
func (f *ClientForm) Create(c fixtures.Client) error {
	if err := f.Fill(c); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	if err := f.d.ExpectModalText(ClientCreated); err != nil {
		return err
	}
	return f.d.Continue(clientModalLabel)
}

// SubmitDuplicate saves c expecting the duplicate Problem popup, then
// dismisses it.
func (f *ClientForm) SubmitDuplicate(c fixtures.Client) error {
	if err := f.Fill(c); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	if err := f.d.ExpectProblem(MsgDuplicate); err != nil {
		return err
	}
	return f.d.Dismiss(clientDismissName)
}

// ClientList is the Client Information page.
type ClientList struct {
	a *ui.Actor
	p *Portal
}

func NewClientList(a *ui.Actor) *ClientList {
	return &ClientList{a: a, p: NewPortal(a)}
}

// Search filters the list by query.
func (l *ClientList) Search(query string) error {
	return l.p.Search(query)
}

// ExpectRow asserts that the row holding name also shows every value.
func (l *ClientList) ExpectRow(name string, values ...string) error {
	row := l.a.Page().Locator("tbody tr").Filter(playwright.LocatorFilterOptions{HasText: name}).First()
	if err := l.a.ExpectVisible(ui.Loc(row), "client row "+name); err != nil {
		return err
	}
	for _, v := range values {
		if err := l.a.ExpectText(ui.Loc(row), v, "client row "+name); err != nil {
			return err
		}
	}
	return nil
}
