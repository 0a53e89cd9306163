package admin

import (
	"github.com/oloid-qa/e2e/internal/ui"
)

// Sidebar sections under Client Management.
const (
	SectionClient      = "Client"
	SectionApplication = "Application"
	SectionCoverage    = "Coverage"
)

// Portal is the signed-in shell: sidebar navigation and list page headers.
type Portal struct {
	a *ui.Actor
}

func NewPortal(a *ui.Actor) *Portal {
	return &Portal{a: a}
}

// Open expands Client Management and follows the section link.
func (p *Portal) Open(section string) error {
	page := p.a.Page()
	if err := p.a.Click(link(page, "Client Management"), "Client Management menu"); err != nil {
		return err
	}
	if err := p.a.Click(link(page, section), section+" menu link"); err != nil {
		return err
	}
	return p.a.ExpectVisible(testID(tidPageHeader), section+" page header")
}

// ExpectHeader asserts the list page header.
func (p *Portal) ExpectHeader(text string) error {
	return p.a.ExpectText(testID(tidPageHeader), text, "page header")
}

// AddNew clicks Add New on a list page and waits for the form titled title.
func (p *Portal) AddNew(title string) error {
	if err := p.a.Click(testID(tidAddNew), "Add New button"); err != nil {
		return err
	}
	return p.a.ExpectText(testID(tidModalTitle), title, "form title")
}

// CloseForm leaves a form through its close button.
func (p *Portal) CloseForm() error {
	return p.a.Click(testID(tidClose), "close button")
}

// Search submits query in the list search box.
func (p *Portal) Search(query string) error {
	page := p.a.Page()
	if err := p.a.Fill(textbox(page, "Search"), query, "Search box"); err != nil {
		return err
	}
	return p.a.Click(ui.Sel(selSearchSubmit), "search button")
}
