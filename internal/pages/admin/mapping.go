package admin

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/ui"
)

const (
	MappingCreated = "Coverage Supplier Mapping Created Successfully!"
	mappingLabel   = "Coverage Supplier mapping"
	mappingEntity  = "Coverage Supplier Mapping"
)

// SupplierMapping is the supplier/proportion table shown after a coverage is
// created.
type SupplierMapping struct {
	a *ui.Actor
	d *Dialogs
}

func NewSupplierMapping(a *ui.Actor) *SupplierMapping {
	return &SupplierMapping{a: a, d: NewDialogs(a)}
}

// pick opens the dropdown in the table cell named cell through its arrow
// and clicks option.
func (m *SupplierMapping) pick(cell, option string) error {
	arrow := m.a.Page().GetByRole(*playwright.AriaRoleCell, playwright.PageGetByRoleOptions{
		Name: cell,
	}).Locator("svg")
	if err := m.a.Click(ui.Loc(arrow), cell+" arrow"); err != nil {
		return err
	}
	return m.a.Click(ui.Loc(m.a.Option(option)), option+" option")
}

// Save maps supplier at proportion percent and continues to the price plan.
func (m *SupplierMapping) Save(supplier, proportion string) error {
	if err := m.pick("Select Supplier", supplier); err != nil {
		return err
	}
	if err := m.pick("Select or Enter Proportion", proportion); err != nil {
		return err
	}
	if err := m.a.Click(button(m.a.Page(), "Save Mapping"), "Save Mapping button"); err != nil {
		return err
	}
	return m.d.Succeeded(mappingLabel, MappingCreated, mappingEntity)
}
