package admin

import (
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/ui"
)

const (
	PricePlanTitle   = "Client Price Plan"
	PricePlanCreated = "Client Price Created Successfully!"
)

// PricePlanForm is the Client Price Plan step. Its textboxes carry no
// labels the page exposes, so they are addressed by position: client name,
// price, effective date.
type PricePlanForm struct {
	a *ui.Actor
	d *Dialogs
}

func NewPricePlanForm(a *ui.Actor) *PricePlanForm {
	return &PricePlanForm{a: a, d: NewDialogs(a)}
}

func (f *PricePlanForm) textbox(n int) ui.Target {
	return ui.Loc(f.a.Page().GetByTestId(tidPriceForm).GetByRole(*playwright.AriaRoleTextbox).Nth(n))
}

// ExpectClient asserts the read-only client name.
func (f *PricePlanForm) ExpectClient(name string) error {
	return f.a.ExpectValue(f.textbox(0), name, "price plan client")
}

// Create picks plan, types price, picks effective from the calendar and
// continues to password generation. effective must fall in the current month.
func (f *PricePlanForm) Create(plan, price string, effective time.Time) error {
	if err := f.a.Choose(dropdown("Price Plan", dropPricePlan), plan); err != nil {
		return err
	}
	if err := f.a.Fill(f.textbox(1), price, "Price"); err != nil {
		return err
	}
	if err := f.a.PickDay(f.textbox(2), effective, "Effective Date"); err != nil {
		return err
	}
	if err := f.a.Click(testID(tidSubmit), "Save Price Plan button"); err != nil {
		return err
	}
	return f.d.Succeeded(PricePlanTitle, PricePlanCreated, PricePlanTitle)
}
