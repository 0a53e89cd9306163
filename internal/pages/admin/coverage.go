package admin

import (
	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/ui"
)

const (
	CoverageFormTitle = "Create Coverage"
	CoverageCreated   = "Coverage Created Successfully !"
	coverageLabel     = "Coverage"
	cacheConfirmText  = "cache DB lookup"
)

// CoverageTarget names the client and application a coverage is created
// under. Zero values leave the preselected ones in place.
type CoverageTarget struct {
	Client      string
	Application string
}

// CoverageForm is the Create Coverage modal.
type CoverageForm struct {
	a *ui.Actor
	d *Dialogs
}

func NewCoverageForm(a *ui.Actor) *CoverageForm {
	return &CoverageForm{a: a, d: NewDialogs(a)}
}

// Fill selects the owner and market, types the reference and date and, when
// asked, enables the cache lookup through its confirmation.
func (f *CoverageForm) Fill(owner CoverageTarget, c fixtures.Coverage) error {
	if err := f.a.ExpectVisible(ui.Sel("#"+dropApplication), "Application dropdown"); err != nil {
		return err
	}
	if owner.Client != "" {
		if err := f.a.Choose(dropdown("Client", dropClient), owner.Client); err != nil {
			return err
		}
	}
	if owner.Application != "" {
		if err := f.a.Choose(dropdown("Application", dropApplication), owner.Application); err != nil {
			return err
		}
	}
	if c.Market != "" {
		if err := f.a.Choose(dropdown("Market", dropMarket), c.Market); err != nil {
			return err
		}
	}
	if err := f.a.Fill(testID(tidReference), c.Reference, "Coverage Reference"); err != nil {
		return err
	}
	if !c.EffectiveDate.IsZero() {
		if err := f.a.FillDate(ui.Sel(selEffectiveDate), c.EffectiveDate, "Effective Date"); err != nil {
			return err
		}
	}
	if c.CacheDBLookup {
		if err := f.a.Check(testID(tidCacheLookup), "Enable Cache DB Lookup"); err != nil {
			return err
		}
		if err := f.d.Confirm(cacheConfirmText); err != nil {
			return err
		}
	}
	return nil
}

// Submit saves the form.
func (f *CoverageForm) Submit() error {
	return f.a.Click(testID(tidSubmit), "Save Coverage button")
}

// Create saves c and continues to the supplier mapping.
func (f *CoverageForm) Create(owner CoverageTarget, c fixtures.Coverage) error {
	if err := f.Fill(owner, c); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	return f.d.Succeeded(coverageLabel, CoverageCreated, coverageLabel)
}

// SubmitInvalid saves c expecting the field error message on the page.
func (f *CoverageForm) SubmitInvalid(owner CoverageTarget, c fixtures.Coverage, message string) error {
	if err := f.Fill(owner, c); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	return f.d.ExpectPageText(message)
}

// SubmitDuplicate saves c expecting the duplicate Problem popup.
func (f *CoverageForm) SubmitDuplicate(owner CoverageTarget, c fixtures.Coverage) error {
	if err := f.Fill(owner, c); err != nil {
		return err
	}
	if err := f.Submit(); err != nil {
		return err
	}
	if err := f.d.ExpectProblem(MsgDuplicate); err != nil {
		return err
	}
	return f.d.Dismiss("Exit")
}
