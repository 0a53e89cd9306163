package admin

import (
	"path/filepath"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/ui"
)

const (
	PasswordTitle     = "Password Generation"
	PasswordGenerated = "Password Generated Successfully"
)

// Credentials is the request typed into the Password Generation form.
type Credentials struct {
	Client      string
	Application string
	Username    string
	Remarks     string
}

// PasswordGeneration issues application credentials; the portal hands them
// out as a file download.
type PasswordGeneration struct {
	a *ui.Actor
	d *Dialogs
}

func NewPasswordGeneration(a *ui.Actor) *PasswordGeneration {
	return &PasswordGeneration{a: a, d: NewDialogs(a)}
}

// Fill searches the client by name, then picks the application and types the
// username and remarks.
func (p *PasswordGeneration) Fill(c Credentials) error {
	if err := p.a.SearchAndChoose(dropdown("Client", dropClient), c.Client, c.Client); err != nil {
		return err
	}
	if err := p.a.Choose(dropdown("Application", dropApplication), c.Application); err != nil {
		return err
	}
	if err := p.a.Fill(testID(tidUsername), c.Username, "Username"); err != nil {
		return err
	}
	return p.a.Fill(testID(tidRemarks), c.Remarks, "Remarks")
}

// Generate submits the form, saves the credentials download into dir and
// returns its path once the success modal shows. The modal is left open.
func (p *PasswordGeneration) Generate(dir string) (string, error) {
	page := p.a.Page()
	download, err := page.ExpectDownload(func() error {
		return p.a.Click(testID(tidSubmit), "Generate Password button")
	}, playwright.PageExpectDownloadOptions{
		Timeout: playwright.Float(float64(p.a.Timeouts().Navigation.Milliseconds())),
	})
	if err != nil {
		return "", errs.FromPlaywright(errs.Assertion, "credentials download did not start", err)
	}
	path := filepath.Join(dir, download.SuggestedFilename())
	if err := download.SaveAs(path); err != nil {
		return "", errs.FromPlaywright(errs.Internal, "save credentials download", err)
	}
	if err := p.d.ExpectModalText(PasswordGenerated); err != nil {
		return path, err
	}
	return path, nil
}

// GenerateAndContinue is Generate followed by Continue on the modal.
func (p *PasswordGeneration) GenerateAndContinue(dir string) (string, error) {
	path, err := p.Generate(dir)
	if err != nil {
		return path, err
	}
	return path, p.d.Continue(PasswordTitle)
}
