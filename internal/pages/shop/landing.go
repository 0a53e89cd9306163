// Package shop holds the page objects of the automationexercise.com demo
// store: sign-up, registration, account confirmation, login and the header.
package shop

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/ui"
	"github.com/oloid-qa/e2e/internal/urlutil"
)

const signupLoginLink = "Signup / Login"

func role(page playwright.Page, r *playwright.AriaRole, name string, exact bool) ui.Target {
	return ui.Loc(page.GetByRole(*r, playwright.PageGetByRoleOptions{
		Name:  name,
		Exact: playwright.Bool(exact),
	}))
}

// signupForm is the form holding the Signup button, as opposed to the login
// form beside it.
func signupForm(page playwright.Page) playwright.Locator {
	return page.Locator("form").Filter(playwright.LocatorFilterOptions{HasText: "Signup"})
}

// LandingPage is the store front and its Signup / Login entry.
type LandingPage struct {
	a       *ui.Actor
	baseURL string
}

func NewLandingPage(a *ui.Actor, baseURL string) *LandingPage {
	return &LandingPage{a: a, baseURL: baseURL}
}

// GoTo opens the store front.
func (p *LandingPage) GoTo() error {
	return p.a.Goto(urlutil.Join(p.baseURL, "/"), nil)
}

// PerformSignup follows Signup / Login and starts a sign-up for name and email.
func (p *LandingPage) PerformSignup(name, email string) error {
	page := p.a.Page()
	if err := p.a.Click(role(page, playwright.AriaRoleLink, signupLoginLink, false), "Signup / Login link"); err != nil {
		return err
	}
	return startSignup(p.a, name, email)
}

func startSignup(a *ui.Actor, name, email string) error {
	page := a.Page()
	if err := a.Fill(role(page, playwright.AriaRoleTextbox, "Name", true), name, "Name"); err != nil {
		return err
	}
	if err := a.Fill(ui.Loc(signupForm(page).GetByPlaceholder("Email Address")), email, "signup Email Address"); err != nil {
		return err
	}
	return a.Click(role(page, playwright.AriaRoleButton, "Signup", true), "Signup button")
}

// SignupPage is the New User Signup form reached from the store front.
type SignupPage struct {
	a       *ui.Actor
	baseURL string
}

func NewSignupPage(a *ui.Actor, baseURL string) *SignupPage {
	return &SignupPage{a: a, baseURL: baseURL}
}

// NavigateToPage opens the store and follows Signup / Login.
func (p *SignupPage) NavigateToPage() error {
	if err := p.a.Goto(urlutil.Join(p.baseURL, "/"), nil); err != nil {
		return err
	}
	return p.a.Click(role(p.a.Page(), playwright.AriaRoleLink, signupLoginLink, false), "Signup / Login link")
}

// EnterSignUpDetails submits the sign-up form.
func (p *SignupPage) EnterSignUpDetails(name, email string) error {
	return startSignup(p.a, name, email)
}
