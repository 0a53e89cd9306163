package shop

import (
	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/ui"
	"github.com/oloid-qa/e2e/internal/urlutil"
)

const (
	MsgAccountCreated = "Account Created!"
	MsgAccountDeleted = "Account Deleted!"
	MsgLoginIncorrect = "Your email or password is incorrect!"
	MsgEmailExists    = "Email Address already exist!"
)

// UserAccountPage is the confirmation shown once an account is created.
type UserAccountPage struct {
	a *ui.Actor
}

func NewUserAccountPage(a *ui.Actor) *UserAccountPage {
	return &UserAccountPage{a: a}
}

// VerifyAccountCreation checks the confirmation and continues to the store.
func (p *UserAccountPage) VerifyAccountCreation() error {
	page := p.a.Page()
	if err := p.a.ExpectText(ui.Sel("b"), MsgAccountCreated, "account created banner"); err != nil {
		return err
	}
	cont := role(page, playwright.AriaRoleLink, "Continue", false)
	if err := p.a.ExpectVisible(cont, "Continue link"); err != nil {
		return err
	}
	if err := p.a.ExpectVisible(ui.Sel(".col-sm-4"), "confirmation panel"); err != nil {
		return err
	}
	return p.a.Click(cont, "Continue link")
}

// HomePage is the store header once signed in.
type HomePage struct {
	a *ui.Actor
}

func NewHomePage(a *ui.Actor) *HomePage {
	return &HomePage{a: a}
}

// VerifyLoggedInAs checks the header greets name.
func (p *HomePage) VerifyLoggedInAs(name string) error {
	return p.a.ExpectText(ui.Sel("#header"), "Logged in as "+name, "header")
}

// Logout signs out and waits for the login form.
func (p *HomePage) Logout() error {
	if err := p.a.Click(role(p.a.Page(), playwright.AriaRoleLink, "Logout", true), "Logout link"); err != nil {
		return err
	}
	return p.a.ExpectVisible(ui.Sel(".login-form"), "login form")
}

// DeleteAccount removes the signed-in account and continues to the store.
func (p *HomePage) DeleteAccount() error {
	page := p.a.Page()
	if err := p.a.Click(role(page, playwright.AriaRoleLink, "Delete Account", true), "Delete Account link"); err != nil {
		return err
	}
	if err := p.a.ExpectText(ui.Sel("b"), MsgAccountDeleted, "account deleted banner"); err != nil {
		return err
	}
	return p.a.Click(role(page, playwright.AriaRoleLink, "Continue", false), "Continue link")
}

// LoginPage is the Login to your account form.
type LoginPage struct {
	a       *ui.Actor
	baseURL string
}

func NewLoginPage(a *ui.Actor, baseURL string) *LoginPage {
	return &LoginPage{a: a, baseURL: baseURL}
}

// Open navigates straight to the login page.
func (p *LoginPage) Open() error {
	if err := p.a.Goto(urlutil.Join(p.baseURL, "/login"), nil); err != nil {
		return err
	}
	return p.a.ExpectVisible(ui.Sel(".login-form"), "login form")
}

// Login submits email and password.
func (p *LoginPage) Login(email, password string) error {
	form := p.a.Page().Locator(".login-form")
	if err := p.a.Fill(ui.Loc(form.GetByPlaceholder("Email Address")), email, "login Email Address"); err != nil {
		return err
	}
	if err := p.a.Fill(ui.Loc(form.GetByPlaceholder("Password")), password, "login Password"); err != nil {
		return err
	}
	return p.a.Click(role(p.a.Page(), playwright.AriaRoleButton, "Login", true), "Login button")
}

// ExpectLoginError asserts the login form rejected the credentials.
func (p *LoginPage) ExpectLoginError() error {
	return p.a.ExpectText(ui.Sel(".login-form"), MsgLoginIncorrect, "login error")
}

// ExpectSignupError asserts the sign-up form rejected an existing email.
func (p *LoginPage) ExpectSignupError() error {
	return p.a.ExpectText(ui.Loc(signupForm(p.a.Page())), MsgEmailExists, "signup error")
}

// StartSignup submits the sign-up form on this page.
func (p *LoginPage) StartSignup(name, email string) error {
	return startSignup(p.a, name, email)
}
