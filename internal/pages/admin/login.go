package admin

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/oloid-qa/e2e/internal/errs"
	"github.com/oloid-qa/e2e/internal/ui"
)

var loginURLPattern = regexp.MustCompile(`.*login`)

// LoginPage is the portal sign-in form and the account menu that signs out.
type LoginPage struct {
	a   *ui.Actor
	url string
}

// NewLoginPage binds the login page at loginURL to a.
func NewLoginPage(a *ui.Actor, loginURL string) *LoginPage {
	return &LoginPage{a: a, url: loginURL}
}

// Open navigates to the login page and waits for the username field.
func (p *LoginPage) Open() error {
	if err := p.a.Goto(p.url, nil); err != nil {
		return err
	}
	return p.a.ExpectVisible(testID(tidUsername), "Username field")
}

// Login fills the credentials and submits without waiting for the outcome.
func (p *LoginPage) Login(username, password string) error {
	if err := p.a.Fill(testID(tidUsername), username, "Username field"); err != nil {
		return err
	}
	if err := p.a.Fill(testID(tidPassword), password, "Password field"); err != nil {
		return err
	}
	return p.a.Click(testID(tidLoginButton), "Login button")
}

// LoginAndWait signs in and waits for the portal shell.
func (p *LoginPage) LoginAndWait(username, password string) error {
	if err := p.Login(username, password); err != nil {
		return err
	}
	return p.a.ExpectText(ui.Sel(selRoot), Brand, "portal shell")
}

// SignIn opens the login page at loginURL and signs in.
func SignIn(a *ui.Actor, loginURL, username, password string) error {
	lp := NewLoginPage(a, loginURL)
	if err := lp.Open(); err != nil {
		return err
	}
	return lp.LoginAndWait(username, password)
}

// ExpectUnauthorized asserts the rejection message and that the browser
// stayed on the login page.
func (p *LoginPage) ExpectUnauthorized() error {
	if err := p.a.ExpectText(testID(tidLoginError), MsgUnauthorized, "login error"); err != nil {
		return err
	}
	return p.a.ExpectURL(loginURLPattern)
}

func (p *LoginPage) accountMenu(username string) playwright.Locator {
	return p.a.Page().GetByRole(*playwright.AriaRoleListitem).Filter(playwright.LocatorFilterOptions{
		HasText: "Welcome , " + username + "Logout",
	})
}

// OpenAccountMenu opens the header dropdown of the signed-in user.
func (p *LoginPage) OpenAccountMenu(username string) error {
	menu := p.accountMenu(username)
	return p.a.Click(ui.Loc(menu.GetByRole(*playwright.AriaRoleButton)), "account menu")
}

// ExpectWelcome opens the account menu and checks its greeting.
func (p *LoginPage) ExpectWelcome(username string) error {
	if err := p.OpenAccountMenu(username); err != nil {
		return err
	}
	heading := p.accountMenu(username).GetByRole(*playwright.AriaRoleHeading)
	return p.a.ExpectText(ui.Loc(heading), "Welcome , "+username, "welcome heading")
}

// Logout signs out through the account menu and waits for the login heading.
func (p *LoginPage) Logout(username string) error {
	page := p.a.Page()
	logout := link(page, "Logout")
	if !p.a.Visible(logout) {
		if err := p.OpenAccountMenu(username); err != nil {
			return err
		}
	}
	if err := p.a.Click(logout, "Logout link"); err != nil {
		return err
	}
	heading := page.GetByRole(*playwright.AriaRoleHeading, playwright.PageGetByRoleOptions{Name: "Login"})
	return p.a.ExpectVisible(ui.Loc(heading), "login heading")
}

// ExpectLoadTimeout holds every request to the login page for delay and
// asserts that navigating there gives up after timeout.
func (p *LoginPage) ExpectLoadTimeout(delay, timeout time.Duration) error {
	page := p.a.Page()
	done := make(chan struct{})
	defer close(done)

	handler := func(route playwright.Route) {
		go func() {
			select {
			case <-time.After(delay):
			case <-done:
			}
			_ = route.Continue()
		}()
	}
	if err := page.Route("**/login", handler); err != nil {
		return errs.FromPlaywright(errs.Internal, "route login page", err)
	}
	defer func() { _ = page.Unroute("**/login", handler) }()

	_, err := page.Goto(p.url, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	switch {
	case err == nil:
		return errs.New(errs.Assertion, fmt.Sprintf("login page loaded although it was held for %s", delay))
	case !errors.Is(err, playwright.ErrTimeout):
		return errs.Wrap(errs.Assertion, "expected a navigation timeout", err)
	}
	return nil
}
