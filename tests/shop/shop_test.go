package shop_test

import (
	"testing"

	"github.com/oloid-qa/e2e/internal/config"
	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/pages/shop"
	"github.com/oloid-qa/e2e/internal/suite"
)

// registrations reads the data file once to name the subtests. Scenarios
// reload it per attempt so that every attempt signs up a fresh address.
func registrations(t *testing.T) []fixtures.Registration {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	recs, err := fixtures.LoadRegistrations(cfg.TestDataFile)
	if err != nil {
		t.Fatalf("load registrations: %v", err)
	}
	return recs
}

func freshRecord(sc *suite.Scope, i int) (fixtures.Registration, error) {
	recs, err := fixtures.LoadRegistrations(sc.Config.TestDataFile)
	if err != nil {
		return fixtures.Registration{}, err
	}
	if i >= len(recs) {
		return fixtures.Registration{}, sc.Fail("registration %d missing from %s", i, sc.Config.TestDataFile)
	}
	return recs[i], nil
}

func TestUserRegistration(t *testing.T) {
	for i, rec := range registrations(t) {
		suite.Run(t, "sign up and register "+rec.Name, func(sc *suite.Scope) error {
			rec, err := freshRecord(sc, i)
			if err != nil {
				return err
			}
			landing := shop.NewLandingPage(sc.Actor, sc.ShopURL())
			if err := landing.GoTo(); err != nil {
				return err
			}
			if err := landing.PerformSignup(rec.Name, rec.Email); err != nil {
				return err
			}
			if err := shop.NewRegistrationPage(sc.Actor).FillRegistrationDetails(rec); err != nil {
				return err
			}
			if err := shop.NewUserAccountPage(sc.Actor).VerifyAccountCreation(); err != nil {
				return err
			}
			home := shop.NewHomePage(sc.Actor)
			if err := home.VerifyLoggedInAs(rec.Name); err != nil {
				return err
			}
			return home.DeleteAccount()
		})
	}
}

func TestSignup(t *testing.T) {
	suite.Run(t, "existing email is rejected", func(sc *suite.Scope) error {
		name := "dias"
		email := fixtures.UniqueEmail(name)
		if err := register(sc, name, email, "Qa@67890"); err != nil {
			return err
		}
		home := shop.NewHomePage(sc.Actor)
		if err := home.Logout(); err != nil {
			return err
		}

		signup := shop.NewSignupPage(sc.Actor, sc.ShopURL())
		if err := signup.NavigateToPage(); err != nil {
			return err
		}
		if err := signup.EnterSignUpDetails(name, email); err != nil {
			return err
		}
		if err := shop.NewLoginPage(sc.Actor, sc.ShopURL()).ExpectSignupError(); err != nil {
			return err
		}
		return cleanup(sc, email, "Qa@67890")
	})
}

func TestLogin(t *testing.T) {
	suite.Run(t, "registered account signs in and out", func(sc *suite.Scope) error {
		name := "shammika"
		email := fixtures.UniqueEmail(name)
		if err := register(sc, name, email, "Qa@12345"); err != nil {
			return err
		}
		home := shop.NewHomePage(sc.Actor)
		if err := home.Logout(); err != nil {
			return err
		}

		login := shop.NewLoginPage(sc.Actor, sc.ShopURL())
		if err := login.Login(email, "Qa@12345"); err != nil {
			return err
		}
		if err := home.VerifyLoggedInAs(name); err != nil {
			return err
		}
		return home.DeleteAccount()
	})

	suite.Run(t, "unknown account is rejected", func(sc *suite.Scope) error {
		login := shop.NewLoginPage(sc.Actor, sc.ShopURL())
		if err := login.Open(); err != nil {
			return err
		}
		if err := login.Login(fixtures.UniqueEmail("nobody"), "Wrong@123"); err != nil {
			return err
		}
		return login.ExpectLoginError()
	})
}

// register signs up a throwaway account with the first checked-in record's
// address details and leaves it signed in.
func register(sc *suite.Scope, name, email, password string) error {
	rec, err := freshRecord(sc, 0)
	if err != nil {
		return err
	}
	rec.Name, rec.Email, rec.Password = name, email, password

	login := shop.NewLoginPage(sc.Actor, sc.ShopURL())
	if err := login.Open(); err != nil {
		return err
	}
	if err := login.StartSignup(name, email); err != nil {
		return err
	}
	if err := shop.NewRegistrationPage(sc.Actor).FillRegistrationDetails(rec); err != nil {
		return err
	}
	return shop.NewUserAccountPage(sc.Actor).VerifyAccountCreation()
}

func cleanup(sc *suite.Scope, email, password string) error {
	login := shop.NewLoginPage(sc.Actor, sc.ShopURL())
	if err := login.Open(); err != nil {
		return err
	}
	if err := login.Login(email, password); err != nil {
		return err
	}
	return shop.NewHomePage(sc.Actor).DeleteAccount()
}
