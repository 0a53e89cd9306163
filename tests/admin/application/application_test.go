package application_test

import (
	"testing"
	"time"

	"github.com/oloid-qa/e2e/internal/fixtures"
	"github.com/oloid-qa/e2e/internal/pages/admin"
	"github.com/oloid-qa/e2e/internal/suite"
	"github.com/oloid-qa/e2e/internal/testsite"
)

// Seeded on the portal: a client every account can see and one of its
// applications.
const (
	existingClient      = testsite.SeedClient
	existingApplication = testsite.SeedApplication
)

func effectiveDate() time.Time {
	return time.Date(time.Now().Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// openForm signs in and opens a blank Create Application form.
func openForm(sc *suite.Scope) (*admin.ApplicationForm, error) {
	if err := admin.SignIn(sc.Actor, sc.AdminURL("/login"), sc.Config.AdminUsername, sc.Config.AdminPassword); err != nil {
		return nil, err
	}
	portal := admin.NewPortal(sc.Actor)
	if err := portal.Open(admin.SectionApplication); err != nil {
		return nil, err
	}
	if err := portal.AddNew(admin.ApplicationFormTitle); err != nil {
		return nil, err
	}
	return admin.NewApplicationForm(sc.Actor), nil
}

func rejectedApplication(app fixtures.Application, message string) suite.Scenario {
	return func(sc *suite.Scope) error {
		form, err := openForm(sc)
		if err != nil {
			return err
		}
		return form.SubmitRejected(app, message)
	}
}

func TestApplicationValidation(t *testing.T) {
	suite.Run(t, "full happy path creates an application", func(sc *suite.Scope) error {
		data := fixtures.NewAdminRun("app", time.Now())
		j := admin.NewJourney(sc.Actor, sc.AdminURL("/login"), sc.Config.AdminUsername, sc.Config.AdminPassword, data)
		_, err := j.Run(admin.StageApplication)
		return err
	})

	suite.Run(t, "duplicate application name shows error popup", rejectedApplication(fixtures.Application{
		ClientName:    existingClient,
		Username:      fixtures.UniqueID("dup_user"),
		Name:          existingApplication,
		EffectiveDate: effectiveDate(),
	}, admin.MsgDuplicate))

	suite.Run(t, "username with hyphen triggers alphanumeric error", rejectedApplication(fixtures.Application{
		ClientName:    existingClient,
		Username:      "auto-app-username",
		Name:          fixtures.UniqueID("App"),
		EffectiveDate: effectiveDate(),
	}, admin.MsgUnsupportedChars))

	suite.Run(t, "username with special character triggers alphanumeric error", rejectedApplication(fixtures.Application{
		ClientName:    existingClient,
		Username:      "auto@app#user",
		Name:          fixtures.UniqueID("App"),
		EffectiveDate: effectiveDate(),
	}, admin.MsgUnsupportedChars))

	suite.Run(t, "application name with space triggers alphanumeric error", rejectedApplication(fixtures.Application{
		ClientName:    existingClient,
		Username:      fixtures.UniqueID("autoUsername"),
		Name:          "Invalid App",
		EffectiveDate: effectiveDate(),
	}, admin.MsgUnsupportedChars))

	suite.Run(t, "application name with dash triggers alphanumeric error", rejectedApplication(fixtures.Application{
		ClientName:    existingClient,
		Username:      fixtures.UniqueID("autoUsername"),
		Name:          "Invalid-App",
		EffectiveDate: effectiveDate(),
	}, admin.MsgUnsupportedChars))
}
